package agronomy

import (
	"fmt"

	"agri-forecast-service/models"
)

// CropRecommendations builds the advisory messages for a crop. Each rule adds
// at most one message, in a fixed order: fertilization, irrigation, heat,
// inspection.
func (m *Model) CropRecommendations(params models.CropParameters, currentNDVI float64, healthScore int, agg ForecastAggregate) []string {
	t := m.cfg.Recommendations
	recommendations := []string{}

	if deficit := params.OptimalNDVI - currentNDVI; deficit > t.NDVIDeficit {
		recommendations = append(recommendations,
			fmt.Sprintf("Apply nitrogen-rich fertilizer: vegetation vigor is %.0f%% below the optimal NDVI of %.2f.",
				deficit/params.OptimalNDVI*100, params.OptimalNDVI))
	}

	if agg.TotalPrecip < t.IrrigationMm {
		recommendations = append(recommendations,
			fmt.Sprintf("Schedule irrigation: only %.1f mm of rain is expected over the next %d days.",
				agg.TotalPrecip, agg.Days))
	}

	if agg.MeanTemp > t.HeatTempC {
		recommendations = append(recommendations,
			fmt.Sprintf("Mitigate heat stress with mulching, shade netting or early-morning irrigation: average temperature is forecast at %.1f°C.",
				agg.MeanTemp))
	}

	if float64(healthScore) < t.InspectionHealth {
		recommendations = append(recommendations,
			fmt.Sprintf("Inspect fields for pests and disease: crop health score is %d/100.", healthScore))
	}

	return recommendations
}

func livestockRecommendations(p models.LivestockRiskPrediction, elevated, meanTemp float64) []string {
	recommendations := []string{}

	if p.HeatStressRisk > elevated {
		recommendations = append(recommendations,
			fmt.Sprintf("Provide shade, ventilation and extra drinking water: average temperature is forecast at %.1f°C.", meanTemp))
	}
	if p.DiseaseRisk > elevated {
		recommendations = append(recommendations, "Increase health checks and isolate animals showing symptoms.")
	}
	if p.WaterStressRisk > elevated {
		recommendations = append(recommendations, "Check water supply capacity and add troughs where needed.")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Continue routine monitoring of feed, water and animal behaviour.")
	}

	return recommendations
}
