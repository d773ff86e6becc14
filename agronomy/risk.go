package agronomy

import (
	"math"

	"agri-forecast-service/models"
)

// CropRiskLevel classifies crop risk. The first matching level wins, in the
// order critical, high, medium, low, so the result depends only on the inputs.
func (m *Model) CropRiskLevel(healthScore int, meanTemp, totalPrecip float64) models.RiskLevel {
	r := m.cfg.Risk
	score := float64(healthScore)

	switch {
	case score < r.CriticalHealth || meanTemp > r.CriticalTempC || totalPrecip < r.CriticalPrecipMm:
		return models.RiskCritical
	case score < r.HighHealth || meanTemp > r.HighTempC || totalPrecip < r.HighPrecipMm:
		return models.RiskHigh
	case score < r.MediumHealth:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// PredictLivestockRisk estimates livestock risk over the forecast window.
// Only heat stress responds to the forecast; disease and water stress are
// fixed estimates from configuration until a dedicated model exists.
func (m *Model) PredictLivestockRisk(forecast []models.WeatherForecastDay) models.LivestockRiskPrediction {
	cfg := m.livestock
	agg := Aggregate(forecast)

	heat := cfg.HeatRiskLow
	if agg.MeanTemp > cfg.HeatTempThresholdC {
		heat = cfg.HeatRiskHigh
	}

	prediction := models.LivestockRiskPrediction{
		HeatStressRisk:  heat,
		DiseaseRisk:     cfg.DiseaseRisk,
		WaterStressRisk: cfg.WaterStressRisk,
	}

	worst := math.Max(heat, math.Max(cfg.DiseaseRisk, cfg.WaterStressRisk))
	prediction.AffectedAnimals = int(math.Round(float64(cfg.HerdSize) * worst / 100))
	prediction.Recommendations = livestockRecommendations(prediction, cfg.ElevatedRisk, agg.MeanTemp)
	return prediction
}

// ClimateRiskDetector finds climate hazards in a forecast
type ClimateRiskDetector interface {
	DetectClimateRisks(forecast []models.WeatherForecastDay) []models.ClimateRisk
}

// NoClimateRisks is the detector used until hazard detection is implemented.
// It always reports no risks.
type NoClimateRisks struct{}

// Ensure NoClimateRisks implements ClimateRiskDetector
var _ ClimateRiskDetector = NoClimateRisks{}

// DetectClimateRisks returns an empty list
func (NoClimateRisks) DetectClimateRisks([]models.WeatherForecastDay) []models.ClimateRisk {
	return []models.ClimateRisk{}
}
