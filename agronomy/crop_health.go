package agronomy

import (
	"math"

	"go.uber.org/zap"

	"agri-forecast-service/internal/numeric"
	"agri-forecast-service/models"
)

// DailyStress holds the intermediate indices for one forecast day
type DailyStress struct {
	GDD         float64
	ET0         float64
	WaterStress float64
	HeatStress  float64
}

// ClampCurrentNDVI bounds an observed NDVI to the accepted input domain
func (m *Model) ClampCurrentNDVI(ndvi float64) float64 {
	return numeric.Clamp(ndvi, m.cfg.CurrentNDVIMin, m.cfg.CurrentNDVIMax)
}

// ReferenceET returns a simplified Hargreaves-style potential
// evapotranspiration in mm/day for a mean temperature
func ReferenceET(avgTemp float64) float64 {
	return math.Max(0, 0.0023*(avgTemp+17.8)*math.Sqrt(math.Abs(avgTemp+20)))
}

// Stress computes the growing-degree, water and heat indices of one day
func Stress(params models.CropParameters, day models.WeatherForecastDay) DailyStress {
	avg := day.Temperature.Avg
	et0 := ReferenceET(avg)

	var heat float64
	switch {
	case day.Temperature.Max >= params.MaxTempC:
		heat = 1
	case day.Temperature.Max > params.OptimalTempC:
		heat = (day.Temperature.Max - params.OptimalTempC) / (params.MaxTempC - params.OptimalTempC)
	}

	return DailyStress{
		GDD:         math.Max(0, avg-params.BaseTempC),
		ET0:         et0,
		WaterStress: numeric.Clamp01((et0 - day.Precipitation.AmountMm) / params.WaterNeedsMm),
		HeatStress:  heat,
	}
}

// PredictCropHealth rolls the NDVI forward through the forecast and scores
// the result. currentNDVI is clamped before use.
func (m *Model) PredictCropHealth(cropType string, currentNDVI float64, forecast []models.WeatherForecastDay) models.CropHealthPrediction {
	params, known := m.CropParameters(cropType)
	if !known {
		m.logger.Warn("Unknown crop type, using default crop parameters",
			zap.String("cropType", cropType),
			zap.String("defaultCrop", m.cfg.DefaultCrop))
	}

	current := m.ClampCurrentNDVI(currentNDVI)
	ndvi := current
	predicted := make([]float64, 0, len(forecast))
	for _, day := range forecast {
		s := Stress(params, day)
		change := (s.GDD/m.cfg.GDDScale)*m.cfg.GDDGain -
			s.WaterStress*m.cfg.WaterStressPenalty -
			s.HeatStress*m.cfg.HeatStressPenalty
		ndvi = numeric.Clamp(ndvi+change, m.cfg.PredictedNDVIMin, m.cfg.PredictedNDVIMax)
		predicted = append(predicted, numeric.Round(ndvi, 3))
	}

	meanNDVI := current
	if len(predicted) > 0 {
		meanNDVI = numeric.Mean(predicted)
	}
	healthScore := int(numeric.Clamp(math.Round(meanNDVI/params.OptimalNDVI*100), 0, 100))

	agg := Aggregate(forecast)
	return models.CropHealthPrediction{
		CropType:           normalizeCrop(cropType),
		CurrentNDVI:        current,
		PredictedNDVI:      predicted,
		HealthScore:        healthScore,
		RiskLevel:          m.CropRiskLevel(healthScore, agg.MeanTemp, agg.TotalPrecip),
		Recommendations:    m.CropRecommendations(params, current, healthScore, agg),
		DaysAhead:          len(forecast),
		ParametersFallback: !known,
	}
}

// ForecastAggregate summarises a forecast window
type ForecastAggregate struct {
	MeanTemp    float64
	TotalPrecip float64
	Days        int
}

// Aggregate computes the mean daily temperature and total precipitation
func Aggregate(forecast []models.WeatherForecastDay) ForecastAggregate {
	agg := ForecastAggregate{Days: len(forecast)}
	if len(forecast) == 0 {
		return agg
	}
	sum := 0.0
	for _, day := range forecast {
		sum += day.Temperature.Avg
		agg.TotalPrecip += day.Precipitation.AmountMm
	}
	agg.MeanTemp = sum / float64(len(forecast))
	return agg
}
