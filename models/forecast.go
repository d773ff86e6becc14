package models

import (
	"time"
)

// TemperatureRange is the forecast temperature band for a day, in Celsius
type TemperatureRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// PrecipitationForecast is the expected rain for a day
type PrecipitationForecast struct {
	ProbabilityPercent float64 `json:"probability"` // 0-100
	AmountMm           float64 `json:"amount"`      // in mm, never negative
}

// WeatherForecastDay represents the forecast for a single future day
type WeatherForecastDay struct {
	Date              time.Time             `json:"date"`
	Temperature       TemperatureRange      `json:"temperature"`
	Precipitation     PrecipitationForecast `json:"precipitation"`
	HumidityPercent   float64               `json:"humidity"`   // 20-100
	WindSpeed         float64               `json:"windSpeed"`  // in m/s, 0-20
	ConfidencePercent float64               `json:"confidence"` // floor 60
}
