package models

import (
	"time"
)

// GeoPoint is a location in decimal degrees
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies within the WGS84 coordinate ranges
func (p GeoPoint) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// DailyObservation represents one day of historical weather for a point
type DailyObservation struct {
	Date           time.Time `json:"date"`
	Temperature    float64   `json:"temperature"`    // in Celsius
	Precipitation  float64   `json:"precipitation"`  // in mm
	Humidity       float64   `json:"humidity"`       // percentage
	WindSpeed      float64   `json:"windSpeed"`      // in m/s
	SolarRadiation float64   `json:"solarRadiation"` // in MJ/m²/day
	Pressure       float64   `json:"pressure"`       // in kPa
}

// Temperatures extracts the temperature column of a series
func Temperatures(series []DailyObservation) []float64 {
	values := make([]float64, len(series))
	for i, obs := range series {
		values[i] = obs.Temperature
	}
	return values
}
