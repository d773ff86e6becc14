package datasource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agri-forecast-service/config"
	"agri-forecast-service/internal/numeric"
	"agri-forecast-service/models"
)

// TestSynthesizerBounds tests that generated values stay within their distributions
func TestSynthesizerBounds(t *testing.T) {
	cfg := config.Default().Fallback
	synth := NewSynthesizer(cfg, nil)
	end := time.Date(2024, 7, 14, 18, 0, 0, 0, time.UTC)

	series := synth.Generate(models.GeoPoint{Latitude: 40, Longitude: -100}, 365, end)
	require.Len(t, series, 365)
	assert.Equal(t, time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC), series[364].Date)
	assert.Equal(t, time.Date(2023, 7, 16, 0, 0, 0, 0, time.UTC), series[0].Date)

	// Base for latitude 40 is 10°C with an 8°C annual swing and 2°C noise
	temps := models.Temperatures(series)
	for _, v := range temps {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 20.0)
	}
	assert.InDelta(t, 10, numeric.Mean(temps), 1.5)

	wet := 0
	for _, obs := range series {
		assert.GreaterOrEqual(t, obs.Precipitation, 0.0)
		assert.Less(t, obs.Precipitation, 20.0)
		assert.GreaterOrEqual(t, obs.Humidity, 50.0)
		assert.Less(t, obs.Humidity, 85.0)
		assert.GreaterOrEqual(t, obs.WindSpeed, 1.0)
		assert.Less(t, obs.WindSpeed, 6.0)
		assert.GreaterOrEqual(t, obs.SolarRadiation, 12.0)
		assert.Less(t, obs.SolarRadiation, 22.0)
		assert.InDelta(t, 100, obs.Pressure, 1.5)
		if obs.Precipitation > 0 {
			wet++
		}
	}
	// Rain on roughly a quarter of days
	assert.Greater(t, wet, 40)
	assert.Less(t, wet, 140)
}

// TestSynthesizerDeterministic tests generation with a fixed random source
func TestSynthesizerDeterministic(t *testing.T) {
	cfg := config.Default().Fallback
	synth := NewSynthesizer(cfg, func() float64 { return 0.5 })
	end := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	series := synth.Generate(models.GeoPoint{Latitude: 0, Longitude: 0}, 3, end)
	require.Len(t, series, 3)
	for _, obs := range series {
		// 0.5 is above the rain chance, so every day is dry and noise is zero
		assert.Equal(t, 0.0, obs.Precipitation)
		assert.Equal(t, 67.5, obs.Humidity)
		assert.Equal(t, 3.5, obs.WindSpeed)
		assert.Equal(t, 100.0, obs.Pressure)
		assert.Greater(t, obs.Temperature, 30.0)
	}

	assert.Empty(t, synth.Generate(models.GeoPoint{}, 0, end))
}
