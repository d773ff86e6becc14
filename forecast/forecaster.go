package forecast

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"agri-forecast-service/config"
	"agri-forecast-service/internal/numeric"
	"agri-forecast-service/models"
)

// ErrInsufficientHistory is returned when the series is too short to forecast from
var ErrInsufficientHistory = errors.New("insufficient history")

// TemperaturePoint is one extrapolated temperature with its uncertainty, in Celsius
type TemperaturePoint struct {
	Value       float64
	Uncertainty float64
}

// Forecaster extrapolates a short-term forecast from daily history using a
// linear trend plus the weekly seasonal offset. It is not an autoregressive
// model; the risk thresholds downstream are tuned against this output range.
type Forecaster struct {
	cfg  config.ForecastConfig
	rand func() float64
}

// NewForecaster creates a forecaster. rnd must return values in [0, 1); nil
// selects the goroutine-safe global source.
func NewForecaster(cfg config.ForecastConfig, rnd func() float64) *Forecaster {
	if rnd == nil {
		rnd = rand.Float64
	}
	return &Forecaster{cfg: cfg, rand: rnd}
}

// Forecast produces horizon days of weather following the last observation.
// A non-positive horizon selects the configured default.
func (f *Forecaster) Forecast(history []models.DailyObservation, horizon int) ([]models.WeatherForecastDay, error) {
	if len(history) < f.cfg.MinHistory {
		return nil, fmt.Errorf("%w: have %d valid points, need %d", ErrInsufficientHistory, len(history), f.cfg.MinHistory)
	}
	if horizon <= 0 {
		horizon = f.cfg.HorizonDays
	}

	temps := models.Temperatures(history)
	decomposition := Decompose(temps, f.cfg.Period)
	points := f.ForecastTemperature(temps, decomposition, horizon)
	lastDate := history[len(history)-1].Date

	days := make([]models.WeatherForecastDay, 0, horizon)
	for i, p := range points {
		precipitation := f.PredictPrecipitation(history, p.Value, i)
		humidity := f.PredictHumidity(history, p.Value, precipitation.AmountMm)

		days = append(days, models.WeatherForecastDay{
			Date: lastDate.AddDate(0, 0, i+1),
			Temperature: models.TemperatureRange{
				Min: numeric.Round(numeric.Clamp(p.Value-p.Uncertainty, f.cfg.TempMin, f.cfg.TempMax), 1),
				Max: numeric.Round(numeric.Clamp(p.Value+p.Uncertainty, f.cfg.TempMin, f.cfg.TempMax), 1),
				Avg: numeric.Round(p.Value, 1),
			},
			Precipitation: models.PrecipitationForecast{
				ProbabilityPercent: math.Round(precipitation.ProbabilityPercent),
				AmountMm:           numeric.Round(precipitation.AmountMm, 1),
			},
			HumidityPercent:   numeric.Round(humidity, 1),
			WindSpeed:         numeric.Round(f.PredictWind(history), 1),
			ConfidencePercent: f.Confidence(i),
		})
	}

	return days, nil
}

// ForecastTemperature projects the series horizon steps ahead. The slope is
// taken over the last TrendWindow trend points and the seasonal offset for
// each step continues the phase of the input.
func (f *Forecaster) ForecastTemperature(series []float64, d Decomposition, horizon int) []TemperaturePoint {
	n := len(series)
	if n == 0 || horizon <= 0 {
		return nil
	}

	window := numeric.Tail(d.Trend, f.cfg.TrendWindow)
	slope := 0.0
	if len(window) > 0 {
		slope = (window[len(window)-1] - window[0]) / float64(len(window))
	}
	last := series[n-1]

	points := make([]TemperaturePoint, 0, horizon)
	for step := 1; step <= horizon; step++ {
		seasonal := 0.0
		if d.Period > 0 && len(d.Seasonal) == d.Period {
			seasonal = d.Seasonal[(n+step-1)%d.Period]
		}
		value := last + slope*float64(step) + seasonal

		points = append(points, TemperaturePoint{
			Value:       numeric.Clamp(value, f.cfg.TempMin, f.cfg.TempMax),
			Uncertainty: math.Min(f.cfg.UncertaintyCap, f.cfg.UncertaintyBase+f.cfg.UncertaintyPerDay*float64(step)),
		})
	}
	return points
}

// PredictPrecipitation derives rain probability and amount for the day at
// dayIndex (0 is the first forecast day) from the recent wet-day frequency.
func (f *Forecaster) PredictPrecipitation(history []models.DailyObservation, temp float64, dayIndex int) models.PrecipitationForecast {
	window := numeric.Tail(history, f.cfg.PrecipWindow)
	if len(window) == 0 {
		return models.PrecipitationForecast{}
	}

	sum := 0.0
	wet := 0
	for _, obs := range window {
		sum += obs.Precipitation
		if obs.Precipitation > f.cfg.WetDayThresholdMm {
			wet++
		}
	}
	mean := sum / float64(len(window))
	base := float64(wet) / float64(len(window)) * 100

	multiplier := 1.0
	switch {
	case temp > f.cfg.WarmTempC:
		multiplier = f.cfg.WarmMultiplier
	case temp < f.cfg.CoolTempC:
		multiplier = f.cfg.CoolMultiplier
	}
	jitter := f.cfg.JitterMin + f.rand()*(f.cfg.JitterMax-f.cfg.JitterMin)

	probability := numeric.Clamp(base*multiplier*jitter, 0, 100)
	return models.PrecipitationForecast{
		ProbabilityPercent: probability,
		AmountMm:           f.precipitationAmount(mean, probability, dayIndex, jitter),
	}
}

// precipitationAmount scales the historical mean: wet days decay with the
// horizon, dry days get a fixed fraction.
func (f *Forecaster) precipitationAmount(mean, probability float64, dayIndex int, jitter float64) float64 {
	scale := f.cfg.DryScale
	if probability > f.cfg.ProbabilityThreshold {
		scale = f.cfg.WetScaleBase - float64(dayIndex)*f.cfg.WetScaleDecay
	}
	return math.Max(0, mean*scale*jitter)
}

// PredictHumidity adjusts the recent mean humidity for temperature and rain
func (f *Forecaster) PredictHumidity(history []models.DailyObservation, temp, precipitation float64) float64 {
	window := numeric.Tail(history, f.cfg.PrecipWindow)
	values := make([]float64, len(window))
	for i, obs := range window {
		values[i] = obs.Humidity
	}

	humidity := numeric.Mean(values) +
		(f.cfg.HumidityRefTempC-temp)*f.cfg.HumidityTempFactor +
		precipitation*f.cfg.HumidityPrecipFactor
	return numeric.Clamp(humidity, f.cfg.HumidityMin, f.cfg.HumidityMax)
}

// PredictWind perturbs the mean of the most recent plausible wind readings
// by a fraction of their standard deviation
func (f *Forecaster) PredictWind(history []models.DailyObservation) float64 {
	valid := make([]float64, 0, len(history))
	for _, obs := range history {
		if obs.WindSpeed >= 0 && obs.WindSpeed < f.cfg.WindValidMax {
			valid = append(valid, obs.WindSpeed)
		}
	}
	recent := numeric.Tail(valid, f.cfg.WindWindow)
	if len(recent) == 0 {
		return f.cfg.WindDefault
	}

	noise := (f.rand()*2 - 1) * f.cfg.WindNoiseFactor * math.Sqrt(numeric.Variance(recent))
	return numeric.Clamp(numeric.Mean(recent)+noise, 0, f.cfg.WindMax)
}

// Confidence returns the confidence percent for the day at dayIndex
func (f *Forecaster) Confidence(dayIndex int) float64 {
	return math.Max(f.cfg.ConfidenceFloor, f.cfg.ConfidenceStart-f.cfg.ConfidenceStep*float64(dayIndex))
}
