package datasource

import (
	"math"
	"math/rand"
	"time"

	"agri-forecast-service/config"
	"agri-forecast-service/models"
)

// Synthesizer generates a plausible daily series when no upstream data is
// available. The distributions are fixed; the values are random.
type Synthesizer struct {
	cfg  config.FallbackConfig
	rand func() float64
}

// NewSynthesizer creates a generator. rnd must return values in [0, 1); nil
// selects the goroutine-safe global source.
func NewSynthesizer(cfg config.FallbackConfig, rnd func() float64) *Synthesizer {
	if rnd == nil {
		rnd = rand.Float64
	}
	return &Synthesizer{cfg: cfg, rand: rnd}
}

// Generate returns days observations ending on end, in chronological order
func (s *Synthesizer) Generate(point models.GeoPoint, days int, end time.Time) []models.DailyObservation {
	if days <= 0 {
		return nil
	}

	end = truncateDay(end)
	base := s.cfg.BaseTempC - math.Abs(point.Latitude)*s.cfg.LatitudeFactor
	series := make([]models.DailyObservation, 0, days)

	for i := 0; i < days; i++ {
		date := end.AddDate(0, 0, -(days - 1 - i))
		annual := s.cfg.AnnualAmplitude * math.Sin(2*math.Pi*float64(date.YearDay())/365)

		precipitation := 0.0
		if s.rand() < s.cfg.RainChance {
			precipitation = s.rand() * s.cfg.MaxRainMm
		}

		series = append(series, models.DailyObservation{
			Date:           date,
			Temperature:    base + annual + s.spread(s.cfg.NoiseC),
			Precipitation:  precipitation,
			Humidity:       s.between(s.cfg.HumidityMin, s.cfg.HumidityMax),
			WindSpeed:      s.between(s.cfg.WindMin, s.cfg.WindMax),
			SolarRadiation: s.between(s.cfg.SolarMin, s.cfg.SolarMax),
			Pressure:       s.cfg.PressureMean + s.spread(s.cfg.PressureSpread),
		})
	}

	return series
}

// between draws uniformly from [lo, hi)
func (s *Synthesizer) between(lo, hi float64) float64 {
	return lo + s.rand()*(hi-lo)
}

// spread draws uniformly from [-width, width)
func (s *Synthesizer) spread(width float64) float64 {
	return (s.rand()*2 - 1) * width
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
