package datasource

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"

	"agri-forecast-service/cache"
	"agri-forecast-service/config"
	"agri-forecast-service/models"
)

// Source tells where a FetchResult series came from
type Source string

const (
	SourceUpstream  Source = "upstream"
	SourceCache     Source = "cache"
	SourceSynthetic Source = "synthetic"
)

// FetchResult is the outcome of a history fetch. Reason is set only when the
// series is synthetic and explains why the upstream attempt was abandoned.
type FetchResult struct {
	Series []models.DailyObservation
	Source Source
	Reason error
}

// FellBack reports whether the series came from the synthetic generator
func (r FetchResult) FellBack() bool {
	return r.Source == SourceSynthetic
}

// FetchObserver is notified of every completed fetch, e.g. to export metrics
type FetchObserver interface {
	HistoryFetched(source Source, failureKind string)
}

// HistoryCache is the cache type used by Store
type HistoryCache = cache.TTLCache[[]models.DailyObservation]

// Store acquires validated daily history for a point. It never fails: any
// upstream problem is downgraded to a synthetic series.
type Store struct {
	provider HistoryProvider
	cache    *HistoryCache
	synth    *Synthesizer
	cfg      config.HistoryConfig
	now      func() time.Time
	logger   *zap.Logger
	observer FetchObserver
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithStoreLogger sets the store logger
func WithStoreLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithStoreClock replaces time.Now when computing the request window
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithFetchObserver registers an observer for fetch outcomes
func WithFetchObserver(observer FetchObserver) StoreOption {
	return func(s *Store) { s.observer = observer }
}

// NewStore creates a store. provider may be nil, in which case every fetch
// uses the synthetic generator.
func NewStore(provider HistoryProvider, c *HistoryCache, synth *Synthesizer, cfg config.HistoryConfig, opts ...StoreOption) *Store {
	s := &Store{
		provider: provider,
		cache:    c,
		synth:    synth,
		cfg:      cfg,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheKey builds the cache key for a point, rounded to 3 decimal places
func CacheKey(point models.GeoPoint, lookbackDays int) string {
	return fmt.Sprintf("history:%.3f,%.3f:%d", point.Latitude, point.Longitude, lookbackDays)
}

// Fetch returns lookbackDays of daily history for point. A non-positive
// lookbackDays selects the configured default. The returned series is a copy
// and may be modified by the caller.
func (s *Store) Fetch(ctx context.Context, point models.GeoPoint, lookbackDays int) FetchResult {
	if lookbackDays <= 0 {
		lookbackDays = s.cfg.LookbackDays
	}

	key := CacheKey(point, lookbackDays)
	if series, ok := s.cache.Get(key); ok {
		s.observe(SourceCache, nil)
		return FetchResult{Series: slices.Clone(series), Source: SourceCache}
	}

	end := truncateDay(s.now()).AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -(lookbackDays - 1))

	series, err := s.fetchUpstream(ctx, HistoryRequest{Point: point, Start: start, End: end})
	if err == nil {
		s.cache.Put(key, series)
		s.observe(SourceUpstream, nil)
		s.logger.Info("Fetched historical data",
			zap.String("key", key),
			zap.Int("points", len(series)))
		return FetchResult{Series: slices.Clone(series), Source: SourceUpstream}
	}

	s.logger.Warn("Historical data unavailable, using synthetic series",
		zap.String("key", key),
		zap.String("reason", FailureKind(err)),
		zap.Error(err))
	s.observe(SourceSynthetic, err)

	return FetchResult{
		Series: s.synth.Generate(point, lookbackDays, end),
		Source: SourceSynthetic,
		Reason: err,
	}
}

func (s *Store) fetchUpstream(ctx context.Context, req HistoryRequest) ([]models.DailyObservation, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("%w: upstream provider disabled", ErrTransport)
	}

	resp, err := s.provider.FetchHistory(ctx, req)
	if err != nil {
		return nil, err
	}
	return ParseHistory(resp, s.cfg)
}

func (s *Store) observe(source Source, err error) {
	if s.observer != nil {
		s.observer.HistoryFetched(source, FailureKind(err))
	}
}

// ParseHistory validates a provider response and maps it to a chronological
// series. Dates whose temperature is missing are dropped; other missing
// fields are replaced by the configured defaults.
func ParseHistory(resp *PowerResponse, cfg config.HistoryConfig) ([]models.DailyObservation, error) {
	if resp == nil || resp.Properties == nil || resp.Properties.Parameter == nil {
		return nil, fmt.Errorf("%w: missing properties.parameter", ErrSchema)
	}
	params := resp.Properties.Parameter

	temps, ok := params[ParamTemperature]
	if !ok || temps == nil {
		return nil, fmt.Errorf("%w: missing %s series", ErrSchema, ParamTemperature)
	}

	fill := cfg.FillValue
	if resp.Header != nil && resp.Header.FillValue != nil {
		fill = *resp.Header.FillValue
	}

	type datedKey struct {
		date time.Time
		key  string
	}
	keys := make([]datedKey, 0, len(temps))
	for key, v := range temps {
		if v == nil || isMissing(*v, fill) {
			continue
		}
		date, err := time.Parse(DateLayout, key)
		if err != nil {
			continue
		}
		keys = append(keys, datedKey{date: date, key: key})
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no valid %s values", ErrDataQuality, ParamTemperature)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].date.Before(keys[j].date) })

	d := cfg.Defaults
	series := make([]models.DailyObservation, 0, len(keys))
	sum := 0.0
	for _, k := range keys {
		obs := models.DailyObservation{
			Date:           k.date,
			Temperature:    fieldValue(params[ParamTemperature], k.key, fill, d.Temperature),
			Precipitation:  fieldValue(params[ParamPrecipitation], k.key, fill, d.Precipitation),
			Humidity:       fieldValue(params[ParamHumidity], k.key, fill, d.Humidity),
			WindSpeed:      fieldValue(params[ParamWindSpeed], k.key, fill, d.WindSpeed),
			SolarRadiation: fieldValue(params[ParamSolarRadiation], k.key, fill, d.SolarRadiation),
			Pressure:       fieldValue(params[ParamPressure], k.key, fill, d.Pressure),
		}
		sum += obs.Temperature
		series = append(series, obs)
	}

	mean := sum / float64(len(series))
	if mean < cfg.MinPlausibleTemp || mean > cfg.MaxPlausibleTemp {
		return nil, fmt.Errorf("%w: implausible mean temperature %.1f°C", ErrDataQuality, mean)
	}

	return series, nil
}

func fieldValue(values map[string]*float64, key string, fill, def float64) float64 {
	v, ok := values[key]
	if !ok || v == nil || isMissing(*v, fill) {
		return def
	}
	return *v
}

func isMissing(v, fill float64) bool {
	return v == fill || math.IsNaN(v) || math.IsInf(v, 0)
}
