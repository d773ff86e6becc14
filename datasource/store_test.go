package datasource

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"agri-forecast-service/cache"
	"agri-forecast-service/config"
	"agri-forecast-service/models"
)

var testNow = time.Date(2024, 7, 15, 9, 30, 0, 0, time.UTC)

type recordingProvider struct {
	mu       sync.Mutex
	requests []HistoryRequest
	resp     *PowerResponse
	err      error
}

func (p *recordingProvider) Name() string {
	return "recording"
}

func (p *recordingProvider) FetchHistory(ctx context.Context, req HistoryRequest) (*PowerResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	return p.resp, p.err
}

type recordingFetchObserver struct {
	sources  []Source
	failures []string
}

func (o *recordingFetchObserver) HistoryFetched(source Source, failureKind string) {
	o.sources = append(o.sources, source)
	o.failures = append(o.failures, failureKind)
}

func ptr(v float64) *float64 {
	return &v
}

// buildResponse creates a response with days entries per parameter ending on
// end. temp and humidity map a day index to a value.
func buildResponse(days int, end time.Time, temp, humidity func(i int) float64) *PowerResponse {
	params := map[string]map[string]*float64{}
	for _, name := range powerParameters {
		params[name] = map[string]*float64{}
	}
	for i := 0; i < days; i++ {
		key := end.AddDate(0, 0, -(days - 1 - i)).Format(DateLayout)
		params[ParamTemperature][key] = ptr(temp(i))
		params[ParamPrecipitation][key] = ptr(1)
		params[ParamHumidity][key] = ptr(humidity(i))
		params[ParamWindSpeed][key] = ptr(3)
		params[ParamSolarRadiation][key] = ptr(18)
		params[ParamPressure][key] = ptr(100)
	}
	return &PowerResponse{
		Header:     &PowerHeader{FillValue: ptr(-999)},
		Properties: &PowerProperties{Parameter: params},
	}
}

func constant(v float64) func(int) float64 {
	return func(int) float64 { return v }
}

func newTestStore(t *testing.T, provider HistoryProvider, observer FetchObserver) (*Store, *HistoryCache) {
	cfg := config.Default()
	clock := func() time.Time { return testNow }
	c := cache.New[[]models.DailyObservation]("history", 5*time.Minute, cache.WithClock(clock))

	opts := []StoreOption{
		WithStoreLogger(zaptest.NewLogger(t)),
		WithStoreClock(clock),
	}
	if observer != nil {
		opts = append(opts, WithFetchObserver(observer))
	}

	// A nil *recordingProvider must not become a non-nil interface
	if p, ok := provider.(*recordingProvider); ok && p == nil {
		provider = nil
	}
	return NewStore(provider, c, NewSynthesizer(cfg.Fallback, nil), cfg.History, opts...), c
}

// TestParseHistorySentinels tests that missing temperatures drop the date and
// other missing fields take the configured defaults
func TestParseHistorySentinels(t *testing.T) {
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	resp := buildResponse(40, end, func(i int) float64 {
		if i%10 == 0 {
			return -999
		}
		return 15
	}, func(i int) float64 {
		if i == 1 {
			return -999
		}
		return 70
	})
	resp.Properties.Parameter[ParamWindSpeed][end.Format(DateLayout)] = nil
	delete(resp.Properties.Parameter, ParamPressure)

	series, err := ParseHistory(resp, config.Default().History)
	require.NoError(t, err)
	require.Len(t, series, 36)

	for i, obs := range series {
		assert.NotEqual(t, -999.0, obs.Temperature)
		assert.NotEqual(t, -999.0, obs.Humidity)
		assert.Equal(t, 101.0, obs.Pressure, "missing series takes the default")
		if i > 0 {
			assert.True(t, series[i-1].Date.Before(obs.Date), "series must be chronological")
		}
	}

	// Day index 1 is the first valid date and had its humidity missing
	assert.Equal(t, 60.0, series[0].Humidity)
	assert.Equal(t, 70.0, series[1].Humidity)
	// The last day had a null wind reading
	assert.Equal(t, 2.0, series[len(series)-1].WindSpeed)
	assert.Equal(t, end, series[len(series)-1].Date)
}

// TestParseHistoryHeaderFillValue tests that the header sentinel overrides the configured one
func TestParseHistoryHeaderFillValue(t *testing.T) {
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	resp := buildResponse(5, end, func(i int) float64 {
		if i == 0 {
			return -888
		}
		return 12
	}, constant(50))
	resp.Header.FillValue = ptr(-888)

	series, err := ParseHistory(resp, config.Default().History)
	require.NoError(t, err)
	assert.Len(t, series, 4)

	resp.Header = nil
	_, err = ParseHistory(resp, config.Default().History)
	assert.ErrorIs(t, err, ErrDataQuality, "-888 is a real reading without the header and drags the mean down")
}

// TestParseHistoryFailures tests schema and data quality classification
func TestParseHistoryFailures(t *testing.T) {
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	cfg := config.Default().History

	noTemp := buildResponse(30, end, constant(15), constant(60))
	delete(noTemp.Properties.Parameter, ParamTemperature)

	tests := []struct {
		name string
		resp *PowerResponse
		want error
	}{
		{name: "nil response", resp: nil, want: ErrSchema},
		{name: "missing properties", resp: &PowerResponse{}, want: ErrSchema},
		{name: "missing temperature series", resp: noTemp, want: ErrSchema},
		{name: "all temperatures missing", resp: buildResponse(30, end, constant(-999), constant(60)), want: ErrDataQuality},
		{name: "implausibly hot", resp: buildResponse(30, end, constant(70), constant(60)), want: ErrDataQuality},
		{name: "implausibly cold", resp: buildResponse(30, end, constant(-55), constant(60)), want: ErrDataQuality},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHistory(tt.resp, cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// TestStoreFetchUpstream tests the request window and caching of upstream series
func TestStoreFetchUpstream(t *testing.T) {
	end := time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC)
	provider := &recordingProvider{resp: buildResponse(365, end, constant(20), constant(60))}
	observer := &recordingFetchObserver{}
	store, c := newTestStore(t, provider, observer)
	point := models.GeoPoint{Latitude: 41.8781, Longitude: -93.0977}

	first := store.Fetch(context.Background(), point, 0)
	require.Equal(t, SourceUpstream, first.Source)
	assert.NoError(t, first.Reason)
	assert.False(t, first.FellBack())
	assert.Len(t, first.Series, 365)

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	assert.Equal(t, end, req.End, "window ends yesterday")
	assert.Equal(t, time.Date(2023, 7, 16, 0, 0, 0, 0, time.UTC), req.Start)

	// Mutating the returned series must not corrupt the cache
	first.Series[0].Temperature = 99

	second := store.Fetch(context.Background(), point, 365)
	assert.Equal(t, SourceCache, second.Source)
	assert.Len(t, provider.requests, 1, "cached series must not hit the provider")
	assert.Equal(t, 20.0, second.Series[0].Temperature)
	assert.Equal(t, first.Series[1:], second.Series[1:])

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []Source{SourceUpstream, SourceCache}, observer.sources)
	assert.Equal(t, "history:41.878,-93.098:365", CacheKey(point, 365))
}

// TestStoreFallback tests that every upstream failure yields a synthetic series
func TestStoreFallback(t *testing.T) {
	end := time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC)
	point := models.GeoPoint{Latitude: -12.5, Longitude: 130.8}

	tests := []struct {
		name     string
		provider *recordingProvider
		want     error
	}{
		{name: "provider disabled", provider: nil, want: ErrTransport},
		{name: "transport failure", provider: &recordingProvider{err: ErrTransport}, want: ErrTransport},
		{name: "all sentinel temperatures", provider: &recordingProvider{resp: buildResponse(365, end, constant(-999), constant(60))}, want: ErrDataQuality},
		{name: "schema failure", provider: &recordingProvider{resp: &PowerResponse{}}, want: ErrSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := &recordingFetchObserver{}
			store, c := newTestStore(t, tt.provider, observer)

			result := store.Fetch(context.Background(), point, 0)
			require.True(t, result.FellBack())
			assert.ErrorIs(t, result.Reason, tt.want)
			require.Len(t, result.Series, 365)

			for _, obs := range result.Series {
				assert.GreaterOrEqual(t, obs.Temperature, -30.0)
				assert.LessOrEqual(t, obs.Temperature, 50.0)
			}
			assert.Equal(t, end, result.Series[364].Date)

			assert.Equal(t, 0, c.Len(), "synthetic series are not cached")
			assert.Equal(t, []string{FailureKind(tt.want)}, observer.failures)
		})
	}
}
