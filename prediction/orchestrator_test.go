package prediction

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"agri-forecast-service/agronomy"
	"agri-forecast-service/cache"
	"agri-forecast-service/config"
	"agri-forecast-service/datasource"
	"agri-forecast-service/forecast"
	"agri-forecast-service/models"
)

var testNow = time.Date(2024, 7, 15, 9, 30, 0, 0, time.UTC)

type stubHistory struct {
	result datasource.FetchResult
	calls  int
}

func (s *stubHistory) Fetch(ctx context.Context, point models.GeoPoint, lookbackDays int) datasource.FetchResult {
	s.calls++
	return s.result
}

type recordingObserver struct {
	levels   []models.RiskLevel
	sources  []string
	failures int
}

func (o *recordingObserver) PredictionGenerated(level models.RiskLevel, source string, elapsed time.Duration) {
	o.levels = append(o.levels, level)
	o.sources = append(o.sources, source)
}

func (o *recordingObserver) PredictionFailed() {
	o.failures++
}

type staticProvider struct {
	resp *datasource.PowerResponse
}

func (p staticProvider) Name() string {
	return "static"
}

func (p staticProvider) FetchHistory(ctx context.Context, req datasource.HistoryRequest) (*datasource.PowerResponse, error) {
	return p.resp, nil
}

func constantSeries(days int, temp, precip float64) []models.DailyObservation {
	end := time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC)
	series := make([]models.DailyObservation, days)
	for i := range series {
		series[i] = models.DailyObservation{
			Date:          end.AddDate(0, 0, -(days - 1 - i)),
			Temperature:   temp,
			Precipitation: precip,
			Humidity:      60,
			WindSpeed:     3,
		}
	}
	return series
}

// newTestOrchestrator wires an orchestrator with deterministic randomness and time
func newTestOrchestrator(t *testing.T, history HistorySource, observer Observer) *Orchestrator {
	cfg := config.Default()
	clock := testNow
	tick := func() time.Time {
		clock = clock.Add(25 * time.Millisecond)
		return clock
	}

	return New(history,
		forecast.NewForecaster(cfg.Forecast, func() float64 { return 0.5 }),
		agronomy.NewModel(cfg.Agronomy, cfg.Livestock, zaptest.NewLogger(t)),
		cfg,
		WithLogger(zaptest.NewLogger(t)),
		WithObserver(observer),
		WithClock(tick),
		WithIDGenerator(func() string { return "req-1" }))
}

func request(crop string, ndvi *float64) Request {
	return Request{
		Location:    models.GeoPoint{Latitude: 41.88, Longitude: -93.1},
		CropType:    crop,
		CurrentNDVI: ndvi,
	}
}

// TestGenerateDryYear tests that a rainless history triggers irrigation advice
func TestGenerateDryYear(t *testing.T) {
	history := &stubHistory{result: datasource.FetchResult{
		Series: constantSeries(365, 20, 0),
		Source: datasource.SourceUpstream,
	}}
	observer := &recordingObserver{}
	o := newTestOrchestrator(t, history, observer)

	resp, err := o.Generate(context.Background(), request("wheat", nil))
	require.NoError(t, err)

	require.Len(t, resp.WeatherForecast, 7)
	require.Len(t, resp.CropHealth, 1)
	crop := resp.CropHealth[0]
	assert.Contains(t, []models.RiskLevel{models.RiskHigh, models.RiskCritical}, crop.RiskLevel)

	irrigation := false
	for _, rec := range crop.Recommendations {
		if strings.Contains(strings.ToLower(rec), "irrigation") {
			irrigation = true
		}
	}
	assert.True(t, irrigation, "recommendations must include irrigation: %v", crop.Recommendations)

	assert.Equal(t, []models.RiskLevel{crop.RiskLevel}, observer.levels)
	assert.Equal(t, []string{"upstream"}, observer.sources)
	assert.NotNil(t, resp.ClimateRisks)
	assert.Empty(t, resp.ClimateRisks)
}

// TestGenerateMetadata tests the response metadata and defaults
func TestGenerateMetadata(t *testing.T) {
	history := &stubHistory{result: datasource.FetchResult{
		Series: constantSeries(200, 22, 3),
		Source: datasource.SourceCache,
	}}
	o := newTestOrchestrator(t, history, &recordingObserver{})

	resp, err := o.Generate(context.Background(), request("corn", nil))
	require.NoError(t, err)

	meta := resp.ModelMetadata
	assert.Equal(t, "req-1", meta.RequestID)
	assert.Equal(t, 88.0, meta.Accuracy)
	assert.Equal(t, 89.0, meta.Confidence)
	assert.Equal(t, 200, meta.DataPoints)
	assert.Equal(t, "seasonal-trend-1.0", meta.ModelVersion)
	assert.Equal(t, "cache", meta.DataSource)
	assert.Empty(t, meta.FallbackReason)
	assert.Equal(t, int64(25), meta.ProcessingTimeMs)

	assert.Equal(t, testNow.Add(50*time.Millisecond), resp.GeneratedAt)
	assert.Equal(t, models.GeoPoint{Latitude: 41.88, Longitude: -93.1}, resp.Location)
	assert.Equal(t, 0.65, resp.CropHealth[0].CurrentNDVI, "missing NDVI takes the default")
	assert.Equal(t, "corn", resp.CropHealth[0].CropType)
}

// TestGenerateSentinelUpstream tests the full pipeline when every upstream temperature is missing
func TestGenerateSentinelUpstream(t *testing.T) {
	cfg := config.Default()
	fill := -999.0
	temps := map[string]*float64{}
	end := time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 365; i++ {
		temps[end.AddDate(0, 0, -i).Format(datasource.DateLayout)] = &fill
	}
	provider := staticProvider{resp: &datasource.PowerResponse{
		Header:     &datasource.PowerHeader{FillValue: &fill},
		Properties: &datasource.PowerProperties{Parameter: map[string]map[string]*float64{datasource.ParamTemperature: temps}},
	}}

	clock := func() time.Time { return testNow }
	store := datasource.NewStore(provider,
		cache.New[[]models.DailyObservation]("history", time.Minute, cache.WithClock(clock)),
		datasource.NewSynthesizer(cfg.Fallback, nil),
		cfg.History,
		datasource.WithStoreClock(clock),
		datasource.WithStoreLogger(zaptest.NewLogger(t)))

	observer := &recordingObserver{}
	o := newTestOrchestrator(t, store, observer)

	resp, err := o.Generate(context.Background(), request("rice", nil))
	require.NoError(t, err)

	assert.Equal(t, "synthetic", resp.ModelMetadata.DataSource)
	assert.Equal(t, "data_quality", resp.ModelMetadata.FallbackReason)
	assert.Equal(t, 365, resp.ModelMetadata.DataPoints)
	for _, day := range resp.WeatherForecast {
		assert.GreaterOrEqual(t, day.Temperature.Min, -30.0)
		assert.LessOrEqual(t, day.Temperature.Max, 50.0)
	}
	assert.Equal(t, []string{"synthetic"}, observer.sources)
}

// TestGenerateUnknownCropAndNDVIClamp tests input normalisation end to end
func TestGenerateUnknownCropAndNDVIClamp(t *testing.T) {
	history := &stubHistory{result: datasource.FetchResult{
		Series: constantSeries(365, 18, 4),
		Source: datasource.SourceUpstream,
	}}
	o := newTestOrchestrator(t, history, &recordingObserver{})

	ndvi := 1.5
	resp, err := o.Generate(context.Background(), request("quinoa", &ndvi))
	require.NoError(t, err)

	crop := resp.CropHealth[0]
	assert.Equal(t, "quinoa", crop.CropType)
	assert.True(t, crop.ParametersFallback)
	assert.Equal(t, 0.95, crop.CurrentNDVI)
	require.NotEmpty(t, crop.PredictedNDVI)
	assert.LessOrEqual(t, crop.PredictedNDVI[0], 0.9)
	assert.GreaterOrEqual(t, crop.HealthScore, 0)
	assert.LessOrEqual(t, crop.HealthScore, 100)
}

// TestGenerateErrors tests the failure paths
func TestGenerateErrors(t *testing.T) {
	t.Run("insufficient history", func(t *testing.T) {
		history := &stubHistory{result: datasource.FetchResult{
			Series: constantSeries(10, 20, 0),
			Source: datasource.SourceUpstream,
		}}
		observer := &recordingObserver{}
		o := newTestOrchestrator(t, history, observer)

		_, err := o.Generate(context.Background(), request("wheat", nil))
		assert.ErrorIs(t, err, forecast.ErrInsufficientHistory)
		assert.Equal(t, 1, observer.failures)
		assert.Empty(t, observer.levels)
	})

	t.Run("invalid location", func(t *testing.T) {
		history := &stubHistory{}
		observer := &recordingObserver{}
		o := newTestOrchestrator(t, history, observer)

		req := request("wheat", nil)
		req.Location.Latitude = 91
		_, err := o.Generate(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.Equal(t, 0, history.calls, "invalid requests never reach the history source")
		assert.Equal(t, 1, observer.failures)
	})
}
