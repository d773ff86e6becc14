package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agri-forecast-service/agronomy"
	"agri-forecast-service/config"
	"agri-forecast-service/datasource"
	"agri-forecast-service/forecast"
	"agri-forecast-service/models"
)

// ErrInvalidRequest is returned for requests that cannot be served as given
var ErrInvalidRequest = errors.New("invalid prediction request")

// Request is the input of a prediction. CurrentNDVI is optional.
type Request struct {
	Location    models.GeoPoint
	CropType    string
	CurrentNDVI *float64
}

// HistorySource supplies the historical series for a location
type HistorySource interface {
	Fetch(ctx context.Context, point models.GeoPoint, lookbackDays int) datasource.FetchResult
}

// Observer is notified of every generation outcome, e.g. to export metrics
type Observer interface {
	PredictionGenerated(level models.RiskLevel, source string, elapsed time.Duration)
	PredictionFailed()
}

// Orchestrator composes history acquisition, forecasting and the agronomic
// models into one response
type Orchestrator struct {
	history    HistorySource
	forecaster *forecast.Forecaster
	model      *agronomy.Model
	climate    agronomy.ClimateRiskDetector

	lookbackDays int
	horizonDays  int
	defaultNDVI  float64
	metadata     config.MetadataConfig

	now      func() time.Time
	newID    func() string
	logger   *zap.Logger
	observer Observer
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithClimateDetector replaces the climate risk detector
func WithClimateDetector(detector agronomy.ClimateRiskDetector) Option {
	return func(o *Orchestrator) { o.climate = detector }
}

// WithLogger sets the orchestrator logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithObserver registers an observer for generation outcomes
func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) { o.observer = observer }
}

// WithClock replaces time.Now for timestamps and processing time
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator replaces the request ID generator
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// New creates an orchestrator over the given components
func New(history HistorySource, forecaster *forecast.Forecaster, model *agronomy.Model, cfg *config.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		history:      history,
		forecaster:   forecaster,
		model:        model,
		climate:      agronomy.NoClimateRisks{},
		lookbackDays: cfg.History.LookbackDays,
		horizonDays:  cfg.Forecast.HorizonDays,
		defaultNDVI:  cfg.Agronomy.DefaultNDVI,
		metadata:     cfg.Metadata,
		now:          time.Now,
		newID:        uuid.NewString,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate produces the full prediction for a location and crop. The only
// error besides an invalid request is forecast.ErrInsufficientHistory; upstream
// data problems are absorbed by the history source.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*models.PredictionResponse, error) {
	start := o.now()
	requestID := o.newID()
	logger := o.logger.With(
		zap.String("requestId", requestID),
		zap.Float64("latitude", req.Location.Latitude),
		zap.Float64("longitude", req.Location.Longitude),
		zap.String("cropType", req.CropType))

	if !req.Location.Valid() {
		o.failed()
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidRequest)
	}

	ndvi := o.defaultNDVI
	if req.CurrentNDVI != nil {
		ndvi = *req.CurrentNDVI
	}
	ndvi = o.model.ClampCurrentNDVI(ndvi)

	history := o.history.Fetch(ctx, req.Location, o.lookbackDays)

	days, err := o.forecaster.Forecast(history.Series, o.horizonDays)
	if err != nil {
		o.failed()
		logger.Error("Failed to forecast", zap.String("dataSource", string(history.Source)), zap.Error(err))
		return nil, fmt.Errorf("failed to forecast weather: %w", err)
	}

	crop := o.model.PredictCropHealth(req.CropType, ndvi, days)
	livestock := o.model.PredictLivestockRisk(days)
	climate := o.climate.DetectClimateRisks(days)

	metadata := models.ModelMetadata{
		RequestID:    requestID,
		Accuracy:     o.metadata.Accuracy,
		Confidence:   o.metadata.Confidence,
		DataPoints:   len(history.Series),
		ModelVersion: o.metadata.ModelVersion,
		DataSource:   string(history.Source),
	}
	if history.Reason != nil {
		metadata.FallbackReason = datasource.FailureKind(history.Reason)
	}

	generatedAt := o.now()
	elapsed := generatedAt.Sub(start)
	metadata.ProcessingTimeMs = elapsed.Milliseconds()

	if o.observer != nil {
		o.observer.PredictionGenerated(crop.RiskLevel, metadata.DataSource, elapsed)
	}
	logger.Info("Generated prediction",
		zap.String("dataSource", metadata.DataSource),
		zap.Int("dataPoints", metadata.DataPoints),
		zap.Int("healthScore", crop.HealthScore),
		zap.String("riskLevel", string(crop.RiskLevel)),
		zap.Duration("elapsed", elapsed))

	return &models.PredictionResponse{
		WeatherForecast: days,
		CropHealth:      []models.CropHealthPrediction{crop},
		LivestockRisk:   livestock,
		ClimateRisks:    climate,
		GeneratedAt:     generatedAt,
		Location:        req.Location,
		ModelMetadata:   metadata,
	}, nil
}

func (o *Orchestrator) failed() {
	if o.observer != nil {
		o.observer.PredictionFailed()
	}
}
