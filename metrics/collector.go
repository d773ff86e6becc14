package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agri-forecast-service/cache"
	"agri-forecast-service/collector"
	"agri-forecast-service/datasource"
	"agri-forecast-service/models"
	"agri-forecast-service/prediction"
)

// Collector implements Prometheus metrics collection for the engine
type Collector struct {
	cacheLookups       *prometheus.CounterVec
	historyFetches     *prometheus.CounterVec
	predictionsTotal   *prometheus.CounterVec
	predictionFailures prometheus.Counter
	predictionDuration prometheus.Histogram
	warmupRounds       prometheus.Counter

	registry *prometheus.Registry
}

// Ensure Collector can observe every instrumented component
var (
	_ cache.Observer           = (*Collector)(nil)
	_ datasource.FetchObserver = (*Collector)(nil)
	_ prediction.Observer      = (*Collector)(nil)
	_ collector.RoundObserver  = (*Collector)(nil)
)

// NewCollector creates a collector backed by its own registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		registry: registry,

		cacheLookups: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "agricast_cache_lookups_total",
				Help: "Total number of cache lookups",
			},
			[]string{"cache", "result"},
		),

		historyFetches: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "agricast_history_fetches_total",
				Help: "Total number of historical series fetches by data source and failure kind",
			},
			[]string{"source", "failure"},
		),

		predictionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "agricast_predictions_total",
				Help: "Total number of generated predictions by crop risk level",
			},
			[]string{"risk_level", "data_source"},
		),

		predictionFailures: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "agricast_prediction_failures_total",
				Help: "Total number of prediction requests that could not be served",
			},
		),

		predictionDuration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agricast_prediction_duration_seconds",
				Help:    "Prediction generation time in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		warmupRounds: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "agricast_warmup_rounds_total",
				Help: "Total number of cache warm-up rounds",
			},
		),
	}
}

// CacheLookup records a cache hit or miss
func (c *Collector) CacheLookup(name string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(name, result).Inc()
}

// HistoryFetched records where a historical series came from
func (c *Collector) HistoryFetched(source datasource.Source, failureKind string) {
	if failureKind == "" {
		failureKind = "none"
	}
	c.historyFetches.WithLabelValues(string(source), failureKind).Inc()
}

// PredictionGenerated records a successful prediction
func (c *Collector) PredictionGenerated(level models.RiskLevel, source string, elapsed time.Duration) {
	c.predictionsTotal.WithLabelValues(string(level), source).Inc()
	c.predictionDuration.Observe(elapsed.Seconds())
}

// PredictionFailed records a prediction that returned an error
func (c *Collector) PredictionFailed() {
	c.predictionFailures.Inc()
}

// WarmupCompleted records a finished warm-up round
func (c *Collector) WarmupCompleted() {
	c.warmupRounds.Inc()
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler exposing the registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
