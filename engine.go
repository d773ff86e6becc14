package main

import (
	"fmt"

	"go.uber.org/zap"

	"agri-forecast-service/agronomy"
	"agri-forecast-service/cache"
	"agri-forecast-service/config"
	"agri-forecast-service/datasource"
	"agri-forecast-service/forecast"
	"agri-forecast-service/metrics"
	"agri-forecast-service/models"
	"agri-forecast-service/prediction"
)

// engine holds the wired components shared by the commands
type engine struct {
	metrics      *metrics.Collector
	cache        *datasource.HistoryCache
	store        *datasource.Store
	model        *agronomy.Model
	orchestrator *prediction.Orchestrator
}

func buildEngine(cfg *config.Config, logger *zap.Logger) *engine {
	recorder := metrics.NewCollector()

	var provider datasource.HistoryProvider
	if cfg.Upstream.Enabled {
		provider = datasource.NewPowerProvider(cfg.Upstream.BaseURL, cfg.Upstream.Community, cfg.Upstream.Timeout)

		// Apply rate limiting if enabled
		if cfg.Upstream.RateLimit > 0 {
			provider = datasource.NewRateLimitedHistoryProvider(provider, cfg.Upstream.RateLimit, cfg.Upstream.Burst)
			logger.Info("Applied rate limiting to history provider",
				zap.Float64("rps", cfg.Upstream.RateLimit),
				zap.Int("burst", cfg.Upstream.Burst))
		}
	} else {
		logger.Warn("Upstream history provider disabled, predictions use synthetic data")
	}

	historyCache := cache.New[[]models.DailyObservation]("history", cfg.Cache.TTL,
		cache.WithLogger(logger),
		cache.WithObserver(recorder))

	store := datasource.NewStore(provider, historyCache,
		datasource.NewSynthesizer(cfg.Fallback, nil),
		cfg.History,
		datasource.WithStoreLogger(logger),
		datasource.WithFetchObserver(recorder))

	model := agronomy.NewModel(cfg.Agronomy, cfg.Livestock, logger)
	orchestrator := prediction.New(store, forecast.NewForecaster(cfg.Forecast, nil), model, cfg,
		prediction.WithLogger(logger),
		prediction.WithObserver(recorder))

	return &engine{
		metrics:      recorder,
		cache:        historyCache,
		store:        store,
		model:        model,
		orchestrator: orchestrator,
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.OutputPaths = []string{"stderr"}
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
