package collector

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agri-forecast-service/datasource"
	"agri-forecast-service/models"
)

// Fetcher is the history source being warmed
type Fetcher interface {
	Fetch(ctx context.Context, point models.GeoPoint, lookbackDays int) datasource.FetchResult
}

// Pruner drops stale cache entries
type Pruner interface {
	Prune() int
}

// RoundObserver is notified when a warm-up round completes
type RoundObserver interface {
	WarmupCompleted()
}

// WarmupResult reports what one location fetch produced
type WarmupResult struct {
	Location   models.GeoPoint
	Source     datasource.Source
	DataPoints int
}

// Warmer keeps the history cache populated for a fixed set of locations so
// that interactive requests for them are served from cache
type Warmer struct {
	fetcher      Fetcher
	pruner       Pruner
	locations    []models.GeoPoint
	lookbackDays int
	interval     time.Duration
	concurrency  int
	logger       *zap.Logger
	observer     RoundObserver
}

// NewWarmer creates a warmer for the given locations. pruner may be nil.
func NewWarmer(fetcher Fetcher, pruner Pruner, locations []models.GeoPoint, lookbackDays int, interval time.Duration, concurrency int, logger *zap.Logger) *Warmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Warmer{
		fetcher:      fetcher,
		pruner:       pruner,
		locations:    locations,
		lookbackDays: lookbackDays,
		interval:     interval,
		concurrency:  concurrency,
		logger:       logger,
	}
}

// SetObserver registers an observer for completed rounds
func (w *Warmer) SetObserver(observer RoundObserver) {
	w.observer = observer
}

// Start begins warming in the background. The returned function stops the
// warmer and waits for the current round to finish.
func (w *Warmer) Start(ctx context.Context) func() {
	warmCtx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		// Do an initial round immediately
		w.RunOnce(warmCtx)

		for {
			select {
			case <-ticker.C:
				w.RunOnce(warmCtx)
			case <-warmCtx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}

// RunOnce prunes stale entries, then fetches every location concurrently
func (w *Warmer) RunOnce(ctx context.Context) []WarmupResult {
	if w.pruner != nil {
		if pruned := w.pruner.Prune(); pruned > 0 {
			w.logger.Debug("Pruned stale cache entries", zap.Int("count", pruned))
		}
	}

	results := make([]WarmupResult, len(w.locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, location := range w.locations {
		i, location := i, location
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := w.fetcher.Fetch(gctx, location, w.lookbackDays)
			results[i] = WarmupResult{
				Location:   location,
				Source:     res.Source,
				DataPoints: len(res.Series),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		w.logger.Debug("Warm-up round interrupted", zap.Error(err))
		return nil
	}

	if w.observer != nil {
		w.observer.WarmupCompleted()
	}
	w.logger.Info("Cache warm-up round complete", zap.Int("locations", len(w.locations)))
	return results
}
