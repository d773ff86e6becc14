package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"agri-forecast-service/cache"
	"agri-forecast-service/config"
	"agri-forecast-service/datasource"
	"agri-forecast-service/models"
)

func main() {
	fmt.Println("=== Running History Cache Test ===")
	fmt.Println("This will demonstrate how the history store caches upstream series")
	fmt.Println("The test will take about 30 seconds to complete...")
	fmt.Println()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync() //nolint:errcheck

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logger.Warn("Error loading .env file", zap.Error(err))
	}

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Set a short cache duration for demonstration purposes
	cacheDuration := 15 * time.Second

	provider := datasource.NewPowerProvider(cfg.Upstream.BaseURL, cfg.Upstream.Community, cfg.Upstream.Timeout)
	historyCache := cache.New[[]models.DailyObservation]("history", cacheDuration, cache.WithLogger(logger))
	store := datasource.NewStore(provider, historyCache,
		datasource.NewSynthesizer(cfg.Fallback, nil),
		cfg.History,
		datasource.WithStoreLogger(logger))
	fmt.Printf("Using %s with a 15-second cache\n", provider.Name())

	ctx := context.Background()
	locations := []models.GeoPoint{
		{Latitude: 41.88, Longitude: -93.10},
		{Latitude: 48.85, Longitude: 2.35},
	}

	fmt.Println("\n*** First Request - Should be cache misses ***")
	makeRequests(ctx, store, locations)

	fmt.Println("\n*** Second Request - Should use cached data ***")
	makeRequests(ctx, store, locations)

	fmt.Println("\n*** Third Request - Still using cached data ***")
	makeRequests(ctx, store, locations)

	fmt.Println("\nWaiting for cache to expire (15 seconds)...")
	time.Sleep(cacheDuration + 1*time.Second)

	fmt.Println("\n*** After Expiry - Should be cache misses again ***")
	makeRequests(ctx, store, locations)

	// Synthetic fallbacks are never cached, so an unreachable upstream shows only misses
	hits, misses := historyCache.CacheStats()
	fmt.Printf("\nStats for %s cache: %d cache hits, %d cache misses\n", historyCache.Name(), hits, misses)

	fmt.Println("\n=== Cache Test Complete ===")
}

func makeRequests(ctx context.Context, store *datasource.Store, locations []models.GeoPoint) {
	for _, location := range locations {
		result := store.Fetch(ctx, location, 0)
		if result.FellBack() {
			fmt.Printf("Upstream unavailable for %.2f,%.2f: %v\n", location.Latitude, location.Longitude, result.Reason)
		}

		last := result.Series[len(result.Series)-1]
		fmt.Printf("Got %d days from %s for %.2f,%.2f: last day %s at %.1f°C\n",
			len(result.Series), result.Source, location.Latitude, location.Longitude,
			last.Date.Format("2006-01-02"), last.Temperature)
	}
}
