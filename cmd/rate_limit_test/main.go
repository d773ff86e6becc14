package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agri-forecast-service/datasource"
	"agri-forecast-service/models"
)

// mockHistoryProvider simulates upstream latency and counts calls
type mockHistoryProvider struct {
	callCount int
	mutex     sync.Mutex
	latency   time.Duration
}

func (m *mockHistoryProvider) FetchHistory(ctx context.Context, req datasource.HistoryRequest) (*datasource.PowerResponse, error) {
	m.mutex.Lock()
	m.callCount++
	currentCount := m.callCount
	m.mutex.Unlock()

	fmt.Printf("%s - Processing request #%d for %.2f,%.2f\n",
		time.Now().Format("15:04:05.000"), currentCount, req.Point.Latitude, req.Point.Longitude)

	// Simulate work/latency
	select {
	case <-time.After(m.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	temp := 22.5
	return &datasource.PowerResponse{
		Properties: &datasource.PowerProperties{
			Parameter: map[string]map[string]*float64{
				datasource.ParamTemperature: {req.End.Format(datasource.DateLayout): &temp},
			},
		},
	}, nil
}

func (m *mockHistoryProvider) Name() string {
	return "MockProvider"
}

func (m *mockHistoryProvider) calls() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.callCount
}

func main() {
	var (
		requestsPerSecond float64
		burstSize         int
		totalRequests     int
		concurrency       int
	)

	cmd := &cobra.Command{
		Use:   "rate_limit_test",
		Short: "Exercise the rate-limited history provider against a mock upstream",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), requestsPerSecond, burstSize, totalRequests, concurrency)
		},
	}
	cmd.Flags().Float64Var(&requestsPerSecond, "rps", 1.0, "Rate limit in requests per second")
	cmd.Flags().IntVar(&burstSize, "burst", 3, "Maximum burst size")
	cmd.Flags().IntVar(&totalRequests, "requests", 10, "Total number of requests to make")
	cmd.Flags().IntVar(&concurrency, "concurrent", 5, "Number of concurrent requests")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
	}
}

func run(ctx context.Context, rps float64, burst, total, concurrency int) error {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Create a mock provider with 200ms response time
	mock := &mockHistoryProvider{latency: 200 * time.Millisecond}
	provider := datasource.NewRateLimitedHistoryProvider(mock, rps, burst)

	fmt.Printf("Testing %s with:\n", provider.Name())
	fmt.Printf("- Rate limit: %.2f requests/second\n", rps)
	fmt.Printf("- Burst size: %d\n", burst)
	fmt.Printf("- Total requests: %d\n", total)
	fmt.Printf("- Concurrent workers: %d\n", concurrency)
	fmt.Println("Starting test...")

	startTime := time.Now()
	end := time.Now().UTC().AddDate(0, 0, -1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := 0; i < total; i++ {
		i := i
		g.Go(func() error {
			req := datasource.HistoryRequest{
				Point: models.GeoPoint{Latitude: float64(i), Longitude: float64(i)},
				Start: end.AddDate(0, 0, -364),
				End:   end,
			}
			before := time.Now()
			if _, err := provider.FetchHistory(gctx, req); err != nil {
				logger.Warn("Request failed", zap.Int("request", i), zap.Error(err))
				return nil
			}
			logger.Info("Request completed", zap.Int("request", i), zap.Duration("elapsed", time.Since(before)))
			return nil
		})
	}
	_ = g.Wait()

	totalTime := time.Since(startTime)
	actualRPS := float64(total) / totalTime.Seconds()

	fmt.Println("\nTest completed!")
	fmt.Printf("Total time: %.2f seconds\n", totalTime.Seconds())
	fmt.Printf("Actual requests per second: %.2f\n", actualRPS)
	fmt.Printf("Total requests processed: %d\n", mock.calls())

	expectedMinTime := max(0, float64(total-burst)/rps)
	fmt.Printf("Expected minimum time (theoretical): %.2f seconds\n", expectedMinTime)

	if actualRPS > rps*1.5 && total > burst {
		fmt.Println("\nWARNING: Actual RPS significantly higher than configured rate limit!")
		fmt.Println("Rate limiting may not be working as expected.")
	} else {
		fmt.Println("\nRate limiting appears to be working correctly.")
	}
	return nil
}
