package datasource

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedHistoryProvider wraps a HistoryProvider with rate limiting
type RateLimitedHistoryProvider struct {
	provider HistoryProvider
	limiter  *rate.Limiter
	name     string
}

// Verify that the rate limited provider implements the required interface
var _ HistoryProvider = (*RateLimitedHistoryProvider)(nil)

// NewRateLimitedHistoryProvider creates a new rate limited history provider
// rps is the maximum requests per second allowed (can be fractional for less than 1 request per second)
// burst is the maximum burst size allowed
func NewRateLimitedHistoryProvider(provider HistoryProvider, rps float64, burst int) *RateLimitedHistoryProvider {
	return &RateLimitedHistoryProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		name:     fmt.Sprintf("%s [Rate Limited]", provider.Name()),
	}
}

// FetchHistory fetches history, respecting rate limits
func (r *RateLimitedHistoryProvider) FetchHistory(ctx context.Context, req HistoryRequest) (*PowerResponse, error) {
	// Wait for rate limiter permission or context cancellation
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait canceled: %w", ErrTransport, err)
	}

	// Forward to the underlying provider
	return r.provider.FetchHistory(ctx, req)
}

// Name returns the provider name
func (r *RateLimitedHistoryProvider) Name() string {
	return r.name
}
