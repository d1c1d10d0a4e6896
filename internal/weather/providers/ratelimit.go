package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// RateLimitedProvider wraps a weather.Provider with a shared token bucket.
type RateLimitedProvider struct {
	provider weather.Provider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider allows rps requests per second (fractional values
// allowed) with bursts of up to burst requests.
func NewRateLimitedProvider(provider weather.Provider, rps float64, burst int) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

// Search waits for the limiter, then forwards to the wrapped provider.
func (r *RateLimitedProvider) Search(ctx context.Context, query string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.provider.Search(ctx, query)
}

// Forecast waits for the limiter, then forwards to the wrapped provider.
func (r *RateLimitedProvider) Forecast(ctx context.Context, query string, days int) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.provider.Forecast(ctx, query, days)
}

var _ weather.Provider = (*RateLimitedProvider)(nil)
