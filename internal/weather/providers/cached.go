package providers

import (
	"context"
	"time"

	"github.com/i474232898/weather-bulletin/internal/cache"
	"github.com/i474232898/weather-bulletin/internal/weather"
)

// DefaultCacheWindow matches the hourly refresh of the provider's forecast.
const DefaultCacheWindow = time.Hour

// CachedClient wraps a weather.Client and memoizes successful results per
// endpoint and rounded coordinates. Upstream calls run detached from the
// caller's cancellation and rely on the source's own request timeout.
type CachedClient struct {
	source   weather.Client
	current  *cache.TTL[weather.CurrentConditions]
	forecast *cache.TTL[[]weather.ForecastSlot]
}

var _ weather.Client = (*CachedClient)(nil)

// NewCachedClient creates a new cached wrapper around a client.
func NewCachedClient(source weather.Client, window time.Duration) *CachedClient {
	if window <= 0 {
		window = DefaultCacheWindow
	}
	return &CachedClient{
		source:   source,
		current:  cache.NewTTL[weather.CurrentConditions](window),
		forecast: cache.NewTTL[[]weather.ForecastSlot](window),
	}
}

// FetchCurrent returns memoized current conditions when fresh.
func (c *CachedClient) FetchCurrent(ctx context.Context, coords weather.Coordinates) (weather.CurrentConditions, error) {
	return c.current.Get(ctx, "current:"+coords.Key(), func(ctx context.Context) (weather.CurrentConditions, error) {
		return c.source.FetchCurrent(ctx, coords)
	})
}

// FetchForecast returns a memoized forecast when fresh. The returned slice is
// shared with the cache and must not be modified.
func (c *CachedClient) FetchForecast(ctx context.Context, coords weather.Coordinates) ([]weather.ForecastSlot, error) {
	return c.forecast.Get(ctx, "forecast:"+coords.Key(), func(ctx context.Context) ([]weather.ForecastSlot, error) {
		return c.source.FetchForecast(ctx, coords)
	})
}

// Purge drops expired entries from both endpoints.
func (c *CachedClient) Purge() int {
	return c.current.Purge() + c.forecast.Purge()
}

// CacheStats returns hits and misses summed over both endpoints.
func (c *CachedClient) CacheStats() (hits, misses int) {
	ch, cm := c.current.Stats()
	fh, fm := c.forecast.Stats()
	return ch + fh, cm + fm
}
