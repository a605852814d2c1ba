package httpfetch

import (
	"context"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
)

// CachedFetcher wraps a Fetcher with an in-memory LRU keyed by URL. Returned
// slices are shared between callers and must not be modified.
type CachedFetcher struct {
	inner   domain.Fetcher
	metrics *observability.Metrics

	mu    sync.Mutex
	cache *lru.Cache
}

// NewCachedFetcher keeps at most maxEntries bodies; zero means no limit.
func NewCachedFetcher(inner domain.Fetcher, maxEntries int, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		metrics: metrics,
		cache:   lru.New(maxEntries),
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if body, ok := c.lookup(url); ok {
		c.metrics.FetchCache.WithLabelValues("hit").Inc()
		return body, nil
	}
	c.metrics.FetchCache.WithLabelValues("miss").Inc()

	body, err := c.inner.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cache.Add(url, body)
	c.mu.Unlock()
	return body, nil
}

// Len returns the number of cached bodies.
func (c *CachedFetcher) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

func (c *CachedFetcher) lookup(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Get(url)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}
