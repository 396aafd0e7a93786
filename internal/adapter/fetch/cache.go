package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// CachedClient decorates a Getter with a per-URL TTL cache. Used for feeds
// that update slower than the refresh tick (stream gauges publish every 15
// minutes or so). Only successful responses are cached, so a transient
// failure is retried on the next tick.
type CachedClient struct {
	inner Getter
	clock clockwork.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewCachedClient creates a cache decorator. A nil clock falls back to the
// real clock.
func NewCachedClient(inner Getter, ttl time.Duration, clock clockwork.Clock) *CachedClient {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedClient{
		inner:   inner,
		clock:   clock,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached payload when fresh, otherwise fetches and caches.
func (c *CachedClient) Get(ctx context.Context, url string) ([]byte, error) {
	now := c.clock.Now()

	c.mu.Lock()
	if e, ok := c.entries[url]; ok && now.Before(e.expiresAt) {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	value, err := c.inner.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[url] = cacheEntry{value: value, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
	return value, nil
}
