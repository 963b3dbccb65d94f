package cache

import (
	"context"
	"sync"
	"time"

	"nday-analyzer/src/models"
)

type entry struct {
	series models.MPriceSeries
	exp    time.Time
}

// MemoryCache is an in-process TTL map of fetched series.
type MemoryCache struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

// -----------------------------------------------------------------------------

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]entry), now: time.Now}
}

// -----------------------------------------------------------------------------

func (c *MemoryCache) Get(_ context.Context, key string) (models.MPriceSeries, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return models.MPriceSeries{}, false, nil
	}
	if !e.exp.IsZero() && c.now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return models.MPriceSeries{}, false, nil
	}
	return e.series, true, nil
}

// -----------------------------------------------------------------------------

// Set stores a copy of the series points so callers cannot mutate the entry.
// A non-positive ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key string, series models.MPriceSeries, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}

	stored := series
	stored.Points = append([]models.MPricePoint(nil), series.Points...)

	c.mu.Lock()
	c.m[key] = entry{series: stored, exp: exp}
	c.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------

// Purge drops expired entries.
func (c *MemoryCache) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
