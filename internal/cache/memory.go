// Package cache provides the evaluation result caches: an in-process
// expiring LRU and a Redis tier guarded by a circuit breaker.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osa-screening-server/internal/domain"
)

// Stats reports cache effectiveness
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Items  int   `json:"items"`
}

// MemoryCache is a size-bounded LRU whose entries expire after a fixed TTL
type MemoryCache struct {
	lru    *expirable.LRU[string, *domain.SurveyResult]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(maxItems int, ttl time.Duration) (*MemoryCache, error) {
	if maxItems <= 0 {
		return nil, fmt.Errorf("cache max items must be positive, got %d", maxItems)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache TTL must be positive, got %s", ttl)
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, *domain.SurveyResult](maxItems, nil, ttl),
	}, nil
}

// Get returns a cached result
func (c *MemoryCache) Get(_ context.Context, key string) (*domain.SurveyResult, bool) {
	result, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return result, ok
}

// Set stores a result
func (c *MemoryCache) Set(_ context.Context, key string, result *domain.SurveyResult) error {
	c.lru.Add(key, result)
	return nil
}

// Len returns the number of live entries
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// Stats returns hit and miss counters
func (c *MemoryCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Items:  c.lru.Len(),
	}
}

// Close purges all entries
func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}
