package cache

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/osa-screening-server/internal/domain"
)

// TieredCache checks the in-memory tier first and falls back to Redis.
// Redis hits are promoted into memory.
type TieredCache struct {
	memory *MemoryCache
	redis  *RedisCache
	logger *logrus.Logger
}

// NewTieredCache combines a memory tier with an optional Redis tier
func NewTieredCache(memory *MemoryCache, redis *RedisCache, logger *logrus.Logger) *TieredCache {
	return &TieredCache{
		memory: memory,
		redis:  redis,
		logger: logger,
	}
}

// Get returns a cached result from the first tier that has it
func (c *TieredCache) Get(ctx context.Context, key string) (*domain.SurveyResult, bool) {
	if result, ok := c.memory.Get(ctx, key); ok {
		return result, true
	}
	if c.redis == nil {
		return nil, false
	}

	result, ok := c.redis.Get(ctx, key)
	if !ok {
		return nil, false
	}
	_ = c.memory.Set(ctx, key, result)
	c.logger.WithField("cache_tier", "redis").Debug("Promoted cached result to memory")
	return result, true
}

// Set writes to every tier. A Redis failure is returned after the memory
// tier has been updated.
func (c *TieredCache) Set(ctx context.Context, key string, result *domain.SurveyResult) error {
	if err := c.memory.Set(ctx, key, result); err != nil {
		return err
	}
	if c.redis == nil {
		return nil
	}
	return c.redis.Set(ctx, key, result)
}

// Stats returns memory tier statistics
func (c *TieredCache) Stats() Stats {
	return c.memory.Stats()
}

// Close releases both tiers
func (c *TieredCache) Close() error {
	var errs []error
	if err := c.memory.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ domain.ResultCache = (*MemoryCache)(nil)
	_ domain.ResultCache = (*RedisCache)(nil)
	_ domain.ResultCache = (*TieredCache)(nil)
)

// New builds the result cache described by cfg. It returns nil when caching
// is disabled. An unreachable Redis is logged and the memory tier is used
// alone.
func New(cfg domain.CacheConfig, logger *logrus.Logger) (domain.ResultCache, error) {
	if !cfg.Enabled {
		logger.Info("Result cache disabled")
		return nil, nil
	}

	memory, err := NewMemoryCache(cfg.MaxItems, cfg.TTL)
	if err != nil {
		return nil, err
	}

	var redisTier *RedisCache
	if cfg.RedisURL != "" {
		redisTier, err = NewRedisCache(cfg, logger)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, using in-memory result cache only")
			redisTier = nil
		}
	}

	logger.WithFields(logrus.Fields{
		"max_items": cfg.MaxItems,
		"ttl":       cfg.TTL,
		"redis":     redisTier != nil,
	}).Info("Result cache initialized")

	return NewTieredCache(memory, redisTier, logger), nil
}
