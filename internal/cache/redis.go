package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/osa-screening-server/internal/domain"
)

// RedisCache stores evaluation results in Redis. Calls go through a circuit
// breaker so an unreachable Redis degrades to cache misses quickly.
type RedisCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	prefix  string
	ttl     time.Duration
	logger  *logrus.Logger
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(cfg domain.CacheConfig, logger *logrus.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.PoolTimeout > 0 {
		opts.PoolTimeout = cfg.PoolTimeout
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheWithClient(client, cfg, logger), nil
}

// NewRedisCacheWithClient wraps an existing client
func NewRedisCacheWithClient(client *redis.Client, cfg domain.CacheConfig, logger *logrus.Logger) *RedisCache {
	ttl := cfg.RedisTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ResultCacheRedis",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &RedisCache{
		client:  client,
		breaker: breaker,
		prefix:  cfg.KeyPrefix,
		ttl:     ttl,
		logger:  logger,
	}
}

// Get returns a cached result. Redis errors and corrupt entries are misses.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.SurveyResult, bool) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		data, err := c.client.Get(ctx, c.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		c.logger.WithError(err).Debug("Redis cache lookup failed")
		return nil, false
	}
	data, ok := out.([]byte)
	if !ok {
		return nil, false
	}

	var result domain.SurveyResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.WithError(err).Warn("Removing corrupt Redis cache entry")
		c.client.Del(ctx, c.key(key))
		return nil, false
	}
	return &result, true
}

// Set stores a result with the configured TTL
func (c *RedisCache) Set(ctx context.Context, key string, result *domain.SurveyResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal survey result: %w", err)
	}
	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, c.key(key), data, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to write Redis cache: %w", err)
	}
	return nil
}

// State returns the circuit breaker state
func (c *RedisCache) State() gobreaker.State {
	return c.breaker.State()
}

// Close closes the Redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}
