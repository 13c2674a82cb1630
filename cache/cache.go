// Package cache provides the two-tier result cache the API layer composes in
// front of the forecasting engine: an in-process tier for hot keys and an
// optional shared Redis tier, with single-flight recomputation so concurrent
// requests for the same workspace+range never duplicate work.
//
// The engine itself never sees this package; callers wrap expensive
// computations in GetOrCompute explicitly.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/shadower-ai/shadow-analytics/common/logger"
	"github.com/shadower-ai/shadow-analytics/monitor"
)

// Cache is a two-tier get-or-compute cache. The memory tier always exists;
// the Redis tier is optional and shared across replicas.
type Cache struct {
	memory *gocache.Cache
	rdb    redis.Cmdable
	group  singleflight.Group
}

// New builds a cache. rdb may be nil, leaving only the in-process tier.
func New(defaultTTL time.Duration, rdb redis.Cmdable) *Cache {
	return &Cache{
		memory: gocache.New(defaultTTL, 2*defaultTTL),
		rdb:    rdb,
	}
}

// GetOrCompute returns the cached value for key, or runs compute under
// single-flight and stores the result in both tiers with the given TTL.
// Concurrent callers for the same key share one computation and one result.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if v, ok := c.memory.Get(key); ok {
		if typed, ok := v.(T); ok {
			monitor.CacheRequests.WithLabelValues("memory", "hit").Inc()
			return typed, nil
		}
	}
	monitor.CacheRequests.WithLabelValues("memory", "miss").Inc()

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have filled the memory tier while we queued.
		if v, ok := c.memory.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}

		if typed, ok := redisGet[T](ctx, c, key); ok {
			c.memory.Set(key, typed, ttl)
			monitor.CacheRequests.WithLabelValues("redis", "hit").Inc()
			return typed, nil
		}

		computed, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.memory.Set(key, computed, ttl)
		c.redisSet(ctx, key, computed, ttl)
		return computed, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops a key from both tiers, e.g. after new usage events land
// for a workspace whose buckets are cached.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.memory.Delete(key)
	if c.rdb != nil {
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			logger.Logger.Warn("failed to invalidate redis cache key", zap.String("key", key), zap.Error(err))
		}
	}
}

func redisGet[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var zero T
	if c.rdb == nil {
		return zero, false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Logger.Warn("redis cache read failed", zap.String("key", key), zap.Error(err))
		}
		return zero, false
	}
	var typed T
	if err := json.Unmarshal(raw, &typed); err != nil {
		logger.Logger.Warn("corrupt redis cache entry dropped", zap.String("key", key), zap.Error(err))
		_ = c.rdb.Del(ctx, key).Err()
		return zero, false
	}
	return typed, true
}

func (c *Cache) redisSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Logger.Warn("failed to marshal cache value", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.Logger.Warn("redis cache write failed", zap.String("key", key), zap.Error(err))
	}
}
