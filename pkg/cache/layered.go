package cache

import (
	"context"
	"time"
)

// LayeredCache is a two-level cache: L1 in-process memory, L2 Redis. Reads
// fall through to Redis on a memory miss; writes go through both layers.
type LayeredCache struct {
	mem   *MemoryCache
	redis *RedisCache
}

// NewLayeredCache creates a layered cache over an existing Redis cache.
func NewLayeredCache(redisCache *RedisCache, opts ...MemoryOption) *LayeredCache {
	return &LayeredCache{
		mem:   NewMemoryCache(opts...),
		redis: redisCache,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.redis.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, value, expiration)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.mem.Get(ctx, key, dest); err == nil {
		return nil
	}
	return lc.redis.Get(ctx, key, dest)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.redis.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := lc.mem.Exists(ctx, key); ok {
		return true, nil
	}
	return lc.redis.Exists(ctx, key)
}

// Close closes both layers.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.redis.Close()
}
