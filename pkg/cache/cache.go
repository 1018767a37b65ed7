package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service defines the cache operations the forecasting service needs: run
// summaries for the API and materialized series reuse within a run.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// Key builds a cache key from a prefix and parts.
func Key(prefix string, parts ...string) string {
	key := prefix
	for _, p := range parts {
		key += ":" + p
	}
	return key
}
