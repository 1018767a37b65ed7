package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time
	lastUsed time.Time
}

func (m *memoryItem) expired() bool { return time.Now().After(m.expireAt) }

// MemoryCache implements Service with an in-process map and LRU eviction.
// Values are stored JSON-encoded so Get semantics match the Redis backend.
type MemoryCache struct {
	mu      sync.Mutex
	data    map[string]*memoryItem
	maxSize int
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{MaxSize: 1000}
	for _, opt := range opts {
		opt(cfg)
	}
	return &MemoryCache{
		data:    make(map[string]*memoryItem),
		maxSize: cfg.MaxSize,
	}
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, ok := mc.data[key]; !ok && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}

	expireAt := time.Now().Add(expiration)
	if expiration <= 0 {
		expireAt = time.Now().Add(24 * time.Hour)
	}
	now := time.Now()
	mc.data[key] = &memoryItem{value: b, expireAt: expireAt, lastUsed: now}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, ok := mc.data[key]
	if !ok || item.expired() {
		if ok {
			delete(mc.data, key)
		}
		return ErrCacheMiss
	}
	item.lastUsed = time.Now()
	return json.Unmarshal(item.value, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		delete(mc.data, key)
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	item, ok := mc.data[key]
	return ok && !item.expired(), nil
}

func (mc *MemoryCache) Close() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.data = make(map[string]*memoryItem)
	return nil
}

// evictLRU removes the least recently used entry. Caller holds the lock.
func (mc *MemoryCache) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for k, item := range mc.data {
		if oldestKey == "" || item.lastUsed.Before(oldest) {
			oldestKey = k
			oldest = item.lastUsed
		}
	}
	if oldestKey != "" {
		delete(mc.data, oldestKey)
	}
}
