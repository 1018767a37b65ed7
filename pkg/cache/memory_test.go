package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	type payload struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}
	if err := mc.Set(ctx, "k1", payload{Name: "a", Value: 1.5}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	if err := mc.Get(ctx, "k1", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "a" || got.Value != 1.5 {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	var out string
	if err := mc.Get(ctx, "absent", &out); err != ErrCacheMiss {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))

	_ = mc.Set(ctx, "a", 1, time.Minute)
	_ = mc.Set(ctx, "b", 2, time.Minute)
	// touch "a" so "b" becomes least recently used
	var n int
	_ = mc.Get(ctx, "a", &n)
	_ = mc.Set(ctx, "c", 3, time.Minute)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("expected b evicted")
	}
	if ok, _ := mc.Exists(ctx, "a"); !ok {
		t.Fatalf("expected a retained")
	}
}

func TestKeyBuilder(t *testing.T) {
	if got := Key("runs", "latest", "product"); got != "runs:latest:product" {
		t.Fatalf("unexpected key %q", got)
	}
}
