package cache

import (
	"context"
	"testing"
	"time"
)

func TestQueryKeyOrderIndependence(t *testing.T) {
	a := QueryKey("find services", map[string]string{"env": "prod", "team": "core"}, 10)
	b := QueryKey("find services", map[string]string{"team": "core", "env": "prod"}, 10)

	if a != b {
		t.Errorf("equal filter sets produced different keys: %q vs %q", a, b)
	}
}

func TestQueryKeyDiscriminates(t *testing.T) {
	base := QueryKey("query", map[string]string{"a": "1"}, 10)

	tests := []struct {
		name string
		key  string
	}{
		{"different query", QueryKey("other", map[string]string{"a": "1"}, 10)},
		{"different filter value", QueryKey("query", map[string]string{"a": "2"}, 10)},
		{"different filter key", QueryKey("query", map[string]string{"b": "1"}, 10)},
		{"different limit", QueryKey("query", map[string]string{"a": "1"}, 20)},
		{"no filters", QueryKey("query", nil, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key == base {
				t.Errorf("key %q should differ from base %q", tt.key, base)
			}
		})
	}
}

func TestQueryKeyEmptyFiltersStable(t *testing.T) {
	if QueryKey("q", nil, 5) != QueryKey("q", map[string]string{}, 5) {
		t.Error("nil and empty filter maps should produce the same key")
	}
}

func TestNodeKey(t *testing.T) {
	if got := NodeKey("abc-123"); got != "node:abc-123" {
		t.Errorf("NodeKey() = %q", got)
	}
}

func TestLRUCacheGetSet(t *testing.T) {
	cache, err := NewLRUCache(LRUConfig{MaxSize: 8, TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewLRUCache() error = %v", err)
	}

	ctx := context.Background()

	if _, ok, err := cache.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want miss", ok, err)
	}

	if err := cache.Set(ctx, "key", []byte("value")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, ok, err := cache.Get(ctx, "key")
	if err != nil || !ok {
		t.Fatalf("Get(key) = ok=%v err=%v, want hit", ok, err)
	}
	if string(value) != "value" {
		t.Errorf("Get(key) = %q, want %q", value, "value")
	}
}

func TestLRUCacheValueIsolation(t *testing.T) {
	cache, err := NewLRUCache(LRUConfig{})
	if err != nil {
		t.Fatalf("NewLRUCache() error = %v", err)
	}

	ctx := context.Background()
	original := []byte("original")
	if err := cache.Set(ctx, "key", original); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	original[0] = 'X'

	value, ok, _ := cache.Get(ctx, "key")
	if !ok || string(value) != "original" {
		t.Errorf("cached value was aliased to caller slice: %q", value)
	}

	value[0] = 'Y'
	again, _, _ := cache.Get(ctx, "key")
	if string(again) != "original" {
		t.Errorf("returned value was aliased to cached slice: %q", again)
	}
}

func TestLRUCacheTTLExpiry(t *testing.T) {
	cache, err := NewLRUCache(LRUConfig{TTL: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewLRUCache() error = %v", err)
	}

	ctx := context.Background()
	if err := cache.Set(ctx, "key", []byte("value")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if _, ok, _ := cache.Get(ctx, "key"); ok {
		t.Error("expired entry should read as a miss")
	}
	if cache.Len() != 0 {
		t.Errorf("expired entry should be evicted, Len() = %d", cache.Len())
	}
}

func TestLRUCacheEviction(t *testing.T) {
	cache, err := NewLRUCache(LRUConfig{MaxSize: 2, TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewLRUCache() error = %v", err)
	}

	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		if err := cache.Set(ctx, key, []byte(key)); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}

	if _, ok, _ := cache.Get(ctx, "a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok, _ := cache.Get(ctx, "c"); !ok {
		t.Error("newest entry should still be cached")
	}
}

func TestLRUCacheHitRate(t *testing.T) {
	cache, err := NewLRUCache(LRUConfig{})
	if err != nil {
		t.Fatalf("NewLRUCache() error = %v", err)
	}

	ctx := context.Background()
	if rate := cache.HitRate(); rate != 0 {
		t.Errorf("HitRate() before any traffic = %v, want 0", rate)
	}

	cache.Set(ctx, "key", []byte("v"))
	cache.Get(ctx, "key")
	cache.Get(ctx, "key")
	cache.Get(ctx, "missing")
	cache.Get(ctx, "missing")

	if rate := cache.HitRate(); rate != 0.5 {
		t.Errorf("HitRate() = %v, want 0.5", rate)
	}
}

func TestBadgerCacheRoundTrip(t *testing.T) {
	cache, err := NewBadgerCache(BadgerCacheConfig{
		Path: t.TempDir(),
		TTL:  time.Minute,
	})
	if err != nil {
		t.Fatalf("NewBadgerCache() error = %v", err)
	}

	ctx := context.Background()
	defer cache.Close(ctx)

	if err := cache.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if _, ok, err := cache.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want miss", ok, err)
	}

	if err := cache.Set(ctx, "key", []byte("value")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, ok, err := cache.Get(ctx, "key")
	if err != nil || !ok {
		t.Fatalf("Get(key) = ok=%v err=%v, want hit", ok, err)
	}
	if string(value) != "value" {
		t.Errorf("Get(key) = %q, want %q", value, "value")
	}

	if rate := cache.HitRate(); rate != 0.5 {
		t.Errorf("HitRate() = %v, want 0.5", rate)
	}
}

func TestBadgerCacheClosedOperations(t *testing.T) {
	cache, err := NewBadgerCache(BadgerCacheConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("NewBadgerCache() error = %v", err)
	}

	ctx := context.Background()
	if err := cache.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := cache.Close(ctx); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}

	if _, _, err := cache.Get(ctx, "key"); err == nil {
		t.Error("Get on closed cache should fail")
	}
	if err := cache.Set(ctx, "key", nil); err == nil {
		t.Error("Set on closed cache should fail")
	}
}

func TestBadgerCacheRequiresPath(t *testing.T) {
	if _, err := NewBadgerCache(BadgerCacheConfig{}); err == nil {
		t.Error("NewBadgerCache without path should fail")
	}
}
