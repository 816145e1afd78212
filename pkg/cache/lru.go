package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultMaxSize = 1024
	defaultTTL     = 10 * time.Minute
)

// LRUCache implements Store using an in-memory expirable LRU: entries
// age out after the TTL and the oldest entry is evicted at capacity
type LRUCache struct {
	entries *expirable.LRU[string, []byte]

	hits   atomic.Int64
	misses atomic.Int64
}

// LRUConfig holds LRU cache configuration
type LRUConfig struct {
	MaxSize int
	TTL     time.Duration
}

// NewLRUCache creates a new in-memory LRU cache. Zero config values
// fall back to defaults.
func NewLRUCache(cfg LRUConfig) (*LRUCache, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultMaxSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}

	return &LRUCache{
		entries: expirable.NewLRU[string, []byte](cfg.MaxSize, nil, cfg.TTL),
	}, nil
}

// Initialize initializes the cache
func (c *LRUCache) Initialize(ctx context.Context) error {
	return nil
}

// Close closes the cache
func (c *LRUCache) Close(ctx context.Context) error {
	c.entries.Purge()
	return nil
}

// Get returns the cached value for key. Expired entries read as misses.
func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cached, ok := c.entries.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)

	// Copy so cached bytes do not alias caller slices
	value := make([]byte, len(cached))
	copy(value, cached)
	return value, true, nil
}

// Set stores value under key
func (c *LRUCache) Set(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	c.entries.Add(key, stored)
	return nil
}

// HitRate returns the observed hit ratio
func (c *LRUCache) HitRate() float64 {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Len returns the number of live entries
func (c *LRUCache) Len() int {
	return c.entries.Len()
}
