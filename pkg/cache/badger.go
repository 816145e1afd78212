package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const cacheKeyPrefix = "cache:"

// BadgerCache implements Store using BadgerDB with per-entry TTL.
// Suitable when cached results must survive restarts.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration

	hits   atomic.Int64
	misses atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// BadgerCacheConfig holds BadgerDB-specific cache configuration
type BadgerCacheConfig struct {
	Path    string
	TTL     time.Duration
	Options badger.Options
}

// NewBadgerCache creates a new BadgerDB-backed cache
func NewBadgerCache(cfg BadgerCacheConfig) (*BadgerCache, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required for BadgerDB cache")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}

	opts := cfg.Options
	if opts.Dir == "" {
		opts = badger.DefaultOptions(cfg.Path)
		opts.Logger = nil // Disable BadgerDB logging by default
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	cache := &BadgerCache{
		db:  db,
		ttl: cfg.TTL,
	}

	go cache.runGC()

	return cache, nil
}

// Initialize initializes the cache
func (c *BadgerCache) Initialize(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("cache is closed")
	}
	return nil
}

// Close closes the cache
func (c *BadgerCache) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	return c.db.Close()
}

// Get returns the cached value for key. BadgerDB expires entries via
// the TTL set on write, so an expired entry reads as not-found.
func (c *BadgerCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, false, fmt.Errorf("cache is closed")
	}

	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cacheKeyPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})

	if err == badger.ErrKeyNotFound {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		c.misses.Add(1)
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	c.hits.Add(1)
	return value, true, nil
}

// Set stores value under key with the configured TTL
func (c *BadgerCache) Set(ctx context.Context, key string, value []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("cache is closed")
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(cacheKeyPrefix+key), value).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
}

// HitRate returns the observed hit ratio
func (c *BadgerCache) HitRate() float64 {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// runGC runs periodic value-log garbage collection until closed
func (c *BadgerCache) runGC() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.RLock()
		if c.closed {
			c.mu.RUnlock()
			return
		}
		c.mu.RUnlock()

		// ErrNoRewrite just means there was nothing to collect
		if err := c.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
			return
		}
	}
}
