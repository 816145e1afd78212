// Package cache provides the caching contract and key construction for
// the cache-aside pipelines
package cache

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// Cache defines the interface consumed by the orchestrator's
// cache-aside pipelines. Implementations must be safe for concurrent
// use; every Get is "maybe miss" and entry eviction policy is owned by
// the implementation.
type Cache interface {
	// Get returns the cached value for key, or ok=false on a miss
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key
	Set(ctx context.Context, key string, value []byte) error

	// HitRate returns the observed hit ratio in [0,1]
	HitRate() float64
}

// Store extends Cache with lifecycle management for embedded backends
type Store interface {
	Cache

	Initialize(ctx context.Context) error
	Close(ctx context.Context) error
}

// QueryKey derives a deterministic cache key from the logical shape of
// a query request. Equal filter sets produce equal keys regardless of
// map insertion order: keys are sorted before hashing.
func QueryKey(query string, filters map[string]string, limit int) string {
	return fmt.Sprintf("query:%s:%016x:%d", query, filterDigest(filters), limit)
}

// NodeKey derives the cache key for a knowledge node
func NodeKey(nodeID string) string {
	return "node:" + nodeID
}

// filterDigest hashes a canonical, order-independent serialization of
// the filter map
func filterDigest(filters map[string]string) uint64 {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteByte('=')
		builder.WriteString(filters[k])
		builder.WriteByte(';')
	}

	h := fnv.New64a()
	h.Write([]byte(builder.String()))
	return h.Sum64()
}
