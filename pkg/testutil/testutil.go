// Package testutil provides shared testing utilities for cognigraph
package testutil

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HelixDevelopment/cognigraph/pkg/cache"
	"github.com/HelixDevelopment/cognigraph/pkg/config"
	"github.com/HelixDevelopment/cognigraph/pkg/embedding"
	"github.com/HelixDevelopment/cognigraph/pkg/graph"
	"github.com/HelixDevelopment/cognigraph/pkg/health"
	"github.com/HelixDevelopment/cognigraph/pkg/integrations"
	"github.com/HelixDevelopment/cognigraph/pkg/logging"
	"github.com/HelixDevelopment/cognigraph/pkg/metrics"
	"github.com/HelixDevelopment/cognigraph/pkg/optimize"
	"github.com/HelixDevelopment/cognigraph/pkg/orchestrator"
	"github.com/HelixDevelopment/cognigraph/pkg/processing"
	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

// TestConfig returns a configuration with short intervals suitable for
// tests
func TestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Metrics.CollectionInterval = 20 * time.Millisecond
	cfg.Health.CheckInterval = 20 * time.Millisecond
	cfg.Optimizer.OptimizationInterval = 20 * time.Millisecond
	cfg.Logging.Level = "error"
	return cfg
}

// NewTestOrchestrator builds an orchestrator from in-memory
// collaborators, with overrides applied to the collaborator config
// before construction
func NewTestOrchestrator(overrides func(*orchestrator.Config)) (*orchestrator.Orchestrator, error) {
	generator := embedding.NewHashingGenerator(64)

	cfg := orchestrator.Config{
		Config:       TestConfig(),
		Graph:        graph.NewMemoryGraph(),
		Processor:    processing.NewNormalizer(),
		Embeddings:   generator,
		Search:       NewMockSearchEngine(),
		Integrations: integrations.NewRegistry(),
		Optimizer:    optimize.NewRuntimeOptimizer(optimize.RuntimeConfig{}),
		Cache:        NewMockCache(),
		Collector:    metrics.CollectorFunc(func(context.Context, metrics.Snapshot) error { return nil }),
		Health:       health.NewMultiChecker(time.Second),
		Logger:       logging.Discard(),
	}

	if overrides != nil {
		overrides(&cfg)
	}

	return orchestrator.New(cfg)
}

// MockSearchEngine is a deterministic in-memory search engine that
// matches on substring containment
type MockSearchEngine struct {
	mu   sync.RWMutex
	docs []types.Document

	queries atomic.Int64

	// SearchError fails every search when set
	SearchError error
}

// NewMockSearchEngine creates an empty mock search engine
func NewMockSearchEngine() *MockSearchEngine {
	return &MockSearchEngine{}
}

// Index records documents for later matching
func (e *MockSearchEngine) Index(ctx context.Context, docs []types.Document, embeddings [][]float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.docs = append(e.docs, docs...)
	return nil
}

// SemanticSearch matches documents containing the query string
func (e *MockSearchEngine) SemanticSearch(ctx context.Context, query string, filters map[string]string, limit int) ([]types.SearchResult, error) {
	e.queries.Add(1)

	if e.SearchError != nil {
		return nil, e.SearchError
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var results []types.SearchResult
	for _, doc := range e.docs {
		if limit > 0 && len(results) >= limit {
			break
		}
		if !containsFold(doc.Content, query) {
			continue
		}
		if !matchesFilters(doc.Metadata, filters) {
			continue
		}
		results = append(results, types.SearchResult{
			ID:       doc.ID,
			Content:  doc.Content,
			Score:    1.0,
			Metadata: doc.Metadata,
		})
	}
	return results, nil
}

// TotalQueries returns the number of searches executed
func (e *MockSearchEngine) TotalQueries() int64 {
	return e.queries.Load()
}

// AverageResponseTime returns a fixed latency
func (e *MockSearchEngine) AverageResponseTime() time.Duration {
	return time.Millisecond
}

// MockCache is a map-backed cache that records its traffic
type MockCache struct {
	mu      sync.RWMutex
	entries map[string][]byte

	hits   atomic.Int64
	misses atomic.Int64

	// GetError and SetError fail the respective operations when set
	GetError error
	SetError error
}

// NewMockCache creates an empty mock cache
func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string][]byte)}
}

// Get returns the cached value for key
func (c *MockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.GetError != nil {
		return nil, false, c.GetError
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)
	return value, true, nil
}

// Set stores value under key
func (c *MockCache) Set(ctx context.Context, key string, value []byte) error {
	if c.SetError != nil {
		return c.SetError
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

// HitRate returns the observed hit ratio
func (c *MockCache) HitRate() float64 {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Len returns the number of entries
func (c *MockCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// FailingGraph wraps a graph store and fails AddNodes with the
// configured error
type FailingGraph struct {
	graph.Store
	AddError error
}

// AddNodes fails when AddError is set, otherwise delegates
func (g *FailingGraph) AddNodes(ctx context.Context, docs []types.Document, embeddings [][]float32) ([]string, error) {
	if g.AddError != nil {
		return nil, g.AddError
	}
	return g.Store.AddNodes(ctx, docs, embeddings)
}

// FailingInitializer is a health checker whose Initialize fails until
// Recover is called, for exercising initialization retry
type FailingInitializer struct {
	health.Checker
	mu     sync.Mutex
	failed bool
	calls  int
}

// NewFailingInitializer wraps a checker with a failing Initialize
func NewFailingInitializer(inner health.Checker) *FailingInitializer {
	return &FailingInitializer{Checker: inner, failed: true}
}

// Initialize fails until Recover is called
func (f *FailingInitializer) Initialize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failed {
		return fmt.Errorf("initialization failed")
	}
	return nil
}

// Recover makes subsequent Initialize calls succeed
func (f *FailingInitializer) Recover() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = false
}

// InitCalls returns how many times Initialize ran
func (f *FailingInitializer) InitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// GetFreePort returns an available TCP port
func GetFreePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// WaitForCondition polls condition until it returns true or the
// timeout elapses
func WaitForCondition(condition func() bool, timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return condition()
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func matchesFilters(metadata, filters map[string]string) bool {
	for k, v := range filters {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// Interface conformance checks
var (
	_ cache.Cache = (*MockCache)(nil)
)
