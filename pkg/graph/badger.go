package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

const (
	nodeKeyPrefix = "node:"
	edgeKeyPrefix = "edge:"
	edgeKeySep    = "|"
)

// storedNode is the persisted form of a graph node
type storedNode struct {
	Document  types.Document `json:"document"`
	Embedding []float32      `json:"embedding,omitempty"`
}

// BadgerGraph implements Store using BadgerDB for persistence. The
// adjacency index is kept in memory and rebuilt from the edge keys on
// Initialize.
type BadgerGraph struct {
	db *badger.DB

	mu        sync.RWMutex
	adjacency map[string]map[string]struct{}
	edgeCount int
	closed    bool
}

// BadgerGraphConfig holds BadgerDB-specific graph configuration
type BadgerGraphConfig struct {
	Path    string
	Options badger.Options
}

// NewBadgerGraph creates a new BadgerDB-backed graph store
func NewBadgerGraph(cfg BadgerGraphConfig) (*BadgerGraph, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required for BadgerDB graph")
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

	graph := &BadgerGraph{
		db:        db,
		adjacency: make(map[string]map[string]struct{}),
	}

	go graph.runGC()

	return graph, nil
}

// Initialize rebuilds the adjacency index from persisted keys
func (g *BadgerGraph) Initialize(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return fmt.Errorf("graph is closed")
	}

	adjacency := make(map[string]map[string]struct{})
	edgeCount := 0

	err := g.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(nodeKeyPrefix)); it.ValidForPrefix([]byte(nodeKeyPrefix)); it.Next() {
			id := strings.TrimPrefix(string(it.Item().Key()), nodeKeyPrefix)
			adjacency[id] = make(map[string]struct{})
		}

		for it.Seek([]byte(edgeKeyPrefix)); it.ValidForPrefix([]byte(edgeKeyPrefix)); it.Next() {
			pair := strings.TrimPrefix(string(it.Item().Key()), edgeKeyPrefix)
			from, to, ok := strings.Cut(pair, edgeKeySep)
			if !ok {
				continue
			}
			if adjacency[from] == nil {
				adjacency[from] = make(map[string]struct{})
			}
			if adjacency[to] == nil {
				adjacency[to] = make(map[string]struct{})
			}
			adjacency[from][to] = struct{}{}
			adjacency[to][from] = struct{}{}
			edgeCount++
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild graph index: %w", err)
	}

	g.adjacency = adjacency
	g.edgeCount = edgeCount
	return nil
}

// Close closes the store
func (g *BadgerGraph) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}

	g.closed = true
	return g.db.Close()
}

// AddNodes persists documents and links them within the batch
func (g *BadgerGraph) AddNodes(ctx context.Context, docs []types.Document, embeddings [][]float32) ([]string, error) {
	if len(docs) != len(embeddings) {
		return nil, fmt.Errorf("document count %d does not match embedding count %d", len(docs), len(embeddings))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, fmt.Errorf("graph is closed")
	}

	ids := make([]string, len(docs))
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = uuid.New().String()
		}
		if _, exists := g.adjacency[docs[i].ID]; exists {
			return nil, fmt.Errorf("node %s already exists", docs[i].ID)
		}
		ids[i] = docs[i].ID
	}

	edges := batchEdges(embeddings)

	err := g.db.Update(func(txn *badger.Txn) error {
		for i := range docs {
			data, err := json.Marshal(storedNode{Document: docs[i], Embedding: embeddings[i]})
			if err != nil {
				return fmt.Errorf("failed to marshal node %s: %w", docs[i].ID, err)
			}
			if err := txn.Set([]byte(nodeKeyPrefix+docs[i].ID), data); err != nil {
				return err
			}
		}
		for _, edge := range edges {
			if err := txn.Set([]byte(edgeKey(ids[edge[0]], ids[edge[1]])), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store nodes: %w", err)
	}

	for _, id := range ids {
		g.adjacency[id] = make(map[string]struct{})
	}
	for _, edge := range edges {
		from, to := ids[edge[0]], ids[edge[1]]
		if _, exists := g.adjacency[from][to]; exists {
			continue
		}
		g.adjacency[from][to] = struct{}{}
		g.adjacency[to][from] = struct{}{}
		g.edgeCount++
	}

	return ids, nil
}

// edgeKey builds the persisted key for an undirected edge, ordering
// the endpoints so each edge is stored exactly once
func edgeKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return edgeKeyPrefix + a + edgeKeySep + b
}

// GetNode retrieves a node by ID
func (g *BadgerGraph) GetNode(ctx context.Context, nodeID string) (*types.Document, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return nil, fmt.Errorf("graph is closed")
	}

	var node storedNode
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(nodeKeyPrefix + nodeID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &node)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("node %s not found", nodeID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read node %s: %w", nodeID, err)
	}

	return &node.Document, nil
}

// NodeCount returns the number of nodes
func (g *BadgerGraph) NodeCount(ctx context.Context) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.adjacency), nil
}

// EdgeCount returns the number of edges
func (g *BadgerGraph) EdgeCount(ctx context.Context) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCount, nil
}

// ComplexityScore returns the density-derived complexity of the graph
func (g *BadgerGraph) ComplexityScore(ctx context.Context) (float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return complexity(len(g.adjacency), g.edgeCount), nil
}

// Analyze runs a named analysis over the graph
func (g *BadgerGraph) Analyze(ctx context.Context, analysisType string, params map[string]interface{}) (map[string]interface{}, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return analyzeAdjacency(g.adjacency, g.edgeCount, analysisType, params)
}

// runGC runs periodic value-log garbage collection until closed
func (g *BadgerGraph) runGC() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		g.mu.RLock()
		if g.closed {
			g.mu.RUnlock()
			return
		}
		g.mu.RUnlock()

		if err := g.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
			return
		}
	}
}
