package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

// MemoryGraph implements Store using in-memory storage
type MemoryGraph struct {
	nodes      map[string]*types.Document
	embeddings map[string][]float32
	adjacency  map[string]map[string]struct{}
	edgeCount  int
	mu         sync.RWMutex
}

// NewMemoryGraph creates a new memory-based graph store
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		nodes:      make(map[string]*types.Document),
		embeddings: make(map[string][]float32),
		adjacency:  make(map[string]map[string]struct{}),
	}
}

// Initialize initializes the store
func (g *MemoryGraph) Initialize(ctx context.Context) error {
	return nil
}

// Close closes the store
func (g *MemoryGraph) Close(ctx context.Context) error {
	return nil
}

// AddNodes stores documents and links them within the batch
func (g *MemoryGraph) AddNodes(ctx context.Context, docs []types.Document, embeddings [][]float32) ([]string, error) {
	if len(docs) != len(embeddings) {
		return nil, fmt.Errorf("document count %d does not match embedding count %d", len(docs), len(embeddings))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]string, len(docs))
	for i := range docs {
		doc := docs[i]
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		if _, exists := g.nodes[doc.ID]; exists {
			return nil, fmt.Errorf("node %s already exists", doc.ID)
		}

		// Store a copy to avoid external modifications
		docCopy := doc
		g.nodes[doc.ID] = &docCopy
		g.embeddings[doc.ID] = embeddings[i]
		g.adjacency[doc.ID] = make(map[string]struct{})
		ids[i] = doc.ID
	}

	for _, edge := range batchEdges(embeddings) {
		g.link(ids[edge[0]], ids[edge[1]])
	}

	return ids, nil
}

// link adds an undirected edge between two nodes, ignoring duplicates
func (g *MemoryGraph) link(from, to string) {
	if from == to {
		return
	}
	if _, exists := g.adjacency[from][to]; exists {
		return
	}
	g.adjacency[from][to] = struct{}{}
	g.adjacency[to][from] = struct{}{}
	g.edgeCount++
}

// GetNode retrieves a node by ID
func (g *MemoryGraph) GetNode(ctx context.Context, nodeID string) (*types.Document, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, exists := g.nodes[nodeID]
	if !exists {
		return nil, fmt.Errorf("node %s not found", nodeID)
	}

	nodeCopy := *node
	return &nodeCopy, nil
}

// NodeCount returns the number of nodes
func (g *MemoryGraph) NodeCount(ctx context.Context) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes), nil
}

// EdgeCount returns the number of edges
func (g *MemoryGraph) EdgeCount(ctx context.Context) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCount, nil
}

// ComplexityScore returns the density-derived complexity of the graph
func (g *MemoryGraph) ComplexityScore(ctx context.Context) (float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return complexity(len(g.nodes), g.edgeCount), nil
}

// Analyze runs a named analysis over the graph
func (g *MemoryGraph) Analyze(ctx context.Context, analysisType string, params map[string]interface{}) (map[string]interface{}, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return analyzeAdjacency(g.adjacency, g.edgeCount, analysisType, params)
}
