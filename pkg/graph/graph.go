// Package graph provides knowledge graph storage backends
package graph

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

// Store defines the knowledge graph contract consumed by the ingestion
// and insight pipelines. Implementations must be safe for concurrent
// use.
type Store interface {
	// Initialize prepares the store for use
	Initialize(ctx context.Context) error

	// Close releases underlying resources
	Close(ctx context.Context) error

	// AddNodes stores documents with their embeddings and links them,
	// returning the assigned node IDs in input order
	AddNodes(ctx context.Context, docs []types.Document, embeddings [][]float32) ([]string, error)

	// NodeCount returns the number of nodes in the graph
	NodeCount(ctx context.Context) (int, error)

	// EdgeCount returns the number of edges in the graph
	EdgeCount(ctx context.Context) (int, error)

	// ComplexityScore returns a density-derived measure of graph
	// complexity in [0,1]
	ComplexityScore(ctx context.Context) (float64, error)

	// Analyze runs a named analysis over the graph and returns its
	// findings
	Analyze(ctx context.Context, analysisType string, params map[string]interface{}) (map[string]interface{}, error)
}

// similarityThreshold is the minimum cosine similarity for two
// documents in the same batch to be linked
const similarityThreshold = 0.85

// batchEdges returns index pairs to link within an ingestion batch:
// consecutive documents form a chain, and document pairs whose
// embeddings are sufficiently similar get an additional edge.
func batchEdges(embeddings [][]float32) [][2]int {
	var edges [][2]int
	n := len(embeddings)
	for i := 0; i < n-1; i++ {
		edges = append(edges, [2]int{i, i + 1})
	}
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if cosineSimilarity(embeddings[i], embeddings[j]) >= similarityThreshold {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return edges
}

// cosineSimilarity returns the cosine similarity of two vectors, or 0
// when either has no magnitude or the lengths differ
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// complexity derives a [0,1] score from node and edge counts. It
// saturates as the average degree approaches a well-connected graph.
func complexity(nodes, edges int) float64 {
	if nodes == 0 {
		return 0
	}
	avgDegree := 2 * float64(edges) / float64(nodes)
	return 1 - math.Exp(-avgDegree/4)
}

func averageDegree(nodes, edges int) float64 {
	if nodes == 0 {
		return 0
	}
	return 2 * float64(edges) / float64(nodes)
}

// analyzeAdjacency runs a named analysis over an adjacency index.
// Callers must hold whatever lock protects the index.
func analyzeAdjacency(adj map[string]map[string]struct{}, edgeCount int, analysisType string, params map[string]interface{}) (map[string]interface{}, error) {
	switch analysisType {
	case "", "general", "overview":
		return map[string]interface{}{
			"node_count":       len(adj),
			"edge_count":       edgeCount,
			"complexity_score": complexity(len(adj), edgeCount),
			"average_degree":   averageDegree(len(adj), edgeCount),
		}, nil
	case "connectivity":
		isolated := 0
		for id := range adj {
			if len(adj[id]) == 0 {
				isolated++
			}
		}
		return map[string]interface{}{
			"node_count":     len(adj),
			"edge_count":     edgeCount,
			"isolated_nodes": isolated,
			"components":     componentCount(adj),
			"average_degree": averageDegree(len(adj), edgeCount),
		}, nil
	case "hubs", "centrality":
		return map[string]interface{}{
			"node_count": len(adj),
			"hubs":       topDegreeNodes(adj, analysisLimit(params)),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported analysis type: %s", analysisType)
	}
}

// componentCount counts connected components by traversal
func componentCount(adj map[string]map[string]struct{}) int {
	visited := make(map[string]bool, len(adj))
	components := 0

	for id := range adj {
		if visited[id] {
			continue
		}
		components++

		stack := []string{id}
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[current] {
				continue
			}
			visited[current] = true
			for neighbor := range adj[current] {
				if !visited[neighbor] {
					stack = append(stack, neighbor)
				}
			}
		}
	}

	return components
}

// RankedNode is a node ranked by degree in hub analysis output
type RankedNode struct {
	ID     string `json:"id"`
	Degree int    `json:"degree"`
}

// topDegreeNodes returns the limit highest-degree nodes, ties broken
// by ID for deterministic output
func topDegreeNodes(adj map[string]map[string]struct{}, limit int) []RankedNode {
	nodes := make([]RankedNode, 0, len(adj))
	for id := range adj {
		nodes = append(nodes, RankedNode{ID: id, Degree: len(adj[id])})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Degree != nodes[j].Degree {
			return nodes[i].Degree > nodes[j].Degree
		}
		return nodes[i].ID < nodes[j].ID
	})
	if len(nodes) > limit {
		nodes = nodes[:limit]
	}
	return nodes
}

// analysisLimit extracts a positive "limit" parameter, defaulting to 10.
// JSON-decoded parameters arrive as float64.
func analysisLimit(params map[string]interface{}) int {
	switch v := params["limit"].(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	}
	return 10
}
