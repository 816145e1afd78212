// Package search provides semantic search over ingested knowledge
package search

import (
	"context"
	"time"

	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

// Engine defines the semantic search contract consumed by the query
// pipeline. Implementations must be safe for concurrent use.
type Engine interface {
	// SemanticSearch returns up to limit results for query, restricted
	// to documents matching all filters
	SemanticSearch(ctx context.Context, query string, filters map[string]string, limit int) ([]types.SearchResult, error)

	// TotalQueries returns the number of searches executed so far
	TotalQueries() int64

	// AverageResponseTime returns the mean search latency
	AverageResponseTime() time.Duration
}

// Indexer is implemented by engines that maintain their own index and
// need to observe ingested documents. The ingestion pipeline indexes
// into the engine when it implements this interface.
type Indexer interface {
	// Index makes documents visible to subsequent searches
	Index(ctx context.Context, docs []types.Document, embeddings [][]float32) error
}
