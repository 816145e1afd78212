package search

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/HelixDevelopment/cognigraph/pkg/embedding"
	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

// ChromemEngine implements Engine and Indexer on top of chromem-go.
// Query embeddings come from the configured generator so indexed and
// queried vectors live in the same space.
type ChromemEngine struct {
	db         *chromem.DB
	collection *chromem.Collection

	queries    atomic.Int64
	totalNanos atomic.Int64
}

// ChromemConfig holds vector search configuration
type ChromemConfig struct {
	// PersistPath enables on-disk persistence when non-empty
	PersistPath string

	// Collection names the chromem collection, "knowledge" by default
	Collection string
}

// NewChromemEngine creates a chromem-backed search engine
func NewChromemEngine(cfg ChromemConfig, generator embedding.Generator) (*ChromemEngine, error) {
	if cfg.Collection == "" {
		cfg.Collection = "knowledge"
	}

	var db *chromem.DB
	var err error
	if cfg.PersistPath != "" {
		persistFile := filepath.Join(cfg.PersistPath, "chromem.gob")
		db, err = chromem.NewPersistentDB(persistFile, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create persistent vector DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := generator.GenerateEmbeddings(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		return vectors[0], nil
	}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &ChromemEngine{
		db:         db,
		collection: collection,
	}, nil
}

// Initialize initializes the engine
func (e *ChromemEngine) Initialize(ctx context.Context) error {
	return nil
}

// Index makes documents visible to subsequent searches
func (e *ChromemEngine) Index(ctx context.Context, docs []types.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("document count %d does not match embedding count %d", len(docs), len(embeddings))
	}

	for i, doc := range docs {
		err := e.collection.AddDocument(ctx, chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: embeddings[i],
			Metadata:  doc.Metadata,
		})
		if err != nil {
			return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
	}

	return nil
}

// SemanticSearch returns up to limit results for query
func (e *ChromemEngine) SemanticSearch(ctx context.Context, query string, filters map[string]string, limit int) ([]types.SearchResult, error) {
	start := time.Now()
	defer func() {
		e.queries.Add(1)
		e.totalNanos.Add(time.Since(start).Nanoseconds())
	}()

	if limit <= 0 {
		limit = 10
	}

	// chromem rejects nResults larger than the collection
	count := e.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	matches, err := e.collection.Query(ctx, query, limit, filters, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	results := make([]types.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, types.SearchResult{
			ID:       m.ID,
			Content:  m.Content,
			Score:    m.Similarity,
			Metadata: m.Metadata,
		})
	}

	return results, nil
}

// TotalQueries returns the number of searches executed so far
func (e *ChromemEngine) TotalQueries() int64 {
	return e.queries.Load()
}

// AverageResponseTime returns the mean search latency
func (e *ChromemEngine) AverageResponseTime() time.Duration {
	queries := e.queries.Load()
	if queries == 0 {
		return 0
	}
	return time.Duration(e.totalNanos.Load() / queries)
}

// DocumentCount returns the number of indexed documents
func (e *ChromemEngine) DocumentCount() int {
	return e.collection.Count()
}
