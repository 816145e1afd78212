package search

import (
	"context"
	"testing"
	"time"

	"github.com/HelixDevelopment/cognigraph/pkg/embedding"
	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

func newTestEngine(t *testing.T) (*ChromemEngine, embedding.Generator) {
	t.Helper()

	generator := embedding.NewHashingGenerator(64)
	engine, err := NewChromemEngine(ChromemConfig{}, generator)
	if err != nil {
		t.Fatalf("NewChromemEngine() error = %v", err)
	}
	return engine, generator
}

func indexDocs(t *testing.T, engine *ChromemEngine, generator embedding.Generator, docs []types.Document) {
	t.Helper()

	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}
	embeddings, err := generator.GenerateEmbeddings(context.Background(), contents)
	if err != nil {
		t.Fatalf("GenerateEmbeddings() error = %v", err)
	}
	if err := engine.Index(context.Background(), docs, embeddings); err != nil {
		t.Fatalf("Index() error = %v", err)
	}
}

func TestChromemIndexAndSearch(t *testing.T) {
	engine, generator := newTestEngine(t)

	indexDocs(t, engine, generator, []types.Document{
		{ID: "a", Content: "goroutines and channels enable concurrency", CreatedAt: time.Now()},
		{ID: "b", Content: "tomato soup recipe with fresh basil", CreatedAt: time.Now()},
		{ID: "c", Content: "concurrency patterns with worker pools and channels", CreatedAt: time.Now()},
	})

	if engine.DocumentCount() != 3 {
		t.Fatalf("DocumentCount() = %d, want 3", engine.DocumentCount())
	}

	results, err := engine.SemanticSearch(context.Background(), "concurrency with channels", nil, 2)
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("SemanticSearch() returned %d results, want 2", len(results))
	}
	// The cooking document should rank below both concurrency documents
	for _, r := range results {
		if r.ID == "b" {
			t.Errorf("unrelated document ranked in the top results: %+v", results)
		}
	}
	if results[0].Score < results[1].Score {
		t.Error("results should be ordered by descending similarity")
	}
}

func TestChromemSearchEmptyCollection(t *testing.T) {
	engine, _ := newTestEngine(t)

	results, err := engine.SemanticSearch(context.Background(), "anything", nil, 5)
	if err != nil {
		t.Fatalf("SemanticSearch() on empty collection error = %v", err)
	}
	if results != nil {
		t.Errorf("results = %v, want nil", results)
	}
}

func TestChromemSearchLimitClamped(t *testing.T) {
	engine, generator := newTestEngine(t)

	indexDocs(t, engine, generator, []types.Document{
		{ID: "only", Content: "a single document", CreatedAt: time.Now()},
	})

	// Asking for more results than documents must not fail
	results, err := engine.SemanticSearch(context.Background(), "document", nil, 50)
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want 1", len(results))
	}
}

func TestChromemMetadataFilters(t *testing.T) {
	engine, generator := newTestEngine(t)

	indexDocs(t, engine, generator, []types.Document{
		{ID: "prod", Content: "deployment runbook", Metadata: map[string]string{"env": "prod"}, CreatedAt: time.Now()},
		{ID: "dev", Content: "deployment runbook", Metadata: map[string]string{"env": "dev"}, CreatedAt: time.Now()},
	})

	results, err := engine.SemanticSearch(context.Background(), "deployment", map[string]string{"env": "prod"}, 10)
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}
	if len(results) != 1 || results[0].ID != "prod" {
		t.Errorf("filtered results = %+v, want only the prod document", results)
	}
}

func TestChromemIndexMismatch(t *testing.T) {
	engine, _ := newTestEngine(t)

	err := engine.Index(context.Background(), []types.Document{{ID: "x", Content: "x"}}, nil)
	if err == nil {
		t.Error("mismatched docs and embeddings should fail")
	}
}

func TestChromemQueryCounters(t *testing.T) {
	engine, generator := newTestEngine(t)

	indexDocs(t, engine, generator, []types.Document{
		{ID: "a", Content: "counter fodder", CreatedAt: time.Now()},
	})

	for i := 0; i < 3; i++ {
		if _, err := engine.SemanticSearch(context.Background(), "fodder", nil, 1); err != nil {
			t.Fatalf("SemanticSearch() error = %v", err)
		}
	}

	if engine.TotalQueries() != 3 {
		t.Errorf("TotalQueries() = %d, want 3", engine.TotalQueries())
	}
	if engine.AverageResponseTime() <= 0 {
		t.Error("AverageResponseTime() should be positive after queries")
	}
}

func TestChromemPersistence(t *testing.T) {
	dir := t.TempDir()
	generator := embedding.NewHashingGenerator(64)

	engine, err := NewChromemEngine(ChromemConfig{PersistPath: dir}, generator)
	if err != nil {
		t.Fatalf("NewChromemEngine() error = %v", err)
	}
	indexDocs(t, engine, generator, []types.Document{
		{ID: "persisted", Content: "survives restarts", CreatedAt: time.Now()},
	})

	reopened, err := NewChromemEngine(ChromemConfig{PersistPath: dir}, generator)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if reopened.DocumentCount() != 1 {
		t.Errorf("DocumentCount() after reopen = %d, want 1", reopened.DocumentCount())
	}
}
