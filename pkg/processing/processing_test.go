package processing

import (
	"context"
	"strings"
	"testing"

	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

func TestNormalizerText(t *testing.T) {
	n := NewNormalizer()

	docs, err := n.Process(context.Background(), types.TextKnowledge("  hello\n\tworld  "))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Process() produced %d documents, want 1", len(docs))
	}
	if docs[0].Content != "hello world" {
		t.Errorf("Content = %q, want %q", docs[0].Content, "hello world")
	}
	if docs[0].Metadata["kind"] != "text" {
		t.Errorf("Metadata = %+v", docs[0].Metadata)
	}
	if docs[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestNormalizerWhitespaceOnlyText(t *testing.T) {
	n := NewNormalizer()

	if _, err := n.Process(context.Background(), types.TextKnowledge("   \n\t ")); err == nil {
		t.Error("whitespace-only text should fail")
	}
}

func TestNormalizerRecord(t *testing.T) {
	n := NewNormalizer()

	docs, err := n.Process(context.Background(), types.RecordKnowledge(map[string]interface{}{
		"title":  "design notes",
		"pages":  12,
		"draft":  true,
		"nested": map[string]interface{}{"skip": "me"},
	}))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Process() produced %d documents, want 1", len(docs))
	}

	// Keys render sorted, one per line
	want := "draft: true\nnested: map[skip:me]\npages: 12\ntitle: design notes"
	if docs[0].Content != want {
		t.Errorf("Content = %q, want %q", docs[0].Content, want)
	}

	// Scalar fields land in metadata; composite values do not
	if docs[0].Metadata["title"] != "design notes" || docs[0].Metadata["pages"] != "12" {
		t.Errorf("Metadata = %+v", docs[0].Metadata)
	}
	if _, ok := docs[0].Metadata["nested"]; ok {
		t.Error("composite field should not become metadata")
	}
}

func TestNormalizerRecordDeterministic(t *testing.T) {
	n := NewNormalizer()
	ctx := context.Background()

	record := map[string]interface{}{"b": 2, "a": 1, "c": 3}
	first, err := n.Process(ctx, types.RecordKnowledge(record))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	second, err := n.Process(ctx, types.RecordKnowledge(record))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if first[0].Content != second[0].Content {
		t.Errorf("same record produced different content: %q vs %q", first[0].Content, second[0].Content)
	}
}

func TestNormalizerCollection(t *testing.T) {
	n := NewNormalizer()

	docs, err := n.Process(context.Background(), types.CollectionKnowledge(
		types.TextKnowledge("first"),
		types.CollectionKnowledge(
			types.TextKnowledge("second"),
			types.RecordKnowledge(map[string]interface{}{"k": "third"}),
		),
	))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("Process() produced %d documents, want 3 (flattened)", len(docs))
	}
	if docs[0].Content != "first" || docs[1].Content != "second" {
		t.Errorf("flattening lost input order: %q, %q", docs[0].Content, docs[1].Content)
	}
	if !strings.Contains(docs[2].Content, "third") {
		t.Errorf("docs[2].Content = %q", docs[2].Content)
	}
}

func TestNormalizerInvalidInput(t *testing.T) {
	n := NewNormalizer()
	ctx := context.Background()

	tests := []struct {
		name      string
		knowledge types.Knowledge
	}{
		{"empty text", types.TextKnowledge("")},
		{"empty record", types.RecordKnowledge(nil)},
		{"empty collection", types.CollectionKnowledge()},
		{"unknown kind", types.Knowledge{Kind: "blob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := n.Process(ctx, tt.knowledge); err == nil {
				t.Error("Process() should fail")
			}
		})
	}
}

func TestNormalizerCounters(t *testing.T) {
	n := NewNormalizer()
	ctx := context.Background()

	if n.TotalProcessed() != 0 {
		t.Errorf("TotalProcessed() = %d before any work", n.TotalProcessed())
	}
	if n.AverageProcessingTime() != 0 {
		t.Errorf("AverageProcessingTime() = %v before any work", n.AverageProcessingTime())
	}

	n.Process(ctx, types.TextKnowledge("one"))
	n.Process(ctx, types.CollectionKnowledge(
		types.TextKnowledge("two"),
		types.TextKnowledge("three"),
	))

	if n.TotalProcessed() != 3 {
		t.Errorf("TotalProcessed() = %d, want 3", n.TotalProcessed())
	}
	if n.AverageProcessingTime() <= 0 {
		t.Errorf("AverageProcessingTime() = %v, want > 0", n.AverageProcessingTime())
	}

	// Failed calls do not advance the counter
	n.Process(ctx, types.TextKnowledge(""))
	if n.TotalProcessed() != 3 {
		t.Errorf("TotalProcessed() after failure = %d, want 3", n.TotalProcessed())
	}
}

func TestNormalizerCancellation(t *testing.T) {
	n := NewNormalizer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := n.Process(ctx, types.TextKnowledge("content")); err == nil {
		t.Error("cancelled context should abort processing")
	}
}
