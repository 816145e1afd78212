// Package processing normalizes raw knowledge inputs into documents
// ready for embedding and graph storage
package processing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

// Processor turns a knowledge input into normalized documents.
// Implementations must be safe for concurrent use.
type Processor interface {
	// Process validates and normalizes the input. A collection yields
	// one document per leaf item, in order.
	Process(ctx context.Context, knowledge types.Knowledge) ([]types.Document, error)

	// TotalProcessed returns the number of documents produced so far
	TotalProcessed() int64

	// AverageProcessingTime returns a smoothed per-call latency
	AverageProcessingTime() time.Duration
}

// ewmaAlpha weights recent calls in the smoothed latency
const ewmaAlpha = 0.2

// Normalizer is the default Processor. It trims and collapses
// whitespace in text, renders records as sorted key/value lines, and
// flattens collections depth-first.
type Normalizer struct {
	processed atomic.Int64

	mu       sync.Mutex
	ewmaNano float64
}

// NewNormalizer creates the default processor
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Initialize initializes the processor
func (n *Normalizer) Initialize(ctx context.Context) error {
	return nil
}

// Process validates and normalizes the input
func (n *Normalizer) Process(ctx context.Context, knowledge types.Knowledge) ([]types.Document, error) {
	start := time.Now()

	if err := knowledge.Validate(); err != nil {
		return nil, fmt.Errorf("invalid knowledge: %w", err)
	}

	docs, err := n.flatten(ctx, knowledge)
	if err != nil {
		return nil, err
	}

	n.processed.Add(int64(len(docs)))
	n.observe(time.Since(start))
	return docs, nil
}

// flatten produces documents for one knowledge value, recursing into
// collections
func (n *Normalizer) flatten(ctx context.Context, knowledge types.Knowledge) ([]types.Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	now := time.Now().UTC()

	switch knowledge.Kind {
	case types.KnowledgeText:
		content := normalizeText(knowledge.Text)
		if content == "" {
			return nil, fmt.Errorf("text knowledge is empty after normalization")
		}
		return []types.Document{{
			Content:   content,
			Metadata:  map[string]string{"kind": string(types.KnowledgeText)},
			CreatedAt: now,
		}}, nil

	case types.KnowledgeRecord:
		content, metadata := renderRecord(knowledge.Record)
		metadata["kind"] = string(types.KnowledgeRecord)
		return []types.Document{{
			Content:   content,
			Metadata:  metadata,
			CreatedAt: now,
		}}, nil

	case types.KnowledgeCollection:
		var docs []types.Document
		for i, item := range knowledge.Items {
			itemDocs, err := n.flatten(ctx, item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			docs = append(docs, itemDocs...)
		}
		return docs, nil

	default:
		return nil, fmt.Errorf("unknown knowledge kind: %q", knowledge.Kind)
	}
}

// TotalProcessed returns the number of documents produced so far
func (n *Normalizer) TotalProcessed() int64 {
	return n.processed.Load()
}

// AverageProcessingTime returns an exponentially weighted moving
// average of per-call latency
func (n *Normalizer) AverageProcessingTime() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return time.Duration(n.ewmaNano)
}

func (n *Normalizer) observe(elapsed time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ewmaNano == 0 {
		n.ewmaNano = float64(elapsed.Nanoseconds())
		return
	}
	n.ewmaNano = ewmaAlpha*float64(elapsed.Nanoseconds()) + (1-ewmaAlpha)*n.ewmaNano
}

// normalizeText trims and collapses interior whitespace
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// renderRecord renders a record as sorted "key: value" lines and
// extracts scalar fields into string metadata. Sorting keeps output
// stable across runs for identical records.
func renderRecord(record map[string]interface{}) (string, map[string]string) {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	metadata := make(map[string]string, len(record))
	for _, k := range keys {
		value := fmt.Sprintf("%v", record[k])
		builder.WriteString(k)
		builder.WriteString(": ")
		builder.WriteString(value)
		builder.WriteString("\n")

		switch record[k].(type) {
		case string, bool, int, int64, float64:
			metadata[k] = value
		}
	}

	return strings.TrimRight(builder.String(), "\n"), metadata
}
