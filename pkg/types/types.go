// Package types defines the core types shared across cognigraph packages
package types

import (
	"fmt"
	"time"
)

// KnowledgeKind discriminates the accepted input shapes for ingestion
type KnowledgeKind string

const (
	KnowledgeText       KnowledgeKind = "text"
	KnowledgeRecord     KnowledgeKind = "record"
	KnowledgeCollection KnowledgeKind = "collection"
)

// Knowledge is a tagged union over the input shapes the ingestion
// pipeline accepts. Exactly one of Text, Record, or Items is set,
// according to Kind.
type Knowledge struct {
	Kind   KnowledgeKind          `json:"kind"`
	Text   string                 `json:"text,omitempty"`
	Record map[string]interface{} `json:"record,omitempty"`
	Items  []Knowledge            `json:"items,omitempty"`
}

// TextKnowledge wraps a plain text fragment
func TextKnowledge(text string) Knowledge {
	return Knowledge{Kind: KnowledgeText, Text: text}
}

// RecordKnowledge wraps a structured record
func RecordKnowledge(record map[string]interface{}) Knowledge {
	return Knowledge{Kind: KnowledgeRecord, Record: record}
}

// CollectionKnowledge wraps a list of knowledge fragments
func CollectionKnowledge(items ...Knowledge) Knowledge {
	return Knowledge{Kind: KnowledgeCollection, Items: items}
}

// Validate checks that the union is well-formed
func (k Knowledge) Validate() error {
	switch k.Kind {
	case KnowledgeText:
		if k.Text == "" {
			return fmt.Errorf("text knowledge must not be empty")
		}
	case KnowledgeRecord:
		if len(k.Record) == 0 {
			return fmt.Errorf("record knowledge must not be empty")
		}
	case KnowledgeCollection:
		if len(k.Items) == 0 {
			return fmt.Errorf("collection knowledge must not be empty")
		}
		for i, item := range k.Items {
			if err := item.Validate(); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unknown knowledge kind: %q", k.Kind)
	}
	return nil
}

// Document is a normalized unit of knowledge produced by the processor
// and stored in the graph
type Document struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// SearchResult is a single semantic search match
type SearchResult struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CheckResult is the outcome of a single named health probe
type CheckResult struct {
	Healthy bool          `json:"healthy"`
	Error   string        `json:"error,omitempty"`
	Latency time.Duration `json:"latency"`
}

// HealthStatus aggregates the results of all health probes
type HealthStatus struct {
	Healthy bool                   `json:"healthy"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// OptimizationResult describes the outcome of one optimizer pass
type OptimizationResult struct {
	Optimized  bool     `json:"optimized"`
	Actions    []string `json:"actions,omitempty"`
	FreedBytes uint64   `json:"freed_bytes,omitempty"`
	Detail     string   `json:"detail,omitempty"`
}

// OptimizerStatus is a point-in-time view of resource usage
type OptimizerStatus struct {
	MemoryUsage float64   `json:"memory_usage"`
	CPUUsage    float64   `json:"cpu_usage"`
	GPUUsage    float64   `json:"gpu_usage"`
	HeapBytes   uint64    `json:"heap_bytes"`
	Goroutines  int       `json:"goroutines"`
	LastRun     time.Time `json:"last_run"`
}

// InsightSummary is the secondary enrichment layered on top of raw
// graph analysis. No guarantee of non-empty content.
type InsightSummary struct {
	Summary         string             `json:"summary,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
	Confidence      map[string]float64 `json:"confidence,omitempty"`
	RelatedConcepts []string           `json:"related_concepts,omitempty"`
}

// InsightEnvelope wraps graph analysis plus enrichment, tagged with the
// analysis type and a capture timestamp
type InsightEnvelope struct {
	GraphInsights map[string]interface{} `json:"graph_insights"`
	Enrichment    *InsightSummary        `json:"enrichment,omitempty"`
	AnalysisType  string                 `json:"analysis_type"`
	Parameters    map[string]interface{} `json:"parameters,omitempty"`
	CapturedAt    time.Time              `json:"captured_at"`
}

// Integration describes a registered provider or model integration
type Integration struct {
	Provider  string            `json:"provider"`
	Model     string            `json:"model,omitempty"`
	Config    map[string]string `json:"config,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
