// Package metrics defines the metrics snapshot and its collectors
package metrics

import (
	"context"
	"time"
)

// Snapshot aggregates counters and gauges from every subsystem. The
// metrics loop refreshes fields independently within one collection
// cycle, so readers must tolerate fields captured at slightly
// different times.
type Snapshot struct {
	TotalNodes            int64         `json:"total_nodes"`
	TotalEdges            int64         `json:"total_edges"`
	GraphComplexity       float64       `json:"graph_complexity"`
	ProcessedDocuments    int64         `json:"processed_documents"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
	EmbeddingsGenerated   int64         `json:"embeddings_generated"`
	SearchQueries         int64         `json:"search_queries"`
	AverageResponseTime   time.Duration `json:"average_response_time"`
	CacheHitRate          float64       `json:"cache_hit_rate"`
	MemoryUsage           float64       `json:"memory_usage"`
	CPUUsage              float64       `json:"cpu_usage"`
	GPUUsage              float64       `json:"gpu_usage"`
	ProviderConnections   int           `json:"provider_connections"`
	ModelIntegrations     int           `json:"model_integrations"`
	APIRequests           int64         `json:"api_requests"`
	CollectedAt           time.Time     `json:"collected_at"`
}

// Collector receives each refreshed snapshot for export or storage
type Collector interface {
	Collect(ctx context.Context, snapshot Snapshot) error
}

// CollectorFunc adapts a function to the Collector interface
type CollectorFunc func(ctx context.Context, snapshot Snapshot) error

// Collect calls the function
func (f CollectorFunc) Collect(ctx context.Context, snapshot Snapshot) error {
	return f(ctx, snapshot)
}
