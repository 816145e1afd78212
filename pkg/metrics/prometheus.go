package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector exports snapshots as Prometheus gauges on a
// private registry, so multiple orchestrators in one process do not
// collide on metric names
type PrometheusCollector struct {
	registry *prometheus.Registry

	totalNodes            prometheus.Gauge
	totalEdges            prometheus.Gauge
	graphComplexity       prometheus.Gauge
	processedDocuments    prometheus.Gauge
	averageProcessingTime prometheus.Gauge
	embeddingsGenerated   prometheus.Gauge
	searchQueries         prometheus.Gauge
	averageResponseTime   prometheus.Gauge
	cacheHitRate          prometheus.Gauge
	memoryUsage           prometheus.Gauge
	cpuUsage              prometheus.Gauge
	gpuUsage              prometheus.Gauge
	providerConnections   prometheus.Gauge
	modelIntegrations     prometheus.Gauge
	apiRequests           prometheus.Gauge
}

// PrometheusConfig holds Prometheus collector configuration
type PrometheusConfig struct {
	Namespace string
	Subsystem string
}

// NewPrometheusCollector creates a collector with all snapshot gauges
// registered on a fresh registry
func NewPrometheusCollector(cfg PrometheusConfig) *PrometheusCollector {
	if cfg.Namespace == "" {
		cfg.Namespace = "cognigraph"
	}

	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		})
	}

	c := &PrometheusCollector{
		registry:              prometheus.NewRegistry(),
		totalNodes:            gauge("graph_nodes_total", "Number of nodes in the knowledge graph"),
		totalEdges:            gauge("graph_edges_total", "Number of edges in the knowledge graph"),
		graphComplexity:       gauge("graph_complexity_score", "Density-derived graph complexity in [0,1]"),
		processedDocuments:    gauge("processed_documents_total", "Documents produced by the processor"),
		averageProcessingTime: gauge("processing_time_avg_seconds", "Smoothed per-call processing latency"),
		embeddingsGenerated:   gauge("embeddings_generated_total", "Embedding vectors generated"),
		searchQueries:         gauge("search_queries_total", "Searches executed against the search engine"),
		averageResponseTime:   gauge("search_response_time_avg_seconds", "Mean semantic search latency"),
		cacheHitRate:          gauge("cache_hit_rate", "Cache hit ratio in [0,1]"),
		memoryUsage:           gauge("memory_usage_ratio", "Heap utilization in [0,1]"),
		cpuUsage:              gauge("cpu_usage_ratio", "Process CPU utilization in [0,1]"),
		gpuUsage:              gauge("gpu_usage_ratio", "Accelerator utilization in [0,1]"),
		providerConnections:   gauge("provider_connections", "Registered provider integrations"),
		modelIntegrations:     gauge("model_integrations", "Registered model integrations"),
		apiRequests:           gauge("api_requests_total", "Requests served by the API transport"),
	}

	c.registry.MustRegister(
		c.totalNodes, c.totalEdges, c.graphComplexity,
		c.processedDocuments, c.averageProcessingTime,
		c.embeddingsGenerated,
		c.searchQueries, c.averageResponseTime,
		c.cacheHitRate,
		c.memoryUsage, c.cpuUsage, c.gpuUsage,
		c.providerConnections, c.modelIntegrations,
		c.apiRequests,
	)

	return c
}

// Initialize initializes the collector
func (c *PrometheusCollector) Initialize(ctx context.Context) error {
	return nil
}

// Collect publishes a snapshot to the gauges
func (c *PrometheusCollector) Collect(ctx context.Context, snapshot Snapshot) error {
	c.totalNodes.Set(float64(snapshot.TotalNodes))
	c.totalEdges.Set(float64(snapshot.TotalEdges))
	c.graphComplexity.Set(snapshot.GraphComplexity)
	c.processedDocuments.Set(float64(snapshot.ProcessedDocuments))
	c.averageProcessingTime.Set(snapshot.AverageProcessingTime.Seconds())
	c.embeddingsGenerated.Set(float64(snapshot.EmbeddingsGenerated))
	c.searchQueries.Set(float64(snapshot.SearchQueries))
	c.averageResponseTime.Set(snapshot.AverageResponseTime.Seconds())
	c.cacheHitRate.Set(snapshot.CacheHitRate)
	c.memoryUsage.Set(snapshot.MemoryUsage)
	c.cpuUsage.Set(snapshot.CPUUsage)
	c.gpuUsage.Set(snapshot.GPUUsage)
	c.providerConnections.Set(float64(snapshot.ProviderConnections))
	c.modelIntegrations.Set(float64(snapshot.ModelIntegrations))
	c.apiRequests.Set(float64(snapshot.APIRequests))
	return nil
}

// Registry exposes the private registry for the /metrics endpoint
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}
