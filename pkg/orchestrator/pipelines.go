package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/HelixDevelopment/cognigraph/pkg/cache"
	"github.com/HelixDevelopment/cognigraph/pkg/search"
	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

// AddKnowledge runs the ingestion pipeline: process the input,
// generate embeddings, add nodes to the graph, index them for search,
// and cache each node. Returns the new node IDs.
//
// Failures propagate to the caller without rollback: nodes added to
// the graph before a later stage fails remain added.
func (o *Orchestrator) AddKnowledge(ctx context.Context, knowledge types.Knowledge, metadata map[string]string) (ids []string, err error) {
	if !o.initialized.Load() {
		return nil, ErrNotInitialized
	}

	ctx, span := o.tracer.Start(ctx, "AddKnowledge",
		oteltrace.WithAttributes(attribute.String("knowledge.kind", string(knowledge.Kind))))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	docs, err := o.processor.Process(ctx, knowledge)
	if err != nil {
		o.logger.WithContext(ctx).WithError(err).Error("processing failed")
		return nil, fmt.Errorf("processing failed: %w", err)
	}

	for i := range docs {
		mergeMetadata(&docs[i], metadata)
	}

	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}
	embeddings, err := o.embeddings.GenerateEmbeddings(ctx, contents)
	if err != nil {
		o.logger.WithContext(ctx).WithError(err).Error("embedding generation failed")
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	ids, err = o.graph.AddNodes(ctx, docs, embeddings)
	if err != nil {
		o.logger.WithContext(ctx).WithError(err).Error("graph insertion failed")
		return nil, fmt.Errorf("graph insertion failed: %w", err)
	}
	for i := range docs {
		docs[i].ID = ids[i]
	}

	if indexer, ok := o.search.(search.Indexer); ok {
		if err := indexer.Index(ctx, docs, embeddings); err != nil {
			o.logger.WithContext(ctx).WithError(err).Error("search indexing failed")
			return nil, fmt.Errorf("search indexing failed: %w", err)
		}
	}

	// Cache writes are best-effort; a failure never fails ingestion
	for i := range docs {
		data, err := json.Marshal(docs[i])
		if err != nil {
			continue
		}
		if err := o.cache.Set(ctx, cache.NodeKey(ids[i]), data); err != nil {
			o.logger.WithContext(ctx).WithError(err).Warn("node cache write failed")
		}
	}

	span.SetAttributes(attribute.Int("knowledge.nodes", len(ids)))
	o.logger.WithContext(ctx).WithField("nodes", len(ids)).Info("knowledge added")
	return ids, nil
}

// QueryKnowledge runs the query pipeline with cache-aside semantics: a
// hit returns the cached results without touching the search engine; a
// miss executes the search and writes the results back.
//
// The search-query counter counts searches executed against the
// engine, so cache hits do not increment it.
func (o *Orchestrator) QueryKnowledge(ctx context.Context, query string, filters map[string]string, limit int) (results []types.SearchResult, err error) {
	if !o.initialized.Load() {
		return nil, ErrNotInitialized
	}

	ctx, span := o.tracer.Start(ctx, "QueryKnowledge",
		oteltrace.WithAttributes(attribute.Int("query.limit", limit)))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	key := cache.QueryKey(query, filters, limit)

	if cached, ok, err := o.cache.Get(ctx, key); err != nil {
		// A broken cache read degrades to a miss
		o.logger.WithContext(ctx).WithError(err).Warn("cache read failed")
	} else if ok {
		if err := json.Unmarshal(cached, &results); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return results, nil
		}
		o.logger.WithContext(ctx).Warn("cache entry corrupt, recomputing")
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	results, err = o.search.SemanticSearch(ctx, query, filters, limit)
	if err != nil {
		o.logger.WithContext(ctx).WithError(err).Error("semantic search failed")
		return nil, fmt.Errorf("semantic search failed: %w", err)
	}

	if data, err := json.Marshal(results); err == nil {
		if err := o.cache.Set(ctx, key, data); err != nil {
			o.logger.WithContext(ctx).WithError(err).Warn("cache write failed")
		}
	}

	return results, nil
}

// GetInsights runs graph analysis, layers an enrichment summary on
// top, and wraps both in an envelope with the analysis type,
// parameters, and a capture timestamp
func (o *Orchestrator) GetInsights(ctx context.Context, analysisType string, parameters map[string]interface{}) (envelope *types.InsightEnvelope, err error) {
	if !o.initialized.Load() {
		return nil, ErrNotInitialized
	}

	ctx, span := o.tracer.Start(ctx, "GetInsights",
		oteltrace.WithAttributes(attribute.String("analysis.type", analysisType)))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	graphInsights, err := o.graph.Analyze(ctx, analysisType, parameters)
	if err != nil {
		o.logger.WithContext(ctx).WithError(err).Error("graph analysis failed")
		return nil, fmt.Errorf("graph analysis failed: %w", err)
	}

	return &types.InsightEnvelope{
		GraphInsights: graphInsights,
		Enrichment:    enrichInsights(graphInsights),
		AnalysisType:  analysisType,
		Parameters:    parameters,
		CapturedAt:    time.Now().UTC(),
	}, nil
}

// enrichInsights derives a secondary summary from raw graph analysis.
// Content may be sparse when the analysis carries few usable signals.
func enrichInsights(insights map[string]interface{}) *types.InsightSummary {
	summary := &types.InsightSummary{
		Confidence: make(map[string]float64),
	}

	nodes, hasNodes := asFloat(insights["node_count"])
	edges, hasEdges := asFloat(insights["edge_count"])

	if hasNodes && hasEdges {
		summary.Summary = fmt.Sprintf("knowledge graph holds %.0f nodes connected by %.0f edges", nodes, edges)
		summary.Confidence["structure"] = 1.0
	}

	if score, ok := asFloat(insights["complexity_score"]); ok {
		switch {
		case nodes == 0:
			summary.Recommendations = append(summary.Recommendations, "graph is empty; ingest knowledge to enable analysis")
		case score < 0.2:
			summary.Recommendations = append(summary.Recommendations, "graph is sparsely connected; ingest related content to strengthen links")
		case score > 0.8:
			summary.Recommendations = append(summary.Recommendations, "graph is densely connected; consider narrowing query filters")
		}
		summary.Confidence["complexity"] = 0.8
	}

	if isolated, ok := asFloat(insights["isolated_nodes"]); ok && isolated > 0 {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("%.0f nodes have no connections; ingesting context for them may improve search quality", isolated))
	}

	return summary
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// mergeMetadata overlays caller metadata onto a document without
// overwriting processor-assigned keys
func mergeMetadata(doc *types.Document, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]string, len(metadata))
	}
	for k, v := range metadata {
		if _, exists := doc.Metadata[k]; !exists {
			doc.Metadata[k] = v
		}
	}
}

// recordSpanError marks a span failed when the operation returned an
// error
func recordSpanError(span oteltrace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
