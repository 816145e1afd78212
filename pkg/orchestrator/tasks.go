package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HelixDevelopment/cognigraph/pkg/logging"
)

// task is a handle to one supervised loop
type task struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}

	// err holds the last iteration failure. Written only by the task
	// goroutine, read only after done closes.
	err error
}

// supervisor owns exactly the loops spawned on it. Handles are mutated
// only by spawn and stopAndJoin, never from inside a loop.
type supervisor struct {
	logger *logging.Logger
	tasks  []*task
}

func newSupervisor(logger *logging.Logger) *supervisor {
	return &supervisor{logger: logger}
}

// spawn starts a named loop that runs iterate every interval until the
// supervisor stops it. Iteration errors are logged and the loop
// continues; a single failed cycle never terminates the loop.
func (s *supervisor) spawn(name string, interval time.Duration, iterate func(ctx context.Context) error) {
	if interval <= 0 {
		interval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.tasks = append(s.tasks, t)

	logger := s.logger.WithField("task", name)

	go func() {
		defer close(t.done)

		logger.Debug("task started")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Debug("task stopped")
				return
			case <-ticker.C:
				if err := runIteration(ctx, iterate); err != nil {
					logger.WithError(err).Warn("task iteration failed")
					t.err = err
				}
			}
		}
	}()
}

// runIteration runs one cycle, converting panics into errors so a
// misbehaving collaborator cannot take the loop down
func runIteration(ctx context.Context, iterate func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("iteration panicked: %v", r)
		}
	}()
	return iterate(ctx)
}

// stopAndJoin cancels every task and waits for all of them to finish.
// Individual task errors are collected, not allowed to abort the wait.
func (s *supervisor) stopAndJoin() error {
	for _, t := range s.tasks {
		t.cancel()
	}

	var errs []error
	for _, t := range s.tasks {
		<-t.done
		if t.err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", t.name, t.err))
		}
	}

	s.tasks = nil
	return errors.Join(errs...)
}

// collectMetrics is one iteration of the metrics loop: refresh every
// snapshot field group from its subsystem, then hand the snapshot to
// the collector. Field groups are written under separate short lock
// sections, so a concurrent reader may see a mix of cycles.
func (o *Orchestrator) collectMetrics(ctx context.Context, transport Transport) error {
	if !o.running.Load() {
		return nil
	}

	var errs []error

	nodes, err := o.graph.NodeCount(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("node count: %w", err))
	}
	edges, err := o.graph.EdgeCount(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("edge count: %w", err))
	}
	graphComplexity, err := o.graph.ComplexityScore(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("complexity score: %w", err))
	}

	o.snapMu.Lock()
	o.snapshot.TotalNodes = int64(nodes)
	o.snapshot.TotalEdges = int64(edges)
	o.snapshot.GraphComplexity = graphComplexity
	o.snapshot.CollectedAt = time.Now().UTC()
	o.snapMu.Unlock()

	processed := o.processor.TotalProcessed()
	processingTime := o.processor.AverageProcessingTime()
	generated := o.embeddings.TotalEmbeddings()

	o.snapMu.Lock()
	o.snapshot.ProcessedDocuments = processed
	o.snapshot.AverageProcessingTime = processingTime
	o.snapshot.EmbeddingsGenerated = generated
	o.snapMu.Unlock()

	queries := o.search.TotalQueries()
	responseTime := o.search.AverageResponseTime()
	hitRate := o.cache.HitRate()

	o.snapMu.Lock()
	o.snapshot.SearchQueries = queries
	o.snapshot.AverageResponseTime = responseTime
	o.snapshot.CacheHitRate = hitRate
	o.snapMu.Unlock()

	memory := o.optimizer.MemoryUsage()
	cpu := o.optimizer.CPUUsage()
	gpu := o.optimizer.GPUUsage()

	o.snapMu.Lock()
	o.snapshot.MemoryUsage = memory
	o.snapshot.CPUUsage = cpu
	o.snapshot.GPUUsage = gpu
	o.snapMu.Unlock()

	providers := o.integrations.ActiveProviders()
	models := o.integrations.ActiveModels()

	var requests int64
	if transport != nil {
		requests = transport.TotalRequests()
	}

	o.snapMu.Lock()
	o.snapshot.ProviderConnections = providers
	o.snapshot.ModelIntegrations = models
	o.snapshot.APIRequests = requests
	o.snapMu.Unlock()

	if err := o.collector.Collect(ctx, o.GetMetrics()); err != nil {
		errs = append(errs, fmt.Errorf("collect: %w", err))
	}

	return errors.Join(errs...)
}

// checkHealth is one iteration of the health loop: probe the system
// and invoke the health-issue hook when unhealthy
func (o *Orchestrator) checkHealth(ctx context.Context) error {
	if !o.running.Load() {
		return nil
	}

	status := o.health.CheckHealth(ctx)
	if !status.Healthy {
		o.logger.WithField("checks", status.Checks).Warn("system unhealthy")
		o.hooks.HandleHealthIssue(ctx, status)
	}

	return nil
}

// optimizePerformance is one iteration of the performance loop: run an
// optimizer pass and invoke the optimization hook when work was done
func (o *Orchestrator) optimizePerformance(ctx context.Context) error {
	if !o.running.Load() {
		return nil
	}

	result, err := o.optimizer.Optimize(ctx)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	if result.Optimized {
		o.logger.WithFields(map[string]interface{}{
			"actions":     result.Actions,
			"freed_bytes": result.FreedBytes,
		}).Info("optimization applied")
		o.hooks.ApplyOptimization(ctx, result)
	}

	return nil
}
