// Package orchestrator provides the core lifecycle and supervision
// engine for the knowledge graph platform
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/HelixDevelopment/cognigraph/pkg/cache"
	"github.com/HelixDevelopment/cognigraph/pkg/config"
	"github.com/HelixDevelopment/cognigraph/pkg/embedding"
	"github.com/HelixDevelopment/cognigraph/pkg/graph"
	"github.com/HelixDevelopment/cognigraph/pkg/health"
	"github.com/HelixDevelopment/cognigraph/pkg/integrations"
	"github.com/HelixDevelopment/cognigraph/pkg/logging"
	"github.com/HelixDevelopment/cognigraph/pkg/metrics"
	"github.com/HelixDevelopment/cognigraph/pkg/optimize"
	"github.com/HelixDevelopment/cognigraph/pkg/processing"
	"github.com/HelixDevelopment/cognigraph/pkg/search"
	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

// ErrNotInitialized is returned by operations invoked before a
// successful Initialize
var ErrNotInitialized = errors.New("orchestrator is not initialized")

// Transport is the API surface collaborator. The orchestrator owns its
// lifecycle but not its wire format.
type Transport interface {
	// Start begins serving on the given address
	Start(ctx context.Context, host string, port int) error

	// Stop shuts the transport down
	Stop(ctx context.Context) error

	// TotalRequests returns the number of requests served
	TotalRequests() int64
}

// Initializer is implemented by collaborators that need startup work.
// Collaborators without it are assumed ready at construction.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Orchestrator coordinates the knowledge subsystems, supervises the
// background maintenance loops, and serves the pipeline operations.
// Instances are independent; any number can coexist in one process.
type Orchestrator struct {
	cfg *config.Config

	graph        graph.Store
	processor    processing.Processor
	embeddings   embedding.Generator
	search       search.Engine
	integrations integrations.Manager
	optimizer    optimize.Optimizer
	cache        cache.Cache
	collector    metrics.Collector
	health       health.Checker
	transport    Transport

	logger *logging.Logger
	hooks  Hooks
	tracer oteltrace.Tracer

	initialized atomic.Bool
	running     atomic.Bool

	// startNanos is the Initialize completion time in unix nanos.
	// Atomic so GetStatus never touches the lifecycle mutex: StopAPI
	// holds mu across transport shutdown, which drains in-flight status
	// requests.
	startNanos atomic.Int64

	// mu serializes lifecycle transitions (Initialize, StartAPI,
	// StopAPI); pipeline and status calls never take it
	mu sync.Mutex

	supervisor *supervisor

	// snapMu guards the snapshot; the metrics loop writes field groups
	// under short lock sections, so concurrent readers may observe a
	// mix of the prior and current cycle
	snapMu   sync.RWMutex
	snapshot metrics.Snapshot
}

// Config holds the orchestrator's collaborators and configuration
type Config struct {
	Config *config.Config

	Graph        graph.Store
	Processor    processing.Processor
	Embeddings   embedding.Generator
	Search       search.Engine
	Integrations integrations.Manager
	Optimizer    optimize.Optimizer
	Cache        cache.Cache
	Collector    metrics.Collector
	Health       health.Checker

	Logger *logging.Logger
	Hooks  Hooks
}

// New creates a new orchestrator instance. It validates collaborators
// but performs no I/O; call Initialize before using the pipelines.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Config == nil {
		cfg.Config = config.DefaultConfig()
	}
	if cfg.Graph == nil {
		return nil, fmt.Errorf("graph store is required")
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if cfg.Embeddings == nil {
		return nil, fmt.Errorf("embedding generator is required")
	}
	if cfg.Search == nil {
		return nil, fmt.Errorf("search engine is required")
	}
	if cfg.Integrations == nil {
		return nil, fmt.Errorf("integration manager is required")
	}
	if cfg.Optimizer == nil {
		return nil, fmt.Errorf("optimizer is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if cfg.Collector == nil {
		return nil, fmt.Errorf("metrics collector is required")
	}
	if cfg.Health == nil {
		return nil, fmt.Errorf("health checker is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Orchestrator{
		cfg:          cfg.Config,
		graph:        cfg.Graph,
		processor:    cfg.Processor,
		embeddings:   cfg.Embeddings,
		search:       cfg.Search,
		integrations: cfg.Integrations,
		optimizer:    cfg.Optimizer,
		cache:        cfg.Cache,
		collector:    cfg.Collector,
		health:       cfg.Health,
		logger:       logger.WithComponent("orchestrator"),
		hooks:        cfg.Hooks.withDefaults(),
		tracer:       otel.Tracer("cognigraph/orchestrator"),
	}, nil
}

// AttachTransport wires the API transport collaborator. Must be called
// before Initialize when a transport is used.
func (o *Orchestrator) AttachTransport(t Transport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transport = t
}

// Initialize prepares every subsystem and starts the background
// supervisor. It is idempotent: a second call with no intervening
// shutdown returns immediately without side effects. On failure the
// orchestrator stays uninitialized and a retry re-runs the whole
// sequence.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized.Load() {
		o.logger.Debug("already initialized, skipping")
		return nil
	}

	o.logger.Info("initializing orchestrator")

	if o.cfg.DynamicConfig {
		o.applyHostProfile()
	}

	// Subsystems initialize in dependency order; the first failure
	// aborts the sequence
	order := []struct {
		name      string
		subsystem interface{}
	}{
		{"graph", o.graph},
		{"processor", o.processor},
		{"embeddings", o.embeddings},
		{"search", o.search},
		{"integrations", o.integrations},
		{"optimizer", o.optimizer},
		{"cache", o.cache},
		{"collector", o.collector},
		{"health", o.health},
	}
	for _, entry := range order {
		init, ok := entry.subsystem.(Initializer)
		if !ok {
			continue
		}
		if err := init.Initialize(ctx); err != nil {
			o.logger.WithError(err).Error("subsystem %s failed to initialize", entry.name)
			return fmt.Errorf("failed to initialize %s: %w", entry.name, err)
		}
		o.logger.Debug("subsystem %s initialized", entry.name)
	}

	o.startSupervisor()

	o.startNanos.Store(time.Now().UnixNano())
	o.initialized.Store(true)
	o.logger.Info("orchestrator initialized")
	return nil
}

// applyHostProfile tunes the configuration from the detected host
// profile. Detection failures are non-fatal: the prior configuration
// stays in effect.
func (o *Orchestrator) applyHostProfile() {
	profile, err := config.DetectHostProfile()
	if err != nil {
		o.logger.WithError(err).Warn("host profile detection failed, keeping configuration")
		return
	}

	optimizer := config.HostOptimizer{Profile: profile}
	optimizer.Apply(o.cfg)
	o.logger.WithField("profile", profile.String()).Info("configuration tuned for host")
}

// startSupervisor starts the three maintenance loops. Loops run for
// the orchestrator's lifetime but only touch collaborators while the
// transport is running.
func (o *Orchestrator) startSupervisor() {
	if o.supervisor != nil {
		return
	}

	// Captured under o.mu so the loops never read the field; a
	// transport attached after this point is picked up when the
	// supervisor is re-armed
	transport := o.transport

	o.supervisor = newSupervisor(o.logger)
	o.supervisor.spawn("metrics-collection", o.cfg.Metrics.CollectionInterval, func(ctx context.Context) error {
		return o.collectMetrics(ctx, transport)
	})
	o.supervisor.spawn("health-monitoring", o.cfg.Health.CheckInterval, o.checkHealth)
	o.supervisor.spawn("performance-optimization", o.cfg.Optimizer.OptimizationInterval, o.optimizePerformance)
}

// StartAPI marks the orchestrator running and starts the transport.
// Requires a successful Initialize. Host and port fall back to the
// configured server address when empty or non-positive.
func (o *Orchestrator) StartAPI(ctx context.Context, host string, port int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.initialized.Load() {
		return ErrNotInitialized
	}

	if host == "" {
		host = o.cfg.Server.Host
	}
	if port <= 0 {
		port = o.cfg.Server.Port
	}

	// Re-arm the supervisor after a previous StopAPI
	o.startSupervisor()

	o.running.Store(true)

	if o.transport != nil {
		if err := o.transport.Start(ctx, host, port); err != nil {
			o.running.Store(false)
			o.logger.WithError(err).Error("transport failed to start")
			return fmt.Errorf("failed to start transport: %w", err)
		}
	}

	o.logger.WithFields(map[string]interface{}{"host": host, "port": port}).Info("API started")
	return nil
}

// StopAPI stops the maintenance loops and the transport. The running
// flag drops first so loops observe the stop promptly; loop handles
// are then cancelled and joined before the transport stops. Transport
// stop failures are logged, not returned.
func (o *Orchestrator) StopAPI(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.running.Store(false)

	if o.supervisor != nil {
		if err := o.supervisor.stopAndJoin(); err != nil {
			o.logger.WithError(err).Warn("background tasks reported errors during shutdown")
		}
		o.supervisor = nil
	}

	if o.transport != nil {
		if err := o.transport.Stop(ctx); err != nil {
			o.logger.WithError(err).Warn("transport stop failed")
		}
	}

	o.logger.Info("API stopped")
	return nil
}

// IntegrateProvider registers an external AI provider and invokes the
// provider-configuration hook
func (o *Orchestrator) IntegrateProvider(ctx context.Context, provider string, providerConfig map[string]string) error {
	if !o.initialized.Load() {
		return ErrNotInitialized
	}

	if err := o.integrations.RegisterProvider(ctx, provider, providerConfig); err != nil {
		return fmt.Errorf("failed to register provider %s: %w", provider, err)
	}

	if err := o.hooks.ConfigureProvider(ctx, provider, providerConfig); err != nil {
		return fmt.Errorf("provider configuration hook failed for %s: %w", provider, err)
	}

	o.logger.WithField("provider", provider).Info("provider integrated")
	return nil
}

// IntegrateModel registers a model under a provider and invokes the
// model-configuration hook
func (o *Orchestrator) IntegrateModel(ctx context.Context, provider, model string, modelConfig map[string]string) error {
	if !o.initialized.Load() {
		return ErrNotInitialized
	}

	if err := o.integrations.RegisterModel(ctx, provider, model, modelConfig); err != nil {
		return fmt.Errorf("failed to register model %s/%s: %w", provider, model, err)
	}

	if err := o.hooks.ConfigureModel(ctx, provider, model, modelConfig); err != nil {
		return fmt.Errorf("model configuration hook failed for %s/%s: %w", provider, model, err)
	}

	o.logger.WithFields(map[string]interface{}{"provider": provider, "model": model}).Info("model integrated")
	return nil
}

// GetMetrics returns the most recent metrics snapshot. Fields may have
// been captured at slightly different times within one collection
// cycle.
func (o *Orchestrator) GetMetrics() metrics.Snapshot {
	o.snapMu.RLock()
	defer o.snapMu.RUnlock()
	return o.snapshot
}

// Status is the aggregate view returned by GetStatus
type Status struct {
	Initialized bool                  `json:"initialized"`
	Running     bool                  `json:"running"`
	Metrics     metrics.Snapshot      `json:"metrics"`
	Health      types.HealthStatus    `json:"health"`
	Performance types.OptimizerStatus `json:"performance"`
	Uptime      time.Duration         `json:"uptime"`
}

// GetStatus returns the orchestrator's current state. Safe to call
// concurrently with the maintenance loops and with lifecycle
// transitions: it never takes the lifecycle mutex, so status requests
// in flight during StopAPI always drain.
func (o *Orchestrator) GetStatus(ctx context.Context) Status {
	status := Status{
		Initialized: o.initialized.Load(),
		Running:     o.running.Load(),
		Metrics:     o.GetMetrics(),
	}

	if status.Initialized {
		status.Health = o.health.CheckHealth(ctx)
		status.Performance = o.optimizer.Status()
		status.Uptime = time.Since(time.Unix(0, o.startNanos.Load()))
	}

	return status
}

// Initialized reports whether Initialize has completed successfully
func (o *Orchestrator) Initialized() bool {
	return o.initialized.Load()
}

// Running reports whether the API is running
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}
