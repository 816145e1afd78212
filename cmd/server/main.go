// Package main provides the cognigraph server command
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/HelixDevelopment/cognigraph/pkg/cache"
	"github.com/HelixDevelopment/cognigraph/pkg/config"
	"github.com/HelixDevelopment/cognigraph/pkg/embedding"
	"github.com/HelixDevelopment/cognigraph/pkg/graph"
	"github.com/HelixDevelopment/cognigraph/pkg/health"
	"github.com/HelixDevelopment/cognigraph/pkg/integrations"
	"github.com/HelixDevelopment/cognigraph/pkg/logging"
	"github.com/HelixDevelopment/cognigraph/pkg/metrics"
	"github.com/HelixDevelopment/cognigraph/pkg/optimize"
	"github.com/HelixDevelopment/cognigraph/pkg/orchestrator"
	"github.com/HelixDevelopment/cognigraph/pkg/processing"
	"github.com/HelixDevelopment/cognigraph/pkg/search"
	"github.com/HelixDevelopment/cognigraph/pkg/server"
)

var (
	configPath = flag.String("config", "", "Path to YAML or JSON configuration file")
	host       = flag.String("host", "", "Server host (overrides config)")
	port       = flag.Int("port", 0, "Server port (overrides config)")
	graphType  = flag.String("graph", "", "Graph backend: memory or badger (overrides config)")
	cacheType  = flag.String("cache", "", "Cache backend: lru or badger (overrides config)")
	dataDir    = flag.String("data-dir", "", "Base directory for embedded stores (overrides config paths)")
	helpFlag   = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *helpFlag {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	applyFlagOverrides(cfg)

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}

func applyFlagOverrides(cfg *config.Config) {
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *graphType != "" {
		cfg.Graph.Type = *graphType
	}
	if *cacheType != "" {
		cfg.Cache.Type = *cacheType
	}
	if *dataDir != "" {
		cfg.Graph.Path = *dataDir + "/graph"
		cfg.Cache.Path = *dataDir + "/cache"
		cfg.Search.PersistPath = *dataDir + "/search"
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := metrics.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			logger.WithError(err).Warn("tracing shutdown failed")
		}
	}()

	graphStore, err := buildGraphStore(cfg)
	if err != nil {
		return err
	}
	defer graphStore.Close(ctx)

	cacheStore, err := buildCacheStore(cfg)
	if err != nil {
		return err
	}
	defer cacheStore.Close(ctx)

	generator := embedding.NewHashingGenerator(cfg.Embedding.Dimensions)

	engine, err := search.NewChromemEngine(search.ChromemConfig{
		PersistPath: cfg.Search.PersistPath,
		Collection:  cfg.Search.Collection,
	}, generator)
	if err != nil {
		return fmt.Errorf("failed to create search engine: %w", err)
	}

	checker := health.NewMultiChecker(cfg.Health.CheckTimeout)
	checker.Register(health.ProbeFunc{
		ProbeName: "graph",
		Fn: func(ctx context.Context) error {
			_, err := graphStore.NodeCount(ctx)
			return err
		},
	})
	checker.Register(health.ProbeFunc{
		ProbeName: "cache",
		Fn: func(ctx context.Context) error {
			_, _, err := cacheStore.Get(ctx, "health:probe")
			return err
		},
	})

	collector := metrics.NewPrometheusCollector(metrics.PrometheusConfig{
		Namespace: cfg.Metrics.Namespace,
		Subsystem: cfg.Metrics.Subsystem,
	})

	orch, err := orchestrator.New(orchestrator.Config{
		Config:       cfg,
		Graph:        graphStore,
		Processor:    processing.NewNormalizer(),
		Embeddings:   generator,
		Search:       engine,
		Integrations: integrations.NewRegistry(),
		Optimizer: optimize.NewRuntimeOptimizer(optimize.RuntimeConfig{
			HeapThresholdBytes: cfg.Optimizer.HeapThresholdBytes,
		}),
		Cache:     cacheStore,
		Collector: collector,
		Health:    checker,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	srv, err := server.New(server.Config{
		Server:       cfg.Server,
		Orchestrator: orch,
		Registry:     collector.Registry(),
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	orch.AttachTransport(srv)

	if err := orch.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	if err := orch.StartAPI(ctx, cfg.Server.Host, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start API: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("cognigraph server running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.WithField("signal", sig.String()).Info("shutting down")

	return orch.StopAPI(ctx)
}

func buildGraphStore(cfg *config.Config) (graph.Store, error) {
	switch cfg.Graph.Type {
	case "badger":
		store, err := graph.NewBadgerGraph(graph.BadgerGraphConfig{Path: cfg.Graph.Path})
		if err != nil {
			return nil, fmt.Errorf("failed to create graph store: %w", err)
		}
		return store, nil
	default:
		return graph.NewMemoryGraph(), nil
	}
}

func buildCacheStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Type {
	case "badger":
		store, err := cache.NewBadgerCache(cache.BadgerCacheConfig{
			Path: cfg.Cache.Path,
			TTL:  cfg.Cache.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		return store, nil
	default:
		store, err := cache.NewLRUCache(cache.LRUConfig{
			MaxSize: cfg.Cache.MaxSize,
			TTL:     cfg.Cache.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		return store, nil
	}
}
