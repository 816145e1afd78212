// Package server provides the HTTP JSON API transport
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HelixDevelopment/cognigraph/pkg/config"
	"github.com/HelixDevelopment/cognigraph/pkg/logging"
	"github.com/HelixDevelopment/cognigraph/pkg/middleware"
	"github.com/HelixDevelopment/cognigraph/pkg/orchestrator"
)

// Server is the HTTP transport for the orchestrator. It implements
// orchestrator.Transport.
type Server struct {
	cfg    config.ServerConfig
	orch   *orchestrator.Orchestrator
	logger *logging.Logger

	auth        *middleware.AuthService
	rateLimiter *middleware.RateLimiter
	registry    prometheus.Gatherer

	httpServer *http.Server
	requests   atomic.Int64
}

// Config holds server construction parameters
type Config struct {
	Server config.ServerConfig

	// Orchestrator serves the pipeline operations
	Orchestrator *orchestrator.Orchestrator

	// Registry backs the /metrics endpoint; nil disables it
	Registry prometheus.Gatherer

	Logger *logging.Logger
}

// New creates a new HTTP server
func New(cfg Config) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Server{
		cfg:         cfg.Server,
		orch:        cfg.Orchestrator,
		logger:      logger.WithComponent("server"),
		auth:        middleware.NewAuthService(cfg.Server.Auth),
		rateLimiter: middleware.NewRateLimiter(cfg.Server.RateLimit),
		registry:    cfg.Registry,
	}, nil
}

// Start begins serving on the given address. Bind errors surface
// synchronously; serve errors after a successful bind are logged.
func (s *Server) Start(ctx context.Context, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.buildHandler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server failed")
		}
	}()

	s.logger.WithField("addr", addr).Info("HTTP server listening")
	return nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	s.rateLimiter.Stop()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// TotalRequests returns the number of requests served
func (s *Server) TotalRequests() int64 {
	return s.requests.Load()
}

// buildHandler assembles the route table and middleware chain
func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/knowledge", s.handleAddKnowledge)
	mux.HandleFunc("POST /api/v1/query", s.handleQuery)
	mux.HandleFunc("POST /api/v1/insights", s.handleInsights)
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	if s.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	// Innermost first: auth, then rate limit, so rejected credentials
	// do not consume a client's budget
	var handler http.Handler = mux
	handler = s.auth.Middleware(handler)
	handler = s.rateLimiter.Middleware(handler)
	handler = s.countingMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	if s.cfg.CORSEnabled {
		handler = corsMiddleware(handler)
	}

	return handler
}
