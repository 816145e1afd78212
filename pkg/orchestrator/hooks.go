package orchestrator

import (
	"context"

	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

// Hooks are the orchestrator's named extension points. Each hook has a
// documented no-op default, so zero-value Hooks is valid; supply only
// the callbacks you need.
type Hooks struct {
	// ConfigureProvider runs after a provider integration is
	// registered. Default: no-op.
	ConfigureProvider func(ctx context.Context, provider string, config map[string]string) error

	// ConfigureModel runs after a model integration is registered.
	// Default: no-op.
	ConfigureModel func(ctx context.Context, provider, model string, config map[string]string) error

	// HandleHealthIssue runs when the health loop observes an
	// unhealthy status. Recovery and alerting policy belong to the
	// callback. Default: no-op.
	HandleHealthIssue func(ctx context.Context, status types.HealthStatus)

	// ApplyOptimization runs when the performance loop reports that an
	// optimization was applied. Default: no-op.
	ApplyOptimization func(ctx context.Context, result types.OptimizationResult)
}

// withDefaults fills unset callbacks with no-ops
func (h Hooks) withDefaults() Hooks {
	if h.ConfigureProvider == nil {
		h.ConfigureProvider = func(context.Context, string, map[string]string) error { return nil }
	}
	if h.ConfigureModel == nil {
		h.ConfigureModel = func(context.Context, string, string, map[string]string) error { return nil }
	}
	if h.HandleHealthIssue == nil {
		h.HandleHealthIssue = func(context.Context, types.HealthStatus) {}
	}
	if h.ApplyOptimization == nil {
		h.ApplyOptimization = func(context.Context, types.OptimizationResult) {}
	}
	return h
}
