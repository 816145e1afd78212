// Package health provides health probing for cognigraph components
package health

import (
	"context"
	"sync"
	"time"

	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

// Probe is a single named health check
type Probe interface {
	Name() string
	Check(ctx context.Context) error
}

// Checker aggregates probes into a system health verdict.
// Implementations must be safe for concurrent use.
type Checker interface {
	// CheckHealth runs all probes and returns the aggregate status
	CheckHealth(ctx context.Context) types.HealthStatus
}

// ProbeFunc adapts a function to the Probe interface
type ProbeFunc struct {
	ProbeName string
	Fn        func(ctx context.Context) error
}

// Name returns the probe name
func (p ProbeFunc) Name() string { return p.ProbeName }

// Check runs the probe
func (p ProbeFunc) Check(ctx context.Context) error { return p.Fn(ctx) }

const defaultCheckTimeout = 5 * time.Second

// MultiChecker is the default Checker: a registry of named probes run
// under a shared timeout
type MultiChecker struct {
	timeout time.Duration

	mu     sync.RWMutex
	probes map[string]Probe
}

// NewMultiChecker creates a probe registry. A non-positive timeout
// falls back to the default.
func NewMultiChecker(timeout time.Duration) *MultiChecker {
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	return &MultiChecker{
		timeout: timeout,
		probes:  make(map[string]Probe),
	}
}

// Initialize initializes the checker
func (c *MultiChecker) Initialize(ctx context.Context) error {
	return nil
}

// Register adds a probe, replacing any probe with the same name
func (c *MultiChecker) Register(probe Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[probe.Name()] = probe
}

// Unregister removes a probe by name
func (c *MultiChecker) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.probes, name)
}

// CheckHealth runs all probes and returns the aggregate status. The
// system is healthy only when every probe passes; an empty registry is
// healthy.
func (c *MultiChecker) CheckHealth(ctx context.Context) types.HealthStatus {
	c.mu.RLock()
	probes := make([]Probe, 0, len(c.probes))
	for _, probe := range c.probes {
		probes = append(probes, probe)
	}
	c.mu.RUnlock()

	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status := types.HealthStatus{
		Healthy: true,
		Checks:  make(map[string]types.CheckResult, len(probes)),
	}

	for _, probe := range probes {
		start := time.Now()
		err := probe.Check(checkCtx)
		result := types.CheckResult{
			Healthy: err == nil,
			Latency: time.Since(start),
		}
		if err != nil {
			result.Error = err.Error()
			status.Healthy = false
		}
		status.Checks[probe.Name()] = result
	}

	return status
}
