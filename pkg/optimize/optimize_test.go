package optimize

import (
	"context"
	"testing"
)

func TestRuntimeOptimizerBelowThreshold(t *testing.T) {
	// Threshold far above any realistic test heap
	o := NewRuntimeOptimizer(RuntimeConfig{HeapThresholdBytes: 1 << 40})
	ctx := context.Background()

	if err := o.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	result, err := o.Optimize(ctx)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if result.Optimized {
		t.Errorf("Optimize() below threshold reported work: %+v", result)
	}
	if result.Detail == "" {
		t.Error("result should carry detail")
	}
}

func TestRuntimeOptimizerAboveThreshold(t *testing.T) {
	// Threshold of 1 byte forces a collection
	o := NewRuntimeOptimizer(RuntimeConfig{HeapThresholdBytes: 1})
	ctx := context.Background()

	result, err := o.Optimize(ctx)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if !result.Optimized {
		t.Error("Optimize() above threshold should report work")
	}
	if len(result.Actions) == 0 {
		t.Error("result should list the actions taken")
	}
}

func TestRuntimeOptimizerStatus(t *testing.T) {
	o := NewRuntimeOptimizer(RuntimeConfig{})
	ctx := context.Background()

	if err := o.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	status := o.Status()
	if status.HeapBytes == 0 {
		t.Error("HeapBytes should be non-zero in a live process")
	}
	if status.Goroutines <= 0 {
		t.Errorf("Goroutines = %d, want > 0", status.Goroutines)
	}
	if status.MemoryUsage < 0 || status.MemoryUsage > 1 {
		t.Errorf("MemoryUsage = %v, want in [0,1]", status.MemoryUsage)
	}
	if !status.LastRun.IsZero() {
		t.Error("LastRun should be zero before any Optimize call")
	}

	if _, err := o.Optimize(ctx); err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if o.Status().LastRun.IsZero() {
		t.Error("LastRun should be set after Optimize")
	}
}

func TestRuntimeOptimizerUsageBounds(t *testing.T) {
	o := NewRuntimeOptimizer(RuntimeConfig{})

	if usage := o.MemoryUsage(); usage < 0 || usage > 1 {
		t.Errorf("MemoryUsage() = %v, want in [0,1]", usage)
	}
	if usage := o.CPUUsage(); usage < 0 || usage > 1 {
		t.Errorf("CPUUsage() = %v, want in [0,1]", usage)
	}
	if usage := o.GPUUsage(); usage != 0 {
		t.Errorf("GPUUsage() = %v, want 0", usage)
	}
}

func TestRuntimeOptimizerCancellation(t *testing.T) {
	o := NewRuntimeOptimizer(RuntimeConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.Optimize(ctx); err == nil {
		t.Error("cancelled context should abort optimization")
	}
}

func TestRuntimeOptimizerDefaultThreshold(t *testing.T) {
	o := NewRuntimeOptimizer(RuntimeConfig{})
	if o.heapThreshold != defaultHeapThreshold {
		t.Errorf("heapThreshold = %d, want default %d", o.heapThreshold, defaultHeapThreshold)
	}
}
