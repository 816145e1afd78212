package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HelixDevelopment/cognigraph/pkg/logging"
)

func TestSupervisorCollectsIterationErrors(t *testing.T) {
	s := newSupervisor(logging.Discard())

	var iterations atomic.Int64
	s.spawn("flaky", time.Millisecond, func(ctx context.Context) error {
		iterations.Add(1)
		return fmt.Errorf("cycle failed")
	})
	s.spawn("steady", time.Millisecond, func(ctx context.Context) error { return nil })

	deadline := time.Now().Add(2 * time.Second)
	for iterations.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if iterations.Load() == 0 {
		t.Fatal("flaky task never iterated")
	}

	err := s.stopAndJoin()
	if err == nil {
		t.Fatal("stopAndJoin() should surface the failed iterations")
	}
	if !strings.Contains(err.Error(), "flaky") || !strings.Contains(err.Error(), "cycle failed") {
		t.Errorf("stopAndJoin() error = %v, want the flaky task's failure", err)
	}
	if strings.Contains(err.Error(), "steady") {
		t.Errorf("stopAndJoin() error = %v, healthy task should not appear", err)
	}
}

func TestSupervisorCleanShutdown(t *testing.T) {
	s := newSupervisor(logging.Discard())

	var iterations atomic.Int64
	s.spawn("steady", time.Millisecond, func(ctx context.Context) error {
		iterations.Add(1)
		return nil
	})

	deadline := time.Now().Add(2 * time.Second)
	for iterations.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if err := s.stopAndJoin(); err != nil {
		t.Errorf("stopAndJoin() error = %v, want nil for healthy tasks", err)
	}
}

func TestSupervisorPanicRecovery(t *testing.T) {
	s := newSupervisor(logging.Discard())

	var iterations atomic.Int64
	s.spawn("panicky", time.Millisecond, func(ctx context.Context) error {
		if iterations.Add(1) == 1 {
			panic("collaborator blew up")
		}
		return nil
	})

	// The loop must survive the panic and keep iterating
	deadline := time.Now().Add(2 * time.Second)
	for iterations.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if iterations.Load() < 3 {
		t.Fatalf("loop stopped after a panic, iterations = %d", iterations.Load())
	}

	err := s.stopAndJoin()
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Errorf("stopAndJoin() error = %v, want the recovered panic", err)
	}
}
