package tracker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// countingInventory counts snapshots so the test can observe scheduler ticks.
type countingInventory struct {
	calls atomic.Int32
}

func (c *countingInventory) Snapshot(ctx context.Context) ([]InstalledPackage, map[string]bool, error) {
	c.calls.Add(1)
	return nil, map[string]bool{}, nil
}

func TestScheduler_RunsImmediatelyAndStops(t *testing.T) {
	st := setupTestStore(t)
	inv := &countingInventory{}
	tr := New(st, inv, &fakeProcesses{}, &fakeOwners{}, quietLogger())

	sched := NewScheduler(tr, time.Hour, quietLogger())
	sched.Start()

	// The first cycle fires immediately; wait for it.
	deadline := time.After(2 * time.Second)
	for inv.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduler did not run an initial scan cycle")
		case <-time.After(10 * time.Millisecond):
		}
	}

	sched.Stop()
	after := inv.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if got := inv.calls.Load(); got != after {
		t.Errorf("scheduler kept scanning after Stop: %d -> %d", after, got)
	}
}

func TestScheduler_TicksOnInterval(t *testing.T) {
	st := setupTestStore(t)
	inv := &countingInventory{}
	tr := New(st, inv, &fakeProcesses{}, &fakeOwners{}, quietLogger())

	sched := NewScheduler(tr, 20*time.Millisecond, quietLogger())
	sched.Start()
	defer sched.Stop()

	deadline := time.After(2 * time.Second)
	for inv.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 cycles, got %d", inv.calls.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSchedulerNextDelay_WithinJitterBounds(t *testing.T) {
	sched := NewScheduler(nil, time.Minute, quietLogger())

	for i := 0; i < 100; i++ {
		d := sched.nextDelay(1)
		if d < 54*time.Second || d > 66*time.Second {
			t.Fatalf("nextDelay(1) = %v, want within ±10%% of 1m", d)
		}
	}

	// Backoff scales the base interval before jitter.
	for i := 0; i < 100; i++ {
		d := sched.nextDelay(4)
		if d < 3*time.Minute+36*time.Second || d > 4*time.Minute+24*time.Second {
			t.Fatalf("nextDelay(4) = %v, want within ±10%% of 4m", d)
		}
	}
}
