package watcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/dust/internal/store"
	"github.com/blackwell-systems/dust/internal/tracker"
)

type countingInventory struct {
	calls atomic.Int32
}

func (c *countingInventory) Snapshot(ctx context.Context) ([]tracker.InstalledPackage, map[string]bool, error) {
	c.calls.Add(1)
	return nil, nil, nil
}

type emptyProcesses struct{}

func (emptyProcesses) RunningExecutables(ctx context.Context) ([]string, error) {
	return nil, nil
}

type noOwners struct{}

func (noOwners) Owner(ctx context.Context, path string) (string, error) {
	return "", tracker.ErrNotOwned
}

func quietLogger() *log.Logger {
	l := log.New(io.Discard)
	l.SetLevel(log.FatalLevel)
	return l
}

func newTestWatcher(t *testing.T, dir string) (*Watcher, *countingInventory) {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	inv := &countingInventory{}
	tr := tracker.New(s, inv, emptyProcesses{}, noOwners{}, quietLogger())

	w, err := New(tr, dir, quietLogger())
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	w.debounce = 50 * time.Millisecond
	return w, inv
}

func waitForScans(t *testing.T, inv *countingInventory, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if inv.calls.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected at least %d scans, got %d", want, inv.calls.Load())
}

func TestWatcherTriggersScanOnChange(t *testing.T) {
	dir := t.TempDir()
	w, inv := newTestWatcher(t, dir)

	if err := w.Start(); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer w.Stop()

	if err := os.Mkdir(filepath.Join(dir, "htop-3.3.0-1"), 0o755); err != nil {
		t.Fatalf("failed to create package dir: %v", err)
	}

	waitForScans(t, inv, 1)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	w, inv := newTestWatcher(t, dir)

	if err := w.Start(); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer w.Stop()

	for _, name := range []string{"pkg-a", "pkg-b", "pkg-c"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	waitForScans(t, inv, 1)

	// Let any extra debounce windows fire before counting.
	time.Sleep(200 * time.Millisecond)
	if got := inv.calls.Load(); got != 1 {
		t.Errorf("expected burst to collapse into 1 scan, got %d", got)
	}
}

func TestWatcherMissingDir(t *testing.T) {
	w, _ := newTestWatcher(t, "/nonexistent/pacman/local")
	if err := w.Start(); err == nil {
		w.Stop()
		t.Fatal("expected error watching missing directory")
	}
}

func TestWatcherStop(t *testing.T) {
	dir := t.TempDir()
	w, _ := newTestWatcher(t, dir)

	if err := w.Start(); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop within timeout")
	}
}
