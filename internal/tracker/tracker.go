// Package tracker implements the scan cycle: reconciling the package
// manager's inventory into the store and correlating running processes with
// the packages that own them.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/dust/internal/store"
)

// EventProcessScan is the event type recorded for a process-scan sighting.
const EventProcessScan = "process_scan"

// ErrNotOwned is returned by an OwnershipResolver when a path does not
// belong to any tracked package.
var ErrNotOwned = errors.New("path not owned by any package")

// InstalledPackage is one entry of an inventory snapshot.
type InstalledPackage struct {
	Name        string
	Description string
	InstallDate string
}

// Inventory yields a point-in-time snapshot of installed packages plus the
// set of names that were explicitly (not transitively) installed.
type Inventory interface {
	Snapshot(ctx context.Context) ([]InstalledPackage, map[string]bool, error)
}

// ProcessEnumerator yields the executable paths of currently running
// processes.
type ProcessEnumerator interface {
	RunningExecutables(ctx context.Context) ([]string, error)
}

// OwnershipResolver maps an executable path to its owning package name.
// Unowned paths return ErrNotOwned.
type OwnershipResolver interface {
	Owner(ctx context.Context, path string) (string, error)
}

// Tracker runs scan cycles against a store. At most one cycle executes at a
// time; concurrent callers serialize on an internal lock because both phases
// perform read-then-write upserts against shared package records.
type Tracker struct {
	store     *store.Store
	inventory Inventory
	processes ProcessEnumerator
	owners    OwnershipResolver
	logger    *log.Logger

	// now is injectable for tests.
	now func() time.Time

	scanMu   sync.Mutex
	stateMu  sync.Mutex
	lastScan time.Time
	lastOK   bool
}

// New creates a Tracker wired to the given store and collaborators.
func New(st *store.Store, inv Inventory, procs ProcessEnumerator, owners OwnershipResolver, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.Default()
	}
	return &Tracker{
		store:     st,
		inventory: inv,
		processes: procs,
		owners:    owners,
		logger:    logger,
		now:       time.Now,
	}
}

// ScanResult reports the outcome of one scan cycle. The reconcile and
// correlate phases run independently; either can fail without preventing
// the other.
type ScanResult struct {
	Started  time.Time
	Finished time.Time

	PackagesReconciled int
	ProcessesSeen      int
	PackagesTouched    int

	ReconcileErr error
	CorrelateErr error
}

// OK reports whether both phases succeeded.
func (r *ScanResult) OK() bool {
	return r.ReconcileErr == nil && r.CorrelateErr == nil
}

// Err returns the aggregate failure, or nil when the cycle succeeded.
func (r *ScanResult) Err() error {
	return errors.Join(r.ReconcileErr, r.CorrelateErr)
}

// RunScanCycle runs one reconcile pass followed by one correlate pass.
// Cycles are serialized; a concurrent call blocks until the in-flight cycle
// finishes.
func (t *Tracker) RunScanCycle(ctx context.Context) *ScanResult {
	t.scanMu.Lock()
	defer t.scanMu.Unlock()

	result := &ScanResult{Started: t.now()}

	result.PackagesReconciled, result.ReconcileErr = t.reconcile(ctx)
	if result.ReconcileErr != nil {
		t.logger.Warn("inventory reconcile failed", "err", result.ReconcileErr)
	}

	result.ProcessesSeen, result.PackagesTouched, result.CorrelateErr = t.correlate(ctx)
	if result.CorrelateErr != nil {
		t.logger.Warn("process correlate failed", "err", result.CorrelateErr)
	}

	result.Finished = t.now()

	t.stateMu.Lock()
	t.lastScan = result.Finished
	t.lastOK = result.OK()
	t.stateMu.Unlock()

	t.logger.Debug("scan cycle finished",
		"reconciled", result.PackagesReconciled,
		"processes", result.ProcessesSeen,
		"touched", result.PackagesTouched,
		"ok", result.OK())

	return result
}

// LastScan returns the completion time and success flag of the most recent
// scan cycle, or a zero time if no cycle has run.
func (t *Tracker) LastScan() (time.Time, bool) {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.lastScan, t.lastOK
}

// reconcile upserts every package in the inventory snapshot. Upserts are
// commutative, so snapshot order does not matter. Store failures are fatal
// for the phase; already-committed upserts remain.
func (t *Tracker) reconcile(ctx context.Context) (int, error) {
	packages, explicit, err := t.inventory.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("inventory snapshot: %w", err)
	}

	now := t.now()
	for _, pkg := range packages {
		if err := t.store.UpsertPackage(pkg.Name, pkg.Description, pkg.InstallDate, explicit[pkg.Name], now); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", pkg.Name, err)
		}
	}

	return len(packages), nil
}

// correlate resolves running executables to owning packages and stamps each
// resolved package once per cycle. Individual resolution misses are skipped
// silently; the same process set is rescanned next cycle, so transient
// misses self-heal.
func (t *Tracker) correlate(ctx context.Context) (processes, touched int, err error) {
	paths, err := t.processes.RunningExecutables(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("enumerate processes: %w", err)
	}

	// Dedupe packages backed by multiple running processes: duplicate
	// touches are harmless, but duplicate event rows are noise.
	seen := make(map[string]bool)
	for _, path := range paths {
		owner, err := t.owners.Owner(ctx, path)
		if err != nil {
			if !errors.Is(err, ErrNotOwned) {
				t.logger.Debug("ownership lookup failed", "path", path, "err", err)
			}
			continue
		}
		seen[owner] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	now := t.now()
	for _, name := range names {
		if err := t.store.TouchPackage(name, now); err != nil {
			return len(paths), touched, fmt.Errorf("touch %s: %w", name, err)
		}
		event := &store.UsageEvent{
			PackageName: name,
			EventType:   EventProcessScan,
			Timestamp:   now,
		}
		if err := t.store.InsertUsageEvent(event); err != nil {
			return len(paths), touched, fmt.Errorf("record event for %s: %w", name, err)
		}
		touched++
	}

	return len(paths), touched, nil
}
