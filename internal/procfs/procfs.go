// Package procfs enumerates the executables behind currently running
// processes by reading /proc/<pid>/exe symlinks.
package procfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Enumerator lists running executable paths from a proc mount.
type Enumerator struct {
	// Root is the proc mount point, normally "/proc". Overridable for tests.
	Root string
}

// NewEnumerator creates an Enumerator over the given proc root.
func NewEnumerator(root string) *Enumerator {
	if root == "" {
		root = "/proc"
	}
	return &Enumerator{Root: root}
}

// RunningExecutables returns the deduplicated, sorted set of executable
// paths behind running processes. Per-process failures (permission denied,
// process exited between listing and readlink) are expected and skipped;
// only a failure to list the proc root at all is an error.
func (e *Enumerator) RunningExecutables(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(e.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.Root, err)
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() || !isNumeric(entry.Name()) {
			continue
		}

		target, err := os.Readlink(filepath.Join(e.Root, entry.Name(), "exe"))
		if err != nil {
			continue // kernel thread, vanished process, or not ours to read
		}

		// A deleted-but-running binary reads as "/usr/bin/foo (deleted)";
		// the path still identifies the owning package.
		target = strings.TrimSuffix(target, " (deleted)")
		if target != "" {
			seen[target] = true
		}
	}

	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	return paths, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
