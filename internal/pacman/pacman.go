// Package pacman queries the pacman package manager for the installed
// inventory and for file-to-package ownership. It implements the tracker's
// Inventory and OwnershipResolver interfaces.
package pacman

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/blackwell-systems/dust/internal/tracker"
)

// ErrUnavailable indicates pacman itself could not be queried. Callers treat
// this as the upstream-unavailable failure for the whole phase.
var ErrUnavailable = errors.New("pacman unavailable")

// Client shells out to pacman with a bounded per-command timeout.
type Client struct {
	// Binary is the pacman executable, normally "pacman".
	Binary string

	// Timeout bounds each pacman invocation.
	Timeout time.Duration

	// run is swappable for tests.
	run func(ctx context.Context, binary string, args ...string) ([]byte, error)
}

// NewClient creates a Client for the given pacman binary and timeout.
func NewClient(binary string, timeout time.Duration) *Client {
	if binary == "" {
		binary = "pacman"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		Binary:  binary,
		Timeout: timeout,
		run:     runCommand,
	}
}

func runCommand(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%s %s failed: %w (stderr: %s)",
				binary, strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s %s failed: %w", binary, strings.Join(args, " "), err)
	}
	return output, nil
}

// Snapshot returns all installed packages plus the explicitly-installed name
// set, querying `pacman -Qqe` and `pacman -Qi`. Any command or parse failure
// wraps ErrUnavailable: a snapshot is all-or-nothing.
func (c *Client) Snapshot(ctx context.Context) ([]tracker.InstalledPackage, map[string]bool, error) {
	explicitCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	explicitOut, err := c.run(explicitCtx, c.Binary, "-Qqe")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: list explicit packages: %v", ErrUnavailable, err)
	}

	explicit := make(map[string]bool)
	for _, line := range strings.Split(string(explicitOut), "\n") {
		name := strings.TrimSpace(line)
		if name != "" {
			explicit[name] = true
		}
	}

	infoCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	infoOut, err := c.run(infoCtx, c.Binary, "-Qi")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: query package info: %v", ErrUnavailable, err)
	}

	packages, err := ParsePackageInfo(infoOut)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return packages, explicit, nil
}

// Owner resolves an executable path to its owning package via `pacman -Qo`.
// Paths not owned by any package return tracker.ErrNotOwned; lookup failures
// of any kind map to the same miss, since correlation is best-effort and
// self-heals on the next cycle.
func (c *Client) Owner(ctx context.Context, path string) (string, error) {
	ownerCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	output, err := c.run(ownerCtx, c.Binary, "-Qo", path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", tracker.ErrNotOwned, path)
	}

	name, err := ParseOwner(output)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", tracker.ErrNotOwned, path, err)
	}
	return name, nil
}
