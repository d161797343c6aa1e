// Package service installs dust as a systemd user service so tracking keeps
// running across logins.
package service

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// UnitName is the systemd unit dust installs under.
const UnitName = "dust.service"

const commandTimeout = 10 * time.Second

const unitTemplate = `[Unit]
Description=Dust Package Usage Tracker
After=graphical-session.target

[Service]
Type=simple
ExecStart=%s serve --headless
Restart=always
RestartSec=10

[Install]
WantedBy=default.target
`

// Manager writes the user unit file and drives systemctl.
type Manager struct {
	// UnitDir is where the unit file is written. Defaults to the
	// systemd user unit directory under the XDG config home.
	UnitDir string

	// Executable is the binary path rendered into ExecStart. Defaults
	// to the running executable.
	Executable string

	run func(ctx context.Context, args ...string) error
}

// NewManager returns a Manager with defaults resolved.
func NewManager() (*Manager, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable path: %w", err)
	}
	return &Manager{
		UnitDir:    filepath.Join(xdg.ConfigHome, "systemd", "user"),
		Executable: exe,
		run:        runSystemctl,
	}, nil
}

func runSystemctl(ctx context.Context, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "systemctl", append([]string{"--user"}, args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("systemctl --user %s: %s", strings.Join(args, " "), msg)
		}
		return fmt.Errorf("systemctl --user %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

// UnitPath returns the path the unit file is written to.
func (m *Manager) UnitPath() string {
	return filepath.Join(m.UnitDir, UnitName)
}

// UnitContent renders the unit file for the configured executable.
func (m *Manager) UnitContent() string {
	return fmt.Sprintf(unitTemplate, m.Executable)
}

// Install writes the unit file, reloads systemd, and enables and starts
// the service.
func (m *Manager) Install(ctx context.Context) error {
	if err := os.MkdirAll(m.UnitDir, 0o755); err != nil {
		return fmt.Errorf("failed to create unit directory: %w", err)
	}
	if err := os.WriteFile(m.UnitPath(), []byte(m.UnitContent()), 0o644); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}
	if err := m.run(ctx, "daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}
	if err := m.run(ctx, "enable", "--now", UnitName); err != nil {
		return fmt.Errorf("failed to enable service: %w", err)
	}
	return nil
}

// Uninstall stops and disables the service and removes the unit file.
// Missing pieces are not errors so the command is safe to re-run.
func (m *Manager) Uninstall(ctx context.Context) error {
	if err := m.run(ctx, "disable", "--now", UnitName); err != nil {
		return fmt.Errorf("failed to disable service: %w", err)
	}
	if err := os.Remove(m.UnitPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove unit file: %w", err)
	}
	if err := m.run(ctx, "daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}
	return nil
}
