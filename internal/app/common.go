package app

import (
	"fmt"

	"github.com/blackwell-systems/dust/internal/config"
	"github.com/blackwell-systems/dust/internal/logging"
	"github.com/blackwell-systems/dust/internal/pacman"
	"github.com/blackwell-systems/dust/internal/procfs"
	"github.com/blackwell-systems/dust/internal/store"
	"github.com/blackwell-systems/dust/internal/tracker"
)

// loadConfig loads configuration and initializes logging. The --db flag
// overrides the configured database path.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if err := logging.Init(cfg.Log.Level); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openStore opens the database and ensures the schema exists.
func openStore(cfg config.Config) (*store.Store, error) {
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.CreateSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}
	return db, nil
}

// newTracker wires the pacman inventory and procfs enumerator into a tracker.
func newTracker(cfg config.Config, db *store.Store) *tracker.Tracker {
	client := pacman.NewClient(cfg.Pacman.Binary, cfg.Scan.Timeout)
	procs := procfs.NewEnumerator(cfg.Proc.Root)
	return tracker.New(db, client, procs, client, logging.Get("tracker"))
}
