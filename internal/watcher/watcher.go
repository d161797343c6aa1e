// Package watcher triggers scan cycles when the pacman local database
// changes, so installs and removals show up in dust without waiting for the
// next scheduled scan.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/dust/internal/tracker"
)

// defaultDebounce collapses the burst of filesystem events a single pacman
// transaction produces into one rescan.
const defaultDebounce = 2 * time.Second

// Watcher monitors the pacman local database directory and runs a scan
// cycle after each change burst settles.
type Watcher struct {
	tracker  *tracker.Tracker
	dir      string
	logger   *log.Logger
	debounce time.Duration

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Watcher over the given pacman local database directory.
func New(tr *tracker.Tracker, dir string, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}
	return &Watcher{
		tracker:  tr,
		dir:      dir,
		logger:   logger,
		debounce: defaultDebounce,
		fsw:      fsw,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Returns an error if the directory cannot be
// watched (e.g. not an Arch system).
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("watching package database", "dir", w.dir)
	return nil
}

// Stop halts the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.fsw.Close()
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			// Restart the debounce window on every event.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.logger.Info("package database changed, rescanning")
			if result := w.tracker.RunScanCycle(context.Background()); !result.OK() {
				w.logger.Warn("triggered scan failed", "err", result.Err())
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fs watcher error", "err", err)
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
