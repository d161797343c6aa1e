// Package logging configures the shared logger for dust. All components pull
// prefixed sub-loggers from here so CLI and serve modes log consistently.
//
//	logger := logging.Get("tracker")
//	logger.Info("scan cycle finished", "touched", 3)
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu   sync.Mutex
	root = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
)

// Init sets the global log level. Valid levels: debug, info, warn, error.
func Init(level string) error {
	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	root.SetLevel(parsed)
	return nil
}

// Get returns a logger with the given prefix, inheriting the global level.
func Get(prefix string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return root.WithPrefix(prefix)
}

func parseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel, nil
	case "", "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("invalid log level %q", s)
	}
}
