package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dust/internal/logging"
	"github.com/blackwell-systems/dust/internal/server"
	"github.com/blackwell-systems/dust/internal/tracker"
	"github.com/blackwell-systems/dust/internal/watcher"
)

// portAttempts is how many consecutive ports are tried when the
// configured one is taken.
const portAttempts = 10

var (
	serveHeadless bool
	servePort     int
	serveInterval time.Duration

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard and periodic scanning",
		Long: `Start the dust web dashboard and scan packages on a fixed interval.

Scans also trigger immediately when the pacman database changes, so new
installs and removals show up without waiting for the next interval.

If another dust instance already serves the configured port, the existing
dashboard is opened instead of starting a second server. If the port is
taken by something else, the next free port is used.`,
		Example: `  # Dashboard on http://localhost:8765, opens a browser tab
  dust serve

  # Background mode for the systemd service
  dust serve --headless

  # Custom port
  dust serve --port 9000`,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().BoolVar(&serveHeadless, "headless", false, "do not open a browser tab")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 0, "scan interval (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveInterval > 0 {
		cfg.Scan.Interval = serveInterval
	}
	logger := logging.Get("serve")

	// Another instance already serving means there is nothing to start.
	if addr := cfg.ListenAddr(); instanceRunning(addr) {
		fmt.Printf("dust is already running on http://%s\n", addr)
		if !serveHeadless {
			openBrowser("http://"+addr, logger.Warn)
		}
		return nil
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	tr := newTracker(cfg, db)

	ln, addr, err := listenWithFallback(cfg.Server.Bind, cfg.Server.Port)
	if err != nil {
		return err
	}

	srv := server.New(db, tr, RootCmd.Version, logging.Get("server"))
	httpServer := &http.Server{Handler: srv}

	sched := tracker.NewScheduler(tr, cfg.Scan.Interval, logging.Get("scheduler"))
	sched.Start()
	defer sched.Stop()

	if cfg.Scan.Watch {
		w, err := watcher.New(tr, cfg.Pacman.LocalDB, logging.Get("watcher"))
		if err != nil {
			logger.Warn("package database watching disabled", "err", err)
		} else if err := w.Start(); err != nil {
			logger.Warn("package database watching disabled", "err", err)
		} else {
			defer w.Stop()
		}
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("serving", "addr", addr, "db", cfg.Database.Path)
		fmt.Printf("dust serving on http://%s\n", addr)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	if !serveHeadless {
		go func() {
			// Give the listener a moment before pointing a browser at it.
			time.Sleep(500 * time.Millisecond)
			openBrowser("http://"+addr, logger.Warn)
		}()
	}

	<-done
	fmt.Println("\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// listenWithFallback binds the configured port, walking forward to the next
// free port when it is taken. Returns the listener and the bound address.
func listenWithFallback(bind string, port int) (net.Listener, string, error) {
	var lastErr error
	for i := 0; i < portAttempts; i++ {
		addr := fmt.Sprintf("%s:%d", bind, port+i)
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			if i > 0 {
				fmt.Printf("port %d taken, using %d\n", port, port+i)
			}
			return ln, addr, nil
		}
		lastErr = err
	}
	return nil, "", fmt.Errorf("no free port in %d-%d: %w", port, port+portAttempts-1, lastErr)
}

// instanceRunning reports whether a dust server already answers on addr.
func instanceRunning(addr string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// openBrowser opens url with xdg-open. Failure only costs the
// convenience tab, so it is reported and ignored.
func openBrowser(url string, warn func(msg interface{}, kv ...interface{})) {
	if err := exec.Command("xdg-open", url).Start(); err != nil {
		warn("could not open browser", "url", url, "err", err)
	}
}
