// Package server exposes the dust HTTP API and the embedded dashboard.
package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/blackwell-systems/dust/internal/analyzer"
	"github.com/blackwell-systems/dust/internal/store"
	"github.com/blackwell-systems/dust/internal/tracker"
)

// Server is the dust HTTP API server.
type Server struct {
	db       *store.Store
	tracker  *tracker.Tracker
	analyzer *analyzer.Analyzer
	router   chi.Router
	logger   *log.Logger
	version  string
	started  time.Time
}

// New creates a new Server wired to the given store and tracker.
func New(db *store.Store, tr *tracker.Tracker, version string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		db:       db,
		tracker:  tr,
		analyzer: analyzer.New(db),
		logger:   logger,
		version:  version,
		started:  time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		// The dashboard historically triggered scans with a plain GET;
		// keep both verbs working.
		r.Get("/scan", s.handleScan)
		r.Post("/scan", s.handleScan)
	})

	r.Get("/*", spaHandler())

	s.router = r
}
