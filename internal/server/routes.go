package server

import (
	"encoding/json"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := s.db.Ping() == nil
	lastScan, lastOK := s.tracker.LastScan()

	resp := map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
	}
	if !lastScan.IsZero() {
		resp["last_scan"] = lastScan.UTC().Format(time.RFC3339)
		resp["last_scan_ok"] = lastOK
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	report, err := s.analyzer.Report(time.Now())
	if err != nil {
		s.logger.Error("stats report failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	result := s.tracker.RunScanCycle(r.Context())

	resp := map[string]any{
		"success":   result.OK(),
		"message":   "Scan completed",
		"timestamp": result.Finished.UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if !result.OK() {
		resp["message"] = "Scan failed"
		resp["error"] = result.Err().Error()
		status = http.StatusBadGateway
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
