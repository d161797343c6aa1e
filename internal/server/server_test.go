package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/dust/internal/store"
	"github.com/blackwell-systems/dust/internal/tracker"
)

type fakeInventory struct {
	packages []tracker.InstalledPackage
	explicit map[string]bool
	err      error
}

func (f *fakeInventory) Snapshot(ctx context.Context) ([]tracker.InstalledPackage, map[string]bool, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.packages, f.explicit, nil
}

type fakeProcesses struct{ paths []string }

func (f *fakeProcesses) RunningExecutables(ctx context.Context) ([]string, error) {
	return f.paths, nil
}

type fakeOwners struct{ owners map[string]string }

func (f *fakeOwners) Owner(ctx context.Context, path string) (string, error) {
	if pkg, ok := f.owners[path]; ok {
		return pkg, nil
	}
	return "", tracker.ErrNotOwned
}

func quietLogger() *log.Logger {
	l := log.New(io.Discard)
	l.SetLevel(log.FatalLevel)
	return l
}

func newTestServer(t *testing.T, inv tracker.Inventory) (*Server, *store.Store) {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	tr := tracker.New(st, inv, &fakeProcesses{}, &fakeOwners{}, quietLogger())
	return New(st, tr, "test", quietLogger()), st
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeInventory{explicit: map[string]bool{}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %v, want ok", resp["status"])
	}
	if resp["db"] != true {
		t.Errorf("db field = %v, want true", resp["db"])
	}
}

func TestHandleScanThenStats(t *testing.T) {
	inv := &fakeInventory{
		packages: []tracker.InstalledPackage{
			{Name: "htop", Description: "process viewer", InstallDate: "2025-01-01"},
		},
		explicit: map[string]bool{"htop": true},
	}
	srv, _ := newTestServer(t, inv)

	// Trigger a scan.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scan", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scan status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var scanResp struct {
		Success   bool   `json:"success"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &scanResp); err != nil {
		t.Fatalf("invalid scan JSON: %v", err)
	}
	if !scanResp.Success {
		t.Error("scan success = false, want true")
	}
	if _, err := time.Parse(time.RFC3339, scanResp.Timestamp); err != nil {
		t.Errorf("timestamp %q not RFC3339: %v", scanResp.Timestamp, err)
	}

	// Stats now reflect the scan.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d, want 200", rec.Code)
	}

	var statsResp struct {
		Packages []struct {
			Name           string  `json:"name"`
			DaysUnused     int     `json:"days_unused"`
			DustPercentage float64 `json:"dust_percentage"`
			Safety         string  `json:"safety"`
		} `json:"packages"`
		Stats struct {
			Total         int `json:"total"`
			UnusedWeek    int `json:"unused_week"`
			DustyExplicit int `json:"dusty_explicit"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &statsResp); err != nil {
		t.Fatalf("invalid stats JSON: %v", err)
	}

	if len(statsResp.Packages) != 1 {
		t.Fatalf("got %d packages, want 1", len(statsResp.Packages))
	}
	if statsResp.Packages[0].Name != "htop" {
		t.Errorf("package name = %q, want htop", statsResp.Packages[0].Name)
	}
	if statsResp.Packages[0].Safety != "risky" {
		t.Errorf("safety = %q, want risky (just seen)", statsResp.Packages[0].Safety)
	}
	if statsResp.Stats.Total != 1 {
		t.Errorf("total = %d, want 1", statsResp.Stats.Total)
	}
}

func TestHandleScan_UpstreamFailure(t *testing.T) {
	srv, _ := newTestServer(t, &fakeInventory{err: errors.New("pacman not found")})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scan", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Success {
		t.Error("success = true, want false")
	}
	if resp.Error == "" {
		t.Error("error field should be populated")
	}
}

func TestScanViaGET(t *testing.T) {
	srv, _ := newTestServer(t, &fakeInventory{explicit: map[string]bool{}})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scan", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/scan status = %d, want 200", rec.Code)
	}
}
