package analyzer

import (
	"testing"
	"time"

	"github.com/blackwell-systems/dust/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return s
}

func TestDustPercentage_Boundaries(t *testing.T) {
	cases := []struct {
		daysUnused int
		want       float64
	}{
		{0, 0},
		{15, 50},
		{30, 100},
		{31, 100},
		{365, 100},
		{400, 100}, // clamped at the scoring cap
		{store.NeverDaysUnused, 100},
	}

	for _, c := range cases {
		got := DustPercentage(c.daysUnused)
		if got != c.want {
			t.Errorf("DustPercentage(%d) = %v, want %v", c.daysUnused, got, c.want)
		}
	}
}

func TestSafety_Classification(t *testing.T) {
	cases := []struct {
		explicit   bool
		daysUnused int
		want       string
	}{
		{true, 31, SafetySafe},
		{true, 30, SafetyRisky}, // strictly greater than 30
		{true, 29, SafetyRisky},
		{false, 400, SafetyRisky}, // dependencies are never safe
		{false, 0, SafetyRisky},
	}

	for _, c := range cases {
		got := Safety(c.explicit, c.daysUnused)
		if got != c.want {
			t.Errorf("Safety(explicit=%v, days=%d) = %q, want %q", c.explicit, c.daysUnused, got, c.want)
		}
	}
}

func TestReport_DaysUnusedNotClampedForDisplay(t *testing.T) {
	s := setupTestStore(t)
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	// Unused for 400 days: score saturates but the day count stays raw.
	if err := s.UpsertPackage("relic", "ancient tool", "2024-01-01", true, now.Add(-400*24*time.Hour)); err != nil {
		t.Fatalf("UpsertPackage failed: %v", err)
	}

	report, err := New(s).Report(now)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if len(report.Packages) != 1 {
		t.Fatalf("got %d packages, want 1", len(report.Packages))
	}

	pkg := report.Packages[0]
	if pkg.DaysUnused != 400 {
		t.Errorf("DaysUnused = %d, want raw 400", pkg.DaysUnused)
	}
	if pkg.DustPercentage != 100 {
		t.Errorf("DustPercentage = %v, want 100", pkg.DustPercentage)
	}
	if pkg.Safety != SafetySafe {
		t.Errorf("Safety = %q, want %q", pkg.Safety, SafetySafe)
	}
}

func TestReport_StatsAndOrdering(t *testing.T) {
	s := setupTestStore(t)
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	if err := s.UpsertPackage("old", "", "", true, now.Add(-40*24*time.Hour)); err != nil {
		t.Fatalf("UpsertPackage failed: %v", err)
	}
	if err := s.UpsertPackage("recent", "", "", true, now.Add(-2*24*time.Hour)); err != nil {
		t.Fatalf("UpsertPackage failed: %v", err)
	}

	report, err := New(s).Report(now)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	if report.Stats.Total != 2 {
		t.Errorf("Total = %d, want 2", report.Stats.Total)
	}
	if report.Stats.UnusedWeek != 1 {
		t.Errorf("UnusedWeek = %d, want 1", report.Stats.UnusedWeek)
	}
	if report.Stats.DustyExplicit != 1 {
		t.Errorf("DustyExplicit = %d, want 1", report.Stats.DustyExplicit)
	}

	if report.Packages[0].Name != "old" {
		t.Errorf("dustiest package first: got %q, want %q", report.Packages[0].Name, "old")
	}
}
