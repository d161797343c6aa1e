// Package analyzer derives dust scores and removal-safety classifications
// from stored package state. It is a read-only view: nothing here mutates
// the store.
package analyzer

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/dust/internal/store"
)

// Analyzer computes dust reports over a Store.
type Analyzer struct {
	store *store.Store
}

// New creates a new Analyzer instance with the given store.
func New(st *store.Store) *Analyzer {
	return &Analyzer{store: st}
}

// Report returns the per-package dust view plus summary stats, both derived
// from store state at call time. Package ordering follows the store contract:
// dustiest first, ties by name.
func (a *Analyzer) Report(now time.Time) (*Report, error) {
	rows, err := a.store.ListPackages(now)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	stats, err := a.store.Stats(now)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	report := &Report{
		Stats: ReportStats{
			Total:         stats.Total,
			UnusedWeek:    stats.UnusedWeek,
			DustyExplicit: stats.DustyExplicit,
		},
		Packages: make([]PackageDust, 0, len(rows)),
	}

	for _, row := range rows {
		report.Packages = append(report.Packages, PackageDust{
			Name:            row.Name,
			Description:     row.Description,
			InstallDate:     row.InstallDate,
			ExplicitInstall: row.ExplicitInstall,
			LastSeen:        row.LastSeen,
			DaysUnused:      row.DaysUnused,
			DustPercentage:  DustPercentage(row.DaysUnused),
			Safety:          Safety(row.ExplicitInstall, row.DaysUnused),
		})
	}

	return report, nil
}
