package store

import "time"

// NeverDaysUnused is the derived days-unused value reported for packages
// that have no recorded last_seen. It is a display sentinel, not a real
// day count.
const NeverDaysUnused = 999

// Package is a tracked package record.
type Package struct {
	Name            string
	Description     string
	InstallDate     string // opaque string as reported by the package manager
	ExplicitInstall bool
	LastSeen        *time.Time // nil means never observed
}

// PackageRow is a Package with its derived unused-day count, as returned by
// ListPackages.
type PackageRow struct {
	Package
	DaysUnused int
}

// UsageEvent records one observation of a package in use.
type UsageEvent struct {
	ID          int64
	PackageName string
	EventType   string // e.g. "process_scan"
	Timestamp   time.Time
}

// Stats holds the summary counts over the full package set.
type Stats struct {
	Total         int // all tracked packages
	UnusedWeek    int // days_unused > 7, never-seen included
	DustyExplicit int // explicit, days_unused > 30, never-seen excluded
}
