package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Timestamps are stored as RFC3339 UTC strings so that SQLite's julianday()
// and lexicographic comparison both order them chronologically.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// UpsertPackage creates the named package record or refreshes its metadata.
// On first insert last_seen is set to now: installation itself counts as a
// touch. On update only the metadata columns are overwritten; last_seen is
// preserved so reconcile passes never erase usage history.
func (s *Store) UpsertPackage(name, description, installDate string, explicit bool, now time.Time) error {
	query := `
		INSERT INTO packages (name, description, install_date, explicit_install, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			install_date = excluded.install_date,
			explicit_install = excluded.explicit_install
	`

	_, err := s.db.Exec(query, name, description, installDate, explicit, formatTime(now))
	if err != nil {
		return wrapQueryErr(fmt.Sprintf("failed to upsert package %s", name), err)
	}
	return nil
}

// TouchPackage sets last_seen = now for the named package. Unknown names are
// a no-op: the owning package may not have been reconciled yet. last_seen is
// never moved backward.
func (s *Store) TouchPackage(name string, now time.Time) error {
	query := `
		UPDATE packages
		SET last_seen = ?
		WHERE name = ? AND (last_seen IS NULL OR last_seen < ?)
	`

	ts := formatTime(now)
	_, err := s.db.Exec(query, ts, name, ts)
	if err != nil {
		return wrapQueryErr(fmt.Sprintf("failed to touch package %s", name), err)
	}
	return nil
}

// GetPackage retrieves a package by name. Returns sql.ErrNoRows (wrapped) if
// the package is not tracked.
func (s *Store) GetPackage(name string) (*Package, error) {
	query := `
		SELECT name, description, install_date, explicit_install, last_seen
		FROM packages
		WHERE name = ?
	`

	var pkg Package
	var lastSeen sql.NullString

	err := s.db.QueryRow(query, name).Scan(
		&pkg.Name,
		&pkg.Description,
		&pkg.InstallDate,
		&pkg.ExplicitInstall,
		&lastSeen,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("package %s not found: %w", name, err)
	}
	if err != nil {
		return nil, wrapQueryErr(fmt.Sprintf("failed to get package %s", name), err)
	}

	if lastSeen.Valid {
		t, err := parseTime(lastSeen.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_seen for %s: %w", name, err)
		}
		pkg.LastSeen = &t
	}

	return &pkg, nil
}

// ListPackages returns all packages with their derived unused-day counts,
// ordered by days_unused descending, name ascending. Packages never observed
// report the NeverDaysUnused sentinel and sort first. The ordering is part of
// the contract; callers render it directly.
func (s *Store) ListPackages(now time.Time) ([]*PackageRow, error) {
	query := `
		SELECT name, description, install_date, explicit_install, last_seen,
		       CASE
		           WHEN last_seen IS NULL THEN ?
		           ELSE CAST((julianday(?) - julianday(last_seen)) AS INTEGER)
		       END AS days_unused
		FROM packages
		ORDER BY days_unused DESC, name ASC
	`

	rows, err := s.db.Query(query, NeverDaysUnused, formatTime(now))
	if err != nil {
		return nil, wrapQueryErr("failed to list packages", err)
	}
	defer rows.Close()

	var packages []*PackageRow
	for rows.Next() {
		var row PackageRow
		var lastSeen sql.NullString

		err := rows.Scan(
			&row.Name,
			&row.Description,
			&row.InstallDate,
			&row.ExplicitInstall,
			&lastSeen,
			&row.DaysUnused,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package row: %w", err)
		}

		if lastSeen.Valid {
			t, err := parseTime(lastSeen.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse last_seen for %s: %w", row.Name, err)
			}
			row.LastSeen = &t
		}

		packages = append(packages, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating packages: %w", err)
	}

	return packages, nil
}

// Stats computes the summary counts in a single pass over the packages table.
//
// unused_week counts never-seen packages (their derived day count is the
// large sentinel), while dusty_explicit deliberately excludes them: a package
// that was never observed is unknown, not confirmed-dusty.
func (s *Store) Stats(now time.Time) (*Stats, error) {
	query := `
		SELECT
		    COUNT(*),
		    COALESCE(SUM(CASE
		        WHEN last_seen IS NULL
		          OR CAST((julianday(?) - julianday(last_seen)) AS INTEGER) > 7
		        THEN 1 ELSE 0 END), 0),
		    COALESCE(SUM(CASE
		        WHEN explicit_install = 1
		         AND last_seen IS NOT NULL
		         AND CAST((julianday(?) - julianday(last_seen)) AS INTEGER) > 30
		        THEN 1 ELSE 0 END), 0)
		FROM packages
	`

	ts := formatTime(now)
	var stats Stats
	err := s.db.QueryRow(query, ts, ts).Scan(&stats.Total, &stats.UnusedWeek, &stats.DustyExplicit)
	if err != nil {
		return nil, wrapQueryErr("failed to compute stats", err)
	}
	return &stats, nil
}

// InsertUsageEvent appends a usage event. Events are append-only and never
// mutated.
func (s *Store) InsertUsageEvent(event *UsageEvent) error {
	query := `
		INSERT INTO usage_events (package_name, event_type, timestamp)
		VALUES (?, ?, ?)
	`

	_, err := s.db.Exec(query, event.PackageName, event.EventType, formatTime(event.Timestamp))
	if err != nil {
		return wrapQueryErr(fmt.Sprintf("failed to insert usage event for %s", event.PackageName), err)
	}
	return nil
}

// GetUsageEvents returns usage events for a package since the given time,
// newest first.
func (s *Store) GetUsageEvents(pkg string, since time.Time) ([]*UsageEvent, error) {
	query := `
		SELECT id, package_name, event_type, timestamp
		FROM usage_events
		WHERE package_name = ? AND timestamp >= ?
		ORDER BY timestamp DESC
	`

	rows, err := s.db.Query(query, pkg, formatTime(since))
	if err != nil {
		return nil, wrapQueryErr(fmt.Sprintf("failed to get usage events for %s", pkg), err)
	}
	defer rows.Close()

	var events []*UsageEvent
	for rows.Next() {
		var event UsageEvent
		var timestamp string

		if err := rows.Scan(&event.ID, &event.PackageName, &event.EventType, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan usage event row: %w", err)
		}

		event.Timestamp, err = parseTime(timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp for event %d: %w", event.ID, err)
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage events: %w", err)
	}

	return events, nil
}

// GetEventCount returns the total number of usage events recorded.
func (s *Store) GetEventCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM usage_events").Scan(&count)
	if err != nil {
		return 0, wrapQueryErr("failed to get event count", err)
	}
	return count, nil
}

// GetLastEventTime returns the timestamp of the most recent usage event.
// Returns zero time if no events exist.
func (s *Store) GetLastEventTime() (time.Time, error) {
	var timestamp sql.NullString
	err := s.db.QueryRow("SELECT MAX(timestamp) FROM usage_events").Scan(&timestamp)
	if err != nil {
		return time.Time{}, wrapQueryErr("failed to get last event time", err)
	}
	if !timestamp.Valid || timestamp.String == "" {
		return time.Time{}, nil
	}

	t, err := parseTime(timestamp.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return t, nil
}
