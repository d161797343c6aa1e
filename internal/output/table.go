// Package output renders terminal tables and summaries for dust reports.
//
// Table rendering uses ASCII layout with ANSI color codes when stdout is a
// terminal. The spinner is safe for concurrent use.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/dust/internal/analyzer"
	"github.com/blackwell-systems/dust/internal/store"
)

// ANSI color codes for safety tier display
const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorGray  = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderDustTable renders the per-package dust report.
// Rows are expected pre-sorted (dustiest first); the order is preserved.
func RenderDustTable(packages []analyzer.PackageDust) string {
	if len(packages) == 0 {
		return "No packages tracked yet. Run 'dust scan' first.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-24s %-16s %-8s %-6s %s\n",
		"Package", "Last Used", "Unused", "Dust", "Safety"))
	sb.WriteString(strings.Repeat("─", 64))
	sb.WriteString("\n")

	for _, pkg := range packages {
		lastUsed := formatLastSeen(pkg.LastSeen)
		unused := formatDaysUnused(pkg.DaysUnused)
		dust := fmt.Sprintf("%3.0f%%", pkg.DustPercentage)

		safetyColor := colorGray
		if pkg.Safety == analyzer.SafetySafe {
			safetyColor = colorGreen
		} else if pkg.ExplicitInstall {
			safetyColor = colorRed
		}

		sb.WriteString(fmt.Sprintf("%-24s %-16s %-8s %-6s %s\n",
			truncate(pkg.Name, 24),
			lastUsed,
			unused,
			dust,
			colorize(safetyColor, pkg.Safety)))
	}

	return sb.String()
}

// RenderStatsSummary renders the one-line aggregate footer.
// Format: "Total: 842 packages · Unused 7d+: 120 · Dusty explicit: 14"
func RenderStatsSummary(stats analyzer.ReportStats) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d packages", stats.Total))
	sb.WriteString(" · ")
	sb.WriteString(fmt.Sprintf("Unused 7d+: %d", stats.UnusedWeek))
	sb.WriteString(" · ")
	if IsColorEnabled() && stats.DustyExplicit > 0 {
		sb.WriteString(fmt.Sprintf("%sDusty explicit: %d%s",
			colorGreen, stats.DustyExplicit, colorReset))
	} else {
		sb.WriteString(fmt.Sprintf("Dusty explicit: %d", stats.DustyExplicit))
	}

	return sb.String()
}

// formatLastSeen converts a last-seen timestamp to relative time.
func formatLastSeen(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return humanize.Time(*t)
}

// formatDaysUnused formats the unused-day count for the table.
// The never-seen sentinel renders as a dash; the day count would mislead.
func formatDaysUnused(days int) string {
	if days >= store.NeverDaysUnused {
		return "—"
	}
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
