package analyzer

import "time"

const (
	// scoringCapDays clamps the dust-score input: anything beyond a year
	// reads as fully dusty, not infinitely dusty. The raw day count keeps
	// growing for display and filtering.
	scoringCapDays = 365

	// saturationDays is the inactivity span that maps to 100% dust.
	saturationDays = 30
)

// Safety tiers.
const (
	SafetySafe  = "safe"
	SafetyRisky = "risky"
)

// PackageDust is one package's derived dust view. JSON field names match the
// wire format consumed by the dashboard.
type PackageDust struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	InstallDate     string     `json:"install_date"`
	ExplicitInstall bool       `json:"explicit_install"`
	LastSeen        *time.Time `json:"last_seen"`
	DaysUnused      int        `json:"days_unused"`
	DustPercentage  float64    `json:"dust_percentage"`
	Safety          string     `json:"safety"`
}

// Report bundles the package list with the summary stats.
type Report struct {
	Packages []PackageDust `json:"packages"`
	Stats    ReportStats   `json:"stats"`
}

// ReportStats mirrors store.Stats with wire-format field names.
type ReportStats struct {
	Total         int `json:"total"`
	UnusedWeek    int `json:"unused_week"`
	DustyExplicit int `json:"dusty_explicit"`
}

// DustPercentage maps days unused to a 0–100 staleness score. Thirty days of
// inactivity saturates the score.
func DustPercentage(daysUnused int) float64 {
	days := daysUnused
	if days > scoringCapDays {
		days = scoringCapDays
	}
	if days < 0 {
		days = 0
	}

	pct := float64(days) / saturationDays * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Safety classifies a package as a removal candidate. Only explicitly
// installed packages unused for over a month are flagged safe; dependency
// packages are never safe regardless of staleness, since removing them risks
// breaking a dependent.
func Safety(explicitInstall bool, daysUnused int) string {
	if explicitInstall && daysUnused > saturationDays {
		return SafetySafe
	}
	return SafetyRisky
}
