package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dust/internal/analyzer"
	"github.com/blackwell-systems/dust/internal/output"
)

var (
	statsLimit    int
	statsSafeOnly bool

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show the dust report",
		Long: `Display per-package dust scores and the aggregate summary.

Packages are listed dustiest first. The safety column marks explicitly
installed packages unused for over a month as safe removal candidates.`,
		Example: `  # Full report
  dust stats

  # Top 20 dustiest packages
  dust stats --limit 20

  # Only safe removal candidates
  dust stats --safe`,
		RunE: runStats,
	}
)

func init() {
	statsCmd.Flags().IntVar(&statsLimit, "limit", 0, "show at most N packages (0 = all)")
	statsCmd.Flags().BoolVar(&statsSafeOnly, "safe", false, "only show safe removal candidates")
	RootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := analyzer.New(db).Report(time.Now())
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	packages := report.Packages
	if statsSafeOnly {
		filtered := packages[:0:0]
		for _, pkg := range packages {
			if pkg.Safety == analyzer.SafetySafe {
				filtered = append(filtered, pkg)
			}
		}
		packages = filtered
	}
	if statsLimit > 0 && len(packages) > statsLimit {
		packages = packages[:statsLimit]
	}

	fmt.Print(output.RenderDustTable(packages))
	fmt.Println()
	fmt.Println(output.RenderStatsSummary(report.Stats))

	return nil
}
