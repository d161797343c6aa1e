package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dust/internal/analyzer"
	"github.com/blackwell-systems/dust/internal/output"
)

var (
	scanQuiet bool

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan cycle and exit",
		Long: `Run one scan cycle: reconcile the pacman package inventory into the
database, then correlate running processes back to their owning packages.

Each correlated package gets its last-seen timestamp advanced and a usage
event recorded. Packages never observed running keep accumulating dust.

The scan command should be run:
  • After installing dust for the first time
  • Any time you want an immediate snapshot outside the serve loop`,
		Example: `  # Scan once
  dust scan

  # Scan quietly (suppress output)
  dust scan --quiet`,
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().BoolVar(&scanQuiet, "quiet", false, "suppress output")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	tr := newTracker(cfg, db)

	isTTY := isatty.IsTerminal(os.Stdout.Fd())
	var spinner *output.Spinner
	if !scanQuiet && isTTY {
		spinner = output.NewSpinner("Scanning packages...")
		spinner.Start()
	} else if !scanQuiet {
		fmt.Println("Scanning packages...")
	}

	result := tr.RunScanCycle(context.Background())

	if !scanQuiet && isTTY {
		spinner.Stop()
	}
	if err := result.Err(); err != nil {
		return fmt.Errorf("scan cycle failed: %w", err)
	}

	if scanQuiet {
		return nil
	}

	fmt.Printf("✓ Scan complete: %d packages reconciled, %d processes seen, %d packages in use\n",
		result.PackagesReconciled, result.ProcessesSeen, result.PackagesTouched)
	fmt.Printf("  took %s\n", result.Finished.Sub(result.Started).Round(time.Millisecond))

	report, err := analyzer.New(db).Report(time.Now())
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	fmt.Println()
	fmt.Println(output.RenderStatsSummary(report.Stats))

	return nil
}
