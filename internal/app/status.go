package app

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check tracking health",
	Long: `Display the state of the dust database and tracking statistics.

Shows:
  • Database location and size
  • Number of packages being tracked
  • Total usage events logged
  • Time of the most recent scan

This command helps verify that usage tracking is working correctly.`,
	Example: `  # Check status
  dust status`,
	RunE: runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fi, err := os.Stat(cfg.Database.Path)
	if os.IsNotExist(err) {
		fmt.Println("dust is not set up yet. Run 'dust scan' to get started.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat database: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	packages, err := db.ListPackages(time.Now())
	if err != nil {
		return fmt.Errorf("failed to list packages: %w", err)
	}

	eventCount, err := db.GetEventCount()
	if err != nil {
		return fmt.Errorf("failed to count events: %w", err)
	}

	const label = "%-12s"

	fmt.Println()
	fmt.Printf(label+"%s (%s)\n", "Database:", cfg.Database.Path, humanize.Bytes(uint64(fi.Size())))
	fmt.Printf(label+"%d tracked\n", "Packages:", len(packages))
	fmt.Printf(label+"%s total\n", "Events:", humanize.Comma(int64(eventCount)))

	lastEvent, err := db.GetLastEventTime()
	switch {
	case err != nil:
		fmt.Printf(label+"unknown\n", "Last scan:")
	case lastEvent.IsZero():
		fmt.Printf(label+"never (run 'dust scan')\n", "Last scan:")
	default:
		fmt.Printf(label+"%s\n", "Last scan:", humanize.Time(lastEvent))
	}

	neverSeen := 0
	for _, pkg := range packages {
		if pkg.LastSeen == nil {
			neverSeen++
		}
	}
	fmt.Printf(label+"%d packages never observed running\n", "Never seen:", neverSeen)

	if eventCount == 0 {
		fmt.Println()
		fmt.Println("⚠ No usage events yet. Run 'dust serve' or 'dust service install'")
		fmt.Println("  to track usage over time.")
	}

	fmt.Println()
	return nil
}
