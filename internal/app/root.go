package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dust/internal/config"
)

// Version is the release version, set at build time via -ldflags.
var Version = "dev"

var (
	dbPath string

	// RootCmd is the root command for dust
	RootCmd = &cobra.Command{
		Use:   "dust",
		Short: "Track which installed packages you actually use",
		Long: `dust watches your running processes and correlates them with the pacman
package inventory, so you can see which packages are gathering dust.

Packages accumulate a dust score the longer they go without appearing in
a running process. Explicitly installed packages unused for over a month
are flagged as safe removal candidates; dependencies are never flagged.

Quick Start:
  1. dust scan                 # take a first snapshot
  2. dust serve                # web dashboard + periodic scanning
  3. dust service install      # keep tracking across logins
  4. dust stats                # review after a few weeks

Examples:
  # One-shot scan
  dust scan

  # Web dashboard on http://localhost:8765
  dust serve

  # Background service without a browser
  dust serve --headless

  # Show the dust report
  dust stats

  # Check tracking health
  dust status`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Println("dust: Linux package usage tracker")
			fmt.Println()
			if _, err := os.Stat(cfg.Database.Path); os.IsNotExist(err) {
				fmt.Println("Run 'dust scan' to take a first snapshot.")
				fmt.Println("Run 'dust --help' for the full reference.")
			} else {
				fmt.Println("Tip: Run 'dust status' to check tracking health.")
				fmt.Println("     Run 'dust stats' to view the dust report.")
				fmt.Println("     Run 'dust --help' for all commands.")
			}
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: "+config.DefaultDBPath()+")")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
	RootCmd.Version = Version

	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(serveCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}
