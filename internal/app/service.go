package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dust/internal/service"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the systemd user service",
	Long: `Install or remove the systemd user service that keeps dust running
in the background across logins.

The service runs 'dust serve --headless' and restarts automatically.`,
	Example: `  # Install and start the service
  dust service install

  # Stop and remove the service
  dust service uninstall`,
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and start the background service",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := service.NewManager()
		if err != nil {
			return err
		}
		if err := mgr.Install(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("✓ Service installed: %s\n", mgr.UnitPath())
		fmt.Println()
		fmt.Println("Manage with:")
		fmt.Printf("  systemctl --user status %s\n", service.UnitName)
		fmt.Printf("  journalctl --user -u %s -f\n", service.UnitName)
		return nil
	},
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the background service",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := service.NewManager()
		if err != nil {
			return err
		}
		if err := mgr.Uninstall(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Service removed")
		return nil
	},
}

func init() {
	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceUninstallCmd)
	RootCmd.AddCommand(serviceCmd)
}
