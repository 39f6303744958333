package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/waybridge/internal/output"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Upgrade the container's Android system image",
	Long: `Upgrade the Waydroid system image through the daemon.

A running container is stopped for the upgrade and started again afterwards.
Set 'waybridge settings set auto_update 1' to have the daemon check once a
day on its own.`,
	Example: `  # Upgrade now
  waybridge update

  # Let the daemon check daily instead
  waybridge settings set auto_update 1`,
	RunE: runUpdate,
}

func init() {
	RootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := dialDaemon()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ArchiveTimeout)
	defer cancel()

	spinner := output.NewSpinner("Upgrading system image...").WithElapsed()
	spinner.Start()

	ok, err := client.UpdateSystem(ctx)
	if err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to upgrade: %w", err)
	}
	if !ok {
		spinner.Stop()
		return fmt.Errorf("daemon could not complete the upgrade (see its logs)")
	}

	spinner.StopWithMessage("✓ System image upgraded")
	return nil
}
