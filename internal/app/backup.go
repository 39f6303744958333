package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/waybridge/internal/output"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot container data and app entries",
	Long: `Archive the container's data directory and its exported desktop entries
into a timestamped directory under the backup root.

A running container is stopped for the duration of the backup and started
again afterwards. Archiving the data directory runs tar through sudo, so
the daemon's session may prompt for a password on the first run.`,
	Example: `  # Snapshot into the backup root (default ~/Documents/WaydroidBackups)
  waybridge backup

  # Check when the last backup ran
  waybridge status`,
	RunE: runBackup,
}

func init() {
	RootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
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

	spinner := output.NewSpinner("Backing up container data...").WithElapsed()
	spinner.Start()

	ok, err := client.BackupData(ctx)
	if err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to back up: %w", err)
	}
	if !ok {
		spinner.Stop()
		return fmt.Errorf("daemon could not complete the backup (see its logs)")
	}
	spinner.StopWithMessage("✓ Backup complete")

	fmt.Printf("\nBackups live under %s\n", cfg.BackupDir)
	return nil
}
