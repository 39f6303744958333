package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/waybridge/internal/output"
)

var (
	restoreYes bool

	restoreCmd = &cobra.Command{
		Use:   "restore [backup-dir]",
		Short: "Restore container data from a backup",
		Long: `Replace the container's data directory and desktop entries with the
contents of a backup.

With no argument the most recent backup under the backup root is used.
Pass a directory to restore a specific snapshot.

Restoring overwrites the current container data. A running container is
stopped first and started again once the restore finishes.`,
		Args: cobra.MaximumNArgs(1),
		Example: `  # Restore the most recent backup
  waybridge restore

  # Restore a specific snapshot without prompting
  waybridge restore ~/Documents/WaydroidBackups/waydroid_backup_2026-08-01_09-30-00 --yes`,
		RunE: runRestore,
	}
)

func init() {
	restoreCmd.Flags().BoolVar(&restoreYes, "yes", false, "skip the confirmation prompt")

	RootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backupDir := ""
	if len(args) == 1 {
		backupDir = args[0]
	}

	if !restoreYes && !confirmRestore(backupDir) {
		fmt.Println("Restore cancelled")
		return nil
	}

	client, err := dialDaemon()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ArchiveTimeout)
	defer cancel()

	spinner := output.NewSpinner("Restoring container data...").WithElapsed()
	spinner.Start()

	ok, err := client.RestoreData(ctx, backupDir)
	if err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to restore: %w", err)
	}
	if !ok {
		spinner.Stop()
		return fmt.Errorf("daemon could not complete the restore (see its logs)")
	}
	spinner.StopWithMessage("✓ Restore complete")

	return nil
}

// confirmRestore prompts before overwriting container data.
func confirmRestore(backupDir string) bool {
	if backupDir == "" {
		fmt.Print("Overwrite current container data with the most recent backup? [y/N]: ")
	} else {
		fmt.Printf("Overwrite current container data with %s? [y/N]: ", backupDir)
	}

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
