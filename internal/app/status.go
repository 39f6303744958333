package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/waybridge/internal/output"
	"github.com/blackwell-systems/waybridge/internal/stats"
	"github.com/blackwell-systems/waybridge/internal/store"
	"github.com/blackwell-systems/waybridge/internal/waydroid"
)

var (
	statusHistory int

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show container state and resource usage",
		Long: `Display the container state known to the waybridge daemon.

Shows:
  • Container state (running / stopped)
  • Live resource usage while the container runs
  • Time of the last backup
  • Recent stored resource samples with --history

Resource history and the last backup time come straight from the settings
store, so they render even when the daemon is down.`,
		Example: `  # Check the container
  waybridge status

  # Include the 10 most recent resource samples
  waybridge status --history 10`,
		RunE: runStatus,
	}
)

func init() {
	statusCmd.Flags().IntVar(&statusHistory, "history", 0, "show the N most recent resource samples")

	// Register with root command
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	const label = "%-14s"

	client, err := dialDaemon()
	if err != nil {
		fmt.Println()
		fmt.Printf(label+"not reachable (run 'waybridge serve')\n", "Daemon:")
		printStoreStatus(label)
		fmt.Println()
		return nil
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.StatusTimeout)
	defer cancel()

	running, err := client.IsContainerRunning(ctx)
	if err != nil {
		return fmt.Errorf("failed to query container status: %w", err)
	}
	status := waydroid.StatusStopped
	if running {
		status = waydroid.StatusRunning
	}

	fmt.Println()
	fmt.Printf(label+"running (%s)\n", "Daemon:", cfg.BusName)
	fmt.Printf(label+"%s\n", "Container:", output.FormatStatus(status))

	if running {
		usage, err := client.GetResourceUsage(ctx)
		if err != nil {
			fmt.Printf(label+"unavailable\n", "Usage:")
		} else {
			fmt.Printf(label+"%s\n", "Usage:", output.FormatUsage(usage))
		}
	}

	printStoreStatus(label)
	fmt.Println()
	return nil
}

// printStoreStatus renders the store-backed lines shared by the reachable
// and unreachable paths.
func printStoreStatus(label string) {
	st, err := openStore()
	if err != nil {
		return
	}
	defer st.Close()

	if value, ok, err := st.GetSetting(store.SettingLastBackupTime); err == nil && ok {
		fmt.Printf(label+"%s\n", "Last backup:", output.FormatTimeAgo(parseUnixSetting(value)))
	}

	if statusHistory > 0 {
		samples, err := st.RecentSamples(statusHistory)
		if err == nil && len(samples) > 0 {
			fmt.Println()
			fmt.Println(output.FormatSampleSummary(stats.Summarize(samples)))
			fmt.Print(output.RenderSampleTable(samples))
		}
	}
}
