package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/waybridge/internal/output"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch live container resource usage",
	Long: `Stream resource usage from the daemon.

The daemon samples CPU, RAM, and storage while the container runs and
broadcasts each sample on the session bus. While the container is stopped
no samples arrive and nothing is printed.`,
	Example: `  # Watch until Ctrl+C
  waybridge monitor`,
	RunE: runMonitor,
}

func init() {
	RootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	client, err := dialDaemon()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	usages, err := client.WatchResourceUsage(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to resource usage: %w", err)
	}

	fmt.Println("Watching container resource usage (press Ctrl+C to stop)...")
	fmt.Println()

	for u := range usages {
		fmt.Printf("%s  %s\n", time.Now().Format("15:04:05"), output.FormatUsage(u))
	}

	fmt.Println()
	fmt.Println("Stopped watching")
	return nil
}
