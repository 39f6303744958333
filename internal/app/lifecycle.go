package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/waybridge/internal/bus"
	"github.com/blackwell-systems/waybridge/internal/output"
)

var (
	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the Waydroid container",
		Example: `  # Start the container session
  waybridge start`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, "Starting container...", "✓ Container started",
				"start", (*bus.Client).StartContainer)
		},
	}

	stopCmd = &cobra.Command{
		Use:   "stop",
		Short: "Stop the Waydroid container",
		Example: `  # Stop the container session
  waybridge stop`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, "Stopping container...", "✓ Container stopped",
				"stop", (*bus.Client).StopContainer)
		},
	}

	restartCmd = &cobra.Command{
		Use:   "restart",
		Short: "Restart the Waydroid container",
		Long: `Stop and start the Waydroid container.

A failed stop does not abort the restart; the daemon still attempts the
start so a wedged container can recover. The command fails when either
half fails.`,
		Example: `  # Restart the container
  waybridge restart`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, "Restarting container...", "✓ Container restarted",
				"restart", (*bus.Client).RestartContainer)
		},
	}

	freezeCmd = &cobra.Command{
		Use:   "freeze",
		Short: "Freeze the container to release CPU",
		Long: `Freeze the running container's processes.

A frozen container keeps its memory but consumes no CPU. Use 'waybridge
unfreeze' to resume it.`,
		Example: `  # Pause the container
  waybridge freeze`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, "Freezing container...", "✓ Container frozen",
				"freeze", (*bus.Client).FreezeContainer)
		},
	}

	unfreezeCmd = &cobra.Command{
		Use:   "unfreeze",
		Short: "Resume a frozen container",
		Example: `  # Resume the container
  waybridge unfreeze`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, "Unfreezing container...", "✓ Container resumed",
				"unfreeze", (*bus.Client).UnfreezeContainer)
		},
	}
)

func init() {
	RootCmd.AddCommand(startCmd)
	RootCmd.AddCommand(stopCmd)
	RootCmd.AddCommand(restartCmd)
	RootCmd.AddCommand(freezeCmd)
	RootCmd.AddCommand(unfreezeCmd)
}

// runLifecycle drives one container lifecycle call against the daemon. The
// daemon reports failures as a false return rather than a bus error, so
// both paths exit non-zero here.
func runLifecycle(cmd *cobra.Command, busy, done, verb string, call func(*bus.Client, context.Context) (bool, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := dialDaemon()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.LifecycleTimeout)
	defer cancel()

	spinner := output.NewSpinner(busy)
	spinner.Start()

	ok, err := call(client, ctx)
	if err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to %s container: %w", verb, err)
	}
	if !ok {
		spinner.Stop()
		return fmt.Errorf("daemon could not %s the container (see its logs)", verb)
	}

	spinner.StopWithMessage(done)
	return nil
}
