package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/waybridge/internal/config"
)

// version is stamped at build time via -ldflags "-X .../internal/app.version=".
var version = "dev"

var (
	busNameFlag string

	// RootCmd is the root command for waybridge
	RootCmd = &cobra.Command{
		Use:     "waybridge",
		Version: version,
		Short:   "Session helper for the Waydroid Android container",
		Long: `waybridge manages a Waydroid container from the desktop session: lifecycle
control, app visibility, backup and restore, and resource monitoring.

The daemon ('waybridge serve') exports the control interface on the session
D-Bus and keeps desktop entries converged with your visibility preferences.
Every other command talks to a running daemon.

Quick Start:
  1. waybridge setup        # once: database + systemd user unit
  2. waybridge status
  3. waybridge apps

Examples:
  # Start the container
  waybridge start

  # Hide an app from the launcher
  waybridge apps hide com.example.game

  # Snapshot container data and app entries
  waybridge backup

  # Watch live resource usage
  waybridge monitor`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("waybridge: session helper for the Waydroid container")
			fmt.Println()
			fmt.Println("Run 'waybridge serve' to start the daemon.")
			fmt.Println("Run 'waybridge status' to check the container.")
			fmt.Println("Run 'waybridge --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&busNameFlag, "bus", "", "session bus name (default: com.ubuntu.WaydroidHelper)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads environment configuration and applies global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if busNameFlag != "" {
		cfg.BusName = busNameFlag
	}
	return cfg, nil
}
