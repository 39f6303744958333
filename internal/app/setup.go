package app

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/blackwell-systems/waybridge/internal/systemd"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "One-time setup for new waybridge installations",
	Long: `Prepares everything the daemon needs and installs it as a systemd
user service.

Steps performed:
  1. Create the settings database
  2. Check that the waydroid binary is installed
  3. Write the systemd user unit for 'waybridge serve'

This command is non-interactive and safe to re-run; steps that are
already done are skipped.`,
	RunE: runSetup,
}

func init() {
	RootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println("Setting up waybridge...")
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// ── Step 1: Settings database ─────────────────────────────────────────────
	fmt.Println("Step 1/3: Creating settings database")
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	st.Close()
	fmt.Printf("  ✓ Database ready at %s\n", cfg.DBPath)
	fmt.Println()

	// ── Step 2: Waydroid binary ───────────────────────────────────────────────
	fmt.Println("Step 2/3: Checking for the waydroid binary")
	if path, lookErr := exec.LookPath(cfg.WaydroidBin); lookErr != nil {
		fmt.Printf("  ⚠ %s not found in PATH\n", cfg.WaydroidBin)
		fmt.Println("  Install Waydroid first: https://docs.waydro.id/usage/install-on-desktops")
	} else {
		fmt.Printf("  ✓ waydroid found at %s\n", path)
	}
	fmt.Println()

	// ── Step 3: systemd user unit ─────────────────────────────────────────────
	fmt.Println("Step 3/3: Installing the systemd user unit")
	execPath, err := os.Executable()
	if err != nil {
		fmt.Printf("  ⚠ Could not determine the waybridge binary path: %v\n", err)
		fmt.Println("  Run 'waybridge serve' manually, or write the unit yourself.")
	} else {
		written, unitPath, unitErr := systemd.EnsureUserUnit(execPath)
		switch {
		case unitErr != nil:
			fmt.Printf("  ⚠ Could not write unit file: %v\n", unitErr)
			fmt.Println("  Run 'waybridge serve' manually, or write the unit yourself.")
		case written:
			fmt.Printf("  ✓ Wrote %s\n", unitPath)
		default:
			fmt.Printf("  ✓ Unit already up to date at %s\n", unitPath)
		}
	}
	fmt.Println()

	// ── Summary ───────────────────────────────────────────────────────────────
	fmt.Println("Setup complete!")
	fmt.Println()
	fmt.Println("To start the daemon now and on every login:")
	fmt.Println("  systemctl --user daemon-reload")
	fmt.Println("  systemctl --user enable --now waybridge")
	fmt.Println()
	fmt.Println("Check it anytime: waybridge status")

	return nil
}
