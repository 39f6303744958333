package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/waybridge/internal/bus"
	"github.com/blackwell-systems/waybridge/internal/coordinator"
	"github.com/blackwell-systems/waybridge/internal/output"
)

var (
	appsCmd = &cobra.Command{
		Use:   "apps",
		Short: "List Android apps and their launcher visibility",
		Long: `List the Android apps installed in the container.

Each app maps to a desktop entry the container exports into the session.
The Display column shows whether the entry is visible in the launcher;
change it with 'waybridge apps hide' and 'waybridge apps show'.`,
		Example: `  # List installed apps
  waybridge apps

  # Hide an app from the launcher
  waybridge apps hide com.example.game

  # Bring it back
  waybridge apps show com.example.game`,
		RunE: runApps,
	}

	appsHideCmd = &cobra.Command{
		Use:   "hide [package]",
		Short: "Hide an app's launcher entry",
		Args:  cobra.ExactArgs(1),
		Example: `  # Hide an app from the launcher
  waybridge apps hide com.example.game`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetVisibility(cmd, args[0], false)
		},
	}

	appsShowCmd = &cobra.Command{
		Use:   "show [package]",
		Short: "Show a hidden app's launcher entry",
		Args:  cobra.ExactArgs(1),
		Example: `  # Restore a hidden app
  waybridge apps show com.example.game`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetVisibility(cmd, args[0], true)
		},
	}
)

func init() {
	appsCmd.AddCommand(appsHideCmd)
	appsCmd.AddCommand(appsShowCmd)

	RootCmd.AddCommand(appsCmd)
}

func runApps(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := dialDaemon()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.StatusTimeout)
	defer cancel()

	installed, err := client.GetInstalledApps(ctx)
	if err != nil {
		return fmt.Errorf("failed to list apps: %w", err)
	}
	if len(installed) == 0 {
		fmt.Println("No Waydroid apps found. Is the container initialized?")
		return nil
	}

	apps, err := mergeVisibility(installed)
	if err != nil {
		return err
	}

	fmt.Print(output.RenderAppTable(apps))
	fmt.Printf("\n%d apps\n", len(apps))
	return nil
}

// mergeVisibility joins the daemon's app list with the stored visibility
// preferences. Apps without a stored row count as visible.
func mergeVisibility(installed []bus.InstalledApp) ([]coordinator.App, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	rows, err := st.ListVisibility()
	if err != nil {
		return nil, fmt.Errorf("failed to read visibility preferences: %w", err)
	}
	hidden := make(map[string]bool, len(rows))
	for _, row := range rows {
		hidden[row.PackageName] = !row.Visible
	}

	apps := make([]coordinator.App, 0, len(installed))
	for _, in := range installed {
		apps = append(apps, coordinator.App{
			PackageName: in.PackageName,
			Name:        in.AppName,
			DesktopFile: in.DesktopFile,
			Visible:     !hidden[in.PackageName],
		})
	}
	return apps, nil
}

func runSetVisibility(cmd *cobra.Command, packageName string, visible bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := dialDaemon()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.StatusTimeout)
	defer cancel()

	// Resolve the app name so the stored row carries it.
	installed, err := client.GetInstalledApps(ctx)
	if err != nil {
		return fmt.Errorf("failed to list apps: %w", err)
	}
	appName := packageName
	found := false
	for _, app := range installed {
		if app.PackageName == packageName {
			appName = app.AppName
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no installed app matches %q (try 'waybridge apps')", packageName)
	}

	ok, err := client.SetAppVisibility(ctx, packageName, appName, visible)
	if err != nil {
		return fmt.Errorf("failed to update visibility: %w", err)
	}
	if !ok {
		return fmt.Errorf("daemon could not update %s (see its logs)", packageName)
	}

	if visible {
		fmt.Printf("✓ %s is visible in the launcher\n", packageName)
	} else {
		fmt.Printf("✓ %s is hidden from the launcher\n", packageName)
	}
	return nil
}
