package app

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/waybridge/internal/output"
	"github.com/blackwell-systems/waybridge/internal/store"
)

var (
	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change persisted settings",
		Long: `Read and write the settings stored alongside visibility preferences.

Settings take effect the next time the daemon consults them; auto_start,
for example, is read once when 'waybridge serve' boots.

Known keys:
  auto_start          start the container when the daemon boots (0 or 1)
  auto_update         check for container system updates (0 or 1)
  last_update_check   unix time of the last update check (maintained by the daemon)
  last_backup_time    unix time of the last backup (maintained by the daemon)

This command talks to the store directly and works without the daemon.`,
		Example: `  # List all settings
  waybridge settings

  # Start the container whenever the daemon boots
  waybridge settings set auto_start 1

  # Read one key
  waybridge settings get auto_start`,
		RunE: runSettingsList,
	}

	settingsGetCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting's value",
		Args:  cobra.ExactArgs(1),
		Example: `  # Read one key
  waybridge settings get auto_start`,
		RunE: runSettingsGet,
	}

	settingsSetCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Write one setting",
		Args:  cobra.ExactArgs(2),
		Example: `  # Start the container whenever the daemon boots
  waybridge settings set auto_start 1`,
		RunE: runSettingsSet,
	}
)

func init() {
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	RootCmd.AddCommand(settingsCmd)
}

func runSettingsList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	settings, err := st.ListSettings()
	if err != nil {
		return fmt.Errorf("failed to list settings: %w", err)
	}

	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Println()
	for _, key := range keys {
		fmt.Printf("%-20s %s\n", key, formatSettingValue(key, settings[key]))
	}
	fmt.Println()
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	value, ok, err := st.GetSetting(args[0])
	if err != nil {
		return fmt.Errorf("failed to read setting: %w", err)
	}
	if !ok {
		return fmt.Errorf("no setting named %q (try 'waybridge settings')", args[0])
	}

	fmt.Println(value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetSetting(key, value); err != nil {
		return fmt.Errorf("failed to write setting: %w", err)
	}

	fmt.Printf("✓ %s = %s\n", key, value)
	return nil
}

// formatSettingValue renders timestamps as relative times; everything else
// passes through.
func formatSettingValue(key, value string) string {
	switch key {
	case store.SettingLastBackupTime, store.SettingLastUpdateCheck:
		return output.FormatTimeAgo(parseUnixSetting(value))
	}
	return value
}
