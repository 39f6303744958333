// Package systemd writes the user unit that keeps the daemon running across
// sessions.
package systemd

import (
	"fmt"
	"os"
	"path/filepath"
)

const unitName = "waybridge.service"

// unitTemplate is Type=notify because serve signals readiness over sd_notify.
const unitTemplate = `[Unit]
Description=Waydroid session helper daemon
After=graphical-session.target

[Service]
Type=notify
ExecStart=%s serve
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`

// UnitPath returns where the user unit lives, respecting XDG_CONFIG_HOME.
func UnitPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "systemd", "user", unitName), nil
}

// EnsureUserUnit writes the user unit pointing at execPath, creating parent
// directories as needed. A unit whose content already matches is left alone.
// Returns (written, unitPath, err); written=false means no change was made.
func EnsureUserUnit(execPath string) (written bool, unitPath string, err error) {
	unitPath, err = UnitPath()
	if err != nil {
		return false, "", err
	}

	content := fmt.Sprintf(unitTemplate, execPath)

	existing, readErr := os.ReadFile(unitPath)
	if readErr == nil && string(existing) == content {
		return false, unitPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(unitPath), 0755); err != nil {
		return false, "", fmt.Errorf("cannot create unit directory %s: %w", filepath.Dir(unitPath), err)
	}
	if err := os.WriteFile(unitPath, []byte(content), 0644); err != nil {
		return false, "", fmt.Errorf("cannot write unit file %s: %w", unitPath, err)
	}

	return true, unitPath, nil
}
