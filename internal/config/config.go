// Package config resolves the daemon's runtime configuration from the
// environment. Every knob has a default matching a stock Waydroid install;
// environment variables use the WAYBRIDGE_ prefix (WAYBRIDGE_DATA_DIR,
// WAYBRIDGE_MONITOR_INTERVAL, ...).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "waybridge"

// Config holds all tunable paths, intervals, and timeouts.
type Config struct {
	// Paths. The empty defaults are filled from the user's home after
	// envconfig runs; see applyPathDefaults.
	DBPath    string `envconfig:"DB_PATH"`
	DataDir   string `envconfig:"DATA_DIR" default:"/var/lib/waydroid"`
	AppsDir   string `envconfig:"APPS_DIR"`
	BackupDir string `envconfig:"BACKUP_DIR"`
	LogFile   string `envconfig:"LOG_FILE"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	BusName  string `envconfig:"BUS_NAME" default:"com.ubuntu.WaydroidHelper"`

	MonitorInterval  time.Duration `envconfig:"MONITOR_INTERVAL" default:"3s"`
	StatusTimeout    time.Duration `envconfig:"STATUS_TIMEOUT" default:"10s"`
	LifecycleTimeout time.Duration `envconfig:"LIFECYCLE_TIMEOUT" default:"30s"`
	ArchiveTimeout   time.Duration `envconfig:"ARCHIVE_TIMEOUT" default:"10m"`
	RestartSettle    time.Duration `envconfig:"RESTART_SETTLE" default:"2s"`
	CPUSampleWindow  time.Duration `envconfig:"CPU_SAMPLE_WINDOW" default:"200ms"`
	UpdateInterval   time.Duration `envconfig:"UPDATE_INTERVAL" default:"24h"`

	WaydroidBin string `envconfig:"WAYDROID_BIN" default:"waydroid"`
	SudoBin     string `envconfig:"SUDO_BIN" default:"sudo"`
	TarBin      string `envconfig:"TAR_BIN" default:"tar"`
}

// Load reads configuration from the environment on top of the defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.applyPathDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration, ignoring the environment.
// Tests build on it to get valid timeouts without env plumbing.
func Default() (*Config, error) {
	cfg := Config{
		DataDir:          "/var/lib/waydroid",
		LogLevel:         "info",
		BusName:          "com.ubuntu.WaydroidHelper",
		MonitorInterval:  3 * time.Second,
		StatusTimeout:    10 * time.Second,
		LifecycleTimeout: 30 * time.Second,
		ArchiveTimeout:   10 * time.Minute,
		RestartSettle:    2 * time.Second,
		CPUSampleWindow:  200 * time.Millisecond,
		UpdateInterval:   24 * time.Hour,
		WaydroidBin:      "waydroid",
		SudoBin:          "sudo",
		TarBin:           "tar",
	}
	if err := cfg.applyPathDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPathDefaults fills the home-relative paths envconfig tags cannot
// express statically.
func (c *Config) applyPathDefaults() error {
	if c.DBPath != "" && c.AppsDir != "" && c.BackupDir != "" {
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	if c.DBPath == "" {
		c.DBPath = filepath.Join(dataHome, "waydroid-helper", "settings.db")
	}
	if c.AppsDir == "" {
		c.AppsDir = filepath.Join(dataHome, "applications", "waydroid")
	}
	if c.BackupDir == "" {
		c.BackupDir = filepath.Join(home, "Documents", "WaydroidBackups")
	}

	return nil
}
