package app

import (
	"fmt"
	"strconv"
	"time"

	"github.com/blackwell-systems/waybridge/internal/bus"
	"github.com/blackwell-systems/waybridge/internal/store"
)

// dialDaemon connects to the helper daemon on the session bus.
func dialDaemon() (*bus.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	client, err := bus.Dial(cfg.BusName)
	if err != nil {
		return nil, fmt.Errorf("failed to reach the daemon: %w (is 'waybridge serve' running?)", err)
	}
	return client, nil
}

// openStore opens the settings store read-write. Commands that work without
// the daemon use this directly.
func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := st.Init(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return st, nil
}

// parseUnixSetting converts a stored unix-seconds string to a time. The
// seeded default "0" and unparsable values report a zero time.
func parseUnixSetting(value string) time.Time {
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}
