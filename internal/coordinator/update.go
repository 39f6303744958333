package coordinator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/waybridge/internal/store"
	"github.com/blackwell-systems/waybridge/internal/waydroid"
)

// Update upgrades the container's Android system image, wrapped in the same
// stop/restart envelope Backup uses. The check time is recorded up front,
// even when the upgrade then fails, so a broken image server does not make
// the auto-updater retry on every boot.
func (c *Coordinator) Update(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := c.store.SetSetting(store.SettingLastUpdateCheck, now); err != nil {
		return fmt.Errorf("failed to record update check: %w", err)
	}

	wasRunning := c.runtime.Status(ctx) == waydroid.StatusRunning
	if wasRunning {
		if err := c.runtime.Stop(ctx); err != nil {
			c.logger.Warn("update: stop before upgrading failed", zap.Error(err))
		}
	}
	defer c.startIfWasRunning(ctx, wasRunning)

	if err := c.runtime.Upgrade(ctx); err != nil {
		return fmt.Errorf("failed to upgrade container image: %w", err)
	}

	c.logger.Info("container image upgraded")
	return nil
}

// AutoUpdateIfDue runs Update when the auto_update setting is enabled and
// the last check is older than the configured interval. Meant for the
// daemon's startup path; failures are logged, never returned.
func (c *Coordinator) AutoUpdateIfDue(ctx context.Context) {
	enabled, ok, err := c.store.GetSetting(store.SettingAutoUpdate)
	if err != nil {
		c.logger.Warn("failed to read auto_update setting", zap.Error(err))
		return
	}
	if !ok || enabled != "1" {
		return
	}

	var lastCheck time.Time
	if value, ok, err := c.store.GetSetting(store.SettingLastUpdateCheck); err == nil && ok {
		if secs, err := strconv.ParseInt(value, 10, 64); err == nil && secs > 0 {
			lastCheck = time.Unix(secs, 0)
		}
	}
	if time.Since(lastCheck) < c.cfg.UpdateInterval {
		return
	}

	c.logger.Info("auto-update: container image check due",
		zap.Time("last_check", lastCheck),
	)
	if err := c.Update(ctx); err != nil {
		c.logger.Error("auto-update failed", zap.Error(err))
	}
}
