package coordinator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/waybridge/internal/store"
	"github.com/blackwell-systems/waybridge/internal/waydroid"
)

const (
	backupDirPrefix  = "waydroid_backup_"
	backupTimeLayout = "2006-01-02_15-04-05"

	dataArchiveName = "waydroid_data.tar.gz"
	appsArchiveName = "waydroid_apps.tar.gz"
)

// Backup archives the runtime data directory and the desktop-entry directory
// into a new timestamped directory under the backup root. A running container
// is stopped for the duration and started again afterwards; the restart
// happens even when an archive step fails. Source directories that do not
// exist are skipped rather than treated as errors.
func (c *Coordinator) Backup(ctx context.Context) (BackupResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res BackupResult

	dir := filepath.Join(c.cfg.BackupDir, backupDirPrefix+time.Now().Format(backupTimeLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return res, fmt.Errorf("failed to create backup directory: %w", err)
	}
	res.Dir = dir

	wasRunning := c.runtime.Status(ctx) == waydroid.StatusRunning
	if wasRunning {
		if err := c.runtime.Stop(ctx); err != nil {
			c.logger.Warn("backup: stop before archiving failed", zap.Error(err))
		}
	}
	defer c.startIfWasRunning(ctx, wasRunning)

	if _, err := os.Stat(c.cfg.DataDir); err == nil {
		if err := c.runtime.ArchiveData(ctx, filepath.Join(dir, dataArchiveName)); err != nil {
			return res, fmt.Errorf("failed to archive data directory: %w", err)
		}
		res.DataArchived = true
	}

	if _, err := os.Stat(c.cfg.AppsDir); err == nil {
		if err := c.runtime.ArchiveAppEntries(ctx, filepath.Join(dir, appsArchiveName)); err != nil {
			return res, fmt.Errorf("failed to archive app entries: %w", err)
		}
		res.AppsArchived = true
	}

	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := c.store.SetSetting(store.SettingLastBackupTime, now); err != nil {
		return res, fmt.Errorf("failed to record backup time: %w", err)
	}

	c.logger.Info("backup complete",
		zap.String("dir", dir),
		zap.Bool("data_archived", res.DataArchived),
		zap.Bool("apps_archived", res.AppsArchived),
	)
	return res, nil
}

// Restore extracts the archives found in backupDir over the runtime data and
// desktop-entry directories. An empty backupDir selects the most recently
// modified directory under the backup root. When neither archive exists the
// call fails with ErrNoBackupFound before anything on disk is touched. As
// with Backup, a running container is stopped first and started again
// afterwards regardless of the extraction outcome.
func (c *Coordinator) Restore(ctx context.Context, backupDir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if backupDir == "" {
		latest, err := c.latestBackupDir()
		if err != nil {
			return err
		}
		backupDir = latest
	}

	dataArchive := filepath.Join(backupDir, dataArchiveName)
	appsArchive := filepath.Join(backupDir, appsArchiveName)

	hasData := fileExists(dataArchive)
	hasApps := fileExists(appsArchive)
	if !hasData && !hasApps {
		return fmt.Errorf("%s holds no archives: %w", backupDir, ErrNoBackupFound)
	}

	wasRunning := c.runtime.Status(ctx) == waydroid.StatusRunning
	if wasRunning {
		if err := c.runtime.Stop(ctx); err != nil {
			c.logger.Warn("restore: stop before extracting failed", zap.Error(err))
		}
	}
	defer c.startIfWasRunning(ctx, wasRunning)

	if hasData {
		if err := c.runtime.RestoreArchive(ctx, dataArchive); err != nil {
			return fmt.Errorf("failed to restore data directory: %w", err)
		}
	}

	if hasApps {
		if err := c.runtime.RestoreAppEntries(ctx, appsArchive); err != nil {
			return fmt.Errorf("failed to restore app entries: %w", err)
		}
	}

	c.logger.Info("restore complete", zap.String("dir", backupDir))
	return nil
}

// latestBackupDir returns the most recently modified directory under the
// backup root.
func (c *Coordinator) latestBackupDir() (string, error) {
	entries, err := os.ReadDir(c.cfg.BackupDir)
	if os.IsNotExist(err) {
		return "", ErrNoBackupFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read backup root: %w", err)
	}

	var latest string
	var latestMod time.Time
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = filepath.Join(c.cfg.BackupDir, entry.Name())
			latestMod = info.ModTime()
		}
	}
	if latest == "" {
		return "", ErrNoBackupFound
	}
	return latest, nil
}

func (c *Coordinator) startIfWasRunning(ctx context.Context, wasRunning bool) {
	if !wasRunning {
		return
	}
	if err := c.runtime.Start(ctx); err != nil {
		c.logger.Error("failed to start container after archive operation", zap.Error(err))
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
