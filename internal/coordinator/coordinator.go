// Package coordinator owns the runtime lifecycle state machine. All
// lifecycle-mutating operations (start, stop, restart, freeze, unfreeze,
// backup, restore, visibility rewrites) serialize on one mutex so that
// external-process invocations against the container never interleave.
// Reads (status, installed apps, resource usage) do not take the mutex.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/waybridge/internal/config"
	"github.com/blackwell-systems/waybridge/internal/desktop"
	"github.com/blackwell-systems/waybridge/internal/sampler"
	"github.com/blackwell-systems/waybridge/internal/store"
	"github.com/blackwell-systems/waybridge/internal/waydroid"
)

// RuntimeClient is the set of container operations the coordinator drives.
// *waydroid.Client implements it; tests substitute an instrumented fake.
type RuntimeClient interface {
	Status(ctx context.Context) waydroid.Status
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Freeze(ctx context.Context) error
	Unfreeze(ctx context.Context) error
	Upgrade(ctx context.Context) error
	ArchiveData(ctx context.Context, destPath string) error
	RestoreArchive(ctx context.Context, archivePath string) error
	ArchiveAppEntries(ctx context.Context, destPath string) error
	RestoreAppEntries(ctx context.Context, srcPath string) error
}

// ResourceSampler produces one resource snapshot per call.
type ResourceSampler interface {
	Sample(ctx context.Context) sampler.Usage
}

// Coordinator brokers every operation against the runtime, the store, and
// the desktop-entry directory.
type Coordinator struct {
	cfg     *config.Config
	store   *store.Store
	runtime RuntimeClient
	sampler ResourceSampler
	logger  *zap.Logger

	// mu serializes lifecycle mutations and desktop/data directory writes.
	mu sync.Mutex

	monitorCancel context.CancelFunc
	monitorWG     sync.WaitGroup
}

// New creates a coordinator. A nil logger is replaced with a no-op logger.
func New(cfg *config.Config, st *store.Store, runtime RuntimeClient, smp ResourceSampler, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		cfg:     cfg,
		store:   st,
		runtime: runtime,
		sampler: smp,
		logger:  logger,
	}
}

// Status reports the runtime state without taking the lifecycle lock, so a
// long-running backup never blocks a status query.
func (c *Coordinator) Status(ctx context.Context) waydroid.Status {
	return c.runtime.Status(ctx)
}

// IsRunning reports whether the runtime session is up.
func (c *Coordinator) IsRunning(ctx context.Context) bool {
	return c.runtime.Status(ctx) == waydroid.StatusRunning
}

// Start launches the runtime session.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.runtime.Start(ctx); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	c.logger.Info("container started")
	return nil
}

// Stop shuts the runtime session down.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.runtime.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	c.logger.Info("container stopped")
	return nil
}

// Restart stops the runtime, waits for it to settle, and starts it again.
// A failed stop does not abort the start; the result reports both legs.
func (c *Coordinator) Restart(ctx context.Context) RestartResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res RestartResult

	if err := c.runtime.Stop(ctx); err != nil {
		c.logger.Warn("restart: stop failed, attempting start anyway", zap.Error(err))
	} else {
		res.StopOK = true
	}

	select {
	case <-time.After(c.cfg.RestartSettle):
	case <-ctx.Done():
		c.logger.Warn("restart: cancelled during settle delay", zap.Error(ctx.Err()))
		return res
	}

	if err := c.runtime.Start(ctx); err != nil {
		c.logger.Error("restart: start failed", zap.Error(err))
	} else {
		res.StartOK = true
	}

	c.logger.Info("container restarted",
		zap.Bool("stop_ok", res.StopOK),
		zap.Bool("start_ok", res.StartOK),
	)
	return res
}

// Freeze suspends the container without destroying its state.
func (c *Coordinator) Freeze(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.runtime.Freeze(ctx); err != nil {
		return fmt.Errorf("failed to freeze container: %w", err)
	}
	c.logger.Info("container frozen")
	return nil
}

// Unfreeze resumes a frozen container.
func (c *Coordinator) Unfreeze(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.runtime.Unfreeze(ctx); err != nil {
		return fmt.Errorf("failed to unfreeze container: %w", err)
	}
	c.logger.Info("container unfrozen")
	return nil
}

// SetAppVisibility records the desired visibility in the store, then rewrites
// the display flag in every desktop entry referencing the package. The store
// write is not rolled back if the entry rewrite fails; the next rewrite
// reconverges the files.
func (c *Coordinator) SetAppVisibility(ctx context.Context, packageName, appName string, visible bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.store.SetVisibility(packageName, appName, visible); err != nil {
		return fmt.Errorf("failed to record visibility for %s: %w", packageName, err)
	}

	if err := desktop.ApplyVisibility(c.cfg.AppsDir, packageName, visible); err != nil {
		return fmt.Errorf("failed to update desktop entries for %s: %w", packageName, err)
	}

	c.logger.Info("app visibility updated",
		zap.String("package", packageName),
		zap.Bool("visible", visible),
	)
	return nil
}

// InstalledApps lists the desktop entries in the apps directory joined with
// stored visibility. Discovery errors degrade to an empty list.
func (c *Coordinator) InstalledApps(ctx context.Context) ([]App, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := desktop.ListApps(c.cfg.AppsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list installed apps: %w", err)
	}

	stored, err := c.store.ListVisibility()
	if err != nil {
		return nil, fmt.Errorf("failed to load visibility records: %w", err)
	}
	visibility := make(map[string]bool, len(stored))
	for _, v := range stored {
		visibility[v.PackageName] = v.Visible
	}

	apps := make([]App, 0, len(entries))
	for _, entry := range entries {
		visible, ok := visibility[entry.PackageName]
		if !ok {
			visible = true
		}
		apps = append(apps, App{
			PackageName: entry.PackageName,
			Name:        entry.Name,
			DesktopFile: entry.DesktopFile,
			Visible:     visible,
		})
	}
	return apps, nil
}

// ResourceUsage takes one resource snapshot. It does not persist the sample;
// only the monitor loop writes resource history.
func (c *Coordinator) ResourceUsage(ctx context.Context) sampler.Usage {
	return c.sampler.Sample(ctx)
}
