package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/waybridge/internal/sampler"
	"github.com/blackwell-systems/waybridge/internal/store"
	"github.com/blackwell-systems/waybridge/internal/waydroid"
)

// StartMonitor launches the background resource monitor. On every tick while
// the container is running it takes one sample, persists it, and hands it to
// notify. Ticks while the container is stopped do nothing. notify may be nil.
// Calling StartMonitor more than once is a no-op.
func (c *Coordinator) StartMonitor(notify func(sampler.Usage)) {
	if c.monitorCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.monitorCancel = cancel

	c.monitorWG.Add(1)
	go func() {
		defer c.monitorWG.Done()

		ticker := time.NewTicker(c.cfg.MonitorInterval)
		defer ticker.Stop()

		c.logger.Info("resource monitor started",
			zap.Duration("interval", c.cfg.MonitorInterval))

		for {
			select {
			case <-ticker.C:
				c.monitorTick(ctx, notify)
			case <-ctx.Done():
				c.logger.Info("resource monitor stopped")
				return
			}
		}
	}()
}

// monitorTick runs one monitor pass. It skips the pass entirely when a
// lifecycle mutation holds the lock, so a sample is never taken mid-transition.
func (c *Coordinator) monitorTick(ctx context.Context, notify func(sampler.Usage)) {
	if !c.mu.TryLock() {
		c.logger.Debug("monitor tick skipped: lifecycle operation in progress")
		return
	}
	defer c.mu.Unlock()

	if c.runtime.Status(ctx) != waydroid.StatusRunning {
		return
	}

	usage := c.sampler.Sample(ctx)

	sample := &store.ResourceSample{
		Timestamp:    time.Now().Unix(),
		CPUUsage:     usage.CPUPercent,
		RAMUsage:     usage.RAMUsedMB,
		StorageUsage: usage.StorageUsedGB,
	}
	if err := c.store.AppendSample(sample); err != nil {
		c.logger.Error("failed to persist resource sample", zap.Error(err))
	}

	if notify != nil {
		notify(usage)
	}
}

// Close stops the monitor and waits for the loop goroutine to exit. It is
// safe to call when the monitor was never started.
func (c *Coordinator) Close() {
	if c.monitorCancel != nil {
		c.monitorCancel()
	}
	c.monitorWG.Wait()
}
