// Package waydroid wraps the waydroid CLI and the archive tooling around
// it. Every method shells out to an external process under a per-call
// timeout; failures come back as wrapped errors carrying the command and
// its output, never as panics.
package waydroid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/waybridge/internal/config"
)

// runner executes an external command and returns its combined output.
// Swapped out in tests.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client invokes the waydroid control surface.
type Client struct {
	cfg    *config.Config
	logger *zap.Logger
	run    runner
}

// New creates a runtime client.
func New(cfg *config.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		run:    runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

// invoke runs a command under a timeout and wraps failures with the command
// line and its trimmed output.
func (c *Client) invoke(ctx context.Context, timeout time.Duration, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := c.run(ctx, name, args...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("%s %s failed: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return fmt.Errorf("%s %s failed: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

// Status reports the container state. A missing waydroid binary is logged
// and reported as StatusUnknown; a failing status command as StatusStopped.
// Callers never see an error from this path.
func (c *Client) Status(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StatusTimeout)
	defer cancel()

	out, err := c.run(ctx, c.cfg.WaydroidBin, "status")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			c.logger.Error("waydroid command not found, is Waydroid installed?")
			return StatusUnknown
		}
		c.logger.Warn("waydroid status failed", zap.Error(err))
		return StatusStopped
	}

	return parseStatus(out)
}

func parseStatus(out []byte) Status {
	if strings.Contains(string(out), "RUNNING") {
		return StatusRunning
	}
	return StatusStopped
}

// Start launches the container session. waydroid session start stays in the
// foreground for the whole session, so the process is spawned detached and
// only spawn failures are reported; the context is checked but cannot bound
// the session's lifetime.
func (c *Client) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd := exec.Command(c.cfg.WaydroidBin, "session", "start")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start waydroid session: %w", err)
	}

	c.logger.Info("waydroid session started", zap.Int("pid", cmd.Process.Pid))

	// Reap the session process when it eventually exits.
	go func() {
		if err := cmd.Wait(); err != nil {
			c.logger.Warn("waydroid session exited with error", zap.Error(err))
		}
	}()

	return nil
}

// Stop terminates the container session.
func (c *Client) Stop(ctx context.Context) error {
	return c.invoke(ctx, c.cfg.LifecycleTimeout, c.cfg.WaydroidBin, "session", "stop")
}

// Freeze suspends the container's processes without destroying state.
func (c *Client) Freeze(ctx context.Context) error {
	return c.invoke(ctx, c.cfg.LifecycleTimeout, c.cfg.WaydroidBin, "container", "freeze")
}

// Unfreeze resumes a frozen container.
func (c *Client) Unfreeze(ctx context.Context) error {
	return c.invoke(ctx, c.cfg.LifecycleTimeout, c.cfg.WaydroidBin, "container", "unfreeze")
}

// Upgrade updates the container's Android system image. The image lives
// under the root-owned data dir, so this elevates like the data archive
// does. Upgrades download images; they get the long archive timeout.
func (c *Client) Upgrade(ctx context.Context) error {
	return c.invoke(ctx, c.cfg.ArchiveTimeout, c.cfg.SudoBin, c.cfg.WaydroidBin, "upgrade")
}
