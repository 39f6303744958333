package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/waybridge/internal/bus"
	"github.com/blackwell-systems/waybridge/internal/coordinator"
	"github.com/blackwell-systems/waybridge/internal/logging"
	"github.com/blackwell-systems/waybridge/internal/sampler"
	"github.com/blackwell-systems/waybridge/internal/store"
	"github.com/blackwell-systems/waybridge/internal/watcher"
	"github.com/blackwell-systems/waybridge/internal/waydroid"
)

var (
	serveDev bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the helper daemon",
		Long: `Run the waybridge daemon in the foreground.

The daemon owns the settings store, exports the control interface on the
session D-Bus, keeps Waydroid desktop entries converged with stored
visibility preferences, and samples container resource usage while the
container runs.

Only one daemon can own the bus name per session. Under systemd the daemon
signals readiness, so Type=notify units work out of the box.`,
		Example: `  # Run in the foreground (Ctrl+C to stop)
  waybridge serve

  # Human-readable debug logs during development
  waybridge serve --dev

  # As a systemd user service
  systemctl --user start waybridge`,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "human-readable debug logging")

	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if serveDev {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		File:        cfg.LogFile,
		Development: serveDev,
	})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	// The daemon cannot run without its store: visibility preferences,
	// settings, and resource history all live there.
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()
	if err := st.Init(); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	runtime := waydroid.New(cfg, logger)
	smp := sampler.New(cfg, logger)
	coord := coordinator.New(cfg, st, runtime, smp, logger)

	svc, err := bus.Publish(coord, cfg.BusName, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	w, err := watcher.New(st, cfg.AppsDir, logger)
	if err != nil {
		return fmt.Errorf("failed to create desktop entry watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start desktop entry watcher: %w", err)
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord.StartMonitor(svc.EmitResourceUsage)
	// Declared after the service and watcher defers so the monitor stops
	// before the bus connection goes away.
	defer coord.Close()

	if value, ok, err := st.GetSetting(store.SettingAutoStart); err != nil {
		logger.Warn("failed to read auto_start setting", zap.Error(err))
	} else if ok && value == "1" {
		logger.Info("auto-starting container")
		if err := coord.Start(ctx); err != nil {
			logger.Error("auto-start failed", zap.Error(err))
		}
	}

	// The due check is rare and an upgrade can run for minutes, so it must
	// not delay readiness. Waited on before teardown closes the store.
	var background sync.WaitGroup
	background.Add(1)
	go func() {
		defer background.Done()
		coord.AutoUpdateIfDue(ctx)
	}()

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Warn("failed to notify service manager", zap.Error(err))
	}
	logger.Info("daemon ready",
		zap.String("bus_name", cfg.BusName),
		zap.String("db_path", cfg.DBPath),
		zap.String("apps_dir", cfg.AppsDir),
	)

	<-ctx.Done()

	daemon.SdNotify(false, daemon.SdNotifyStopping)
	background.Wait()
	logger.Info("shutting down")
	return nil
}
