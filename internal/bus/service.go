// Package bus exposes the coordinator on the session D-Bus and provides the
// client used by the command-line tools to reach it. Lifecycle methods report
// failure as a boolean false plus a log line rather than a D-Bus error, so a
// caller always gets a definite answer.
package bus

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"go.uber.org/zap"

	"github.com/blackwell-systems/waybridge/internal/coordinator"
	"github.com/blackwell-systems/waybridge/internal/sampler"
)

const signalResourceUsageChanged = "ResourceUsageChanged"

// objectPathFor derives the object path from the bus name, so overriding the
// name in configuration moves the whole identity consistently.
func objectPathFor(busName string) dbus.ObjectPath {
	return dbus.ObjectPath("/" + strings.ReplaceAll(busName, ".", "/"))
}

// Service owns the exported object and the bus name.
type Service struct {
	conn    *dbus.Conn
	logger  *zap.Logger
	busName string
	path    dbus.ObjectPath
	iface   string
}

// Publish connects to the session bus, exports the coordinator under
// busName, and claims the name. It fails when the name is already owned,
// which means another helper instance is serving this session.
func Publish(coord *coordinator.Coordinator, busName string, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	s := &Service{
		conn:    conn,
		logger:  logger,
		busName: busName,
		path:    objectPathFor(busName),
		iface:   busName,
	}

	h := &handler{coord: coord, logger: logger}
	if err := conn.Export(h, s.path, s.iface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to export bus object: %w", err)
	}
	if err := conn.Export(introspect.NewIntrospectable(s.introspectNode()), s.path, "org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to export introspection data: %w", err)
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to request bus name %s: %w", busName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("bus name %s already taken", busName)
	}

	logger.Info("bus service published",
		zap.String("name", busName),
		zap.String("path", string(s.path)),
	)
	return s, nil
}

// EmitResourceUsage broadcasts one resource snapshot. The coordinator's
// monitor loop calls this on every tick while the container runs.
func (s *Service) EmitResourceUsage(u sampler.Usage) {
	err := s.conn.Emit(s.path, s.iface+"."+signalResourceUsageChanged,
		u.CPUPercent, u.RAMUsedMB, u.StorageUsedGB)
	if err != nil {
		s.logger.Warn("failed to emit resource usage signal", zap.Error(err))
	}
}

// Close releases the bus name and closes the underlying connection.
func (s *Service) Close() error {
	if _, err := s.conn.ReleaseName(s.busName); err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to release bus name: %w", err)
	}
	return s.conn.Close()
}

// handler carries only the methods that are callable over the bus.
type handler struct {
	coord  *coordinator.Coordinator
	logger *zap.Logger
}

func (h *handler) StartContainer() (bool, *dbus.Error) {
	if err := h.coord.Start(context.Background()); err != nil {
		h.logger.Error("StartContainer failed", zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (h *handler) StopContainer() (bool, *dbus.Error) {
	if err := h.coord.Stop(context.Background()); err != nil {
		h.logger.Error("StopContainer failed", zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (h *handler) RestartContainer() (bool, *dbus.Error) {
	res := h.coord.Restart(context.Background())
	if !res.OK() {
		h.logger.Error("RestartContainer incomplete",
			zap.Bool("stop_ok", res.StopOK),
			zap.Bool("start_ok", res.StartOK),
		)
	}
	return res.OK(), nil
}

func (h *handler) FreezeContainer() (bool, *dbus.Error) {
	if err := h.coord.Freeze(context.Background()); err != nil {
		h.logger.Error("FreezeContainer failed", zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (h *handler) UnfreezeContainer() (bool, *dbus.Error) {
	if err := h.coord.Unfreeze(context.Background()); err != nil {
		h.logger.Error("UnfreezeContainer failed", zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (h *handler) GetResourceUsage() (map[string]dbus.Variant, *dbus.Error) {
	return usageToVariants(h.coord.ResourceUsage(context.Background())), nil
}

func (h *handler) GetInstalledApps() ([]map[string]dbus.Variant, *dbus.Error) {
	apps, err := h.coord.InstalledApps(context.Background())
	if err != nil {
		h.logger.Error("GetInstalledApps failed", zap.Error(err))
		return []map[string]dbus.Variant{}, nil
	}
	return appsToVariants(apps), nil
}

func (h *handler) SetAppVisibility(packageName, appName string, visible bool) (bool, *dbus.Error) {
	if err := h.coord.SetAppVisibility(context.Background(), packageName, appName, visible); err != nil {
		h.logger.Error("SetAppVisibility failed",
			zap.String("package", packageName),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

func (h *handler) BackupData() (bool, *dbus.Error) {
	if _, err := h.coord.Backup(context.Background()); err != nil {
		h.logger.Error("BackupData failed", zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (h *handler) RestoreData(backupDir string) (bool, *dbus.Error) {
	if err := h.coord.Restore(context.Background(), backupDir); err != nil {
		h.logger.Error("RestoreData failed", zap.Error(err))
		return false, nil
	}
	return true, nil
}

// UpdateSystem is an extension over the original helper interface; existing
// frontends never call it, so compatibility holds.
func (h *handler) UpdateSystem() (bool, *dbus.Error) {
	if err := h.coord.Update(context.Background()); err != nil {
		h.logger.Error("UpdateSystem failed", zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (h *handler) IsContainerRunning() (bool, *dbus.Error) {
	return h.coord.IsRunning(context.Background()), nil
}

// introspectNode describes the exported interface so tools like d-feet and
// busctl can discover it.
func (s *Service) introspectNode() *introspect.Node {
	boolResult := []introspect.Arg{{Name: "ok", Type: "b", Direction: "out"}}

	return &introspect.Node{
		Name: string(s.path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: s.iface,
				Methods: []introspect.Method{
					{Name: "StartContainer", Args: boolResult},
					{Name: "StopContainer", Args: boolResult},
					{Name: "RestartContainer", Args: boolResult},
					{Name: "FreezeContainer", Args: boolResult},
					{Name: "UnfreezeContainer", Args: boolResult},
					{Name: "GetResourceUsage", Args: []introspect.Arg{
						{Name: "usage", Type: "a{sv}", Direction: "out"},
					}},
					{Name: "GetInstalledApps", Args: []introspect.Arg{
						{Name: "apps", Type: "aa{sv}", Direction: "out"},
					}},
					{Name: "SetAppVisibility", Args: []introspect.Arg{
						{Name: "package_name", Type: "s", Direction: "in"},
						{Name: "app_name", Type: "s", Direction: "in"},
						{Name: "visible", Type: "b", Direction: "in"},
						{Name: "ok", Type: "b", Direction: "out"},
					}},
					{Name: "BackupData", Args: boolResult},
					{Name: "RestoreData", Args: []introspect.Arg{
						{Name: "backup_dir", Type: "s", Direction: "in"},
						{Name: "ok", Type: "b", Direction: "out"},
					}},
					{Name: "UpdateSystem", Args: boolResult},
					{Name: "IsContainerRunning", Args: []introspect.Arg{
						{Name: "running", Type: "b", Direction: "out"},
					}},
				},
				Signals: []introspect.Signal{
					{Name: signalResourceUsageChanged, Args: []introspect.Arg{
						{Name: "cpu_usage", Type: "d"},
						{Name: "ram_usage", Type: "d"},
						{Name: "storage_usage", Type: "d"},
					}},
				},
			},
		},
	}
}
