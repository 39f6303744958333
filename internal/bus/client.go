package bus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/blackwell-systems/waybridge/internal/sampler"
)

// Client calls the helper daemon over the session bus.
type Client struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	busName string
	iface   string
	path    dbus.ObjectPath
}

// Dial connects to the session bus and binds to the daemon's object. It does
// not verify the daemon is alive; the first call reports that.
func Dial(busName string) (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	path := objectPathFor(busName)
	return &Client{
		conn:    conn,
		obj:     conn.Object(busName, path),
		busName: busName,
		iface:   busName,
		path:    path,
	}, nil
}

// Close drops the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, args ...interface{}) *dbus.Call {
	return c.obj.CallWithContext(ctx, c.iface+"."+method, 0, args...)
}

func (c *Client) boolCall(ctx context.Context, method string, args ...interface{}) (bool, error) {
	var ok bool
	if err := c.call(ctx, method, args...).Store(&ok); err != nil {
		return false, fmt.Errorf("failed to call %s: %w", method, err)
	}
	return ok, nil
}

func (c *Client) StartContainer(ctx context.Context) (bool, error) {
	return c.boolCall(ctx, "StartContainer")
}

func (c *Client) StopContainer(ctx context.Context) (bool, error) {
	return c.boolCall(ctx, "StopContainer")
}

func (c *Client) RestartContainer(ctx context.Context) (bool, error) {
	return c.boolCall(ctx, "RestartContainer")
}

func (c *Client) FreezeContainer(ctx context.Context) (bool, error) {
	return c.boolCall(ctx, "FreezeContainer")
}

func (c *Client) UnfreezeContainer(ctx context.Context) (bool, error) {
	return c.boolCall(ctx, "UnfreezeContainer")
}

func (c *Client) IsContainerRunning(ctx context.Context) (bool, error) {
	return c.boolCall(ctx, "IsContainerRunning")
}

func (c *Client) GetResourceUsage(ctx context.Context) (sampler.Usage, error) {
	var raw map[string]dbus.Variant
	if err := c.call(ctx, "GetResourceUsage").Store(&raw); err != nil {
		return sampler.Usage{}, fmt.Errorf("failed to call GetResourceUsage: %w", err)
	}
	return usageFromVariants(raw), nil
}

func (c *Client) GetInstalledApps(ctx context.Context) ([]InstalledApp, error) {
	var raw []map[string]dbus.Variant
	if err := c.call(ctx, "GetInstalledApps").Store(&raw); err != nil {
		return nil, fmt.Errorf("failed to call GetInstalledApps: %w", err)
	}
	return appsFromVariants(raw), nil
}

func (c *Client) SetAppVisibility(ctx context.Context, packageName, appName string, visible bool) (bool, error) {
	return c.boolCall(ctx, "SetAppVisibility", packageName, appName, visible)
}

func (c *Client) BackupData(ctx context.Context) (bool, error) {
	return c.boolCall(ctx, "BackupData")
}

func (c *Client) RestoreData(ctx context.Context, backupDir string) (bool, error) {
	return c.boolCall(ctx, "RestoreData", backupDir)
}

func (c *Client) UpdateSystem(ctx context.Context) (bool, error) {
	return c.boolCall(ctx, "UpdateSystem")
}

// WatchResourceUsage subscribes to the daemon's usage signal and delivers
// each snapshot until ctx is cancelled. The returned channel closes on
// cancellation or when the bus connection drops.
func (c *Client) WatchResourceUsage(ctx context.Context) (<-chan sampler.Usage, error) {
	err := c.conn.AddMatchSignal(
		dbus.WithMatchInterface(c.iface),
		dbus.WithMatchMember(signalResourceUsageChanged),
		dbus.WithMatchObjectPath(c.path),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to usage signal: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	c.conn.Signal(signals)

	out := make(chan sampler.Usage)
	go func() {
		defer close(out)
		defer c.conn.RemoveSignal(signals)
		want := c.iface + "." + signalResourceUsageChanged
		for {
			select {
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if sig == nil || sig.Name != want {
					continue
				}
				usage, ok := usageFromSignalBody(sig.Body)
				if !ok {
					continue
				}
				select {
				case out <- usage:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// usageFromSignalBody decodes the three doubles of a ResourceUsageChanged
// signal. Malformed bodies are dropped rather than surfaced.
func usageFromSignalBody(body []interface{}) (sampler.Usage, bool) {
	if len(body) != 3 {
		return sampler.Usage{}, false
	}
	cpu, ok1 := body[0].(float64)
	ram, ok2 := body[1].(float64)
	storage, ok3 := body[2].(float64)
	if !ok1 || !ok2 || !ok3 {
		return sampler.Usage{}, false
	}
	return sampler.Usage{CPUPercent: cpu, RAMUsedMB: ram, StorageUsedGB: storage}, true
}
