package bus

import (
	"github.com/godbus/dbus/v5"

	"github.com/blackwell-systems/waybridge/internal/coordinator"
	"github.com/blackwell-systems/waybridge/internal/sampler"
)

// Wire keys for the variant maps carried by GetResourceUsage and
// GetInstalledApps. Consumers key on these names, so they never change.
const (
	keyCPUUsage     = "cpu_usage"
	keyRAMUsage     = "ram_usage"
	keyStorageUsage = "storage_usage"

	keyPackageName = "package_name"
	keyAppName     = "app_name"
	keyDesktopFile = "desktop_file"
)

// InstalledApp is one GetInstalledApps record as it crosses the bus.
type InstalledApp struct {
	PackageName string
	AppName     string
	DesktopFile string
}

func usageToVariants(u sampler.Usage) map[string]dbus.Variant {
	return map[string]dbus.Variant{
		keyCPUUsage:     dbus.MakeVariant(u.CPUPercent),
		keyRAMUsage:     dbus.MakeVariant(u.RAMUsedMB),
		keyStorageUsage: dbus.MakeVariant(u.StorageUsedGB),
	}
}

func usageFromVariants(m map[string]dbus.Variant) sampler.Usage {
	return sampler.Usage{
		CPUPercent:    floatValue(m, keyCPUUsage),
		RAMUsedMB:     floatValue(m, keyRAMUsage),
		StorageUsedGB: floatValue(m, keyStorageUsage),
	}
}

func appsToVariants(apps []coordinator.App) []map[string]dbus.Variant {
	out := make([]map[string]dbus.Variant, 0, len(apps))
	for _, app := range apps {
		out = append(out, map[string]dbus.Variant{
			keyPackageName: dbus.MakeVariant(app.PackageName),
			keyAppName:     dbus.MakeVariant(app.Name),
			keyDesktopFile: dbus.MakeVariant(app.DesktopFile),
		})
	}
	return out
}

func appsFromVariants(records []map[string]dbus.Variant) []InstalledApp {
	out := make([]InstalledApp, 0, len(records))
	for _, record := range records {
		out = append(out, InstalledApp{
			PackageName: stringValue(record, keyPackageName),
			AppName:     stringValue(record, keyAppName),
			DesktopFile: stringValue(record, keyDesktopFile),
		})
	}
	return out
}

func floatValue(m map[string]dbus.Variant, key string) float64 {
	if v, ok := m[key]; ok {
		if f, ok := v.Value().(float64); ok {
			return f
		}
	}
	return 0
}

func stringValue(m map[string]dbus.Variant, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}
