package store

// Setting keys seeded by Init and read throughout the daemon.
const (
	SettingAutoStart       = "auto_start"
	SettingAutoUpdate      = "auto_update"
	SettingLastUpdateCheck = "last_update_check"
	SettingLastBackupTime  = "last_backup_time"
)

// AppVisibility records whether an installed app's launcher entry should be
// shown by the desktop environment. The desktop files mirror this flag; the
// store row is the authority.
type AppVisibility struct {
	PackageName string
	AppName     string
	Visible     bool
}

// ResourceSample is one point of the rolling resource-usage history.
// CPUUsage is percent of total machine CPU, RAMUsage is megabytes,
// StorageUsage is gigabytes.
type ResourceSample struct {
	Timestamp    int64
	CPUUsage     float64
	RAMUsage     float64
	StorageUsage float64
}

// sampleRetention is how many resource samples AppendSample keeps. Older
// rows are evicted on every insert.
const sampleRetention = 100
