package coordinator

import "errors"

// ErrNoBackupFound is returned by Restore when no backup directory or no
// usable archive exists. Nothing on disk has been touched when it is returned.
var ErrNoBackupFound = errors.New("no backup found")

// RestartResult reports each leg of a restart separately. A failed stop does
// not abort the subsequent start, so a single boolean would hide which leg
// went wrong.
type RestartResult struct {
	StopOK  bool
	StartOK bool
}

// OK reports whether both legs succeeded.
func (r RestartResult) OK() bool {
	return r.StopOK && r.StartOK
}

// BackupResult describes what a completed backup produced. DataArchived and
// AppsArchived are false when the corresponding source directory did not
// exist, which is not an error.
type BackupResult struct {
	Dir          string
	DataArchived bool
	AppsArchived bool
}

// App is an installed app joined with its stored visibility. Apps without a
// stored visibility row default to visible.
type App struct {
	PackageName string
	Name        string
	DesktopFile string
	Visible     bool
}
