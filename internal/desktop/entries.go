// Package desktop reads and rewrites the launcher entries Waydroid
// generates for installed Android apps. Entries are plain text files with
// Key=Value lines; the ones this daemon cares about are Name, Exec (which
// carries the Android package name), and NoDisplay (the launcher's
// display-suppression flag).
package desktop

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// launchMarker identifies an Exec line that launches an Android app. The
// package name is the last whitespace-separated token of such a line.
const launchMarker = "waydroid app launch"

// Entry is one parsed .desktop file.
type Entry struct {
	Path      string
	Name      string
	Exec      string
	NoDisplay bool
	// HasNoDisplay reports whether the file carries a NoDisplay line at all.
	HasNoDisplay bool
}

// App describes an installed Android app derived from a desktop entry.
// Visibility authority lives in the store, not here.
type App struct {
	PackageName string
	Name        string
	DesktopFile string
}

// ParseEntry reads a single .desktop file. Later duplicate keys win, which
// matches how Waydroid writes these files.
func ParseEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read desktop entry: %w", err)
	}

	entry := &Entry{Path: path}
	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case strings.HasPrefix(line, "Name="):
			entry.Name = strings.TrimSpace(line[len("Name="):])
		case strings.HasPrefix(line, "Exec="):
			entry.Exec = strings.TrimSpace(line[len("Exec="):])
		case strings.HasPrefix(line, "NoDisplay="):
			entry.HasNoDisplay = true
			value, err := strconv.ParseBool(strings.TrimSpace(line[len("NoDisplay="):]))
			if err == nil {
				entry.NoDisplay = value
			}
		}
	}

	return entry, nil
}

// PackageName extracts the Android package from the entry's Exec line.
// Returns "" when the entry does not launch an Android app.
func (e *Entry) PackageName() string {
	if !strings.Contains(e.Exec, launchMarker) {
		return ""
	}
	fields := strings.Fields(e.Exec)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// ListApps scans dir for Android app entries. A missing directory yields an
// empty list; unparsable files and entries without a package or name are
// skipped.
func ListApps(dir string) ([]App, error) {
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read apps directory: %w", err)
	}

	var apps []App
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".desktop") {
			continue
		}

		entry, err := ParseEntry(filepath.Join(dir, file.Name()))
		if err != nil {
			continue
		}

		pkg := entry.PackageName()
		if pkg == "" || entry.Name == "" {
			continue
		}

		apps = append(apps, App{
			PackageName: pkg,
			Name:        entry.Name,
			DesktopFile: file.Name(),
		})
	}

	return apps, nil
}
