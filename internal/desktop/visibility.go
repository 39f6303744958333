package desktop

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReferencingFiles returns the desktop files under dir whose content
// mentions packageName anywhere. A missing directory yields an empty list.
func ReferencingFiles(dir, packageName string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read apps directory: %w", err)
	}

	var matches []string
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".desktop") {
			continue
		}

		path := filepath.Join(dir, file.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read desktop entry %s: %w", file.Name(), err)
		}
		if strings.Contains(string(data), packageName) {
			matches = append(matches, path)
		}
	}

	return matches, nil
}

// SetNoDisplay rewrites the NoDisplay line of a desktop file, appending one
// when the file has none. The file keeps its permissions.
func SetNoDisplay(path string, noDisplay bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read desktop entry: %w", err)
	}

	flag := "NoDisplay=" + strconv.FormatBool(noDisplay)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(line, "NoDisplay=") {
			lines[i] = flag
			replaced = true
		}
	}
	if !replaced {
		lines = append(lines, flag)
	}

	out := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write desktop entry: %w", err)
	}
	return nil
}

// ApplyVisibility sets NoDisplay = !visible on every desktop file under dir
// that references packageName. It stops at the first write failure so a
// partial update is surfaced to the caller.
func ApplyVisibility(dir, packageName string, visible bool) error {
	files, err := ReferencingFiles(dir, packageName)
	if err != nil {
		return err
	}

	for _, path := range files {
		if err := SetNoDisplay(path, !visible); err != nil {
			return err
		}
	}

	return nil
}
