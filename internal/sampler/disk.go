package sampler

import (
	"io/fs"
	"path/filepath"
)

// dirSizeBytes sums regular-file sizes under root. Symlinks are never
// followed (which also rules out walk cycles), unreadable subtrees count as
// zero, and a missing root yields zero. This path is best-effort
// observability and never fails.
func dirSizeBytes(root string) int64 {
	var total int64

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})

	return total
}
