package waydroid

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ArchiveData compresses the system-owned runtime data directory into
// destPath. The directory belongs to root, so tar runs under sudo.
func (c *Client) ArchiveData(ctx context.Context, destPath string) error {
	return c.invoke(ctx, c.cfg.ArchiveTimeout, c.cfg.SudoBin,
		c.cfg.TarBin, "czf", destPath,
		"-C", filepath.Dir(c.cfg.DataDir), filepath.Base(c.cfg.DataDir),
	)
}

// RestoreArchive extracts a data archive back over the runtime data
// directory, again under sudo.
func (c *Client) RestoreArchive(ctx context.Context, archivePath string) error {
	return c.invoke(ctx, c.cfg.ArchiveTimeout, c.cfg.SudoBin,
		c.cfg.TarBin, "xzf", archivePath,
		"-C", filepath.Dir(c.cfg.DataDir),
	)
}

// ArchiveAppEntries compresses the user-owned desktop-entry directory into
// destPath. No elevation needed.
func (c *Client) ArchiveAppEntries(ctx context.Context, destPath string) error {
	return c.invoke(ctx, c.cfg.ArchiveTimeout, c.cfg.TarBin,
		"czf", destPath,
		"-C", filepath.Dir(c.cfg.AppsDir), filepath.Base(c.cfg.AppsDir),
	)
}

// RestoreAppEntries extracts a desktop-entry archive, creating the parent
// directory when the user has never had one.
func (c *Client) RestoreAppEntries(ctx context.Context, srcPath string) error {
	parent := filepath.Dir(c.cfg.AppsDir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("failed to create applications directory: %w", err)
	}

	return c.invoke(ctx, c.cfg.ArchiveTimeout, c.cfg.TarBin,
		"xzf", srcPath,
		"-C", parent,
	)
}
