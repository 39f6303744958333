package store

import (
	"database/sql"
	"fmt"
)

// Setting operations

// GetSetting returns the value for a settings key. The second return value
// is false when the key has never been set.
func (s *Store) GetSetting(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting inserts or replaces a settings key.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// ListSettings returns every settings row.
func (s *Store) ListSettings() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan settings row: %w", err)
		}
		settings[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings rows: %w", err)
	}

	return settings, nil
}

// Visibility operations

// SetVisibility inserts or replaces the visibility row for a package.
func (s *Store) SetVisibility(packageName, appName string, visible bool) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO app_visibility (package_name, app_name, visible) VALUES (?, ?, ?)",
		packageName, appName, visible,
	)
	if err != nil {
		return fmt.Errorf("failed to set visibility for %s: %w", packageName, err)
	}
	return nil
}

// GetVisibility returns the visibility row for a package, or nil when the
// package has no stored override.
func (s *Store) GetVisibility(packageName string) (*AppVisibility, error) {
	var v AppVisibility
	err := s.db.QueryRow(
		"SELECT package_name, app_name, visible FROM app_visibility WHERE package_name = ?",
		packageName,
	).Scan(&v.PackageName, &v.AppName, &v.Visible)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visibility for %s: %w", packageName, err)
	}
	return &v, nil
}

// ListVisibility returns all visibility rows ordered by package name.
func (s *Store) ListVisibility() ([]*AppVisibility, error) {
	rows, err := s.db.Query(
		"SELECT package_name, app_name, visible FROM app_visibility ORDER BY package_name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list visibility: %w", err)
	}
	defer rows.Close()

	var entries []*AppVisibility
	for rows.Next() {
		var v AppVisibility
		if err := rows.Scan(&v.PackageName, &v.AppName, &v.Visible); err != nil {
			return nil, fmt.Errorf("failed to scan visibility row: %w", err)
		}
		entries = append(entries, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visibility rows: %w", err)
	}

	return entries, nil
}

// Resource sample operations

// AppendSample inserts a resource sample and prunes the table to the
// newest rows by timestamp. Samples are never mutated after insert.
func (s *Store) AppendSample(sample *ResourceSample) error {
	_, err := s.db.Exec(
		"INSERT INTO resource_logs (timestamp, cpu_usage, ram_usage, storage_usage) VALUES (?, ?, ?, ?)",
		sample.Timestamp, sample.CPUUsage, sample.RAMUsage, sample.StorageUsage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert resource sample: %w", err)
	}

	_, err = s.db.Exec(
		"DELETE FROM resource_logs WHERE rowid NOT IN (SELECT rowid FROM resource_logs ORDER BY timestamp DESC LIMIT ?)",
		sampleRetention,
	)
	if err != nil {
		return fmt.Errorf("failed to prune resource samples: %w", err)
	}

	return nil
}

// RecentSamples returns up to n samples ordered newest first.
func (s *Store) RecentSamples(n int) ([]*ResourceSample, error) {
	rows, err := s.db.Query(
		"SELECT timestamp, cpu_usage, ram_usage, storage_usage FROM resource_logs ORDER BY timestamp DESC LIMIT ?",
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query resource samples: %w", err)
	}
	defer rows.Close()

	var samples []*ResourceSample
	for rows.Next() {
		var sample ResourceSample
		if err := rows.Scan(&sample.Timestamp, &sample.CPUUsage, &sample.RAMUsage, &sample.StorageUsage); err != nil {
			return nil, fmt.Errorf("failed to scan resource sample row: %w", err)
		}
		samples = append(samples, &sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resource samples: %w", err)
	}

	return samples, nil
}
