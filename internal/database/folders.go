package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AddFolder registers a directory for cataloging. Adding an already
// registered path returns the existing row.
func (d *Database) AddFolder(ctx context.Context, path string) (*Folder, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("add_folder", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err = d.db.ExecContext(ctx,
		"INSERT INTO folders (path, enabled) VALUES (?, 1) ON CONFLICT(path) DO NOTHING",
		path,
	); err != nil {
		return nil, fmt.Errorf("failed to add folder: %w", err)
	}

	return d.folderByPath(ctx, path)
}

func (d *Database) folderByPath(ctx context.Context, path string) (*Folder, error) {
	var folder Folder
	var lastScan sql.NullTime

	err := d.db.QueryRowContext(ctx,
		"SELECT folder_id, path, enabled, last_scan_time FROM folders WHERE path = ?",
		path,
	).Scan(&folder.ID, &folder.Path, &folder.Enabled, &lastScan)
	if err != nil {
		return nil, err
	}

	if lastScan.Valid {
		folder.LastScanTime = &lastScan.Time
	}
	return &folder, nil
}

// GetFolders returns registered folders, optionally restricted to enabled
// ones.
func (d *Database) GetFolders(ctx context.Context, enabledOnly bool) ([]Folder, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_folders", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := "SELECT folder_id, path, enabled, last_scan_time FROM folders"
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY path"

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		var folder Folder
		var lastScan sql.NullTime

		if err = rows.Scan(&folder.ID, &folder.Path, &folder.Enabled, &lastScan); err != nil {
			return nil, err
		}
		if lastScan.Valid {
			folder.LastScanTime = &lastScan.Time
		}
		folders = append(folders, folder)
	}

	err = rows.Err()
	return folders, err
}

// SetFolderEnabled toggles whether a folder participates in scans.
func (d *Database) SetFolderEnabled(ctx context.Context, folderID int64, enabled bool) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_folder_enabled", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		"UPDATE folders SET enabled = ? WHERE folder_id = ?",
		enabled, folderID,
	)
	return err
}

// UpdateFolderScanTime records when a folder was last scanned.
func (d *Database) UpdateFolderScanTime(ctx context.Context, folderID int64, scanTime time.Time) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_folder_scan_time", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		"UPDATE folders SET last_scan_time = ? WHERE folder_id = ?",
		scanTime, folderID,
	)
	return err
}

// RemoveFolder deletes a folder registration and its cataloged images.
func (d *Database) RemoveFolder(ctx context.Context, folderID int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("remove_folder", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM images WHERE folder_id = ?", folderID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("delete images: %w (rollback also failed: %v)", err, rbErr)
		}
		return fmt.Errorf("delete images: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM folders WHERE folder_id = ?", folderID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("delete folder: %w (rollback also failed: %v)", err, rbErr)
		}
		return fmt.Errorf("delete folder: %w", err)
	}

	err = tx.Commit()
	return err
}

// CountFolders returns the number of registered folders.
func (d *Database) CountFolders(ctx context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM folders").Scan(&count)
	return count, err
}
