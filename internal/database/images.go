package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"starbrowse/internal/metrics"
)

// UpsertImage inserts or updates an image record within a transaction. Rows
// are keyed by full_path; a re-scan of an existing file refreshes its
// metadata without touching the descriptions.
func (d *Database) UpsertImage(tx *sql.Tx, img *Image) error {
	query := `
	INSERT INTO images (
		folder_id, filename, full_path, file_size, file_hash,
		creation_date, last_modified_date, thumbnail_path, last_scanned,
		width, height
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(full_path) DO UPDATE SET
		folder_id = excluded.folder_id,
		filename = excluded.filename,
		file_size = excluded.file_size,
		file_hash = excluded.file_hash,
		last_modified_date = excluded.last_modified_date,
		thumbnail_path = COALESCE(NULLIF(excluded.thumbnail_path, ''), images.thumbnail_path),
		last_scanned = excluded.last_scanned,
		width = COALESCE(excluded.width, images.width),
		height = COALESCE(excluded.height, images.height)
	`

	result, err := tx.ExecContext(context.Background(), query,
		img.FolderID,
		img.Filename,
		img.FullPath,
		img.FileSize,
		img.FileHash,
		img.CreationDate,
		img.LastModifiedDate,
		img.ThumbnailPath,
		img.LastScanned,
		img.Width,
		img.Height,
	)
	if err == nil {
		if rows, _ := result.RowsAffected(); rows > 0 {
			metrics.DBRowsAffected.WithLabelValues("upsert_image").Observe(float64(rows))
		}
	}
	return err
}

// GetImageByPath retrieves a single image by its full path.
func (d *Database) GetImageByPath(ctx context.Context, fullPath string) (*Image, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_image_by_path", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, selectImageColumns+" FROM images WHERE full_path = ?", fullPath)
	img, err := scanImage(row)
	return img, err
}

// GetImagesInFolder returns all cataloged images for a folder.
func (d *Database) GetImagesInFolder(ctx context.Context, folderID int64) ([]Image, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_images_in_folder", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		selectImageColumns+" FROM images WHERE folder_id = ? ORDER BY filename",
		folderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list images in folder: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		img, scanErr := scanImage(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		images = append(images, *img)
	}

	err = rows.Err()
	return images, err
}

// FilenamesInFolder returns the set of filenames already cataloged for a
// folder. The scanner uses it to skip known files without loading full rows.
func (d *Database) FilenamesInFolder(ctx context.Context, folderID int64) (map[string]bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("filenames_in_folder", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT filename FROM images WHERE folder_id = ?", folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = true
	}

	err = rows.Err()
	return names, err
}

// ImagesMissingDimensions returns images whose width or height is NULL and
// whose path is known. maxImages <= 0 means no limit.
func (d *Database) ImagesMissingDimensions(ctx context.Context, maxImages int) ([]Image, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("images_missing_dimensions", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	query := selectImageColumns + `
		FROM images
		WHERE (width IS NULL OR height IS NULL)
		AND full_path IS NOT NULL
		ORDER BY image_id`
	args := []interface{}{}
	if maxImages > 0 {
		query += " LIMIT ?"
		args = append(args, maxImages)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select images missing dimensions: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		img, scanErr := scanImage(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		images = append(images, *img)
	}

	err = rows.Err()
	return images, err
}

// SetImageDimensions writes the pixel dimensions for an image within a
// transaction.
func (d *Database) SetImageDimensions(tx *sql.Tx, imageID int64, width, height int) error {
	_, err := tx.ExecContext(context.Background(),
		"UPDATE images SET width = ?, height = ? WHERE image_id = ?",
		width, height, imageID,
	)
	return err
}

// SetAIDescription stores a generated description for an image.
func (d *Database) SetAIDescription(ctx context.Context, imageID int64, description string) error {
	return d.setDescription(ctx, "ai_description", imageID, description)
}

// SetUserDescription stores a user-supplied description for an image.
func (d *Database) SetUserDescription(ctx context.Context, imageID int64, description string) error {
	return d.setDescription(ctx, "user_description", imageID, description)
}

func (d *Database) setDescription(ctx context.Context, column string, imageID int64, description string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_"+column, start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE images SET %s = ? WHERE image_id = ?", column),
		description, imageID,
	)
	return err
}

// CountImages returns the number of cataloged images.
func (d *Database) CountImages(ctx context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM images").Scan(&count)
	return count, err
}

const selectImageColumns = `
	SELECT image_id, folder_id, filename, full_path, file_size, file_hash,
		creation_date, last_modified_date, thumbnail_path,
		ai_description, user_description, last_scanned, width, height`

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanImage(row rowScanner) (*Image, error) {
	var img Image
	var (
		fileSize      sql.NullInt64
		fileHash      sql.NullString
		creation      sql.NullTime
		modified      sql.NullTime
		thumbnail     sql.NullString
		aiDesc        sql.NullString
		userDesc      sql.NullString
		lastScanned   sql.NullTime
		width, height sql.NullInt64
	)

	if err := row.Scan(
		&img.ID, &img.FolderID, &img.Filename, &img.FullPath,
		&fileSize, &fileHash, &creation, &modified, &thumbnail,
		&aiDesc, &userDesc, &lastScanned, &width, &height,
	); err != nil {
		return nil, err
	}

	img.FileSize = fileSize.Int64
	img.FileHash = fileHash.String
	img.ThumbnailPath = thumbnail.String
	img.AIDescription = aiDesc.String
	img.UserDescription = userDesc.String
	if creation.Valid {
		img.CreationDate = &creation.Time
	}
	if modified.Valid {
		img.LastModifiedDate = &modified.Time
	}
	if lastScanned.Valid {
		img.LastScanned = &lastScanned.Time
	}
	if width.Valid {
		w := int(width.Int64)
		img.Width = &w
	}
	if height.Valid {
		h := int(height.Int64)
		img.Height = &h
	}

	return &img, nil
}
