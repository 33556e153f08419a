package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SearchDescriptions runs a full-text search over the AI and user
// descriptions and returns matching images, best match first.
func (d *Database) SearchDescriptions(ctx context.Context, query string, limit int) ([]Image, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("search_descriptions", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	rows, err := d.db.QueryContext(ctx, selectImageColumns+`
		FROM images
		WHERE image_id IN (
			SELECT rowid FROM image_fts WHERE image_fts MATCH ? ORDER BY rank
		)
		ORDER BY last_modified_date DESC
		LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("full-text search failed: %w", err)
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

// CalculateStats computes catalog summary statistics.
func (d *Database) CalculateStats(ctx context.Context) (CatalogStats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("calculate_stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var stats CatalogStats
	var lastScan sql.NullTime

	err = d.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM folders),
			(SELECT COUNT(*) FROM folders WHERE enabled = 1),
			(SELECT COUNT(*) FROM images),
			(SELECT COUNT(*) FROM images WHERE ai_description IS NOT NULL OR user_description IS NOT NULL),
			(SELECT COUNT(*) FROM images WHERE width IS NULL OR height IS NULL),
			(SELECT MAX(last_scan_time) FROM folders)
	`).Scan(
		&stats.TotalFolders,
		&stats.EnabledFolders,
		&stats.TotalImages,
		&stats.ImagesDescribed,
		&stats.MissingDimensions,
		&lastScan,
	)
	if err != nil {
		return CatalogStats{}, fmt.Errorf("failed to calculate stats: %w", err)
	}

	if lastScan.Valid {
		stats.LastScanTime = &lastScan.Time
	}
	return stats, nil
}
