// Package dimensions backfills pixel width and height for cataloged images
// that predate dimension tracking.
package dimensions

import (
	"context"
	"os"

	"starbrowse/internal/database"
	"starbrowse/internal/logging"
	"starbrowse/internal/media"
	"starbrowse/internal/metrics"
)

// BatchSize is how many rows are updated per transaction.
const BatchSize = 100

// Result counts what a backfill pass did with each candidate image.
type Result struct {
	Total   int
	Updated int
	Failed  int
	Skipped int
}

// Run reads dimensions for every image missing them and writes the values
// back in batches. Files that no longer exist on disk are skipped; files
// that exist but cannot be decoded count as failed. maxImages <= 0 means
// process everything.
func Run(ctx context.Context, db *database.Database, maxImages int) (*Result, error) {
	images, err := db.ImagesMissingDimensions(ctx, maxImages)
	if err != nil {
		return nil, err
	}

	result := &Result{Total: len(images)}
	if len(images) == 0 {
		logging.Info("No images need dimension updates")
		return result, nil
	}

	logging.Info("Found %d images missing dimensions", len(images))

	for start := 0; start < len(images); start += BatchSize {
		end := start + BatchSize
		if end > len(images) {
			end = len(images)
		}

		if err := processBatch(db, images[start:end], result); err != nil {
			return result, err
		}

		logging.Info("Processed %d/%d images (updated: %d, failed: %d, skipped: %d)",
			end, len(images), result.Updated, result.Failed, result.Skipped)

		if err := ctx.Err(); err != nil {
			return result, err
		}
	}

	logging.Info("Dimension update complete: %d updated, %d failed, %d skipped",
		result.Updated, result.Failed, result.Skipped)
	return result, nil
}

func processBatch(db *database.Database, images []database.Image, result *Result) error {
	tx, err := db.BeginBatch()
	if err != nil {
		return err
	}

	for i := range images {
		img := &images[i]

		if _, statErr := os.Stat(img.FullPath); statErr != nil {
			logging.Debug("skipping missing file %s", img.FullPath)
			result.Skipped++
			metrics.DimensionUpdates.WithLabelValues("skipped").Inc()
			continue
		}

		dims, dimErr := media.GetDimensions(img.FullPath)
		if dimErr != nil {
			logging.Warn("could not read dimensions of %s: %v", img.FullPath, dimErr)
			result.Failed++
			metrics.DimensionUpdates.WithLabelValues("failed").Inc()
			continue
		}

		if err = db.SetImageDimensions(tx, img.ID, dims.Width, dims.Height); err != nil {
			return db.EndBatch(tx, err)
		}
		result.Updated++
		metrics.DimensionUpdates.WithLabelValues("updated").Inc()
	}

	return db.EndBatch(tx, nil)
}
