package scanner

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"starbrowse/internal/database"
	"starbrowse/internal/imagetypes"
	"starbrowse/internal/logging"
	"starbrowse/internal/media"
	"starbrowse/internal/metrics"
	"starbrowse/internal/workers"
)

// Progress reports per-folder scan progress. current counts processed
// files, total the number of new files found in the folder.
type Progress func(folder string, current, total int)

// FolderScanner discovers and catalogs new images in a single folder.
type FolderScanner interface {
	ScanFolder(ctx context.Context, folder database.Folder, progress Progress) (added int, err error)
}

// FilesystemScanner catalogs images straight from the local filesystem. New
// files are hashed, measured, and thumbnailed concurrently, then inserted
// in one transaction.
type FilesystemScanner struct {
	db      *database.Database
	thumbs  *media.Thumbnailer
	workers int
}

// NewFilesystemScanner returns a scanner using workerCount goroutines for
// file processing. workerCount <= 0 picks a default from the machine.
func NewFilesystemScanner(db *database.Database, thumbs *media.Thumbnailer, workerCount int) *FilesystemScanner {
	if workerCount <= 0 {
		workerCount = workers.Count()
	}
	return &FilesystemScanner{db: db, thumbs: thumbs, workers: workerCount}
}

// ScanFolder walks the folder tree, processes files not yet in the catalog,
// and inserts the results. Files that fail to process are logged and
// skipped; they do not fail the folder.
func (s *FilesystemScanner) ScanFolder(ctx context.Context, folder database.Folder, progress Progress) (int, error) {
	known, err := s.db.FilenamesInFolder(ctx, folder.ID)
	if err != nil {
		return 0, err
	}

	var newFiles []string
	err = filepath.WalkDir(folder.Path, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logging.Warn("cannot access %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !imagetypes.IsSupported(path) {
			return nil
		}
		if known[d.Name()] {
			return nil
		}
		newFiles = append(newFiles, path)
		return ctx.Err()
	})
	if err != nil {
		return 0, err
	}

	if len(newFiles) == 0 {
		logging.Debug("no new images in %s", folder.Path)
		return 0, nil
	}

	logging.Info("Found %d new images in %s", len(newFiles), folder.Path)

	records := s.processFiles(ctx, folder, newFiles, progress)
	if len(records) == 0 {
		return 0, ctx.Err()
	}

	tx, err := s.db.BeginBatch()
	if err != nil {
		return 0, err
	}
	for i := range records {
		if err := s.db.UpsertImage(tx, &records[i]); err != nil {
			return 0, s.db.EndBatch(tx, err)
		}
	}
	if err := s.db.EndBatch(tx, nil); err != nil {
		return 0, err
	}

	metrics.ScannerImagesProcessed.Add(float64(len(records)))
	return len(records), ctx.Err()
}

// processFiles fans the new files out to the worker pool and collects the
// successfully processed records.
func (s *FilesystemScanner) processFiles(ctx context.Context, folder database.Folder, paths []string, progress Progress) []database.Image {
	jobs := make(chan string)
	var (
		mu      sync.Mutex
		records []database.Image
		done    int
	)

	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	workers.Run(s.workers, func(int) {
		for path := range jobs {
			record, err := s.processFile(folder.ID, path)

			mu.Lock()
			done++
			current := done
			if err != nil {
				logging.Warn("failed to process %s: %v", path, err)
			} else {
				records = append(records, *record)
			}
			mu.Unlock()

			if progress != nil {
				progress(folder.Path, current, len(paths))
			}
		}
	})

	return records
}

func (s *FilesystemScanner) processFile(folderID int64, path string) (*database.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	hash, err := hashFile(path)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	modTime := info.ModTime()
	record := &database.Image{
		FolderID:         folderID,
		Filename:         filepath.Base(path),
		FullPath:         path,
		FileSize:         info.Size(),
		FileHash:         hash,
		CreationDate:     &modTime,
		LastModifiedDate: &modTime,
		LastScanned:      &now,
	}

	if dims, err := media.GetDimensions(path); err != nil {
		logging.Debug("could not read dimensions of %s: %v", path, err)
	} else {
		record.Width = &dims.Width
		record.Height = &dims.Height
	}

	if s.thumbs != nil && s.thumbs.Enabled() {
		thumbPath, err := s.thumbs.Generate(path)
		if err != nil {
			logging.Warn("thumbnail generation failed for %s: %v", path, err)
		} else {
			record.ThumbnailPath = thumbPath
		}
	}

	return record, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", path, err)
		}
	}()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
