// Package export writes catalog snapshots to Parquet or JSON Lines files
// for use in external analysis tools.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"starbrowse/internal/database"
	"starbrowse/internal/logging"
)

// Format selects the output file format.
type Format string

const (
	// FormatParquet writes an Apache Parquet file.
	FormatParquet Format = "parquet"
	// FormatJSONL writes newline-delimited JSON.
	FormatJSONL Format = "jsonl"
)

// ParseFormat maps a format name (or an output filename's extension) to a
// Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "parquet":
		return FormatParquet, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", name)
	}
}

// Record is one exported image row, flattened with its folder path.
type Record struct {
	ImageID          int64  `parquet:"image_id" json:"image_id"`
	FolderID         int64  `parquet:"folder_id" json:"folder_id"`
	FolderPath       string `parquet:"folder_path" json:"folder_path"`
	Filename         string `parquet:"filename" json:"filename"`
	FullPath         string `parquet:"full_path" json:"full_path"`
	FileSize         int64  `parquet:"file_size" json:"file_size"`
	FileHash         string `parquet:"file_hash" json:"file_hash,omitempty"`
	Width            int32  `parquet:"width" json:"width,omitempty"`
	Height           int32  `parquet:"height" json:"height,omitempty"`
	AIDescription    string `parquet:"ai_description" json:"ai_description,omitempty"`
	UserDescription  string `parquet:"user_description" json:"user_description,omitempty"`
	LastModifiedUnix int64  `parquet:"last_modified_unix" json:"last_modified_unix,omitempty"`
	LastScannedUnix  int64  `parquet:"last_scanned_unix" json:"last_scanned_unix,omitempty"`
}

// Collect reads every cataloged image joined with its folder path.
func Collect(ctx context.Context, db *database.Database) ([]Record, error) {
	folders, err := db.GetFolders(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	var records []Record
	for _, folder := range folders {
		images, err := db.GetImagesInFolder(ctx, folder.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list images in %s: %w", folder.Path, err)
		}
		for i := range images {
			records = append(records, toRecord(&images[i], folder.Path))
		}
	}
	return records, nil
}

// WriteFile exports records to path in the given format, creating parent
// directories as needed.
func WriteFile(path string, format Format, records []Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	start := time.Now()
	switch format {
	case FormatParquet:
		err = writeParquet(f, records)
	case FormatJSONL:
		err = writeJSONL(f, records)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		if closeErr := f.Close(); closeErr != nil {
			logging.Warn("failed to close %s: %v", path, closeErr)
		}
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}

	logging.Info("Exported %d records to %s in %s", len(records), path, time.Since(start).Round(time.Millisecond))
	return nil
}

func writeParquet(f *os.File, records []Record) error {
	w := parquet.NewGenericWriter[Record](f, parquet.Compression(&parquet.Snappy))
	if len(records) > 0 {
		if _, err := w.Write(records); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

func writeJSONL(f *os.File, records []Record) error {
	enc := json.NewEncoder(f)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return nil
}

func toRecord(img *database.Image, folderPath string) Record {
	r := Record{
		ImageID:         img.ID,
		FolderID:        img.FolderID,
		FolderPath:      folderPath,
		Filename:        img.Filename,
		FullPath:        img.FullPath,
		FileSize:        img.FileSize,
		FileHash:        img.FileHash,
		AIDescription:   img.AIDescription,
		UserDescription: img.UserDescription,
	}
	if img.Width != nil {
		r.Width = int32(*img.Width)
	}
	if img.Height != nil {
		r.Height = int32(*img.Height)
	}
	if img.LastModifiedDate != nil {
		r.LastModifiedUnix = img.LastModifiedDate.Unix()
	}
	if img.LastScanned != nil {
		r.LastScannedUnix = img.LastScanned.Unix()
	}
	return r
}
