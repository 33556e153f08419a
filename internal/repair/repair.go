package repair

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"starbrowse/internal/database"
	"starbrowse/internal/logging"
	"starbrowse/internal/metrics"
)

// DefaultBatchSize is the number of image rows copied per transaction.
const DefaultBatchSize = 500

// imageColumns are the image table columns carried over from the source
// database, in schema order. width and height are appended when the source
// has them (they were added in a later schema revision).
var imageColumns = []string{
	"image_id", "folder_id", "filename", "full_path", "file_size",
	"file_hash", "creation_date", "last_modified_date", "thumbnail_path",
	"ai_description", "user_description", "last_scanned",
}

// Result reports what a successful repair did.
type Result struct {
	FoldersCopied int
	ImagesCopied  int
	ImageBatches  int
	BackupPath    string
	NewPath       string
}

// Options tunes the repair procedure.
type Options struct {
	// BatchSize overrides DefaultBatchSize when > 0.
	BatchSize int
}

// Run rebuilds the database at dbPath into a fresh schema copy and
// atomically replaces the original. On any failure the original file is
// left untouched; a partially built <dbPath>.new may remain on disk for
// manual recovery.
func Run(dbPath string, opts *Options) (*Result, error) {
	batchSize := DefaultBatchSize
	if opts != nil && opts.BatchSize > 0 {
		batchSize = opts.BatchSize
	}

	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database file does not exist: %w", err)
	}

	logging.Info("Starting database repair for: %s", dbPath)

	// Step 1: backup. Abort the whole procedure if this fails.
	backupPath := fmt.Sprintf("%s.backup_before_repair_%d", dbPath, time.Now().Unix())
	if err := copyFile(dbPath, backupPath); err != nil {
		return nil, fmt.Errorf("failed to create backup: %w", err)
	}
	logging.Info("Created backup at %s", backupPath)

	// Step 2: fresh database file with the canonical schema.
	newPath := dbPath + ".new"
	if _, err := os.Stat(newPath); err == nil {
		if err := os.Remove(newPath); err != nil {
			return nil, fmt.Errorf("failed to remove stale new database file: %w", err)
		}
	}

	result := &Result{BackupPath: backupPath, NewPath: newPath}

	dest, err := sql.Open("sqlite3", newPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create new database: %w", err)
	}
	defer func() {
		if closeErr := dest.Close(); closeErr != nil {
			logging.Warn("failed to close new database: %v", closeErr)
		}
	}()

	if err := createSchema(dest); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	// Step 3: copy data in batches, oldest tables first.
	if err := copyData(dbPath, dest, batchSize, result); err != nil {
		return nil, fmt.Errorf("failed to copy data: %w", err)
	}

	// Step 4: full-text index over the copied rows.
	if err := createSearchIndex(dest); err != nil {
		return nil, fmt.Errorf("failed to build full-text index: %w", err)
	}

	// Step 5: runtime pragma tuning and fresh statistics.
	if err := applyPragmas(dest); err != nil {
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := dest.Close(); err != nil {
		return nil, fmt.Errorf("failed to close new database: %w", err)
	}

	// Step 6: verify before touching the original.
	if err := Verify(newPath); err != nil {
		return nil, fmt.Errorf("new database failed verification: %w", err)
	}

	// Step 7: atomic swap. Only reached when every prior step succeeded.
	if err := os.Rename(newPath, dbPath); err != nil {
		logging.Error("Failed to replace database, repaired copy left at %s", newPath)
		return nil, fmt.Errorf("failed to replace database: %w", err)
	}

	logging.Info("Repair complete: %d folders, %d images in %d batches",
		result.FoldersCopied, result.ImagesCopied, result.ImageBatches)
	return result, nil
}

func createSchema(dest *sql.DB) error {
	if _, err := dest.Exec(database.Schema); err != nil {
		return err
	}
	// The canonical schema predates the dimension columns; add them the
	// same way the live migration does.
	for _, column := range []string{"width", "height"} {
		if _, err := dest.Exec(fmt.Sprintf("ALTER TABLE images ADD COLUMN %s INTEGER", column)); err != nil {
			return err
		}
	}
	logging.Info("Database schema created successfully")
	return nil
}

func copyData(sourcePath string, dest *sql.DB, batchSize int, result *Result) error {
	source, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", sourcePath))
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer func() {
		if closeErr := source.Close(); closeErr != nil {
			logging.Warn("failed to close source database: %v", closeErr)
		}
	}()

	logging.Info("Copying folders...")
	folders, err := copyFolders(source, dest)
	if err != nil {
		return err
	}
	result.FoldersCopied = folders

	logging.Info("Copying images...")
	images, batches, err := copyImages(source, dest, batchSize)
	if err != nil {
		return err
	}
	result.ImagesCopied = images
	result.ImageBatches = batches

	logging.Info("Successfully copied %d images and %d folders", images, folders)
	return nil
}

func copyFolders(source, dest *sql.DB) (int, error) {
	rows, err := source.Query("SELECT folder_id, path, enabled, last_scan_time FROM folders ORDER BY folder_id")
	if err != nil {
		return 0, fmt.Errorf("failed to read folders: %w", err)
	}
	defer rows.Close()

	tx, err := dest.Begin()
	if err != nil {
		return 0, err
	}

	copied := 0
	for rows.Next() {
		var (
			folderID int64
			path     string
			enabled  sql.NullInt64
			lastScan interface{}
		)
		if err := rows.Scan(&folderID, &path, &enabled, &lastScan); err != nil {
			rollback(tx)
			return 0, fmt.Errorf("failed to scan folder row: %w", err)
		}

		enabledValue := int64(1)
		if enabled.Valid {
			enabledValue = enabled.Int64
		}

		if _, err := tx.Exec(
			"INSERT INTO folders (folder_id, path, enabled, last_scan_time) VALUES (?, ?, ?, ?)",
			folderID, path, enabledValue, lastScan,
		); err != nil {
			rollback(tx)
			return 0, fmt.Errorf("failed to insert folder %d: %w", folderID, err)
		}
		copied++
	}
	if err := rows.Err(); err != nil {
		rollback(tx)
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit folders: %w", err)
	}
	return copied, nil
}

func copyImages(source, dest *sql.DB, batchSize int) (copied, batches int, err error) {
	columns, err := sourceImageColumns(source)
	if err != nil {
		return 0, 0, err
	}

	columnList := strings.Join(columns, ", ")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	selectStmt := fmt.Sprintf(
		"SELECT %s FROM images ORDER BY image_id LIMIT ? OFFSET ?", columnList)
	insertStmt := fmt.Sprintf(
		"INSERT INTO images (%s) VALUES (%s)", columnList, placeholders)

	offset := 0
	for {
		n, err := copyImageBatch(source, dest, selectStmt, insertStmt, len(columns), batchSize, offset)
		if err != nil {
			return copied, batches, err
		}
		if n == 0 {
			break
		}

		copied += n
		batches++
		offset += batchSize
		metrics.RepairBatches.Inc()
		logging.Info("Copied %d images so far...", copied)

		if n < batchSize {
			break
		}
	}

	return copied, batches, nil
}

// copyImageBatch copies one LIMIT/OFFSET window inside a single destination
// transaction, committing before the next window is read.
func copyImageBatch(source, dest *sql.DB, selectStmt, insertStmt string, columnCount, batchSize, offset int) (int, error) {
	rows, err := source.Query(selectStmt, batchSize, offset)
	if err != nil {
		return 0, fmt.Errorf("failed to read image batch at offset %d: %w", offset, err)
	}
	defer rows.Close()

	tx, err := dest.Begin()
	if err != nil {
		return 0, err
	}

	values := make([]interface{}, columnCount)
	scanTargets := make([]interface{}, columnCount)
	for i := range values {
		scanTargets[i] = &values[i]
	}

	n := 0
	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			rollback(tx)
			return 0, fmt.Errorf("failed to scan image row: %w", err)
		}
		if _, err := tx.Exec(insertStmt, values...); err != nil {
			rollback(tx)
			return 0, fmt.Errorf("failed to insert image row: %w", err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		rollback(tx)
		return 0, err
	}

	if n == 0 {
		rollback(tx)
		return 0, nil
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit image batch: %w", err)
	}
	return n, nil
}

// sourceImageColumns returns the image columns to carry over, restricted to
// what the source database actually has.
func sourceImageColumns(source *sql.DB) ([]string, error) {
	rows, err := source.Query("SELECT name FROM pragma_table_info('images')")
	if err != nil {
		return nil, fmt.Errorf("failed to inspect source schema: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var columns []string
	for _, c := range imageColumns {
		if present[c] {
			columns = append(columns, c)
		}
	}
	for _, c := range []string{"width", "height"} {
		if present[c] {
			columns = append(columns, c)
		}
	}

	if len(columns) < 4 {
		return nil, fmt.Errorf("source images table is missing required columns")
	}
	return columns, nil
}

func createSearchIndex(dest *sql.DB) error {
	if _, err := dest.Exec(database.FTSSchema); err != nil {
		return err
	}
	logging.Info("Populating full-text search table...")
	if _, err := dest.Exec("INSERT INTO image_fts(image_fts) VALUES('rebuild')"); err != nil {
		return err
	}
	return nil
}

func applyPragmas(dest *sql.DB) error {
	pragmas := []string{
		"PRAGMA synchronous=NORMAL",
		"PRAGMA journal_mode=DELETE",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA cache_size=5000",
		"ANALYZE",
	}
	for _, p := range pragmas {
		if _, err := dest.Exec(p); err != nil {
			return fmt.Errorf("%s failed: %w", p, err)
		}
	}
	logging.Info("Performance pragmas applied")
	return nil
}

// Verify checks a repaired database: the integrity check must pass and a
// live description update must round-trip. An empty images table still
// verifies.
func Verify(dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database for verification: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logging.Warn("failed to close database after verification: %v", closeErr)
		}
	}()

	var integrity string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&integrity); err != nil {
		return fmt.Errorf("integrity check failed to run: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrity)
	}
	logging.Info("Database integrity check passed")

	var imageID int64
	err = db.QueryRow("SELECT image_id FROM images LIMIT 1").Scan(&imageID)
	if err == sql.ErrNoRows {
		logging.Info("No images found to test update, skipping round-trip test")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to select test row: %w", err)
	}

	testDesc := fmt.Sprintf("Verification test %d", time.Now().UnixNano())
	if _, err := db.Exec("UPDATE images SET ai_description = ? WHERE image_id = ?", testDesc, imageID); err != nil {
		return fmt.Errorf("test update failed: %w", err)
	}

	var got string
	if err := db.QueryRow("SELECT ai_description FROM images WHERE image_id = ?", imageID).Scan(&got); err != nil {
		return fmt.Errorf("test read-back failed: %w", err)
	}
	if got != testDesc {
		return fmt.Errorf("round-trip test failed: wrote %q, read %q", testDesc, got)
	}

	logging.Info("Database update round-trip test passed")
	return nil
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		logging.Warn("rollback failed: %v", err)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil {
			logging.Warn("failed to close %s: %v", src, closeErr)
		}
	}()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		if closeErr := out.Close(); closeErr != nil {
			logging.Warn("failed to close %s: %v", dst, closeErr)
		}
		return err
	}
	return out.Close()
}
