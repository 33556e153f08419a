package repair

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"starbrowse/internal/database"
)

// buildSourceDB creates a catalog database file with the given number of
// folders and images, using the canonical schema without the dimension
// columns (an older revision).
func buildSourceDB(t *testing.T, dir string, folders, images int) string {
	t.Helper()

	dbPath := filepath.Join(dir, "catalog.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("failed to create source database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(database.Schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec(database.FTSSchema); err != nil {
		t.Fatalf("failed to apply FTS schema: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}
	for f := 1; f <= folders; f++ {
		if _, err := tx.Exec(
			"INSERT INTO folders (folder_id, path, enabled) VALUES (?, ?, 1)",
			f, fmt.Sprintf("/photos/folder%d", f),
		); err != nil {
			t.Fatalf("failed to insert folder: %v", err)
		}
	}
	for i := 1; i <= images; i++ {
		folderID := (i % folders) + 1
		if _, err := tx.Exec(
			`INSERT INTO images (folder_id, filename, full_path, file_size, ai_description)
			 VALUES (?, ?, ?, ?, ?)`,
			folderID,
			fmt.Sprintf("img%05d.jpg", i),
			fmt.Sprintf("/photos/folder%d/img%05d.jpg", folderID, i),
			i*10,
			fmt.Sprintf("photo number %d", i),
		); err != nil {
			t.Fatalf("failed to insert image: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	return dbPath
}

func fileChecksum(t *testing.T, path string) [32]byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return sha256.Sum256(data)
}

func TestRunCopiesAllRows(t *testing.T) {
	dir := t.TempDir()
	dbPath := buildSourceDB(t, dir, 2, 1200)

	result, err := Run(dbPath, nil)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if result.FoldersCopied != 2 {
		t.Errorf("FoldersCopied = %d, want 2", result.FoldersCopied)
	}
	if result.ImagesCopied != 1200 {
		t.Errorf("ImagesCopied = %d, want 1200", result.ImagesCopied)
	}
	// 1200 rows at 500 per batch.
	if result.ImageBatches != 3 {
		t.Errorf("ImageBatches = %d, want 3", result.ImageBatches)
	}

	// The new file replaced the original; no .new remains.
	if _, err := os.Stat(dbPath + ".new"); !os.IsNotExist(err) {
		t.Error("temporary .new file still present after successful repair")
	}
	if _, err := os.Stat(result.BackupPath); err != nil {
		t.Errorf("backup file missing: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("failed to open repaired database: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM images").Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1200 {
		t.Errorf("repaired database has %d images, want 1200", count)
	}

	// The dimension columns must exist in the repaired schema.
	if _, err := db.Exec("SELECT width, height FROM images LIMIT 1"); err != nil {
		t.Errorf("dimension columns missing from repaired schema: %v", err)
	}

	// The rebuilt search index must cover the copied rows.
	var hits int
	err = db.QueryRow(
		"SELECT COUNT(*) FROM image_fts WHERE image_fts MATCH ?", "number",
	).Scan(&hits)
	if err != nil {
		t.Fatalf("FTS query failed: %v", err)
	}
	if hits != 1200 {
		t.Errorf("FTS index covers %d rows, want 1200", hits)
	}
}

func TestRunEmptyDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := buildSourceDB(t, dir, 1, 0)

	result, err := Run(dbPath, nil)
	if err != nil {
		t.Fatalf("Run() on empty database failed: %v", err)
	}
	if result.ImagesCopied != 0 || result.ImageBatches != 0 {
		t.Errorf("got %d images in %d batches, want 0 in 0", result.ImagesCopied, result.ImageBatches)
	}
}

func TestRunCustomBatchSize(t *testing.T) {
	dir := t.TempDir()
	dbPath := buildSourceDB(t, dir, 1, 25)

	result, err := Run(dbPath, &Options{BatchSize: 10})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if result.ImageBatches != 3 {
		t.Errorf("ImageBatches = %d, want 3 for 25 rows at batch size 10", result.ImageBatches)
	}
}

func TestRunMissingDatabase(t *testing.T) {
	if _, err := Run(filepath.Join(t.TempDir(), "missing.db"), nil); err == nil {
		t.Fatal("Run() on missing file should fail")
	}
}

func TestRunLeavesOriginalOnFailure(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "catalog.db")

	// A database missing the required image columns fails the copy step.
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("failed to create source database: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE folders (folder_id INTEGER PRIMARY KEY, path TEXT, enabled INTEGER, last_scan_time TIMESTAMP); CREATE TABLE images (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	before := fileChecksum(t, dbPath)

	if _, err := Run(dbPath, nil); err == nil {
		t.Fatal("Run() should fail on incompatible schema")
	}

	after := fileChecksum(t, dbPath)
	if before != after {
		t.Error("original database was modified by a failed repair")
	}
}

func TestVerify(t *testing.T) {
	t.Run("valid database with rows", func(t *testing.T) {
		dbPath := buildSourceDB(t, t.TempDir(), 1, 5)
		if err := Verify(dbPath); err != nil {
			t.Errorf("Verify() failed on valid database: %v", err)
		}
	})

	t.Run("empty images table passes", func(t *testing.T) {
		dbPath := buildSourceDB(t, t.TempDir(), 1, 0)
		if err := Verify(dbPath); err != nil {
			t.Errorf("Verify() failed on empty database: %v", err)
		}
	})
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	content := []byte("catalog contents")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copyFile() failed: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("failed to read copy: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("copy content = %q, want %q", got, content)
	}

	if err := copyFile(filepath.Join(dir, "missing"), dst); err == nil {
		t.Error("copyFile() with missing source should fail")
	}
}
