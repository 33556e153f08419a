package scanner

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"starbrowse/internal/database"
	"starbrowse/internal/media"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
}

func TestScanFolderAddsNewImages(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	imgDir := t.TempDir()
	writePNG(t, filepath.Join(imgDir, "one.png"), 320, 240)
	writePNG(t, filepath.Join(imgDir, "two.png"), 100, 100)
	// Unsupported files are ignored.
	if err := os.WriteFile(filepath.Join(imgDir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("failed to write text file: %v", err)
	}

	folder, err := db.AddFolder(ctx, imgDir)
	if err != nil {
		t.Fatalf("AddFolder() failed: %v", err)
	}

	var (
		mu            sync.Mutex
		progressCalls int
	)
	fs := NewFilesystemScanner(db, media.NewThumbnailer(""), 2)
	added, err := fs.ScanFolder(ctx, *folder, func(_ string, _, _ int) {
		mu.Lock()
		progressCalls++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("ScanFolder() failed: %v", err)
	}
	if added != 2 {
		t.Errorf("ScanFolder() added %d images, want 2", added)
	}
	if progressCalls != 2 {
		t.Errorf("progress called %d times, want 2", progressCalls)
	}

	img, err := db.GetImageByPath(ctx, filepath.Join(imgDir, "one.png"))
	if err != nil {
		t.Fatalf("GetImageByPath() failed: %v", err)
	}
	if img.Width == nil || *img.Width != 320 {
		t.Error("dimensions not recorded during scan")
	}
	if img.FileHash == "" {
		t.Error("file hash not recorded during scan")
	}
	if img.FileSize == 0 {
		t.Error("file size not recorded during scan")
	}

	// A second scan finds nothing new.
	added, err = fs.ScanFolder(ctx, *folder, nil)
	if err != nil {
		t.Fatalf("second ScanFolder() failed: %v", err)
	}
	if added != 0 {
		t.Errorf("second ScanFolder() added %d images, want 0", added)
	}
}

func TestScanFolderSubdirectories(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	imgDir := t.TempDir()
	subDir := filepath.Join(imgDir, "trip")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("failed to create subdirectory: %v", err)
	}
	writePNG(t, filepath.Join(subDir, "nested.png"), 50, 50)

	folder, err := db.AddFolder(ctx, imgDir)
	if err != nil {
		t.Fatalf("AddFolder() failed: %v", err)
	}

	fs := NewFilesystemScanner(db, media.NewThumbnailer(""), 1)
	added, err := fs.ScanFolder(ctx, *folder, nil)
	if err != nil {
		t.Fatalf("ScanFolder() failed: %v", err)
	}
	if added != 1 {
		t.Errorf("ScanFolder() added %d images, want 1 from subdirectory", added)
	}
}

func TestScanFolderThumbnails(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	imgDir := t.TempDir()
	writePNG(t, filepath.Join(imgDir, "one.png"), 400, 300)

	folder, err := db.AddFolder(ctx, imgDir)
	if err != nil {
		t.Fatalf("AddFolder() failed: %v", err)
	}

	thumbDir := t.TempDir()
	fs := NewFilesystemScanner(db, media.NewThumbnailer(thumbDir), 1)
	if _, err := fs.ScanFolder(ctx, *folder, nil); err != nil {
		t.Fatalf("ScanFolder() failed: %v", err)
	}

	img, err := db.GetImageByPath(ctx, filepath.Join(imgDir, "one.png"))
	if err != nil {
		t.Fatalf("GetImageByPath() failed: %v", err)
	}
	if img.ThumbnailPath == "" {
		t.Fatal("thumbnail path not recorded")
	}
	if _, err := os.Stat(img.ThumbnailPath); err != nil {
		t.Errorf("thumbnail file missing: %v", err)
	}
}
