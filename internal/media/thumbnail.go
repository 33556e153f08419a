package media

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"

	"starbrowse/internal/logging"

	"github.com/disintegration/imaging"
)

const (
	// ThumbnailSize is the bounding box for generated thumbnails.
	ThumbnailSize = 200

	thumbnailQuality = 85
)

// Thumbnailer writes JPEG thumbnails for catalog images into a cache
// directory. A zero-value Thumbnailer is disabled and returns empty paths.
type Thumbnailer struct {
	dir string
}

// NewThumbnailer returns a Thumbnailer writing into dir. The directory is
// created if it does not exist; on failure thumbnailing is disabled.
func NewThumbnailer(dir string) *Thumbnailer {
	if dir == "" {
		return &Thumbnailer{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logging.Warn("failed to create thumbnail directory %s: %v, thumbnails disabled", dir, err)
		return &Thumbnailer{}
	}
	return &Thumbnailer{dir: dir}
}

// Enabled reports whether thumbnails will be generated.
func (t *Thumbnailer) Enabled() bool {
	return t.dir != ""
}

// Generate creates a thumbnail for the image at sourcePath and returns the
// path of the written file. The name is derived from the source path so
// re-scans reuse the existing thumbnail.
func (t *Thumbnailer) Generate(sourcePath string) (string, error) {
	if !t.Enabled() {
		return "", nil
	}

	thumbPath := filepath.Join(t.dir, fmt.Sprintf("%x.jpg", md5.Sum([]byte(sourcePath))))
	if _, err := os.Stat(thumbPath); err == nil {
		return thumbPath, nil
	}

	img, err := LoadConstrained(sourcePath, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", sourcePath, err)
	}

	thumb := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}

	return thumbPath, nil
}
