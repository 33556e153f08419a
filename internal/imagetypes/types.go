package imagetypes

import (
	"path/filepath"
	"strings"
)

// Extensions maps file extensions to whether they are supported image formats.
var Extensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// MimeTypes maps supported image extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
}

// IsSupported reports whether the file at path has a supported image
// extension. The check is case-insensitive and does not touch the disk.
func IsSupported(path string) bool {
	return Extensions[strings.ToLower(filepath.Ext(path))]
}

// MimeType returns the MIME type for a path, or an empty string for
// unsupported extensions.
func MimeType(path string) string {
	return MimeTypes[strings.ToLower(filepath.Ext(path))]
}
