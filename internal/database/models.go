package database

import "time"

// Folder is a directory registered for cataloging.
type Folder struct {
	ID           int64      `json:"folderId"`
	Path         string     `json:"path"`
	Enabled      bool       `json:"enabled"`
	LastScanTime *time.Time `json:"lastScanTime,omitempty"`
}

// Image is a cataloged image file.
type Image struct {
	ID               int64      `json:"imageId"`
	FolderID         int64      `json:"folderId"`
	Filename         string     `json:"filename"`
	FullPath         string     `json:"fullPath"`
	FileSize         int64      `json:"fileSize"`
	FileHash         string     `json:"-"`
	CreationDate     *time.Time `json:"creationDate,omitempty"`
	LastModifiedDate *time.Time `json:"lastModifiedDate,omitempty"`
	ThumbnailPath    string     `json:"thumbnailPath,omitempty"`
	AIDescription    string     `json:"aiDescription,omitempty"`
	UserDescription  string     `json:"userDescription,omitempty"`
	LastScanned      *time.Time `json:"lastScanned,omitempty"`
	Width            *int       `json:"width,omitempty"`
	Height           *int       `json:"height,omitempty"`
}

// CatalogStats summarizes the catalog contents.
type CatalogStats struct {
	TotalFolders      int        `json:"totalFolders"`
	EnabledFolders    int        `json:"enabledFolders"`
	TotalImages       int        `json:"totalImages"`
	ImagesDescribed   int        `json:"imagesDescribed"`
	MissingDimensions int        `json:"missingDimensions"`
	LastScanTime      *time.Time `json:"lastScanTime,omitempty"`
}
