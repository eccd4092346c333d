// Package storage defines the vault file-system abstraction.
package storage

import (
	"path"
	"strings"

	"github.com/Ryanu9/albus-imagine/internal/models"
)

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// ListDocs returns metadata for every .md file under dir.
	ListDocs(dir string) ([]models.DocMetadata, error)
	// ListImages returns the relative path of every managed image
	// file under dir.
	ListImages(dir string) ([]string, error)
	// Stat returns the stat triple for the file at path.
	Stat(path string) (models.FileStat, error)
	// Exists reports whether a file exists at path.
	Exists(path string) bool
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Rename moves oldPath to newPath.
	Rename(oldPath, newPath string) error
	// Delete removes the file at path.
	Delete(path string) error
}

// imageExtensions are the file suffixes treated as managed images.
// Non-raster formats (pdf, heic, psd) are managed too; they render
// through a companion image when one exists.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".svg":  true,
	".pdf":  true,
	".heic": true,
	".psd":  true,
}

// nonRasterExtensions are managed but not directly renderable; they get
// a companion display image.
var nonRasterExtensions = map[string]bool{
	".pdf":  true,
	".heic": true,
	".psd":  true,
}

// IsImagePath reports whether p has a managed image extension.
func IsImagePath(p string) bool {
	return imageExtensions[strings.ToLower(path.Ext(p))]
}

// IsRasterPath reports whether p points at a file browsers render
// directly.
func IsRasterPath(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return imageExtensions[ext] && !nonRasterExtensions[ext]
}
