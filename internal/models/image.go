// Package models defines the domain types shared across packages.
package models

import "time"

// FileStat carries the stat triple shown for a managed image.
type FileStat struct {
	CTime time.Time `json:"ctime"`
	MTime time.Time `json:"mtime"`
	Size  int64     `json:"size"`
}

// ReferenceKind distinguishes how a document references an image.
type ReferenceKind string

const (
	// RefEmbed is a rendering reference: the occurrence begins with '!'.
	RefEmbed ReferenceKind = "embed"
	// RefLink is a plain link to the image file.
	RefLink ReferenceKind = "link"
)

// Position is the location of one occurrence inside a source document.
// Lines and columns are zero-based; End is exclusive.
type Position struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// ReferenceInfo is one occurrence of an image inside one document. A
// document that embeds an image three times yields three entries.
type ReferenceInfo struct {
	SourcePath string        `json:"source_path"`
	Kind       ReferenceKind `json:"kind"`
	Raw        string        `json:"raw,omitempty"`
	Position   *Position     `json:"position,omitempty"`
}

// ImageDescriptor is the long-lived record for one managed image file.
// References and ReferenceCount stay nil/negative until a reference
// check fills them in; the reference cache looks descriptors up by path
// but never owns them.
type ImageDescriptor struct {
	Path string   `json:"path"`
	Name string   `json:"name"`
	Stat FileStat `json:"stat"`
	// DisplayPath points at the file actually rendered, which differs
	// from Path for non-raster sources shown via a companion image.
	DisplayPath    string          `json:"display_path,omitempty"`
	References     []ReferenceInfo `json:"references,omitempty"`
	ReferenceCount int             `json:"reference_count"`
	Checked        bool            `json:"checked"`
}

// ResolutionTarget returns the path whose backlinks determine the
// descriptor's references.
func (d *ImageDescriptor) ResolutionTarget() string {
	if d.DisplayPath != "" {
		return d.DisplayPath
	}
	return d.Path
}

// DocMetadata is a lightweight representation of one Markdown document,
// returned by storage list operations and used for checksum-driven
// index sync.
type DocMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
