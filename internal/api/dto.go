package api

import (
	"github.com/Ryanu9/albus-imagine/internal/models"
)

// ImageListResponse wraps a vault image listing.
type ImageListResponse struct {
	Images []*models.ImageDescriptor `json:"images" validate:"required"`
	Total  int                       `json:"total" example:"42" validate:"required"`
}

// RenameImageRequest is the request body for renaming an image.
type RenameImageRequest struct {
	Path    string `json:"path" example:"assets/old.png" validate:"required"`
	NewName string `json:"new_name" example:"new.png" validate:"required"`
}

// RenameImageResponse carries the vault-relative path after a rename.
type RenameImageResponse struct {
	Path string `json:"path" example:"assets/new.png" validate:"required"`
}

// DeleteImagesRequest is the request body for deleting one or more images.
type DeleteImagesRequest struct {
	Paths            []string `json:"paths" validate:"required"`
	RemoveReferences bool     `json:"remove_references"`
}

// SetAlignmentRequest targets one embed occurrence and sets its alignment.
// Line, when present, disambiguates between multiple occurrences of the
// same image in the document.
type SetAlignmentRequest struct {
	Doc       string `json:"doc" example:"notes/plan.md" validate:"required"`
	Target    string `json:"target" example:"assets/pic.png" validate:"required"`
	Line      *int   `json:"line,omitempty" example:"12"`
	Alignment string `json:"alignment" example:"left" validate:"required"`
}

// SetDarkModeRequest toggles the dark-mode flag on one embed occurrence.
type SetDarkModeRequest struct {
	Doc    string `json:"doc" validate:"required"`
	Target string `json:"target" validate:"required"`
	Line   *int   `json:"line,omitempty"`
	Dark   bool   `json:"dark"`
}

// SetCaptionRequest replaces the caption of one embed occurrence. An
// empty caption removes it.
type SetCaptionRequest struct {
	Doc     string `json:"doc" validate:"required"`
	Target  string `json:"target" validate:"required"`
	Line    *int   `json:"line,omitempty"`
	Caption string `json:"caption"`
}

// SetSizeRequest sets the rendered size of one embed occurrence. Zero
// width clears the size; zero height keeps width-only form.
type SetSizeRequest struct {
	Doc    string `json:"doc" validate:"required"`
	Target string `json:"target" validate:"required"`
	Line   *int   `json:"line,omitempty"`
	Width  int    `json:"width" example:"300"`
	Height int    `json:"height,omitempty" example:"200"`
}

// RewriteResponse reports where an embed edit landed. Ambiguous is true
// when several occurrences matched and the first one was edited.
type RewriteResponse struct {
	Line      int  `json:"line" example:"12" validate:"required"`
	Ambiguous bool `json:"ambiguous"`
}

// BuildEmbedRequest describes the embed token to generate.
type BuildEmbedRequest struct {
	Name      string `json:"name" example:"pic.png" validate:"required"`
	Alignment string `json:"alignment,omitempty" example:"center"`
	Dark      bool   `json:"dark,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

// BuildEmbedResponse carries the generated embed token.
type BuildEmbedResponse struct {
	Token string `json:"token" example:"![[pic.png|center]]" validate:"required"`
}

// ResizeWidthResponse carries the snapped and floored drag width.
type ResizeWidthResponse struct {
	Width int `json:"width" example:"320" validate:"required"`
}

// UploadResponse is returned after a successful image upload.
type UploadResponse struct {
	Path  string `json:"path" example:"assets/image.png" validate:"required"`
	Token string `json:"token" example:"![[image.png]]" validate:"required"`
	Size  int64  `json:"size" example:"12345" validate:"required"`
}
