package api

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Ryanu9/albus-imagine/internal/embed"
	"github.com/Ryanu9/albus-imagine/internal/storage"
)

const maxUploadBytes = 50 << 20 // 50 MB

// ImageHandler serves and accepts image files through the vault storage
// provider, so path traversal checks and atomic writes apply here too.
type ImageHandler struct {
	store       storage.Provider
	imageFolder string
}

// NewImageHandler creates a handler backed by the vault store. Uploads
// land in imageFolder (vault-relative, may be empty for the root).
func NewImageHandler(store storage.Provider, imageFolder string) *ImageHandler {
	return &ImageHandler{store: store, imageFolder: imageFolder}
}

// imagePath extracts and decodes the vault-relative path from the URL.
func imagePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// safeName validates that the filename is a plain image name without
// path separators or traversal.
func safeName(name string) error {
	if name == "" {
		return fmt.Errorf("filename is required")
	}
	cleaned := path.Clean(name)
	if cleaned != path.Base(cleaned) || strings.Contains(cleaned, "..") {
		return fmt.Errorf("invalid filename: %s", name)
	}
	if !storage.IsImagePath(cleaned) {
		return fmt.Errorf("unsupported image type: %s", name)
	}
	return nil
}

// ServeFile handles GET /api/files/*.
func (h *ImageHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	p := imagePath(r)
	if p == "" || !storage.IsImagePath(p) {
		writeJSON(w, http.StatusBadRequest, errorBody("an image path is required"))
		return
	}
	data, err := h.store.Read(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			writeServiceError(w, "serve image", err)
		}
		return
	}
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

// Upload handles POST /api/images/upload (multipart/form-data, field "file").
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	if err := safeName(header.Filename); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	dst := header.Filename
	if h.imageFolder != "" {
		dst = path.Join(h.imageFolder, header.Filename)
	}
	if h.store.Exists(dst) {
		writeJSON(w, http.StatusConflict, errorBody("image already exists"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}
	if err := h.store.Write(dst, data); err != nil {
		writeServiceError(w, "upload image", err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		Path:  dst,
		Token: embed.Build(header.Filename, embed.BuildOptions{}),
		Size:  int64(len(data)),
	})
}
