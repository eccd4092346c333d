package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Ryanu9/albus-imagine/internal/assets"
	"github.com/Ryanu9/albus-imagine/internal/embed"
	"github.com/Ryanu9/albus-imagine/internal/locate"
	"github.com/Ryanu9/albus-imagine/internal/refs"
	"github.com/Ryanu9/albus-imagine/internal/resize"
)

// Handler holds API route handlers.
type Handler struct {
	svc        *assets.Service
	resizeCfg  resize.Config
	onProgress refs.ProgressFunc
}

// NewHandler creates a new Handler. onProgress, if non-nil, receives
// reference-check progress updates (typically fanned out over SSE).
func NewHandler(svc *assets.Service, resizeCfg resize.Config, onProgress refs.ProgressFunc) *Handler {
	return &Handler{svc: svc, resizeCfg: resizeCfg, onProgress: onProgress}
}

// hintOf converts an optional line number into a locator hint.
func hintOf(line *int) locate.Hint {
	if line == nil {
		return locate.NoHint
	}
	return locate.Hint{Line: *line, Valid: true}
}

// ListImages handles GET /api/images.
//
//	@Summary		List all images in the vault
//	@Tags			images
//	@Produce		json
//	@Success		200	{object}	ImageListResponse
//	@Security		BearerAuth
//	@Router			/images [get]
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.svc.Scan(r.Context())
	if err != nil {
		writeServiceError(w, "list images", err)
		return
	}
	writeJSON(w, http.StatusOK, ImageListResponse{Images: images, Total: len(images)})
}

// CheckReferences handles POST /api/images/check.
//
//	@Summary		Resolve reference counts for every image
//	@Tags			images
//	@Produce		json
//	@Success		200	{object}	ImageListResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images/check [post]
func (h *Handler) CheckReferences(w http.ResponseWriter, r *http.Request) {
	images, err := h.svc.Scan(r.Context())
	if err != nil {
		writeServiceError(w, "check references", err)
		return
	}
	checked, err := h.svc.CheckReferences(r.Context(), images, h.onProgress)
	if err != nil {
		writeServiceError(w, "check references", err)
		return
	}
	writeJSON(w, http.StatusOK, ImageListResponse{Images: checked, Total: len(checked)})
}

// RenameImage handles POST /api/images/rename.
//
//	@Summary		Rename an image and update every reference to it
//	@Tags			images
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenameImageRequest	true	"Rename request"
//	@Success		200		{object}	RenameImageResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images/rename [post]
func (h *Handler) RenameImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req RenameImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || req.NewName == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and new_name are required"))
		return
	}
	newPath, err := h.svc.Rename(r.Context(), req.Path, req.NewName)
	if err != nil {
		writeServiceError(w, "rename image", err)
		return
	}
	writeJSON(w, http.StatusOK, RenameImageResponse{Path: newPath})
}

// DeleteImages handles POST /api/images/delete.
//
//	@Summary		Delete one or more images, optionally removing their references
//	@Tags			images
//	@Accept			json
//	@Param			body	body	DeleteImagesRequest	true	"Delete request"
//	@Success		204		"Images deleted"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images/delete [post]
func (h *Handler) DeleteImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req DeleteImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Paths) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("paths are required"))
		return
	}
	if err := h.svc.DeleteMany(r.Context(), req.Paths, req.RemoveReferences); err != nil {
		writeServiceError(w, "delete images", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rewriteBody decodes a JSON body into dst with the usual size cap.
func rewriteBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

func (h *Handler) writeRewrite(w http.ResponseWriter, op string, out assets.RewriteOutcome, err error) {
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, RewriteResponse{Line: out.Line, Ambiguous: out.Ambiguous})
}

// SetAlignment handles POST /api/embeds/alignment.
//
//	@Summary		Set the alignment of one embed occurrence
//	@Tags			embeds
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SetAlignmentRequest	true	"Alignment edit"
//	@Success		200		{object}	RewriteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/embeds/alignment [post]
func (h *Handler) SetAlignment(w http.ResponseWriter, r *http.Request) {
	var req SetAlignmentRequest
	if !rewriteBody(w, r, &req) {
		return
	}
	if req.Doc == "" || req.Target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("doc and target are required"))
		return
	}
	switch req.Alignment {
	case embed.AlignCenter, embed.AlignLeft, embed.AlignRight:
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("alignment must be center, left or right"))
		return
	}
	out, err := h.svc.SetAlignment(req.Doc, req.Target, hintOf(req.Line), req.Alignment)
	h.writeRewrite(w, "set alignment", out, err)
}

// SetDarkMode handles POST /api/embeds/dark.
//
//	@Summary		Toggle the dark-mode flag of one embed occurrence
//	@Tags			embeds
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SetDarkModeRequest	true	"Dark-mode edit"
//	@Success		200		{object}	RewriteResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/embeds/dark [post]
func (h *Handler) SetDarkMode(w http.ResponseWriter, r *http.Request) {
	var req SetDarkModeRequest
	if !rewriteBody(w, r, &req) {
		return
	}
	if req.Doc == "" || req.Target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("doc and target are required"))
		return
	}
	out, err := h.svc.SetDarkMode(req.Doc, req.Target, hintOf(req.Line), req.Dark)
	h.writeRewrite(w, "set dark mode", out, err)
}

// SetCaption handles POST /api/embeds/caption.
//
//	@Summary		Set or clear the caption of one embed occurrence
//	@Tags			embeds
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SetCaptionRequest	true	"Caption edit"
//	@Success		200		{object}	RewriteResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/embeds/caption [post]
func (h *Handler) SetCaption(w http.ResponseWriter, r *http.Request) {
	var req SetCaptionRequest
	if !rewriteBody(w, r, &req) {
		return
	}
	if req.Doc == "" || req.Target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("doc and target are required"))
		return
	}
	out, err := h.svc.SetCaption(req.Doc, req.Target, hintOf(req.Line), req.Caption)
	h.writeRewrite(w, "set caption", out, err)
}

// SetSize handles POST /api/embeds/size.
//
//	@Summary		Set or clear the rendered size of one embed occurrence
//	@Tags			embeds
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SetSizeRequest	true	"Size edit"
//	@Success		200		{object}	RewriteResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/embeds/size [post]
func (h *Handler) SetSize(w http.ResponseWriter, r *http.Request) {
	var req SetSizeRequest
	if !rewriteBody(w, r, &req) {
		return
	}
	if req.Doc == "" || req.Target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("doc and target are required"))
		return
	}
	if req.Width < 0 || req.Height < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("width and height must not be negative"))
		return
	}
	out, err := h.svc.SetSize(req.Doc, req.Target, hintOf(req.Line), req.Width, req.Height)
	h.writeRewrite(w, "set size", out, err)
}

// BuildEmbed handles POST /api/embeds/build.
//
//	@Summary		Generate an embed token for an image
//	@Tags			embeds
//	@Accept			json
//	@Produce		json
//	@Param			body	body		BuildEmbedRequest	true	"Embed layout"
//	@Success		200		{object}	BuildEmbedResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/embeds/build [post]
func (h *Handler) BuildEmbed(w http.ResponseWriter, r *http.Request) {
	var req BuildEmbedRequest
	if !rewriteBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	token := h.svc.BuildEmbed(req.Name, embed.BuildOptions{
		Alignment: req.Alignment,
		Dark:      req.Dark,
		Caption:   req.Caption,
		Width:     req.Width,
		Height:    req.Height,
	})
	writeJSON(w, http.StatusOK, BuildEmbedResponse{Token: token})
}

// ResizeWidth handles GET /api/resize/width.
//
//	@Summary		Compute the snapped drag width for a resize gesture
//	@Tags			resize
//	@Produce		json
//	@Param			start	query		int	true	"Width at drag start"
//	@Param			delta	query		int	true	"Horizontal pointer travel"
//	@Success		200		{object}	ResizeWidthResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resize/width [get]
func (h *Handler) ResizeWidth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := strconv.Atoi(q.Get("start"))
	if err != nil || start <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'start' must be a positive integer"))
		return
	}
	delta, err := strconv.Atoi(q.Get("delta"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'delta' must be an integer"))
		return
	}
	writeJSON(w, http.StatusOK, ResizeWidthResponse{Width: resize.ComputeWidth(start, delta, h.resizeCfg)})
}
