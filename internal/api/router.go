package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ryanu9/albus-imagine/internal/assets"
	"github.com/Ryanu9/albus-imagine/internal/refs"
	"github.com/Ryanu9/albus-imagine/internal/resize"
	"github.com/Ryanu9/albus-imagine/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *assets.Service, store storage.Provider, imageFolder string, resizeCfg resize.Config, onProgress refs.ProgressFunc, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, resizeCfg, onProgress)
	ih := NewImageHandler(store, imageFolder)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Image inventory and lifecycle.
	r.Get("/images", h.ListImages)
	r.Post("/images/check", h.CheckReferences)
	r.Post("/images/rename", h.RenameImage)
	r.Post("/images/delete", h.DeleteImages)
	r.Post("/images/upload", ih.Upload)

	// Embed token edits.
	r.Post("/embeds/alignment", h.SetAlignment)
	r.Post("/embeds/dark", h.SetDarkMode)
	r.Post("/embeds/caption", h.SetCaption)
	r.Post("/embeds/size", h.SetSize)
	r.Post("/embeds/build", h.BuildEmbed)

	// Drag-resize geometry.
	r.Get("/resize/width", h.ResizeWidth)

	// Raw image bytes.
	r.Get("/files/*", ih.ServeFile)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
