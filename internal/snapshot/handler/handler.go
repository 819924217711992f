package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sheetwatch/internal/snapshot"
	"sheetwatch/internal/transport/http/shared"
	dErrors "sheetwatch/pkg/domain-errors"
)

// Source serves the latest published snapshot.
type Source interface {
	Latest(includePreliminary bool) *snapshot.Snapshot
}

// Handler exposes the public snapshot endpoint.
type Handler struct {
	source Source
}

// New creates a new snapshot Handler.
func New(source Source) *Handler {
	return &Handler{source: source}
}

// Register registers the snapshot route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/snapshot", h.handleSnapshot)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	includePreliminary := r.URL.Query().Get("include_preliminary") == "true"

	snap := h.source.Latest(includePreliminary)
	if snap == nil {
		// The aggregator has not completed its first run yet.
		shared.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "snapshot not yet published"))
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=30")
	shared.WriteJSON(w, http.StatusOK, snap)
}
