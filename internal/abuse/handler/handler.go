package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sheetwatch/internal/abuse"
	"sheetwatch/internal/platform/middleware"
	"sheetwatch/internal/transport/http/shared"
	dErrors "sheetwatch/pkg/domain-errors"
)

// Service defines the abuse scoring operations the handler depends on.
type Service interface {
	Assess(ctx context.Context, identity string) (*abuse.Assessment, error)
}

// Handler exposes the advisory abuse score to reviewers.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new abuse Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the abuse routes. The caller mounts these behind the
// reviewer auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/abuse/{identity}", h.handleAssess)
}

func (h *Handler) handleAssess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity := chi.URLParam(r, "identity")
	if identity == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "identity is required"))
		return
	}

	assessment, err := h.service.Assess(ctx, identity)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to assess identity",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, assessment)
}
