package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sheetwatch/internal/platform/middleware"
	"sheetwatch/internal/risk"
	"sheetwatch/internal/transport/http/shared"
	dErrors "sheetwatch/pkg/domain-errors"
)

// Service defines the risk operations the handler depends on.
type Service interface {
	StationRisk(ctx context.Context, stationID int64) (*risk.StationRisk, error)
	ConstituencyRisk(ctx context.Context, constituencyID int64) (*risk.ConstituencyRisk, error)
}

// Handler exposes the public risk endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new risk Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the risk routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/stations/{id}/risk", h.handleStationRisk)
	r.Get("/constituencies/{id}/risk", h.handleConstituencyRisk)
}

func (h *Handler) handleStationRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "station id must be an integer"))
		return
	}

	view, err := h.service.StationRisk(ctx, stationID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to compute station risk",
				"request_id", middleware.GetRequestID(ctx),
				"station_id", stationID,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleConstituencyRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	constituencyID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "constituency id must be an integer"))
		return
	}

	view, err := h.service.ConstituencyRisk(ctx, constituencyID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to compute constituency risk",
				"request_id", middleware.GetRequestID(ctx),
				"constituency_id", constituencyID,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, view)
}
