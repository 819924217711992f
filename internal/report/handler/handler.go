package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sheetwatch/internal/platform/middleware"
	"sheetwatch/internal/report"
	"sheetwatch/internal/transport/http/shared"
	dErrors "sheetwatch/pkg/domain-errors"
)

// Service defines the reporting operations the handler depends on.
type Service interface {
	ReportIncident(ctx context.Context, req report.IncidentRequest) (*report.IncidentReport, error)
	ReportCustody(ctx context.Context, req report.CustodyRequest) (*report.CustodyEvent, error)
}

// Handler exposes the citizen incident and custody reporting endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new report Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the citizen reporting routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/evidence/incident", h.handleIncident)
	r.Post("/evidence/custody", h.handleCustody)
}

type incidentRequest struct {
	StationID int64    `json:"station_id"`
	Type      string   `json:"type"`
	Note      string   `json:"note,omitempty"`
	MediaKeys []string `json:"media_keys,omitempty"`
	SessionID *string  `json:"user_session_id,omitempty"`
}

type custodyRequest struct {
	StationID int64    `json:"station_id"`
	Type      string   `json:"type"`
	Note      string   `json:"note,omitempty"`
	MediaKeys []string `json:"media_keys,omitempty"`
	SessionID *string  `json:"user_session_id,omitempty"`
}

func (h *Handler) handleIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req incidentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	incident, err := h.service.ReportIncident(ctx, report.IncidentRequest{
		StationID: req.StationID,
		Type:      report.IncidentType(req.Type),
		Note:      req.Note,
		MediaKeys: req.MediaKeys,
		SessionID: req.SessionID,
	})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to record incident report",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, incident)
}

func (h *Handler) handleCustody(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req custodyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	event, err := h.service.ReportCustody(ctx, report.CustodyRequest{
		StationID: req.StationID,
		Type:      report.CustodyEventType(req.Type),
		Note:      req.Note,
		MediaKeys: req.MediaKeys,
		SessionID: req.SessionID,
	})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to record custody event",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, event)
}
