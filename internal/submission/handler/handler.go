package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sheetwatch/internal/platform/middleware"
	"sheetwatch/internal/submission"
	"sheetwatch/internal/transport/http/shared"
	"sheetwatch/pkg/domain"
	dErrors "sheetwatch/pkg/domain-errors"
)

// Service defines the submission operations the handler depends on.
type Service interface {
	Create(ctx context.Context, req submission.CreateRequest) (*submission.Submission, error)
	Get(ctx context.Context, id uuid.UUID) (*submission.Submission, error)
	NextInQueue(ctx context.Context, sheet domain.SheetType, status domain.SheetStatus) (*submission.Submission, error)
}

// Handler exposes the citizen upload endpoint and the reviewer queue.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new submission Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// RegisterPublic registers the citizen-facing routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/evidence/upload", h.handleUpload)
	r.Get("/evidence/{id}", h.handleGet)
}

// RegisterAdmin registers the reviewer routes. The caller mounts these behind
// the reviewer auth middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/queue/next", h.handleQueueNext)
}

type uploadRequest struct {
	StationID                 int64   `json:"station_id"`
	PhotoConstituencyKey      *string `json:"photo_constituency_key,omitempty"`
	PhotoPartyListKey         *string `json:"photo_partylist_key,omitempty"`
	ChecksumConstituencyTotal *int64  `json:"checksum_constituency_total,omitempty"`
	ChecksumPartyListTotal    *int64  `json:"checksum_partylist_total,omitempty"`
	SessionID                 *string `json:"user_session_id,omitempty"`
}

type uploadResponse struct {
	SubmissionID       string             `json:"submission_id"`
	StatusConstituency domain.SheetStatus `json:"status_constituency"`
	StatusPartyList    domain.SheetStatus `json:"status_partylist"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req uploadRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	sub, err := h.service.Create(ctx, submission.CreateRequest{
		StationID:                 req.StationID,
		PhotoConstituencyKey:      req.PhotoConstituencyKey,
		PhotoPartyListKey:         req.PhotoPartyListKey,
		ChecksumConstituencyTotal: req.ChecksumConstituencyTotal,
		ChecksumPartyListTotal:    req.ChecksumPartyListTotal,
		SessionID:                 req.SessionID,
	})
	if err != nil {
		// No write path without a configured store.
		if dErrors.Is(err, dErrors.CodeUnavailable) {
			shared.WriteJSON(w, http.StatusNotImplemented, shared.ErrorResponse{
				Error:       string(dErrors.CodeUnavailable),
				Description: "submission persistence is not configured",
			})
			return
		}
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to record submission",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, uploadResponse{
		SubmissionID:       sub.ID.String(),
		StatusConstituency: sub.StatusConstituency,
		StatusPartyList:    sub.StatusPartyList,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "submission id must be a UUID"))
		return
	}

	sub, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleQueueNext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sheet := domain.SheetType(r.URL.Query().Get("sheet_type"))
	if sheet == "" {
		sheet = domain.SheetConstituency
	}
	status := domain.SheetStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.StatusPending
	}

	sub, err := h.service.NextInQueue(ctx, sheet, status)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to read review queue",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}
	if sub == nil {
		shared.WriteJSON(w, http.StatusOK, map[string]any{"queue_empty": true})
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{"queue_empty": false, "submission": sub})
}
