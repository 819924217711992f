package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sheetwatch/internal/platform/middleware"
	"sheetwatch/internal/reconcile"
	"sheetwatch/internal/transport/http/shared"
	"sheetwatch/pkg/domain"
	dErrors "sheetwatch/pkg/domain-errors"
)

// Service defines the reconciliation operations the handler depends on.
type Service interface {
	Reconcile(ctx context.Context, req reconcile.Request) (*reconcile.Result, error)
	TalliesForSubmission(ctx context.Context, submissionID uuid.UUID) ([]*reconcile.Tally, error)
}

// Handler exposes the reviewer tally endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new reconcile Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the tally routes. The caller mounts these behind the
// reviewer auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/tally", h.handleRecordTally)
	r.Get("/admin/submissions/{id}/tallies", h.handleListTallies)
}

type recordTallyRequest struct {
	SubmissionID string           `json:"submission_id"`
	SheetType    domain.SheetType `json:"sheet_type"`
	ScoreMap     map[string]int64 `json:"score_map"`
	Action       *string          `json:"action,omitempty"`
	Note         string           `json:"note,omitempty"`
}

type recordTallyResponse struct {
	Tally        *reconcile.Tally   `json:"tally"`
	Status       domain.SheetStatus `json:"status"`
	AutoVerified bool               `json:"auto_verified"`
}

func (h *Handler) handleRecordTally(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req recordTallyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	submissionID, err := uuid.Parse(req.SubmissionID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "submission_id must be a UUID"))
		return
	}

	var action *domain.ReviewAction
	if req.Action != nil {
		a := domain.ReviewAction(*req.Action)
		action = &a
	}

	var reviewerID *string
	if id := middleware.GetReviewerID(ctx); id != "" {
		reviewerID = &id
	}

	result, err := h.service.Reconcile(ctx, reconcile.Request{
		SubmissionID: submissionID,
		ReviewerID:   reviewerID,
		SheetType:    req.SheetType,
		ScoreMap:     req.ScoreMap,
		Action:       action,
		Note:         req.Note,
	})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to record tally",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, recordTallyResponse{
		Tally:        result.Tally,
		Status:       result.Status,
		AutoVerified: result.AutoVerified,
	})
}

func (h *Handler) handleListTallies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	submissionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "submission id must be a UUID"))
		return
	}

	tallies, err := h.service.TalliesForSubmission(ctx, submissionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list tallies",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	if tallies == nil {
		tallies = []*reconcile.Tally{}
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{"tallies": tallies})
}
