package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sheetwatch/internal/platform/middleware"
	"sheetwatch/internal/report"
	"sheetwatch/internal/risk"
	"sheetwatch/internal/station"
	"sheetwatch/internal/submission"
	"sheetwatch/internal/transport/http/shared"
	dErrors "sheetwatch/pkg/domain-errors"
)

// Service defines the station operations the handler depends on.
type Service interface {
	Get(ctx context.Context, id int64) (*station.Station, error)
	Suggest(ctx context.Context, sug station.Suggestion) (*station.Station, error)
}

// SubmissionLister lists a station's submissions for the evidence view.
type SubmissionLister interface {
	ListByStation(ctx context.Context, stationID int64) ([]*submission.Submission, error)
}

// ReportLister lists a station's incident and custody records.
type ReportLister interface {
	IncidentsByStation(ctx context.Context, stationID int64) ([]*report.IncidentReport, error)
	CustodyByStation(ctx context.Context, stationID int64) ([]*report.CustodyEvent, error)
}

// RiskScorer computes the station's risk view.
type RiskScorer interface {
	StationRisk(ctx context.Context, stationID int64) (*risk.StationRisk, error)
}

// Handler exposes the station suggestion endpoint and the per-station
// evidence view.
type Handler struct {
	logger      *slog.Logger
	service     Service
	submissions SubmissionLister
	reports     ReportLister
	risk        RiskScorer
}

// New creates a new station Handler.
func New(service Service, submissions SubmissionLister, reports ReportLister, riskScorer RiskScorer, logger *slog.Logger) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		submissions: submissions,
		reports:     reports,
		risk:        riskScorer,
	}
}

// Register registers the station routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/stations/suggest", h.handleSuggest)
	r.Get("/stations/{id}/evidence", h.handleEvidence)
}

type suggestRequest struct {
	ProvinceID      int64   `json:"province_id"`
	ProvinceName    string  `json:"province_name"`
	ConstituencyID  int64   `json:"constituency_id"`
	SubdistrictID   *int64  `json:"subdistrict_id,omitempty"`
	SubdistrictName string  `json:"subdistrict_name"`
	StationNumber   int     `json:"station_number"`
	LocationName    *string `json:"location_name,omitempty"`
}

// evidenceResponse is the composite per-station view: everything a reader
// needs to judge one station on one page.
type evidenceResponse struct {
	Station     *station.Station         `json:"station"`
	Submissions []*submission.Submission `json:"submissions"`
	Incidents   []*report.IncidentReport `json:"incidents"`
	Custody     []*report.CustodyEvent   `json:"custody_events"`
	Risk        *risk.StationRisk        `json:"risk"`
}

func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req suggestRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	st, err := h.service.Suggest(ctx, station.Suggestion{
		ProvinceID:      req.ProvinceID,
		ProvinceName:    req.ProvinceName,
		ConstituencyID:  req.ConstituencyID,
		SubdistrictID:   req.SubdistrictID,
		SubdistrictName: req.SubdistrictName,
		StationNumber:   req.StationNumber,
		LocationName:    req.LocationName,
	})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to resolve station suggestion",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) handleEvidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "station id must be an integer"))
		return
	}

	st, err := h.service.Get(ctx, stationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	subs, err := h.submissions.ListByStation(ctx, stationID)
	if err != nil {
		h.writeEvidenceError(w, ctx, stationID, err)
		return
	}
	incidents, err := h.reports.IncidentsByStation(ctx, stationID)
	if err != nil {
		h.writeEvidenceError(w, ctx, stationID, err)
		return
	}
	custody, err := h.reports.CustodyByStation(ctx, stationID)
	if err != nil {
		h.writeEvidenceError(w, ctx, stationID, err)
		return
	}
	riskView, err := h.risk.StationRisk(ctx, stationID)
	if err != nil {
		h.writeEvidenceError(w, ctx, stationID, err)
		return
	}

	if subs == nil {
		subs = []*submission.Submission{}
	}
	if incidents == nil {
		incidents = []*report.IncidentReport{}
	}
	if custody == nil {
		custody = []*report.CustodyEvent{}
	}

	shared.WriteJSON(w, http.StatusOK, evidenceResponse{
		Station:     st,
		Submissions: subs,
		Incidents:   incidents,
		Custody:     custody,
		Risk:        riskView,
	})
}

func (h *Handler) writeEvidenceError(w http.ResponseWriter, ctx context.Context, stationID int64, err error) {
	h.logger.ErrorContext(ctx, "failed to assemble station evidence view",
		"request_id", middleware.GetRequestID(ctx),
		"station_id", stationID,
		"error", err.Error(),
	)
	shared.WriteError(w, err)
}
