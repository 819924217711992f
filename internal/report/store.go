package report

import (
	"context"
	"time"
)

// Store persists incident reports and custody events. Both are append-only.
type Store interface {
	AppendIncident(ctx context.Context, r *IncidentReport) error
	AppendCustody(ctx context.Context, e *CustodyEvent) error

	// ListIncidentsByStation returns a station's incidents ordered by (created_at, id).
	ListIncidentsByStation(ctx context.Context, stationID int64) ([]*IncidentReport, error)

	// ListCustodyByStation returns a station's custody events ordered by (created_at, id).
	ListCustodyByStation(ctx context.Context, stationID int64) ([]*CustodyEvent, error)

	// ListIncidentsBySession returns one session's incidents at or after the cutoff.
	ListIncidentsBySession(ctx context.Context, sessionID string, since time.Time) ([]*IncidentReport, error)

	// ListCustodyBySession returns one session's custody events at or after the cutoff.
	ListCustodyBySession(ctx context.Context, sessionID string, since time.Time) ([]*CustodyEvent, error)
}
