package report

import (
	"time"

	"github.com/google/uuid"
)

// IncidentType classifies citizen-observed irregularities at a station.
type IncidentType string

const (
	IncidentFormNotPosted      IncidentType = "form_not_posted_or_removed"
	IncidentCountingObstructed IncidentType = "counting_obstructed"
	IncidentSealMismatch       IncidentType = "seal_broken_or_mismatch"
	IncidentOther              IncidentType = "other"
)

// IsValid checks if the incident type is one of the supported enum values.
func (t IncidentType) IsValid() bool {
	switch t {
	case IncidentFormNotPosted, IncidentCountingObstructed, IncidentSealMismatch, IncidentOther:
		return true
	}
	return false
}

// CustodyEventType classifies ballot-box custody observations.
type CustodyEventType string

const (
	CustodySealBrokenOrMismatch CustodyEventType = "seal_broken_or_mismatch"
	CustodySealIntactBeforeOpen CustodyEventType = "seal_intact_before_open"
	CustodyBoxMoved             CustodyEventType = "box_moved"
	CustodyOther                CustodyEventType = "other"
)

// IsValid checks if the custody event type is one of the supported enum values.
func (t CustodyEventType) IsValid() bool {
	switch t {
	case CustodySealBrokenOrMismatch, CustodySealIntactBeforeOpen, CustodyBoxMoved, CustodyOther:
		return true
	}
	return false
}

// IncidentReport is a station-scoped observational record. Written once by
// the citizen reporting flow; the risk and abuse scorers only read it.
type IncidentReport struct {
	ID        uuid.UUID    `json:"id"`
	StationID int64        `json:"station_id"`
	Type      IncidentType `json:"type"`
	Note      string       `json:"note,omitempty"`
	MediaKeys []string     `json:"media_keys,omitempty"`
	SessionID *string      `json:"user_session_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// CustodyEvent is a station-scoped custody observation, same lifecycle as
// IncidentReport.
type CustodyEvent struct {
	ID        uuid.UUID        `json:"id"`
	StationID int64            `json:"station_id"`
	Type      CustodyEventType `json:"type"`
	Note      string           `json:"note,omitempty"`
	MediaKeys []string         `json:"media_keys,omitempty"`
	SessionID *string          `json:"user_session_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
