package submission

import (
	"time"

	"github.com/google/uuid"

	"sheetwatch/pkg/domain"
)

// Submission is one evidence event for one station: up to two photographed
// sheets plus the citizen's self-reported checksum totals. Each sheet moves
// through its verification lifecycle independently.
type Submission struct {
	ID        uuid.UUID `json:"id"`
	StationID int64     `json:"station_id"`
	CreatedAt time.Time `json:"created_at"`

	StatusConstituency domain.SheetStatus `json:"status_constituency"`
	StatusPartyList    domain.SheetStatus `json:"status_partylist"`

	// Photo keys are opaque object-storage references; the photos themselves
	// never pass through this service.
	PhotoConstituencyKey *string `json:"photo_constituency_key,omitempty"`
	PhotoPartyListKey    *string `json:"photo_partylist_key,omitempty"`

	ChecksumConstituencyTotal *int64 `json:"checksum_constituency_total,omitempty"`
	ChecksumPartyListTotal    *int64 `json:"checksum_partylist_total,omitempty"`

	// SessionID correlates submissions from one client for abuse scoring.
	SessionID *string `json:"user_session_id,omitempty"`

	// Version guards status updates: a writer must present the version it
	// read, and loses with a conflict if another writer got there first.
	Version int64 `json:"-"`
}

// Status returns the lifecycle status of the given sheet.
func (s *Submission) Status(sheet domain.SheetType) domain.SheetStatus {
	if sheet == domain.SheetPartyList {
		return s.StatusPartyList
	}
	return s.StatusConstituency
}

// Checksum returns the citizen checksum for the given sheet, nil when the
// citizen did not report one.
func (s *Submission) Checksum(sheet domain.SheetType) *int64 {
	if sheet == domain.SheetPartyList {
		return s.ChecksumPartyListTotal
	}
	return s.ChecksumConstituencyTotal
}

// PhotoKey returns the photo reference for the given sheet.
func (s *Submission) PhotoKey(sheet domain.SheetType) *string {
	if sheet == domain.SheetPartyList {
		return s.PhotoPartyListKey
	}
	return s.PhotoConstituencyKey
}

// HasVerifiedSheet reports whether either sheet reached verified.
func (s *Submission) HasVerifiedSheet() bool {
	return s.StatusConstituency == domain.StatusVerified || s.StatusPartyList == domain.StatusVerified
}
