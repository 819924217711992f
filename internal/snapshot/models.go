package snapshot

import (
	"time"

	"sheetwatch/pkg/domain"
)

// Metadata carries the deterministic counters of one snapshot. Every field
// here is a pure function of the input data set: rebuilding over unchanged
// rows yields identical values.
type Metadata struct {
	TotalStations       int `json:"total_stations"`
	TotalSubmissions    int `json:"total_submissions"`
	VerifiedSubmissions int `json:"verified_submissions"`
	PendingReview       int `json:"pending_review"`
	DisputedCount       int `json:"disputed_count"`

	// CoverageStatistics maps province id to the share of its stations with
	// at least one verified sheet, rounded to two decimals.
	CoverageStatistics map[int64]float64 `json:"coverage_statistics"`

	// LastVerifiedAt is the created_at of the newest submission with a
	// verified sheet, nil while nothing is verified.
	LastVerifiedAt *time.Time `json:"last_verified_at,omitempty"`
}

// Provenance carries the non-deterministic build facts. Excluded from
// idempotence guarantees.
type Provenance struct {
	GeneratedAt time.Time `json:"generated_at"`
	BuildTime   time.Time `json:"build_time"`
}

// VerifiedTallies are the newest reviewer totals per sheet, null when the
// sheet has no tally yet.
type VerifiedTallies struct {
	Constituency *int64 `json:"constituency"`
	PartyList    *int64 `json:"partylist"`
}

// SubmissionSummary is the public projection of one submission.
type SubmissionSummary struct {
	ID                 string             `json:"id"`
	CreatedAt          time.Time          `json:"created_at"`
	StatusConstituency domain.SheetStatus `json:"status_constituency"`
	StatusPartyList    domain.SheetStatus `json:"status_partylist"`
	VerifiedTallies    VerifiedTallies    `json:"verified_tallies"`
}

// StationSummary is the public projection of one station and its evidence.
type StationSummary struct {
	StationID      int64               `json:"station_id"`
	ProvinceID     int64               `json:"province_id"`
	ConstituencyID int64               `json:"constituency_id"`
	StationNumber  int                 `json:"station_number"`
	HasVerified    bool                `json:"has_verified"`
	Submissions    []SubmissionSummary `json:"submissions"`
}

// ProvinceCoverage is the per-province rollup.
type ProvinceCoverage struct {
	ProvinceID      int64   `json:"province_id"`
	ProvinceName    string  `json:"province_name"`
	TotalStations   int     `json:"total_stations"`
	CoveredStations int     `json:"covered_stations"`
	CoveragePercent float64 `json:"coverage_percent"`
}

// Snapshot is the published artifact. Regenerated wholesale each run, never
// patched in place.
type Snapshot struct {
	Metadata   Metadata           `json:"metadata"`
	Provenance Provenance         `json:"provenance"`
	Provinces  []ProvinceCoverage `json:"provinces"`
	Stations   []StationSummary   `json:"stations"`
}
