package risk

// Tier is the qualitative leverage tier derived from a station's risk score.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// Signals are the boolean risk inputs for one station. Each signal is
// observed-or-not; repeat occurrences do not compound.
type Signals struct {
	SealMismatch         bool `json:"seal_mismatch"`
	MissingPostedForm    bool `json:"missing_posted_form"`
	ChecksumMismatch     bool `json:"checksum_mismatch"`
	AbnormalInvalidRatio bool `json:"abnormal_invalid_ratio"`
}

// StationRisk is the computed risk view for one station. Derived on demand,
// never persisted.
type StationRisk struct {
	StationID int64    `json:"station_id"`
	Signals   Signals  `json:"signals"`
	Score     int      `json:"risk_score"`
	Leverage  Tier     `json:"leverage"`
	Reasons   []string `json:"reasons"`
}

// ConstituencyRisk aggregates station risk across one constituency.
type ConstituencyRisk struct {
	ConstituencyID int64 `json:"constituency_id"`
	TotalStations  int   `json:"total_stations"`

	// Station counts by leverage tier.
	HighCount   int `json:"high_count"`
	MediumCount int `json:"medium_count"`
	LowCount    int `json:"low_count"`

	// CoveragePercent is the share of stations with no observed risk signal,
	// rounded to two decimals. A coverage proxy, not a correctness guarantee.
	CoveragePercent float64 `json:"coverage_percent"`
}
