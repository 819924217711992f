package station

// Station is the identity anchor for all evidence. Rows come from the
// registry import or from a citizen "unlisted station" suggestion; they are
// never deleted, only merged by an admin.
type Station struct {
	ID              int64   `json:"id"`
	ProvinceID      int64   `json:"province_id"`
	ProvinceName    string  `json:"province_name"`
	ConstituencyID  int64   `json:"constituency_id"`
	SubdistrictID   *int64  `json:"subdistrict_id,omitempty"`
	SubdistrictName string  `json:"subdistrict_name"`
	StationNumber   int     `json:"station_number"`
	LocationName    *string `json:"location_name,omitempty"`
	// VerifiedExist distinguishes registry-sourced stations from
	// user-suggested ones awaiting an admin merge.
	VerifiedExist bool `json:"is_verified_exist"`
}

// Suggestion is a citizen-supplied station that was not in the registry.
// (constituency_id, subdistrict_id, station_number) is the natural key; a
// duplicate suggestion resolves to the existing station instead of creating
// a new row.
type Suggestion struct {
	ProvinceID      int64
	ProvinceName    string
	ConstituencyID  int64
	SubdistrictID   *int64
	SubdistrictName string
	StationNumber   int
	LocationName    *string
}
