package station

import "context"

// Store is interface-driven to keep the domain logic testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring business
// code. Implementations return sentinel errors from pkg/platform/sentinel.
type Store interface {
	// Get returns one station by id.
	Get(ctx context.Context, id int64) (*Station, error)

	// List returns all stations ordered by id.
	List(ctx context.Context) ([]*Station, error)

	// ListByConstituency returns the stations of one constituency ordered by id.
	ListByConstituency(ctx context.Context, constituencyID int64) ([]*Station, error)

	// FindByNaturalKey resolves (constituency, subdistrict, station number)
	// to an existing station, if any.
	FindByNaturalKey(ctx context.Context, constituencyID int64, subdistrictID *int64, stationNumber int) (*Station, error)

	// Insert creates a station and assigns its id. Returns ErrConflict when
	// the natural key already exists.
	Insert(ctx context.Context, s *Station) error
}
