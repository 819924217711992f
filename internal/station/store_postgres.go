package station

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"sheetwatch/pkg/platform/sentinel"
)

// PostgresStore persists stations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const stationColumns = `id, province_id, province_name, constituency_id, subdistrict_id, subdistrict_name, station_number, location_name, is_verified_exist`

func (s *PostgresStore) Get(ctx context.Context, id int64) (*Station, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+stationColumns+` FROM stations WHERE id = $1`, id)
	return scanStation(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*Station, error) {
	return listStations(ctx, s.db)
}

// ListTx lists every station through an already-open transaction, for
// readers that need a consistent cross-table view.
func (s *PostgresStore) ListTx(ctx context.Context, tx *sql.Tx) ([]*Station, error) {
	return listStations(ctx, tx)
}

func listStations(ctx context.Context, q queryer) ([]*Station, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+stationColumns+` FROM stations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()
	return collectStations(rows)
}

func (s *PostgresStore) ListByConstituency(ctx context.Context, constituencyID int64) ([]*Station, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+stationColumns+` FROM stations WHERE constituency_id = $1 ORDER BY id`, constituencyID)
	if err != nil {
		return nil, fmt.Errorf("list stations by constituency: %w", err)
	}
	defer rows.Close()
	return collectStations(rows)
}

func (s *PostgresStore) FindByNaturalKey(ctx context.Context, constituencyID int64, subdistrictID *int64, stationNumber int) (*Station, error) {
	// subdistrict_id is nullable; NULLs compare equal here on purpose so a
	// suggestion without a subdistrict still dedupes.
	row := s.db.QueryRowContext(ctx, `
		SELECT `+stationColumns+` FROM stations
		WHERE constituency_id = $1
		  AND subdistrict_id IS NOT DISTINCT FROM $2
		  AND station_number = $3`,
		constituencyID, subdistrictID, stationNumber)
	return scanStation(row)
}

func (s *PostgresStore) Insert(ctx context.Context, st *Station) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO stations (province_id, province_name, constituency_id, subdistrict_id, subdistrict_name, station_number, location_name, is_verified_exist)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		st.ProvinceID, st.ProvinceName, st.ConstituencyID, st.SubdistrictID,
		st.SubdistrictName, st.StationNumber, st.LocationName, st.VerifiedExist,
	).Scan(&st.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert station: %w", err)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStation(row rowScanner) (*Station, error) {
	var st Station
	err := row.Scan(
		&st.ID, &st.ProvinceID, &st.ProvinceName, &st.ConstituencyID,
		&st.SubdistrictID, &st.SubdistrictName, &st.StationNumber,
		&st.LocationName, &st.VerifiedExist,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan station: %w", err)
	}
	return &st, nil
}

func collectStations(rows *sql.Rows) ([]*Station, error) {
	var out []*Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stations: %w", err)
	}
	return out, nil
}
