// Package registry loads the official polling unit registry into the
// stations table. The CSV is the published ECT unit list; rows that collide
// with an existing natural key are skipped, so re-running an import is safe.
package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// expectedHeader is the column layout of the published unit list.
var expectedHeader = []string{
	"province_id",
	"province_name",
	"constituency_id",
	"subdistrict_id",
	"subdistrict_name",
	"station_number",
	"location_name",
}

// Unit is one registry row. Matches the stations table minus the surrogate
// id; registry rows are always verified-exist.
type Unit struct {
	ProvinceID      int64
	ProvinceName    string
	ConstituencyID  int64
	SubdistrictID   *int64
	SubdistrictName string
	StationNumber   int
	LocationName    *string
}

// Result summarizes one import run.
type Result struct {
	Read     int64
	Inserted int64
	Skipped  int64
}

// Parse reads the registry CSV. It validates the header and every row;
// a malformed row aborts the whole parse so a bad file never half-imports.
func Parse(r io.Reader) ([]Unit, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(expectedHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, want := range expectedHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			return nil, fmt.Errorf("unexpected csv column %d: got %q, want %q", i, header[i], want)
		}
	}

	var units []Unit
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++

		unit, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		units = append(units, unit)
	}
	return units, nil
}

func parseRecord(record []string) (Unit, error) {
	provinceID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return Unit{}, fmt.Errorf("invalid province_id %q", record[0])
	}
	constituencyID, err := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64)
	if err != nil {
		return Unit{}, fmt.Errorf("invalid constituency_id %q", record[2])
	}
	stationNumber, err := strconv.Atoi(strings.TrimSpace(record[5]))
	if err != nil || stationNumber < 1 {
		return Unit{}, fmt.Errorf("invalid station_number %q", record[5])
	}

	unit := Unit{
		ProvinceID:      provinceID,
		ProvinceName:    strings.TrimSpace(record[1]),
		ConstituencyID:  constituencyID,
		SubdistrictName: strings.TrimSpace(record[4]),
		StationNumber:   stationNumber,
	}
	if unit.ProvinceName == "" {
		return Unit{}, fmt.Errorf("empty province_name")
	}

	if raw := strings.TrimSpace(record[3]); raw != "" {
		subdistrictID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Unit{}, fmt.Errorf("invalid subdistrict_id %q", raw)
		}
		unit.SubdistrictID = &subdistrictID
	}
	if loc := strings.TrimSpace(record[6]); loc != "" {
		unit.LocationName = &loc
	}
	return unit, nil
}

// Importer bulk-loads units through a staging table. COPY into staging, then
// one INSERT ... ON CONFLICT DO NOTHING keyed on the natural key.
type Importer struct {
	conn   *pgx.Conn
	logger *slog.Logger
}

func NewImporter(conn *pgx.Conn, logger *slog.Logger) *Importer {
	return &Importer{conn: conn, logger: logger}
}

// Import loads the units inside one transaction. The staging table is
// session-local, so concurrent imports do not interfere.
func (i *Importer) Import(ctx context.Context, units []Unit) (*Result, error) {
	tx, err := i.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		CREATE TEMP TABLE staging_units (
			province_id      BIGINT NOT NULL,
			province_name    TEXT   NOT NULL,
			constituency_id  BIGINT NOT NULL,
			subdistrict_id   BIGINT,
			subdistrict_name TEXT   NOT NULL DEFAULT '',
			station_number   INT    NOT NULL,
			location_name    TEXT
		) ON COMMIT DROP`)
	if err != nil {
		return nil, fmt.Errorf("create staging table: %w", err)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"staging_units"},
		[]string{"province_id", "province_name", "constituency_id", "subdistrict_id", "subdistrict_name", "station_number", "location_name"},
		pgx.CopyFromSlice(len(units), func(n int) ([]any, error) {
			u := units[n]
			return []any{u.ProvinceID, u.ProvinceName, u.ConstituencyID, u.SubdistrictID, u.SubdistrictName, u.StationNumber, u.LocationName}, nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("copy into staging: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO stations (province_id, province_name, constituency_id, subdistrict_id, subdistrict_name, station_number, location_name, is_verified_exist)
		SELECT province_id, province_name, constituency_id, subdistrict_id, subdistrict_name, station_number, location_name, TRUE
		FROM staging_units
		ON CONFLICT DO NOTHING`)
	if err != nil {
		return nil, fmt.Errorf("insert stations: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit import tx: %w", err)
	}

	result := &Result{
		Read:     copied,
		Inserted: tag.RowsAffected(),
		Skipped:  copied - tag.RowsAffected(),
	}
	i.logger.Info("registry import finished",
		"read", result.Read,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
	)
	return result, nil
}
