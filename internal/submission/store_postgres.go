package submission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sheetwatch/pkg/domain"
	"sheetwatch/pkg/platform/sentinel"
)

// PostgresStore persists submissions in PostgreSQL. Optimistic concurrency
// on status updates comes from the version column: the UPDATE only matches
// when the row still carries the version the caller read.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const submissionColumns = `id, station_id, created_at,
	status_constituency, status_partylist,
	photo_constituency_key, photo_partylist_key,
	checksum_constituency_total, checksum_partylist_total,
	session_id, version`

func (s *PostgresStore) Insert(ctx context.Context, sub *Submission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, station_id, created_at,
			status_constituency, status_partylist,
			photo_constituency_key, photo_partylist_key,
			checksum_constituency_total, checksum_partylist_total,
			session_id, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sub.ID, sub.StationID, sub.CreatedAt,
		sub.StatusConstituency, sub.StatusPartyList,
		sub.PhotoConstituencyKey, sub.PhotoPartyListKey,
		sub.ChecksumConstituencyTotal, sub.ChecksumPartyListTotal,
		sub.SessionID, sub.Version,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				return sentinel.ErrConflict
			case "23503":
				return sentinel.ErrNotFound // unknown station_id
			}
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	return scanSubmission(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*Submission, error) {
	return listSubmissions(ctx, s.db)
}

// ListTx lists every submission through an already-open transaction.
func (s *PostgresStore) ListTx(ctx context.Context, tx *sql.Tx) ([]*Submission, error) {
	return listSubmissions(ctx, tx)
}

func listSubmissions(ctx context.Context, q queryer) ([]*Submission, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+submissionColumns+` FROM submissions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

func (s *PostgresStore) ListByStation(ctx context.Context, stationID int64) ([]*Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE station_id = $1 ORDER BY created_at, id`, stationID)
	if err != nil {
		return nil, fmt.Errorf("list submissions by station: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

func (s *PostgresStore) ListBySession(ctx context.Context, sessionID string, since time.Time) ([]*Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE session_id = $1 AND created_at >= $2 ORDER BY created_at, id`,
		sessionID, since)
	if err != nil {
		return nil, fmt.Errorf("list submissions by session: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

func (s *PostgresStore) NextPending(ctx context.Context, sheet domain.SheetType, status domain.SheetStatus) (*Submission, error) {
	column := "status_constituency"
	if sheet == domain.SheetPartyList {
		column = "status_partylist"
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE `+column+` = $1 ORDER BY created_at, id LIMIT 1`,
		status)
	return scanSubmission(row)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, sheet domain.SheetType, status domain.SheetStatus, expectedVersion int64) error {
	column := "status_constituency"
	if sheet == domain.SheetPartyList {
		column = "status_partylist"
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET `+column+` = $1, version = version + 1 WHERE id = $2 AND version = $3`,
		status, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	if affected == 0 {
		// Distinguish a lost race from an unknown id.
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM submissions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("update submission status: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*Submission, error) {
	var sub Submission
	err := row.Scan(
		&sub.ID, &sub.StationID, &sub.CreatedAt,
		&sub.StatusConstituency, &sub.StatusPartyList,
		&sub.PhotoConstituencyKey, &sub.PhotoPartyListKey,
		&sub.ChecksumConstituencyTotal, &sub.ChecksumPartyListTotal,
		&sub.SessionID, &sub.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	return &sub, nil
}

func collectSubmissions(rows *sql.Rows) ([]*Submission, error) {
	var out []*Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}
