package reconcile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PostgresTallyStore persists tallies in PostgreSQL. Score maps are JSONB.
type PostgresTallyStore struct {
	db *sql.DB
}

func NewPostgresTallyStore(db *sql.DB) *PostgresTallyStore {
	return &PostgresTallyStore{db: db}
}

func (s *PostgresTallyStore) Append(ctx context.Context, t *Tally) error {
	scoreMap, err := json.Marshal(t.ScoreMap)
	if err != nil {
		return fmt.Errorf("marshal score map: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tallies (id, submission_id, sheet_type, reviewer_id, score_map, auto_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.SubmissionID, t.SheetType, t.ReviewerID, scoreMap, t.AutoVerified, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("append tally: %w", err)
	}
	return nil
}

func (s *PostgresTallyStore) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]*Tally, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, submission_id, sheet_type, reviewer_id, score_map, auto_verified, created_at
		FROM tallies WHERE submission_id = $1 ORDER BY created_at, id`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("list tallies by submission: %w", err)
	}
	defer rows.Close()
	return collectTallies(rows)
}

func (s *PostgresTallyStore) List(ctx context.Context) ([]*Tally, error) {
	return listTallies(ctx, s.db)
}

// ListTx lists every tally through an already-open transaction.
func (s *PostgresTallyStore) ListTx(ctx context.Context, tx *sql.Tx) ([]*Tally, error) {
	return listTallies(ctx, tx)
}

func listTallies(ctx context.Context, q queryer) ([]*Tally, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, submission_id, sheet_type, reviewer_id, score_map, auto_verified, created_at
		FROM tallies ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list tallies: %w", err)
	}
	defer rows.Close()
	return collectTallies(rows)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func collectTallies(rows *sql.Rows) ([]*Tally, error) {
	var out []*Tally
	for rows.Next() {
		var t Tally
		var scoreMap []byte
		if err := rows.Scan(&t.ID, &t.SubmissionID, &t.SheetType, &t.ReviewerID, &scoreMap, &t.AutoVerified, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		if err := json.Unmarshal(scoreMap, &t.ScoreMap); err != nil {
			return nil, fmt.Errorf("unmarshal score map: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tallies: %w", err)
	}
	return out, nil
}

// PostgresLogStore persists verification log entries in PostgreSQL.
type PostgresLogStore struct {
	db *sql.DB
}

func NewPostgresLogStore(db *sql.DB) *PostgresLogStore {
	return &PostgresLogStore{db: db}
}

func (s *PostgresLogStore) Append(ctx context.Context, e *VerificationLogEntry) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("marshal log details: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_log (id, submission_id, reviewer_id, sheet_type, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.SubmissionID, e.ReviewerID, e.SheetType, e.Action, details, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append verification log entry: %w", err)
	}
	return nil
}

func (s *PostgresLogStore) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]*VerificationLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, submission_id, reviewer_id, sheet_type, action, details, created_at
		FROM verification_log WHERE submission_id = $1 ORDER BY created_at, id`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("list verification log: %w", err)
	}
	defer rows.Close()

	var out []*VerificationLogEntry
	for rows.Next() {
		var e VerificationLogEntry
		var details []byte
		if err := rows.Scan(&e.ID, &e.SubmissionID, &e.ReviewerID, &e.SheetType, &e.Action, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan verification log entry: %w", err)
		}
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("unmarshal log details: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification log: %w", err)
	}
	return out, nil
}
