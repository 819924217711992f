package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresStore persists incident reports and custody events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AppendIncident(ctx context.Context, r *IncidentReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incident_reports (id, station_id, type, note, media_keys, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.StationID, r.Type, r.Note, pq.Array(r.MediaKeys), r.SessionID, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("append incident report: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendCustody(ctx context.Context, e *CustodyEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO custody_events (id, station_id, type, note, media_keys, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.StationID, e.Type, e.Note, pq.Array(e.MediaKeys), e.SessionID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append custody event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListIncidentsByStation(ctx context.Context, stationID int64) ([]*IncidentReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station_id, type, note, media_keys, session_id, created_at
		FROM incident_reports WHERE station_id = $1 ORDER BY created_at, id`, stationID)
	if err != nil {
		return nil, fmt.Errorf("list incidents by station: %w", err)
	}
	defer rows.Close()
	return collectIncidents(rows)
}

func (s *PostgresStore) ListCustodyByStation(ctx context.Context, stationID int64) ([]*CustodyEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station_id, type, note, media_keys, session_id, created_at
		FROM custody_events WHERE station_id = $1 ORDER BY created_at, id`, stationID)
	if err != nil {
		return nil, fmt.Errorf("list custody by station: %w", err)
	}
	defer rows.Close()
	return collectCustody(rows)
}

func (s *PostgresStore) ListIncidentsBySession(ctx context.Context, sessionID string, since time.Time) ([]*IncidentReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station_id, type, note, media_keys, session_id, created_at
		FROM incident_reports WHERE session_id = $1 AND created_at >= $2 ORDER BY created_at, id`,
		sessionID, since)
	if err != nil {
		return nil, fmt.Errorf("list incidents by session: %w", err)
	}
	defer rows.Close()
	return collectIncidents(rows)
}

func (s *PostgresStore) ListCustodyBySession(ctx context.Context, sessionID string, since time.Time) ([]*CustodyEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station_id, type, note, media_keys, session_id, created_at
		FROM custody_events WHERE session_id = $1 AND created_at >= $2 ORDER BY created_at, id`,
		sessionID, since)
	if err != nil {
		return nil, fmt.Errorf("list custody by session: %w", err)
	}
	defer rows.Close()
	return collectCustody(rows)
}

func collectIncidents(rows *sql.Rows) ([]*IncidentReport, error) {
	var out []*IncidentReport
	for rows.Next() {
		var r IncidentReport
		if err := rows.Scan(&r.ID, &r.StationID, &r.Type, &r.Note, pq.Array(&r.MediaKeys), &r.SessionID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan incident report: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incident reports: %w", err)
	}
	return out, nil
}

func collectCustody(rows *sql.Rows) ([]*CustodyEvent, error) {
	var out []*CustodyEvent
	for rows.Next() {
		var e CustodyEvent
		if err := rows.Scan(&e.ID, &e.StationID, &e.Type, &e.Note, pq.Array(&e.MediaKeys), &e.SessionID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan custody event: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate custody events: %w", err)
	}
	return out, nil
}
