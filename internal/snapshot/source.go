package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	"sheetwatch/internal/reconcile"
	"sheetwatch/internal/station"
	"sheetwatch/internal/submission"
)

// StationSource lists every station.
type StationSource interface {
	List(ctx context.Context) ([]*station.Station, error)
}

// SubmissionSource lists every submission.
type SubmissionSource interface {
	List(ctx context.Context) ([]*submission.Submission, error)
}

// TallySource lists every tally.
type TallySource interface {
	List(ctx context.Context) ([]*reconcile.Tally, error)
}

// Source reads the three datasets as one mutually consistent view. The
// builder assumes every submission it sees resolves to a station and carries
// all of its tallies; a torn read breaks that.
type Source interface {
	Load(ctx context.Context) (Input, error)
}

// StoreSource reads the stores directly, for the single-process in-memory
// setup. Reads run in the order submissions, tallies, stations: all three
// stores only grow, so each later read is a superset of everything the
// earlier reads reference.
type StoreSource struct {
	stations    StationSource
	submissions SubmissionSource
	tallies     TallySource
}

func NewStoreSource(stations StationSource, submissions SubmissionSource, tallies TallySource) *StoreSource {
	return &StoreSource{stations: stations, submissions: submissions, tallies: tallies}
}

func (s *StoreSource) Load(ctx context.Context) (Input, error) {
	var in Input
	var err error
	if in.Submissions, err = s.submissions.List(ctx); err != nil {
		return Input{}, err
	}
	if in.Tallies, err = s.tallies.List(ctx); err != nil {
		return Input{}, err
	}
	if in.Stations, err = s.stations.List(ctx); err != nil {
		return Input{}, err
	}
	return in, nil
}

// PostgresSource loads the three datasets inside one REPEATABLE READ
// read-only transaction, so every run builds from a single database
// snapshot. The transaction takes no row locks and never blocks writers.
type PostgresSource struct {
	db          *sql.DB
	stations    *station.PostgresStore
	submissions *submission.PostgresStore
	tallies     *reconcile.PostgresTallyStore
}

func NewPostgresSource(db *sql.DB, stations *station.PostgresStore, submissions *submission.PostgresStore, tallies *reconcile.PostgresTallyStore) *PostgresSource {
	return &PostgresSource{db: db, stations: stations, submissions: submissions, tallies: tallies}
}

func (s *PostgresSource) Load(ctx context.Context) (Input, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return Input{}, fmt.Errorf("begin snapshot read: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var in Input
	if in.Stations, err = s.stations.ListTx(ctx, tx); err != nil {
		return Input{}, err
	}
	if in.Submissions, err = s.submissions.ListTx(ctx, tx); err != nil {
		return Input{}, err
	}
	if in.Tallies, err = s.tallies.ListTx(ctx, tx); err != nil {
		return Input{}, err
	}
	if err := tx.Commit(); err != nil {
		return Input{}, fmt.Errorf("close snapshot read: %w", err)
	}
	return in, nil
}
