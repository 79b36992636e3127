package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrReplayNotFound is returned when a replay lookup yields no results.
var ErrReplayNotFound = errors.New("replay not found")

// ErrReplayExists is returned when a replay with the same checksum and
// content version is archived twice.
var ErrReplayExists = errors.New("replay already archived")

// ReplayRecord is one archived replay run.
type ReplayRecord struct {
	ID uuid.UUID
	// Name is the replay's own name.
	Name string
	P1   string
	P2   string
	// Frames is the number of simulated frames.
	Frames int
	// Checksum is the hex SHA-256 of the run's journal.
	Checksum string
	// ContentVersion identifies the move lists the run used.
	ContentVersion string
	// Source is the replay YAML exactly as it was run.
	Source    []byte
	CreatedAt time.Time
}

// ReplayRepository persists replay runs so later runs can be compared
// against a known-good checksum.
type ReplayRepository struct {
	db *pgxpool.Pool
}

// NewReplayRepository creates a ReplayRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewReplayRepository(db *pgxpool.Pool) *ReplayRepository {
	return &ReplayRepository{db: db}
}

// Save inserts rec. A zero ID is replaced with a new random UUID.
//
// Precondition: rec.Checksum and rec.Name are non-empty.
// Postcondition: Returns the stored record with ID and CreatedAt set, or
// ErrReplayExists for a duplicate (checksum, content_version) pair.
func (r *ReplayRepository) Save(ctx context.Context, rec ReplayRecord) (ReplayRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO replays (id, name, p1, p2, frames, checksum, content_version, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		rec.ID, rec.Name, rec.P1, rec.P2, rec.Frames, rec.Checksum, rec.ContentVersion, rec.Source,
	).Scan(&rec.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ReplayRecord{}, ErrReplayExists
		}
		return ReplayRecord{}, fmt.Errorf("inserting replay: %w", err)
	}
	return rec, nil
}

// Get retrieves a replay by id.
//
// Postcondition: Returns the record or ErrReplayNotFound.
func (r *ReplayRepository) Get(ctx context.Context, id uuid.UUID) (ReplayRecord, error) {
	rows, err := r.db.Query(ctx, selectReplay+` WHERE id = $1`, id)
	if err != nil {
		return ReplayRecord{}, fmt.Errorf("querying replay: %w", err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, scanReplay)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReplayRecord{}, ErrReplayNotFound
		}
		return ReplayRecord{}, fmt.Errorf("scanning replay: %w", err)
	}
	return rec, nil
}

// LatestByName returns the most recently archived run of the named replay.
//
// Postcondition: Returns the record or ErrReplayNotFound.
func (r *ReplayRepository) LatestByName(ctx context.Context, name string) (ReplayRecord, error) {
	rows, err := r.db.Query(ctx, selectReplay+` WHERE name = $1 ORDER BY created_at DESC LIMIT 1`, name)
	if err != nil {
		return ReplayRecord{}, fmt.Errorf("querying replay: %w", err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, scanReplay)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReplayRecord{}, ErrReplayNotFound
		}
		return ReplayRecord{}, fmt.Errorf("scanning replay: %w", err)
	}
	return rec, nil
}

// FindByChecksum returns every archived run with the given checksum, oldest
// first. An empty result is not an error.
func (r *ReplayRepository) FindByChecksum(ctx context.Context, checksum string) ([]ReplayRecord, error) {
	rows, err := r.db.Query(ctx, selectReplay+` WHERE checksum = $1 ORDER BY created_at, id`, checksum)
	if err != nil {
		return nil, fmt.Errorf("querying replays: %w", err)
	}
	recs, err := pgx.CollectRows(rows, scanReplay)
	if err != nil {
		return nil, fmt.Errorf("scanning replays: %w", err)
	}
	return recs, nil
}

const selectReplay = `SELECT id, name, p1, p2, frames, checksum, content_version, source, created_at FROM replays`

func scanReplay(row pgx.CollectableRow) (ReplayRecord, error) {
	var rec ReplayRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.P1, &rec.P2, &rec.Frames,
		&rec.Checksum, &rec.ContentVersion, &rec.Source, &rec.CreatedAt)
	return rec, err
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// SQLSTATE 23505 is unique_violation.
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
