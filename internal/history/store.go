// Package history records check-run summaries in PostgreSQL.
//
// Only the summary is stored: file name, content digest, counts, timing.
// The uploaded CSV itself is never persisted anywhere.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Run is one recorded check run.
type Run struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	SHA256     string    `json:"sha256"`
	Records    int       `json:"records"`
	Violations int       `json:"violations"`
	DurationMS int64     `json:"durationMs"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// Store persists check runs through a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates the history table if it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS check_runs (
			id          UUID PRIMARY KEY,
			file_name   TEXT NOT NULL,
			sha256      TEXT NOT NULL,
			records     INTEGER NOT NULL,
			violations  INTEGER NOT NULL,
			duration_ms BIGINT NOT NULL,
			checked_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create check_runs table: %w", err)
	}
	return nil
}

// RecordRun inserts one run summary.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO check_runs (id, file_name, sha256, records, violations, duration_ms, checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.FileName, run.SHA256, run.Records, run.Violations, run.DurationMS, run.CheckedAt)
	if err != nil {
		return fmt.Errorf("insert check run: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, file_name, sha256, records, violations, duration_ms, checked_at
		FROM check_runs
		ORDER BY checked_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query check runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.FileName, &run.SHA256,
			&run.Records, &run.Violations, &run.DurationMS, &run.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan check run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check runs: %w", err)
	}
	return runs, nil
}
