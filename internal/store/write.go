package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/parabola/internal/fingerprint"
)

// Run is one recorded integration call.
//
// Request is the fingerprint of the fields that determine Value; WriteRun
// computes it.
type Run struct {
	ID         string        `json:"id"`
	Request    string        `json:"request"`
	Seq        int64         `json:"seq"`
	Integrand  string        `json:"integrand"`
	Lower      float64       `json:"lower"`
	Upper      float64       `json:"upper"`
	Iterations int           `json:"iterations"`
	Mode       string        `json:"mode"`
	Workers    int           `json:"workers"`
	Tier       int           `json:"tier"`
	Precision  uint32        `json:"precision,omitempty"`
	Value      string        `json:"value"`
	Duration   time.Duration `json:"duration_ns"`
}

// WriteRun records run and returns it with its ID and seq filled in.
//
// An empty ID is replaced by the store's generator. seq is always assigned
// by the store, one past the highest seq already written. Uses
// ON CONFLICT(id) DO NOTHING for idempotency: rewriting an existing ID is a
// no-op that returns the stored record.
func (s *Store) WriteRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = s.ids.Generate()
	}

	request, err := run.Fingerprint().Hash()
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	run.Request = request

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	if existing, err := readRun(ctx, tx, run.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, request, seq, integrand, lower, upper, iterations, mode, workers, tier, precision, value, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Request,
		run.Seq,
		run.Integrand,
		run.Lower,
		run.Upper,
		run.Iterations,
		run.Mode,
		run.Workers,
		run.Tier,
		run.Precision,
		run.Value,
		run.Duration.Nanoseconds(),
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}

// Fingerprint returns the request identity of run.
func (r Run) Fingerprint() fingerprint.Request {
	return fingerprint.Request{
		Integrand:  r.Integrand,
		Lower:      r.Lower,
		Upper:      r.Upper,
		Iterations: r.Iterations,
		Mode:       r.Mode,
		Tier:       r.Tier,
		Precision:  r.Precision,
	}
}
