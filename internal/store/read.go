package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunFilter narrows ListRuns.
type RunFilter struct {
	// Integrand restricts the listing to one integrand name (empty means all).
	Integrand string

	// Limit keeps only the most recent Limit runs (0 means no limit).
	Limit int
}

// Summary aggregates the runs of one integrand for one mode and tier.
type Summary struct {
	Integrand    string        `json:"integrand"`
	Mode         string        `json:"mode"`
	Tier         int           `json:"tier"`
	Runs         int           `json:"runs"`
	MinDuration  time.Duration `json:"min_duration_ns"`
	MeanDuration time.Duration `json:"mean_duration_ns"`
	LastValue    string        `json:"last_value"`
}

const runColumns = `id, request, seq, integrand, lower, upper, iterations, mode, workers, tier, precision, value, duration_ns`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		durationNS int64
	)
	err := row.Scan(
		&run.ID,
		&run.Request,
		&run.Seq,
		&run.Integrand,
		&run.Lower,
		&run.Upper,
		&run.Iterations,
		&run.Mode,
		&run.Workers,
		&run.Tier,
		&run.Precision,
		&run.Value,
		&durationNS,
	)
	if err != nil {
		return Run{}, err
	}
	run.Duration = time.Duration(durationNS)
	return run, nil
}

// ReadRun returns the run with the given ID, or sql.ErrNoRows (wrapped).
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	run, err := readRun(ctx, s.db, id)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

func readRun(ctx context.Context, q querier, id string) (Run, error) {
	row := q.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns recorded runs ordered by seq ASC, id ASC COLLATE BINARY.
//
// With a Limit, only the most recent runs are returned, still in ascending
// order. Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE (? = '' OR integrand = ?)`
	args := []any{filter.Integrand, filter.Integrand}

	if filter.Limit > 0 {
		query = `SELECT * FROM (` + query + ` ORDER BY seq DESC LIMIT ?)`
		args = append(args, filter.Limit)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Summaries aggregates the runs of integrand per mode and tier, ordered by
// mode then tier. LastValue is the value of the highest-seq run in the group.
func (s *Store) Summaries(ctx context.Context, integrand string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.integrand, r.mode, r.tier, COUNT(*), MIN(r.duration_ns), CAST(AVG(r.duration_ns) AS INTEGER),
			(SELECT l.value FROM runs l
			 WHERE l.integrand = r.integrand AND l.mode = r.mode AND l.tier = r.tier
			 ORDER BY l.seq DESC LIMIT 1)
		FROM runs r
		WHERE r.integrand = ?
		GROUP BY r.integrand, r.mode, r.tier
		ORDER BY r.mode ASC, r.tier ASC
	`, integrand)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var (
			sum          Summary
			minNS, avgNS int64
		)
		if err := rows.Scan(&sum.Integrand, &sum.Mode, &sum.Tier, &sum.Runs, &minNS, &avgNS, &sum.LastValue); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.MinDuration = time.Duration(minNS)
		sum.MeanDuration = time.Duration(avgNS)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}

// Conflict is a request whose recorded runs do not all agree.
type Conflict struct {
	Request   string   `json:"request"`
	Integrand string   `json:"integrand"`
	Mode      string   `json:"mode"`
	Tier      int      `json:"tier"`
	Values    []string `json:"values"`
}

// Conflicts returns the requests recorded with more than one distinct value,
// ordered by the first seq of each request. Values are sorted.
func (s *Store) Conflicts(ctx context.Context) ([]Conflict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.request, r.integrand, r.mode, r.tier, r.value,
			(SELECT MIN(f.seq) FROM runs f WHERE f.request = r.request) AS first_seq
		FROM runs r
		WHERE r.request IN (
			SELECT request FROM runs GROUP BY request HAVING COUNT(DISTINCT value) > 1
		)
		GROUP BY r.request, r.value
		ORDER BY first_seq ASC, r.value ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query conflicts: %w", err)
	}
	defer rows.Close()

	conflicts := []Conflict{}
	for rows.Next() {
		var (
			c        Conflict
			value    string
			firstSeq int64
		)
		if err := rows.Scan(&c.Request, &c.Integrand, &c.Mode, &c.Tier, &value, &firstSeq); err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}
		if n := len(conflicts); n > 0 && conflicts[n-1].Request == c.Request {
			conflicts[n-1].Values = append(conflicts[n-1].Values, value)
			continue
		}
		c.Values = []string{value}
		conflicts = append(conflicts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conflicts: %w", err)
	}
	return conflicts, nil
}
