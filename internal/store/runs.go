// ABOUTME: Run and pair result storage operations.
// ABOUTME: Records each generation run and the outcome of every (city, type) pair.

package store

import (
	"time"

	"github.com/google/uuid"
)

// Pair statuses.
const (
	StatusWritten = "written"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Run is one invocation of the generator.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Provider     string
	Model        string
	OutRoot      string
	PerType      int
	Cities       int
	PairsWritten int
	PairsSkipped int
	RowsWritten  int
	Failures     int
}

// PairResult is the outcome of one (city, type) pair.
type PairResult struct {
	ID          int64
	RunID       string
	Timestamp   time.Time
	CityID      string
	PartnerType string
	Status      string
	Rows        int
	Attempts    int
	Path        string
	DurationMs  int
	Error       string
}

// StartRun inserts a run and returns its generated id.
func (s *Store) StartRun(r *Run) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO runs (id, provider, model, out_root, per_type, cities)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, r.Provider, r.Model, r.OutRoot, r.PerType, r.Cities)
	if err != nil {
		return "", err
	}
	r.ID = id
	return id, nil
}

// FinishRun stores the final totals of a run.
func (s *Store) FinishRun(r *Run) error {
	_, err := s.db.Exec(`
		UPDATE runs
		SET finished_at = CURRENT_TIMESTAMP, pairs_written = ?, pairs_skipped = ?, rows_written = ?, failures = ?
		WHERE id = ?
	`, r.PairsWritten, r.PairsSkipped, r.RowsWritten, r.Failures, r.ID)
	return err
}

// RecordPair inserts a pair outcome
func (s *Store) RecordPair(p *PairResult) error {
	_, err := s.db.Exec(`
		INSERT INTO pair_results (run_id, city_id, partner_type, status, rows, attempts, path, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.RunID, p.CityID, p.PartnerType, p.Status, p.Rows, p.Attempts, p.Path, p.DurationMs, p.Error)
	return err
}

// PairQuery represents filters for pair results
type PairQuery struct {
	Limit      int
	Offset     int
	RunID      string
	CityPrefix string
	Status     string
}

// GetPairResults retrieves pair results, newest first
func (s *Store) GetPairResults(q *PairQuery) ([]*PairResult, error) {
	query := `SELECT id, run_id, timestamp, city_id, partner_type, status, rows, attempts,
	          COALESCE(path, ''), COALESCE(duration_ms, 0), COALESCE(error, '')
	          FROM pair_results WHERE 1=1`
	args := []any{}

	if q.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, q.RunID)
	}
	if q.CityPrefix != "" {
		query += ` AND city_id LIKE ? ESCAPE '\'`
		args = append(args, likePrefix(q.CityPrefix))
	}
	if q.Status != "" {
		query += " AND status = ?"
		args = append(args, q.Status)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, q.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*PairResult
	for rows.Next() {
		p := &PairResult{}
		var timestamp string
		if err := rows.Scan(&p.ID, &p.RunID, &timestamp, &p.CityID, &p.PartnerType, &p.Status,
			&p.Rows, &p.Attempts, &p.Path, &p.DurationMs, &p.Error); err != nil {
			return nil, err
		}
		p.Timestamp = parseTimestamp(timestamp)
		results = append(results, p)
	}
	return results, rows.Err()
}

// GetRuns returns the most recent runs
func (s *Store) GetRuns(limit int) ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, COALESCE(finished_at, ''), provider, model, out_root, per_type,
		       cities, pairs_written, pairs_skipped, rows_written, failures
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Provider, &r.Model, &r.OutRoot, &r.PerType,
			&r.Cities, &r.PairsWritten, &r.PairsSkipped, &r.RowsWritten, &r.Failures); err != nil {
			return nil, err
		}
		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
