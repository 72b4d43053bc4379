// ABOUTME: Gateway call log storage operations.
// ABOUTME: Handles inserting and summarizing generation calls per run.

package store

import "time"

// GatewayCall represents one request to the generative service
type GatewayCall struct {
	ID            int64
	RunID         string
	Timestamp     time.Time
	Provider      string
	Model         string
	DurationMs    int
	ResponseBytes int
	FinishReason  string
	Repaired      bool
	Error         string
}

// LogCall inserts a gateway call entry
func (s *Store) LogCall(c *GatewayCall) error {
	_, err := s.db.Exec(`
		INSERT INTO gateway_calls (run_id, provider, model, duration_ms, response_bytes, finish_reason, repaired, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.RunID, c.Provider, c.Model, c.DurationMs, c.ResponseBytes, c.FinishReason, c.Repaired, c.Error)
	return err
}

// CallStats represents aggregate statistics for a run's gateway calls
type CallStats struct {
	TotalCalls     int
	ErrorCalls     int
	RepairedCalls  int
	TruncatedCalls int
	AvgDurationMs  int
	TotalBytes     int
}

// GetCallStats returns aggregate statistics for runID
func (s *Store) GetCallStats(runID string) (*CallStats, error) {
	stats := &CallStats{}
	var avg float64
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(repaired), 0),
		       COALESCE(SUM(CASE WHEN finish_reason = 'length' THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(duration_ms), 0),
		       COALESCE(SUM(response_bytes), 0)
		FROM gateway_calls
		WHERE run_id = ?
	`, runID).Scan(&stats.TotalCalls, &stats.ErrorCalls, &stats.RepairedCalls, &stats.TruncatedCalls, &avg, &stats.TotalBytes)
	if err != nil {
		return nil, err
	}
	stats.AvgDurationMs = int(avg)
	return stats, nil
}

// GetRecentCalls returns the most recent calls for a run
func (s *Store) GetRecentCalls(runID string, limit int) ([]*GatewayCall, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, provider, model, COALESCE(duration_ms, 0), COALESCE(response_bytes, 0),
		       COALESCE(finish_reason, ''), repaired, COALESCE(error, '')
		FROM gateway_calls
		WHERE run_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []*GatewayCall
	for rows.Next() {
		c := &GatewayCall{}
		var timestamp string
		if err := rows.Scan(&c.ID, &c.RunID, &timestamp, &c.Provider, &c.Model, &c.DurationMs,
			&c.ResponseBytes, &c.FinishReason, &c.Repaired, &c.Error); err != nil {
			return nil, err
		}
		c.Timestamp = parseTimestamp(timestamp)
		calls = append(calls, c)
	}
	return calls, rows.Err()
}
