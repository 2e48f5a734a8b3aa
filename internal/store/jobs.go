package store

import (
	"context"
	"fmt"
)

// JobResult is the output of one circuit within a job. Seq orders the
// circuits of a job as they were dispatched.
type JobResult struct {
	JobID       string
	Seq         int64
	Circuit     string
	Accelerator string
	Output      string
}

// WriteJobResults stores the results of one job in a single transaction.
// Uses ON CONFLICT DO NOTHING so a replayed write is ignored.
func (s *Store) WriteJobResults(ctx context.Context, results []JobResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write job results: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, r := range results {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO job_results (job_id, seq, circuit, accelerator, output)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, r.JobID, r.Seq, r.Circuit, r.Accelerator, r.Output)
		if err != nil {
			return fmt.Errorf("write job results: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write job results: commit: %w", err)
	}
	return nil
}

// ReadJobResults returns the results of jobID ordered by seq.
// Returns an empty slice (not nil) for an unknown job.
func (s *Store) ReadJobResults(ctx context.Context, jobID string) ([]JobResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, seq, circuit, accelerator, output
		FROM job_results
		WHERE job_id = ?
		ORDER BY seq ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query job results: %w", err)
	}
	defer rows.Close()

	results := []JobResult{}
	for rows.Next() {
		var r JobResult
		if err := rows.Scan(&r.JobID, &r.Seq, &r.Circuit, &r.Accelerator, &r.Output); err != nil {
			return nil, fmt.Errorf("scan job result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job results: %w", err)
	}
	return results, nil
}
