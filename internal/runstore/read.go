package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/verdictlab/verdict/internal/manifest"
	"github.com/verdictlab/verdict/internal/report"
)

// RunMeta describes one journaled run.
type RunMeta struct {
	ID        string
	CreatedAt time.Time
	Info      manifest.RunInfo
}

// ErrRunNotFound is returned by LoadRun for an unknown run ID.
var ErrRunNotFound = fmt.Errorf("run not found")

// ListRuns returns every journaled run in creation order. Ordering is on
// id, which is time-ordered by construction; returns an empty slice, not
// nil, when the journal is empty.
func (s *Store) ListRuns(ctx context.Context) ([]RunMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, run_info
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunMeta{}
	for rows.Next() {
		var meta RunMeta
		var createdAt, infoJSON string
		if err := rows.Scan(&meta.ID, &createdAt, &infoJSON); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if meta.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("run %s: parse created_at: %w", meta.ID, err)
		}
		if meta.Info, err = unmarshalRunInfo(infoJSON); err != nil {
			return nil, fmt.Errorf("run %s: %w", meta.ID, err)
		}
		runs = append(runs, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// LoadRun replays one journaled run back into a report.Run, in the exact
// order it was appended.
func (s *Store) LoadRun(ctx context.Context, runID string) (*report.Run, error) {
	var infoJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT run_info FROM runs WHERE id = ?
	`, runID).Scan(&infoJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	info, err := unmarshalRunInfo(infoJSON)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT test, test_type, reftype, refurl, subtest, status
		FROM results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	run := &report.Run{Info: info}
	for rows.Next() {
		var test, testType, refType, refURL, subtest, status string
		if err := rows.Scan(&test, &testType, &refType, &refURL, &subtest, &status); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}

		if subtest == "" {
			run.Results = append(run.Results, report.TestResult{
				Test:     test,
				TestType: testType,
				RefType:  refType,
				RefURL:   refURL,
				Status:   status,
			})
			continue
		}

		// Subtest rows always follow their test-level row at higher seq.
		if len(run.Results) == 0 {
			return nil, fmt.Errorf("run %s: subtest row %q before any test row", runID, subtest)
		}
		last := &run.Results[len(run.Results)-1]
		last.Subtests = append(last.Subtests, report.SubtestResult{Name: subtest, Status: status})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return run, nil
}
