package runstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verdictlab/verdict/internal/manifest"
	"github.com/verdictlab/verdict/internal/report"
)

// BeginRun journals a new run and returns its ID. IDs are UUIDv7, so
// lexicographic order on id matches creation order.
func (s *Store) BeginRun(ctx context.Context, info manifest.RunInfo) (string, error) {
	infoJSON, err := marshalRunInfo(info)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}

	id := uuid.Must(uuid.NewV7()).String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, run_info)
		VALUES (?, ?, ?)
	`,
		id,
		time.Now().UTC().Format(time.RFC3339),
		infoJSON,
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}

	return id, nil
}

// AppendResult journals one observed test outcome under a run: a test-level
// row followed by one row per subtest, at consecutive seq values.
//
// The run referenced by runID must exist (foreign key constraint). The
// insert-and-number step runs in a transaction so concurrent appends never
// interleave a test row and its subtest rows.
func (s *Store) AppendResult(ctx context.Context, runID string, res report.TestResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append result: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), -1) + 1 FROM results WHERE run_id = ?
	`, runID).Scan(&seq)
	if err != nil {
		return fmt.Errorf("append result: next seq: %w", err)
	}

	insert := func(subtest, status string) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO results
			(run_id, seq, test, test_type, reftype, refurl, subtest, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			runID, seq, res.Test, res.TestType, res.RefType, res.RefURL, subtest, status,
		)
		seq++
		return err
	}

	if err := insert("", res.Status); err != nil {
		return fmt.Errorf("append result: %w", err)
	}
	for _, sub := range res.Subtests {
		if err := insert(sub.Name, sub.Status); err != nil {
			return fmt.Errorf("append result: subtest %q: %w", sub.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append result: commit: %w", err)
	}
	return nil
}

// ImportRun journals a decoded results document as one run and returns the
// new run's ID.
func (s *Store) ImportRun(ctx context.Context, run *report.Run) (string, error) {
	id, err := s.BeginRun(ctx, run.Info)
	if err != nil {
		return "", err
	}
	for _, res := range run.Results {
		if err := s.AppendResult(ctx, id, res); err != nil {
			return "", err
		}
	}
	return id, nil
}
