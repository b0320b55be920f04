package metadata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/verdictlab/verdict/internal/manifest"
	"github.com/verdictlab/verdict/internal/report"
	"github.com/verdictlab/verdict/internal/syntax"
)

// UpdateOptions controls an update pass.
type UpdateOptions struct {
	// DryRun reconciles in memory and reports what would change without
	// touching any table file.
	DryRun bool

	// ClearExisting drops every stored expectation before recording, so
	// the run evidence rebuilds the tables from scratch.
	ClearExisting bool
}

// FileSummary reports the outcome of reconciling one table.
type FileSummary struct {
	TestPath string `json:"test_path"`
	Path     string `json:"path"`
	Modified bool   `json:"modified"`
	Written  bool   `json:"written"`
	Removed  bool   `json:"removed"`
}

// Update folds one or more observed runs into the expectation tables under
// metadataRoot.
//
// Evidence is grouped per test file, recorded one result at a time, then
// coalesced per node once every run has been consumed. Tests and subtests
// not yet present in a table are synthesized on first evidence; results
// for tests a table disables under the run's environment are skipped.
// After coalescing, empty nodes are pruned and only tables whose stored
// expectations changed are rewritten - a table left with no sections is
// removed entirely.
func Update(metadataRoot string, runs []report.Run, opts UpdateOptions) ([]FileSummary, error) {
	type placed struct {
		info   manifest.RunInfo
		result report.TestResult
	}

	byPath := make(map[string][]placed)
	var pathOrder []string
	for _, run := range runs {
		for _, res := range run.Results {
			p := TestPath(res.Test)
			if _, ok := byPath[p]; !ok {
				pathOrder = append(pathOrder, p)
			}
			byPath[p] = append(byPath[p], placed{info: run.Info, result: res})
		}
	}

	var summaries []FileSummary
	for _, testPath := range pathOrder {
		m, err := Load(metadataRoot, testPath)
		if err != nil {
			return nil, err
		}
		if m == nil {
			m = manifest.NewExpectedManifest(testPath)
		}

		if opts.ClearExisting {
			for _, t := range m.Tests() {
				t.ClearExpected()
			}
		}

		for _, pl := range byPath[testPath] {
			if err := record(m, pl.info, pl.result); err != nil {
				return nil, fmt.Errorf("table %s: %w", testPath, err)
			}
		}

		for _, t := range m.Tests() {
			if err := t.Coalesce(); err != nil {
				return nil, fmt.Errorf("table %s: test %s: %w", testPath, t.ID(), err)
			}
			for _, s := range t.Subtests() {
				if err := s.Coalesce(); err != nil {
					return nil, fmt.Errorf("table %s: test %s: %w", testPath, t.ID(), err)
				}
			}
		}

		prune(m)

		summary := FileSummary{
			TestPath: testPath,
			Path:     ExpectedPath(metadataRoot, testPath),
			Modified: m.Modified,
		}
		if m.Modified && !opts.DryRun {
			if err := write(m, summary.Path, &summary); err != nil {
				return nil, err
			}
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func record(m *manifest.ExpectedManifest, info manifest.RunInfo, res report.TestResult) error {
	id := res.ID()
	t, err := m.GetTest(id)
	if manifest.IsUnknownTest(err) {
		t = manifest.NewTestNode(res.TestType, id)
		if err := m.AppendTest(t); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	disabled, err := t.Disabled(info)
	if err != nil {
		return err
	}
	if disabled {
		return nil
	}

	if err := t.RecordResult(info, res.Status, DefaultExpected(res.TestType, false)); err != nil {
		return err
	}
	for _, sub := range res.Subtests {
		s := t.GetOrCreateSubtest(sub.Name)
		if err := s.RecordResult(info, sub.Status, DefaultExpected(res.TestType, true)); err != nil {
			return err
		}
	}
	return nil
}

// prune removes nodes that carry no information beyond their required
// attributes. The engine itself never deletes; this is the external
// pruning pass it defers to.
func prune(m *manifest.ExpectedManifest) {
	tests := append([]*manifest.TestNode(nil), m.Tests()...)
	for _, t := range tests {
		for _, s := range t.Subtests() {
			if s.IsEmpty() {
				t.RemoveSubtest(s)
			}
		}
		if t.IsEmpty() {
			m.RemoveTest(t)
		}
	}
}

func write(m *manifest.ExpectedManifest, path string, summary *FileSummary) error {
	if len(m.Tests()) == 0 {
		err := os.Remove(path)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("remove empty table: %w", err)
		}
		summary.Removed = true
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create table directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	if err := syntax.Serialize(f, m.Node()); err != nil {
		f.Close()
		return fmt.Errorf("serialize table %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	summary.Written = true
	return nil
}
