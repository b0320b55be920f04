package runstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/verdictlab/verdict/internal/expr"
	"github.com/verdictlab/verdict/internal/manifest"
	"github.com/verdictlab/verdict/internal/report"
)

// createTestStore creates a store backed by a temp file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testInfo() manifest.RunInfo {
	return manifest.RunInfo{
		"os":    expr.String("linux"),
		"debug": expr.Bool(true),
		"bits":  expr.Int(64),
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"runs", "results"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	id, err := s1.BeginRun(context.Background(), testInfo())
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	if _, err := s2.LoadRun(context.Background(), id); err != nil {
		t.Errorf("LoadRun() after reopen failed: %v", err)
	}
}

func TestRoundTrip_RunSurvivesJournal(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := &report.Run{
		Info: testInfo(),
		Results: []report.TestResult{
			{
				Test:     "/a/test.html",
				TestType: "testharness",
				Status:   "OK",
				Subtests: []report.SubtestResult{
					{Name: "first assertion", Status: "PASS"},
					{Name: "second assertion", Status: "FAIL"},
				},
			},
			{
				Test:     "/a/ref.html",
				TestType: "reftest",
				RefType:  "==",
				RefURL:   "/a/ref-match.html",
				Status:   "FAIL",
			},
		},
	}

	id, err := s.ImportRun(ctx, want)
	if err != nil {
		t.Fatalf("ImportRun() failed: %v", err)
	}

	got, err := s.LoadRun(ctx, id)
	if err != nil {
		t.Fatalf("LoadRun() failed: %v", err)
	}

	if len(got.Results) != len(want.Results) {
		t.Fatalf("LoadRun() returned %d results, want %d", len(got.Results), len(want.Results))
	}
	for i := range want.Results {
		w, g := want.Results[i], got.Results[i]
		if g.Test != w.Test || g.TestType != w.TestType || g.Status != w.Status ||
			g.RefType != w.RefType || g.RefURL != w.RefURL {
			t.Errorf("result %d = %+v, want %+v", i, g, w)
		}
		if len(g.Subtests) != len(w.Subtests) {
			t.Errorf("result %d has %d subtests, want %d", i, len(g.Subtests), len(w.Subtests))
			continue
		}
		for j := range w.Subtests {
			if g.Subtests[j] != w.Subtests[j] {
				t.Errorf("result %d subtest %d = %+v, want %+v", i, j, g.Subtests[j], w.Subtests[j])
			}
		}
	}

	for name, wv := range want.Info {
		gv, ok := got.Info[name]
		if !ok {
			t.Errorf("run_info property %q missing after round trip", name)
			continue
		}
		if gv != wv {
			t.Errorf("run_info property %q = %v, want %v", name, gv, wv)
		}
	}
}

func TestListRuns_CreationOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id1, err := s.BeginRun(ctx, testInfo())
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	id2, err := s.BeginRun(ctx, manifest.RunInfo{"os": expr.String("win")})
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != id1 || runs[1].ID != id2 {
		t.Errorf("ListRuns() order = [%s %s], want [%s %s]", runs[0].ID, runs[1].ID, id1, id2)
	}
	if os := runs[1].Info["os"]; os != expr.String("win") {
		t.Errorf("run 2 os = %v, want win", os)
	}
}

func TestListRuns_EmptyJournal(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if runs == nil {
		t.Error("ListRuns() returned nil, want empty slice")
	}
	if len(runs) != 0 {
		t.Errorf("ListRuns() returned %d runs, want 0", len(runs))
	}
}

func TestLoadRun_UnknownID(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadRun(context.Background(), "no-such-run")
	if err == nil {
		t.Fatal("expected error for unknown run ID, got nil")
	}
}

func TestAppendResult_UnknownRunRejected(t *testing.T) {
	s := createTestStore(t)

	err := s.AppendResult(context.Background(), "no-such-run", report.TestResult{
		Test: "/a/test.html", TestType: "testharness", Status: "OK",
	})
	if err == nil {
		t.Error("expected foreign key error for unknown run, got nil")
	}
}
