package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeResultsFile(t *testing.T, dir, name, doc string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

const erroringDoc = `{
  "run_info": {"os": "linux"},
  "results": [
    {"test": "/a/test.html", "test_type": "testharness", "status": "ERROR"}
  ]
}`

func TestUpdate_WritesTable(t *testing.T) {
	dir := t.TempDir()
	metaRoot := filepath.Join(dir, "meta")
	results := writeResultsFile(t, dir, "linux.json", erroringDoc)

	buf := &bytes.Buffer{}
	cmd := NewUpdateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{metaRoot, results})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "written")

	table, err := os.ReadFile(filepath.Join(metaRoot, "a", "test.html.ini"))
	require.NoError(t, err)
	assert.Contains(t, string(table), "expected: ERROR")
}

func TestUpdate_DryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	metaRoot := filepath.Join(dir, "meta")
	results := writeResultsFile(t, dir, "linux.json", erroringDoc)

	buf := &bytes.Buffer{}
	cmd := NewUpdateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{metaRoot, results, "--dry-run"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "not written")
	assert.NoFileExists(t, filepath.Join(metaRoot, "a", "test.html.ini"))
}

func TestUpdate_JSONSummary(t *testing.T) {
	dir := t.TempDir()
	metaRoot := filepath.Join(dir, "meta")
	results := writeResultsFile(t, dir, "linux.json", erroringDoc)

	buf := &bytes.Buffer{}
	cmd := NewUpdateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{metaRoot, results})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, data["runs"])
}

func TestUpdate_NoRunsGiven(t *testing.T) {
	cmd := NewUpdateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestUpdate_FromDBRequiresDB(t *testing.T) {
	cmd := NewUpdateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{t.TempDir(), "--from-db", "some-run"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--from-db requires --db")
}

func TestUpdate_MalformedDocumentRejected(t *testing.T) {
	dir := t.TempDir()
	results := writeResultsFile(t, dir, "bad.json", `{"results": []}`)

	buf := &bytes.Buffer{}
	cmd := NewUpdateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(dir, "meta"), results})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImportThenUpdateFromDB(t *testing.T) {
	dir := t.TempDir()
	metaRoot := filepath.Join(dir, "meta")
	db := filepath.Join(dir, "runs.db")
	results := writeResultsFile(t, dir, "linux.json", erroringDoc)

	// Journal the document.
	importBuf := &bytes.Buffer{}
	importCmd := NewImportCommand(&RootOptions{Format: "json"})
	importCmd.SetOut(importBuf)
	importCmd.SetArgs([]string{"--db", db, results})
	require.NoError(t, importCmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(importBuf.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	imported, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, imported, 1)
	runID, ok := imported[0].(map[string]any)["run_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, runID)

	// The journal lists it.
	runsBuf := &bytes.Buffer{}
	runsCmd := NewRunsCommand(&RootOptions{Format: "text"})
	runsCmd.SetOut(runsBuf)
	runsCmd.SetArgs([]string{"--db", db})
	require.NoError(t, runsCmd.Execute())
	assert.Contains(t, runsBuf.String(), runID)
	assert.Contains(t, runsBuf.String(), "os=linux")

	// Replaying it reconciles the same table the document would.
	updateBuf := &bytes.Buffer{}
	updateCmd := NewUpdateCommand(&RootOptions{Format: "text"})
	updateCmd.SetOut(updateBuf)
	updateCmd.SetArgs([]string{metaRoot, "--db", db, "--from-db", runID})
	require.NoError(t, updateCmd.Execute())

	table, err := os.ReadFile(filepath.Join(metaRoot, "a", "test.html.ini"))
	require.NoError(t, err)
	assert.Contains(t, string(table), "expected: ERROR")
}
