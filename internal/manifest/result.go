package manifest

import (
	"fmt"
	"path"
	"strings"

	"github.com/verdictlab/verdict/internal/expr"
)

// RunInfo describes the environment one test run executed under: a mapping
// of property name ("os", "processor", "debug", "version", "bits") to a
// string, integer, or boolean value.
//
// RunInfo is supplied by the harness once per run and is never mutated by
// the engine.
type RunInfo map[string]expr.Value

// Result is one observed outcome for one test under one environment.
type Result struct {
	Info   RunInfo
	Status string
}

// TestID identifies a test within a file.
//
// Ordinary tests are identified by URL alone. A reftest comparison is
// identified by (URL, comparison kind, reference URL) because one URL may
// host several independent reference comparisons, each with its own
// expectation record.
type TestID struct {
	URL     string
	RefType string
	RefURL  string
}

// IsZero reports whether the identity is unset.
func (id TestID) IsZero() bool {
	return id == TestID{}
}

// String renders the identity for diagnostics.
func (id TestID) String() string {
	if id.RefType == "" {
		return id.URL
	}
	return fmt.Sprintf("%s %s %s", id.URL, id.RefType, id.RefURL)
}

// TestURL derives a test URL from the table's test path and a section name:
// the path's directory components followed by the section name, rooted at /.
func TestURL(testPath, name string) string {
	dir := path.Dir(strings.ReplaceAll(testPath, "\\", "/"))
	if dir == "." {
		return "/" + name
	}
	return "/" + dir + "/" + name
}
