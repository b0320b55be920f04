// Package report decodes harness results logs into runs the updater can
// reconcile: one run-info environment descriptor plus the observed statuses
// for every test and subtest executed under it.
package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/verdictlab/verdict/internal/expr"
	"github.com/verdictlab/verdict/internal/manifest"
)

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("report.json", schemaJSON)

// SubtestResult is one observed subtest outcome.
type SubtestResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// TestResult is one observed test outcome, plus the identity attributes
// needed to locate its expectation record.
type TestResult struct {
	Test     string          `json:"test"`
	TestType string          `json:"test_type"`
	RefType  string          `json:"reftype,omitempty"`
	RefURL   string          `json:"refurl,omitempty"`
	Status   string          `json:"status"`
	Subtests []SubtestResult `json:"subtests,omitempty"`
}

// ID returns the test identity: the URL alone for ordinary tests, the
// (URL, comparison kind, reference URL) triple for reftest comparisons.
func (r TestResult) ID() manifest.TestID {
	if r.TestType == manifest.TestTypeReftest {
		return manifest.TestID{URL: r.Test, RefType: r.RefType, RefURL: r.RefURL}
	}
	return manifest.TestID{URL: r.Test}
}

// Run is one harness execution: every result observed under one
// environment.
type Run struct {
	Info    manifest.RunInfo
	Results []TestResult
}

// rawRun mirrors the JSON document before run-info values are narrowed to
// the engine's value kinds.
type rawRun struct {
	RunInfo map[string]any `json:"run_info"`
	Results []TestResult   `json:"results"`
}

// Decode validates a results document against the embedded schema and
// decodes it into a Run.
//
// Validation happens before decoding so malformed documents fail with a
// schema path rather than a half-decoded run.
func Decode(r io.Reader) (*Run, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}

	var doc any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid results document: %w", err)
	}

	var raw rawRun
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	info, err := RunInfoFromMap(raw.RunInfo)
	if err != nil {
		return nil, err
	}
	return &Run{Info: info, Results: raw.Results}, nil
}

// RunInfoFromMap narrows loosely typed property values to the engine's
// value kinds. Strings, booleans, and integers are accepted; anything else
// (floats included) is a data error - fractional values like OS versions
// must arrive as strings.
func RunInfoFromMap(m map[string]any) (manifest.RunInfo, error) {
	info := make(manifest.RunInfo, len(m))
	for name, v := range m {
		value, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("run_info property %q: %w", name, err)
		}
		info[name] = value
	}
	return info, nil
}

func toValue(v any) (expr.Value, error) {
	switch val := v.(type) {
	case string:
		return expr.String(val), nil
	case bool:
		return expr.Bool(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("only integers are supported, got %s", val)
		}
		return expr.Int(n), nil
	case int:
		return expr.Int(int64(val)), nil
	case int64:
		return expr.Int(val), nil
	case float64:
		// Round-trip through encoding/json without UseNumber lands here;
		// accept exact integers only.
		if val == float64(int64(val)) {
			return expr.Int(int64(val)), nil
		}
		return nil, fmt.Errorf("only integers are supported, got %v", val)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
