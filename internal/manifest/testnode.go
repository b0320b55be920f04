package manifest

import (
	"strings"

	"github.com/verdictlab/verdict/internal/expr"
	"github.com/verdictlab/verdict/internal/node"
)

// Test types with engine-visible structure. Reftest comparisons carry the
// comparison kind and reference URL as required attributes.
const (
	TestTypeTestharness = "testharness"
	TestTypeReftest     = "reftest"
)

// trackedCondition mirrors one stored conditional entry of the "expected"
// attribute together with the new results that matched it since the last
// coalesce.
type trackedCondition struct {
	cv      *node.ConditionalValue
	results []Result
}

// TestNode holds the expectation record for one test (or one reftest
// comparison) and owns its SubtestNodes.
type TestNode struct {
	node     *node.Node
	id       TestID
	testType string

	// fileRoot is set when the node is attached to its manifest; subtests
	// reach the root through parent instead.
	fileRoot *ExpectedManifest
	parent   *TestNode

	// defaultStatus is the harness's type-implied default expectation,
	// adopted from the first recorded result.
	defaultStatus string

	// tracked mirrors the stored "expected" entries; pending buffers
	// results no stored condition matched. Both are consumed by Coalesce.
	tracked []*trackedCondition
	pending []Result

	subtests     map[string]*SubtestNode
	subtestOrder []string

	fromFile bool
}

// NewTestNode synthesizes a node for a test first seen in harness evidence
// rather than parsed from a stored table.
func NewTestNode(testType string, id TestID) *TestNode {
	name := id.URL
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	t := &TestNode{
		node:     node.New(name),
		id:       id,
		testType: testType,
		subtests: make(map[string]*SubtestNode),
	}
	t.node.Set("type", testType, nil)
	if testType == TestTypeReftest {
		t.node.Set("reftype", id.RefType, nil)
		t.node.Set("refurl", id.RefURL, nil)
	}
	return t
}

// Node returns the underlying section node.
func (t *TestNode) Node() *node.Node { return t.node }

// ID returns the test identity.
func (t *TestNode) ID() TestID { return t.id }

// TestType returns the type attribute fixed at creation.
func (t *TestNode) TestType() string { return t.testType }

// Name returns the section name (the last URL component for tests, the
// subtest name for subtests).
func (t *TestNode) Name() string { return t.node.Name() }

// FromFile reports whether the node came from parsed table text rather
// than being synthesized from evidence.
func (t *TestNode) FromFile() bool { return t.fromFile }

// DefaultStatus returns the type-implied default expectation adopted from
// the first recorded result, or "" before any evidence.
func (t *TestNode) DefaultStatus() string { return t.defaultStatus }

// root walks to the owning manifest, if attached.
func (t *TestNode) root() *ExpectedManifest {
	n := t
	for n.parent != nil {
		n = n.parent
	}
	return n.fileRoot
}

func (t *TestNode) markModified() {
	if m := t.root(); m != nil {
		m.Modified = true
	}
}

// RecordResult feeds one observed outcome into the node. defaultExpected is
// the harness's type-implied default status for this test; it must agree
// across every result ever recorded for the node.
//
// Recording is append-only and order-preserving: the result is bucketed
// under the first stored condition that matches the run-info (mirroring how
// the table is evaluated at run time), or into the pending pool when none
// does. Stored entries are never rewritten here; that is Coalesce's job.
func (t *TestNode) RecordResult(info RunInfo, status, defaultExpected string) error {
	if t.defaultStatus != "" {
		if t.defaultStatus != defaultExpected {
			return t.inconsistentDefaultError(defaultExpected)
		}
	} else {
		t.defaultStatus = defaultExpected
	}

	for _, tc := range t.tracked {
		matched := true
		if tc.cv.Condition != nil {
			ok, err := expr.EvalBool(tc.cv.Condition, info)
			if err != nil {
				return err
			}
			matched = ok
		}
		if matched {
			tc.results = append(tc.results, Result{Info: info, Status: status})
			if status != tc.cv.Value {
				t.markModified()
			}
			return nil
		}
	}

	t.pending = append(t.pending, Result{Info: info, Status: status})
	t.markModified()
	return nil
}

func (t *TestNode) inconsistentDefaultError(got string) *ReconcileError {
	id := t.id
	subtest := ""
	if t.parent != nil {
		id = t.parent.id
		subtest = t.Name()
	}
	return newInconsistentDefaultError(id, subtest, t.defaultStatus, got)
}

// GetOrCreateSubtest returns the subtest with the given name, creating,
// attaching, and returning a new empty one when absent. Idempotent by name.
func (t *TestNode) GetOrCreateSubtest(name string) *SubtestNode {
	if s, ok := t.subtests[name]; ok {
		return s
	}
	s := NewSubtestNode(name)
	t.appendSubtest(s)
	return s
}

func (t *TestNode) appendSubtest(s *SubtestNode) {
	s.parent = t
	t.node.AppendChild(s.node)
	t.subtests[s.Name()] = s
	t.subtestOrder = append(t.subtestOrder, s.Name())
}

// RemoveSubtest detaches an owned subtest. Used by the external pruning
// pass; the engine itself never deletes nodes.
func (t *TestNode) RemoveSubtest(s *SubtestNode) {
	if t.subtests[s.Name()] != s {
		return
	}
	delete(t.subtests, s.Name())
	for i, name := range t.subtestOrder {
		if name == s.Name() {
			t.subtestOrder = append(t.subtestOrder[:i], t.subtestOrder[i+1:]...)
			break
		}
	}
	t.node.RemoveChild(s.node)
	s.parent = nil
}

// Subtests returns the owned subtests in attachment order.
func (t *TestNode) Subtests() []*SubtestNode {
	out := make([]*SubtestNode, 0, len(t.subtestOrder))
	for _, name := range t.subtestOrder {
		out = append(out, t.subtests[name])
	}
	return out
}

// Disabled reports whether a "disabled" attribute matches the run-info.
// Disabled tests produce no meaningful statuses, so the updater skips their
// results.
func (t *TestNode) Disabled(info RunInfo) (bool, error) {
	_, found, err := t.node.Get("disabled", info)
	if err != nil {
		return false, err
	}
	return found, nil
}

// IsEmpty reports whether the node carries nothing beyond its required
// structural attributes and every subtest is also empty. Emptiness is a
// query for an external pruning pass; the engine never deletes nodes.
func (t *TestNode) IsEmpty() bool {
	required := map[string]bool{"type": true}
	if t.testType == TestTypeReftest {
		required["reftype"] = true
		required["refurl"] = true
	}
	keys := t.node.Keys()
	if len(keys) != len(required) {
		return false
	}
	for _, k := range keys {
		if !required[k] {
			return false
		}
	}
	for _, s := range t.Subtests() {
		if !s.IsEmpty() {
			return false
		}
	}
	return true
}

// ClearExpected drops the stored expected attribute and all evidence
// bookkeeping, on this node and every subtest. Used when a caller wants the
// next update to rebuild expectations from scratch.
func (t *TestNode) ClearExpected() {
	t.tracked = nil
	t.pending = nil
	if t.node.HasKey("expected") {
		t.node.RemoveKey("expected")
		t.markModified()
	}
	for _, s := range t.Subtests() {
		s.ClearExpected()
	}
}

// SubtestNode is a TestNode scoped under a parent test, keyed by subtest
// name.
type SubtestNode struct {
	TestNode
}

// NewSubtestNode synthesizes a subtest node first seen in evidence.
func NewSubtestNode(name string) *SubtestNode {
	return &SubtestNode{TestNode{
		node:     node.New(name),
		subtests: make(map[string]*SubtestNode),
	}}
}

// IsEmpty reports whether the subtest carries no attributes at all.
func (s *SubtestNode) IsEmpty() bool {
	return !s.node.HasAttributes()
}
