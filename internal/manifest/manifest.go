package manifest

import (
	"github.com/verdictlab/verdict/internal/node"
)

// ExpectedManifest is the root of one table: the expectations for every
// test in one test file.
//
// It owns its TestNodes exclusively and keeps the identity index in 1:1
// correspondence with the ordered child list. Modified is set whenever
// recorded evidence disagrees with what the table stores, so callers know
// which tables need rewriting.
type ExpectedManifest struct {
	// TestPath is the test file this table covers, relative to the test
	// root, using forward slashes.
	TestPath string

	// Modified reports whether recorded evidence implies the stored table
	// text is stale.
	Modified bool

	node  *node.Node
	tests []*TestNode
	byID  map[TestID]*TestNode
}

// NewExpectedManifest creates an empty table for a test file that has no
// stored expectations yet.
func NewExpectedManifest(testPath string) *ExpectedManifest {
	return &ExpectedManifest{
		TestPath: testPath,
		node:     node.New(""),
		byID:     make(map[TestID]*TestNode),
	}
}

// Node returns the underlying section tree, for serialization.
func (m *ExpectedManifest) Node() *node.Node { return m.node }

// Tests returns the owned test nodes in declaration order.
// The returned slice is the manifest's own; callers must not mutate it.
func (m *ExpectedManifest) Tests() []*TestNode { return m.tests }

// AppendTest registers a test node, maintaining the identity index
// atomically with the ordered child list.
func (m *ExpectedManifest) AppendTest(t *TestNode) error {
	if _, ok := m.byID[t.id]; ok {
		return newDuplicateIdentityError(t.id)
	}
	m.node.AppendChild(t.node)
	m.tests = append(m.tests, t)
	m.byID[t.id] = t
	t.fileRoot = m
	return nil
}

// RemoveTest unregisters a test node. Used by the external pruning pass;
// the engine itself never deletes nodes.
func (m *ExpectedManifest) RemoveTest(t *TestNode) {
	if _, ok := m.byID[t.id]; !ok {
		return
	}
	delete(m.byID, t.id)
	for i, c := range m.tests {
		if c == t {
			m.tests = append(m.tests[:i], m.tests[i+1:]...)
			break
		}
	}
	m.node.RemoveChild(t.node)
	t.fileRoot = nil
}

// GetTest returns the test node with the given identity, or an
// UNKNOWN_TEST error when absent. Callers handling fresh results are
// expected to create the node instead of treating that as fatal.
func (m *ExpectedManifest) GetTest(id TestID) (*TestNode, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, newUnknownTestError(id)
	}
	return t, nil
}

// HasTest reports whether a test with the given identity is registered.
func (m *ExpectedManifest) HasTest(id TestID) bool {
	_, ok := m.byID[id]
	return ok
}
