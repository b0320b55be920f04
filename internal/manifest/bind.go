package manifest

import (
	"fmt"

	"github.com/verdictlab/verdict/internal/node"
)

// Bind wraps a parsed table tree in the expectation model: every top-level
// section becomes a TestNode, every nested section a SubtestNode, and the
// stored "expected" entries become tracked conditions ready to receive
// evidence.
//
// Structural defects (a section without a type, a reftest section without
// its comparison attributes, two sections with one identity) are fatal, as
// is any malformed table at parse time: corrupt tables are surfaced, never
// partially recovered.
func Bind(root *node.Node, testPath string) (*ExpectedManifest, error) {
	m := &ExpectedManifest{
		TestPath: testPath,
		node:     root,
		byID:     make(map[TestID]*TestNode),
	}

	for _, section := range root.Children() {
		t, err := bindTest(section, testPath)
		if err != nil {
			return nil, err
		}
		if _, ok := m.byID[t.id]; ok {
			return nil, newDuplicateIdentityError(t.id)
		}
		t.fileRoot = m
		m.tests = append(m.tests, t)
		m.byID[t.id] = t
	}

	return m, nil
}

func bindTest(section *node.Node, testPath string) (*TestNode, error) {
	testType, ok := section.DefaultValue("type")
	if !ok {
		return nil, fmt.Errorf("section %q: missing type attribute", section.Name())
	}

	id := TestID{URL: TestURL(testPath, section.Name())}
	if testType == TestTypeReftest {
		refType, ok := section.DefaultValue("reftype")
		if !ok {
			return nil, fmt.Errorf("section %q: reftest missing reftype", section.Name())
		}
		refURL, ok := section.DefaultValue("refurl")
		if !ok {
			return nil, fmt.Errorf("section %q: reftest missing refurl", section.Name())
		}
		id.RefType = refType
		id.RefURL = refURL
	}

	t := &TestNode{
		node:     section,
		id:       id,
		testType: testType,
		subtests: make(map[string]*SubtestNode),
		fromFile: true,
	}
	t.bindTracked()

	for _, sub := range section.Children() {
		if _, ok := t.subtests[sub.Name()]; ok {
			return nil, fmt.Errorf("section %q: duplicate subtest %q", section.Name(), sub.Name())
		}
		s := &SubtestNode{TestNode{
			node:     sub,
			parent:   t,
			subtests: make(map[string]*SubtestNode),
			fromFile: true,
		}}
		s.bindTracked()
		t.subtests[sub.Name()] = s
		t.subtestOrder = append(t.subtestOrder, sub.Name())
	}

	return t, nil
}

// bindTracked mirrors the stored expected entries into the evidence
// bookkeeping.
func (t *TestNode) bindTracked() {
	t.tracked = nil
	for _, cv := range t.node.Values("expected") {
		t.tracked = append(t.tracked, &trackedCondition{cv: cv})
	}
}
