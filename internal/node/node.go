// Package node provides the generic section tree backing expectation tables.
//
// A Node is a named block holding ordered child blocks and ordered
// attributes. Each attribute maps a key to an ordered list of conditional
// values evaluated top-to-bottom with first-match-wins; an entry with a nil
// condition is the unconditional default.
//
// The tree uses exclusive ownership of children plus a non-owning parent
// back-pointer. Nodes are not safe for concurrent use.
package node

import (
	"fmt"

	"github.com/verdictlab/verdict/internal/expr"
)

// ConditionalValue is one entry of a conditional attribute.
//
// Condition is nil for the unconditional default. Entries are compared by
// pointer identity so callers can correlate stored entries with their own
// bookkeeping across rewrites.
type ConditionalValue struct {
	Condition expr.Expr
	Value     string
}

// Node is one named block in a table tree.
type Node struct {
	name     string
	parent   *Node
	children []*Node
	attrs    map[string][]*ConditionalValue
	keys     []string
}

// New creates a detached node. The root of a file tree has an empty name.
func New(name string) *Node {
	return &Node{
		name:  name,
		attrs: make(map[string][]*ConditionalValue),
	}
}

// Name returns the block name.
func (n *Node) Name() string { return n.name }

// Parent returns the owning node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the owned child blocks in declaration order.
// The returned slice is the node's own; callers must not mutate it.
func (n *Node) Children() []*Node { return n.children }

// AppendChild attaches a child at the end of the child list.
// The child must be detached.
func (n *Node) AppendChild(child *Node) {
	if child.parent != nil {
		panic(fmt.Sprintf("node: child %q already attached", child.name))
	}
	child.parent = n
	n.children = append(n.children, child)
}

// RemoveChild detaches a child, identified by pointer. Returns false if the
// node is not a child of n.
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Set appends a conditional entry for key, creating the key at the end of
// the attribute order if needed, and returns the stored entry. A nil
// condition denotes the unconditional default.
func (n *Node) Set(key, value string, condition expr.Expr) *ConditionalValue {
	if _, ok := n.attrs[key]; !ok {
		n.keys = append(n.keys, key)
	}
	cv := &ConditionalValue{Condition: condition, Value: value}
	n.attrs[key] = append(n.attrs[key], cv)
	return cv
}

// Get resolves key against an environment: the first entry whose condition
// is nil or evaluates true wins. With a nil environment only an
// unconditional entry can match.
//
// found is false when the key is absent or no entry matches. A condition
// that fails to evaluate is a data error and is surfaced.
func (n *Node) Get(key string, env map[string]expr.Value) (value string, found bool, err error) {
	for _, cv := range n.attrs[key] {
		if cv.Condition == nil {
			return cv.Value, true, nil
		}
		if env == nil {
			continue
		}
		ok, err := expr.EvalBool(cv.Condition, env)
		if err != nil {
			return "", false, fmt.Errorf("attribute %q: %w", key, err)
		}
		if ok {
			return cv.Value, true, nil
		}
	}
	return "", false, nil
}

// DefaultValue returns the unconditional entry for key, if one is stored.
func (n *Node) DefaultValue(key string) (string, bool) {
	for _, cv := range n.attrs[key] {
		if cv.Condition == nil {
			return cv.Value, true
		}
	}
	return "", false
}

// Values returns the stored entries for key in order. The slice is the
// node's own; callers must not append to it.
func (n *Node) Values(key string) []*ConditionalValue {
	return n.attrs[key]
}

// HasKey reports whether key is present, even with zero remaining entries.
func (n *Node) HasKey(key string) bool {
	_, ok := n.attrs[key]
	return ok
}

// RemoveValue deletes one entry of key, identified by pointer. The key
// itself survives with zero entries until RemoveKey; the engine relies on
// that to distinguish "emptied by rewrite" from "never present".
func (n *Node) RemoveValue(key string, cv *ConditionalValue) bool {
	values, ok := n.attrs[key]
	if !ok {
		return false
	}
	for i, v := range values {
		if v == cv {
			n.attrs[key] = append(values[:i], values[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveKey deletes key and all its entries.
func (n *Node) RemoveKey(key string) bool {
	if _, ok := n.attrs[key]; !ok {
		return false
	}
	delete(n.attrs, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns attribute keys in declaration order.
func (n *Node) Keys() []string { return n.keys }

// HasAttributes reports whether any attribute key is present.
func (n *Node) HasAttributes() bool { return len(n.keys) > 0 }
