package syntax

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/verdictlab/verdict/internal/expr"
	"github.com/verdictlab/verdict/internal/node"
)

// Golden files are the source of truth for the on-disk format. To
// regenerate, run:
//
//	go test ./internal/syntax -update
func assertGolden(t *testing.T, name string, root *node.Node) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, root))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
}

func TestSerialize_GoldenRoundTrip(t *testing.T) {
	root, err := Parse(strings.NewReader(sampleTable), "a/test.html.ini")
	require.NoError(t, err)
	assertGolden(t, "roundtrip", root)
}

func TestSerialize_GoldenSynthesized(t *testing.T) {
	// A tree built the way the reconciliation engine builds one: required
	// attributes plus freshly synthesized conditional entries.
	root := node.New("")

	test := node.New("canvas.html")
	test.Set("type", "testharness", nil)
	root.AppendChild(test)

	sub := node.New("fill with green")
	sub.Set("expected", "FAIL", expr.And(expr.Not(expr.Var("debug")), expr.Equal("os", expr.String("win"))))
	sub.Set("expected", "TIMEOUT", expr.Equal("bits", expr.Int(32)))
	test.AppendChild(sub)

	ref := node.New("canvas-ref.html")
	ref.Set("type", "reftest", nil)
	ref.Set("reftype", "==", nil)
	ref.Set("refurl", "/2dcontext/green.html", nil)
	ref.Set("expected", "FAIL", nil)
	root.AppendChild(ref)

	assertGolden(t, "synthesized", root)
}
