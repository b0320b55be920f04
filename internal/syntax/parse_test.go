package syntax

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdictlab/verdict/internal/expr"
)

const sampleTable = `# expectations for a/test.html
[test.html]
  type: testharness
  expected:
    if os == "win": FAIL
    PASS
  [first subtest]
    expected: TIMEOUT

[ref.html]
  type: reftest
  reftype: ==
  refurl: /a/green.html
`

func TestParse_Sections(t *testing.T) {
	root, err := Parse(strings.NewReader(sampleTable), "a/test.html.ini")
	require.NoError(t, err)

	require.Len(t, root.Children(), 2)
	test := root.Children()[0]
	assert.Equal(t, "test.html", test.Name())

	v, ok := test.DefaultValue("type")
	require.True(t, ok)
	assert.Equal(t, "testharness", v)

	values := test.Values("expected")
	require.Len(t, values, 2)
	require.NotNil(t, values[0].Condition)
	assert.Equal(t, `os == "win"`, expr.Format(values[0].Condition))
	assert.Equal(t, "FAIL", values[0].Value)
	assert.Nil(t, values[1].Condition)
	assert.Equal(t, "PASS", values[1].Value)

	require.Len(t, test.Children(), 1)
	sub := test.Children()[0]
	assert.Equal(t, "first subtest", sub.Name())
	v, ok = sub.DefaultValue("expected")
	require.True(t, ok)
	assert.Equal(t, "TIMEOUT", v)

	ref := root.Children()[1]
	v, _ = ref.DefaultValue("reftype")
	assert.Equal(t, "==", v)
}

func TestParse_ConditionGrammar(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{`os == "linux"`, `os == "linux"`},
		{`not debug`, `not debug`},
		{`debug and os == "linux" and bits == 64`, `debug and os == "linux" and bits == 64`},
		{`(debug or os == "win") and bits == 64`, `(debug or os == "win") and bits == 64`},
		{`version != "16.04"`, `version != "16.04"`},
		{`os == "a # b"`, `os == "a # b"`},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			e, err := ParseCondition(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, expr.Format(e))
		})
	}
}

func TestParseCondition_Errors(t *testing.T) {
	for _, input := range []string{
		``,
		`os =`,
		`os == `,
		`"unterminated`,
		`os == "linux" extra`,
		`(os == "linux"`,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseCondition(input)
			assert.Error(t, err)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"unclosed header", "[test.html\n"},
		{"orphan nested section", "  [sub]\n"},
		{"tab indent", "[t]\n\tkey: v\n"},
		{"odd indent", "[t]\n   key: v\n"},
		{"bad condition", "[t]\n  expected:\n    if os = \"win\": FAIL\n"},
		{"value-less key", "[t]\n  expected:\n[u]\n"},
		{"duplicate key", "[t]\n  type: a\n  type: b\n"},
		{"entry after default", "[t]\n  expected:\n    PASS\n    if debug: FAIL\n"},
		{"no key-value", "[t]\n  justaword\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input), "bad.ini")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.ini:")
		})
	}
}

func TestParse_CommentsAndBlankLines(t *testing.T) {
	input := "# header comment\n\n[t]\n  # indented comment\n  expected: PASS # trailing\n"
	root, err := Parse(strings.NewReader(input), "t.ini")
	require.NoError(t, err)

	v, ok := root.Children()[0].DefaultValue("expected")
	require.True(t, ok)
	assert.Equal(t, "PASS", v)
}

func TestRoundTrip(t *testing.T) {
	root, err := Parse(strings.NewReader(sampleTable), "a/test.html.ini")
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, Serialize(&out, root))

	reparsed, err := Parse(strings.NewReader(out.String()), "a/test.html.ini")
	require.NoError(t, err)

	var again strings.Builder
	require.NoError(t, Serialize(&again, reparsed))
	assert.Equal(t, out.String(), again.String(), "serialization is a fixpoint")
}
