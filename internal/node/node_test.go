package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdictlab/verdict/internal/expr"
)

func TestAppendRemoveChild(t *testing.T) {
	root := New("")
	a := New("a.html")
	b := New("b.html")

	root.AppendChild(a)
	root.AppendChild(b)

	require.Len(t, root.Children(), 2)
	assert.Same(t, root, a.Parent())

	assert.True(t, root.RemoveChild(a))
	assert.Nil(t, a.Parent())
	require.Len(t, root.Children(), 1)
	assert.Same(t, b, root.Children()[0])

	assert.False(t, root.RemoveChild(a), "second removal finds nothing")
}

func TestGet_FirstMatchWins(t *testing.T) {
	n := New("test.html")
	n.Set("expected", "FAIL", expr.Equal("os", expr.String("win")))
	n.Set("expected", "TIMEOUT", expr.Equal("os", expr.String("linux")))
	n.Set("expected", "PASS", nil)

	env := map[string]expr.Value{"os": expr.String("linux")}
	v, found, err := n.Get("expected", env)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "TIMEOUT", v)

	env["os"] = expr.String("mac")
	v, found, err = n.Get("expected", env)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "PASS", v, "unconditional entry is the fallback")
}

func TestGet_NilEnvOnlyMatchesDefault(t *testing.T) {
	n := New("test.html")
	n.Set("expected", "FAIL", expr.Var("debug"))

	_, found, err := n.Get("expected", nil)
	require.NoError(t, err)
	assert.False(t, found)

	n.Set("expected", "PASS", nil)
	v, found, err := n.Get("expected", nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "PASS", v)
}

func TestGet_EvalErrorSurfaces(t *testing.T) {
	n := New("test.html")
	n.Set("expected", "FAIL", expr.Var("version"))

	_, _, err := n.Get("expected", map[string]expr.Value{"os": expr.String("linux")})
	assert.Error(t, err, "conditions over missing properties must not silently skip")
}

func TestRemoveValue_KeySurvivesEmpty(t *testing.T) {
	n := New("test.html")
	cv := n.Set("expected", "FAIL", expr.Var("debug"))

	assert.True(t, n.RemoveValue("expected", cv))
	assert.True(t, n.HasKey("expected"), "emptied key stays until RemoveKey")
	assert.Empty(t, n.Values("expected"))

	assert.True(t, n.RemoveKey("expected"))
	assert.False(t, n.HasKey("expected"))
	assert.False(t, n.HasAttributes())
}

func TestKeys_DeclarationOrder(t *testing.T) {
	n := New("test.html")
	n.Set("type", "testharness", nil)
	n.Set("disabled", "flaky", nil)
	n.Set("expected", "FAIL", nil)
	n.Set("expected", "PASS", expr.Var("debug"))

	assert.Equal(t, []string{"type", "disabled", "expected"}, n.Keys())
}

func TestDefaultValue(t *testing.T) {
	n := New("test.html")
	n.Set("expected", "FAIL", expr.Var("debug"))

	_, ok := n.DefaultValue("expected")
	assert.False(t, ok)

	n.Set("expected", "PASS", nil)
	v, ok := n.DefaultValue("expected")
	require.True(t, ok)
	assert.Equal(t, "PASS", v)
}
