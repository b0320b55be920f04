package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdictlab/verdict/internal/expr"
)

func renderConditions(conds []synthCondition) []string {
	var out []string
	for _, c := range conds {
		out = append(out, expr.Format(c.cond)+": "+c.status)
	}
	return out
}

func TestGroupConditions_DiscriminatorPriorityOrder(t *testing.T) {
	// Properties always appear in the fixed order debug, os, version,
	// processor, bits, regardless of map layout in the run-info.
	results := []Result{
		{Info: RunInfo{"bits": expr.Int(64), "os": expr.String("linux"), "debug": expr.Bool(true)}, Status: "PASS"},
		{Info: RunInfo{"bits": expr.Int(32), "os": expr.String("win"), "debug": expr.Bool(false)}, Status: "FAIL"},
	}

	conds, err := groupConditions(results)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`debug and os == "linux" and bits == 64: PASS`,
		`not debug and os == "win" and bits == 32: FAIL`,
	}, renderConditions(conds))
}

func TestGroupConditions_NonDiscriminatingPropertyPruned(t *testing.T) {
	// os is identical across all results and collects every status, so it
	// is discarded; debug alone discriminates.
	results := []Result{
		{Info: onOSDebug("linux", true), Status: "PASS"},
		{Info: onOSDebug("linux", false), Status: "FAIL"},
	}

	conds, err := groupConditions(results)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"debug: PASS",
		"not debug: FAIL",
	}, renderConditions(conds))
}

func TestGroupConditions_SignatureCollisionFirstWins(t *testing.T) {
	// Two results share the signature os=linux but disagree in status: the
	// first observed wins and the later one is silently ignored. This
	// mirrors the historical behavior; it depends on evidence-arrival
	// order by design of the original algorithm.
	results := []Result{
		{Info: onOS("linux"), Status: "PASS"},
		{Info: onOS("linux"), Status: "FAIL"},
		{Info: onOS("win"), Status: "FAIL"},
	}

	conds, err := groupConditions(results)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`os == "linux": PASS`,
		`os == "win": FAIL`,
	}, renderConditions(conds))
}

func TestGroupConditions_PruningCanStripEverySlice(t *testing.T) {
	// Known edge case of the pruning heuristic: with two results on one
	// environment slice, every (property, value) candidate collects both
	// statuses and is discarded, leaving nothing to discriminate on. The
	// rule compares against the total result count rather than the
	// per-value count, and is reproduced as-is.
	results := []Result{
		{Info: onOS("linux"), Status: "PASS"},
		{Info: onOS("linux"), Status: "FAIL"},
	}

	_, err := groupConditions(results)
	assert.Error(t, err)
}

func TestGroupConditions_SingleResultSkipsPruning(t *testing.T) {
	results := []Result{
		{Info: onOS("mac"), Status: "TIMEOUT"},
	}

	conds, err := groupConditions(results)
	require.NoError(t, err)
	assert.Equal(t, []string{`os == "mac": TIMEOUT`}, renderConditions(conds))
}

func TestGroupConditions_NumericLiteral(t *testing.T) {
	results := []Result{
		{Info: RunInfo{"bits": expr.Int(64)}, Status: "PASS"},
		{Info: RunInfo{"bits": expr.Int(32)}, Status: "CRASH"},
	}

	conds, err := groupConditions(results)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"bits == 64: PASS",
		"bits == 32: CRASH",
	}, renderConditions(conds))
}

func TestMakeExpr_ConjunctionNesting(t *testing.T) {
	// The conjunction is chained right-to-left so the first listed
	// property sits at the head of the chain.
	e, err := makeExpr([]propValue{
		{prop: "debug", value: expr.Bool(true)},
		{prop: "os", value: expr.String("linux")},
		{prop: "bits", value: expr.Int(64)},
	})
	require.NoError(t, err)

	top, ok := e.(*expr.Binary)
	require.True(t, ok)
	assert.Equal(t, expr.OpAnd, top.Op)
	_, ok = top.LHS.(*expr.Variable)
	assert.True(t, ok, "head of the chain is the first property's test")
	rhs, ok := top.RHS.(*expr.Binary)
	require.True(t, ok)
	assert.Equal(t, expr.OpAnd, rhs.Op)
}

func TestMakeExpr_Empty(t *testing.T) {
	_, err := makeExpr(nil)
	assert.Error(t, err)
}
