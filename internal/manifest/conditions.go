package manifest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/verdictlab/verdict/internal/expr"
)

// discriminatorOrder is the canonical priority for properties used to
// discriminate between diverging statuses: broader, cheaper-to-state
// properties are tested first.
var discriminatorOrder = []string{"debug", "os", "version", "processor", "bits"}

// booleanProperties are expressed as a bare variable or its negation
// rather than an equality test.
var booleanProperties = map[string]bool{"debug": true}

// synthCondition is one synthesized (condition, status) entry.
type synthCondition struct {
	cond   expr.Expr
	status string
}

type propValue struct {
	prop  string
	value expr.Value
}

// groupConditions partitions diverging results into per-environment
// conditions.
//
// For every (property, value) pair seen across the results it collects the
// distinct statuses of exactly the results carrying that binding, then
// discards pairs whose distinct-status count equals the total result count
// (a slice that does not narrow the outcome). That pruning pass only runs
// when more than one result exists; for small evidence sets it can over- or
// under-prune, which is kept as-is deliberately.
//
// The surviving property names, restricted to the canonical discriminator
// order, form each result's signature. Each distinct signature yields one
// condition; when results sharing a signature disagree in status, the first
// one observed wins and later ones are silently ignored. Conditions are
// emitted in first-encounter order.
func groupConditions(results []Result) ([]synthCondition, error) {
	byProperty := make(map[propValue]map[string]bool)
	for _, r := range results {
		for prop, value := range r.Info {
			key := propValue{prop: prop, value: value}
			if byProperty[key] == nil {
				byProperty[key] = make(map[string]bool)
			}
			byProperty[key][r.Status] = true
		}
	}

	if len(results) > 1 {
		for key, statuses := range byProperty {
			if len(statuses) == len(results) {
				delete(byProperty, key)
			}
		}
	}

	properties := make(map[string]bool)
	for key := range byProperty {
		properties[key.prop] = true
	}

	var includeProps []string
	for _, prop := range discriminatorOrder {
		if properties[prop] {
			includeProps = append(includeProps, prop)
		}
	}

	var conditions []synthCondition
	seen := make(map[string]bool)

	for _, r := range results {
		pairs := make([]propValue, 0, len(includeProps))
		for _, prop := range includeProps {
			value, ok := r.Info[prop]
			if !ok {
				return nil, fmt.Errorf("result lacks discriminator property %q", prop)
			}
			pairs = append(pairs, propValue{prop: prop, value: value})
		}

		sig := signatureKey(pairs)
		if seen[sig] {
			continue
		}
		seen[sig] = true

		cond, err := makeExpr(pairs)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, synthCondition{cond: cond, status: r.Status})
	}

	return conditions, nil
}

// signatureKey builds a stable map key from ordered (property, value) pairs.
func signatureKey(pairs []propValue) string {
	var sb strings.Builder
	for _, p := range pairs {
		sb.WriteString(p.prop)
		sb.WriteByte('=')
		switch v := p.value.(type) {
		case expr.String:
			sb.WriteString("s:")
			sb.WriteString(string(v))
		case expr.Int:
			sb.WriteString("i:")
			sb.WriteString(strconv.FormatInt(int64(v), 10))
		case expr.Bool:
			sb.WriteString("b:")
			sb.WriteString(strconv.FormatBool(bool(v)))
		}
		sb.WriteByte('\x00')
	}
	return sb.String()
}

// makeExpr builds the condition requiring every (property, value) pair to
// hold: a conjunction of per-property tests chained right-to-left so the
// first listed property is tested first. Boolean properties compile to a
// bare variable reference or its negation; everything else to an equality
// test against a string or numeric literal.
func makeExpr(pairs []propValue) (expr.Expr, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no discriminator properties survived pruning")
	}

	exprs := make([]expr.Expr, 0, len(pairs))
	for _, p := range pairs {
		if booleanProperties[p.prop] {
			on, ok := p.value.(expr.Bool)
			if !ok {
				return nil, fmt.Errorf("property %q must be boolean, got %T", p.prop, p.value)
			}
			if on {
				exprs = append(exprs, expr.Var(p.prop))
			} else {
				exprs = append(exprs, expr.Not(expr.Var(p.prop)))
			}
			continue
		}
		exprs = append(exprs, expr.Equal(p.prop, p.value))
	}

	prev := exprs[len(exprs)-1]
	for i := len(exprs) - 2; i >= 0; i-- {
		prev = expr.And(exprs[i], prev)
	}
	return prev, nil
}
