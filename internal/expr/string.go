package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator precedence, loosest first. Matches the condition grammar the
// parser accepts, so Format output always re-parses to the same tree.
const (
	precOr = iota + 1
	precAnd
	precNot
	precCompare
	precAtom
)

// Format renders an expression in the expectation-table condition syntax,
// e.g. `debug and os == "linux"`. Parentheses are emitted only where the
// tree shape requires them.
func Format(e Expr) string {
	var sb strings.Builder
	render(&sb, e)
	return sb.String()
}

func render(sb *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *Variable:
		sb.WriteString(n.Name)

	case *StringLiteral:
		sb.WriteString(strconv.Quote(n.Value))

	case *IntLiteral:
		sb.WriteString(strconv.FormatInt(n.Value, 10))

	case *BoolLiteral:
		sb.WriteString(strconv.FormatBool(n.Value))

	case *Unary:
		sb.WriteString(string(n.Op))
		sb.WriteByte(' ')
		renderChild(sb, n.Operand, precNot)

	case *Binary:
		prec := binaryPrec(n.Op)
		renderChild(sb, n.LHS, prec)
		sb.WriteByte(' ')
		sb.WriteString(string(n.Op))
		sb.WriteByte(' ')
		renderChild(sb, n.RHS, prec)

	default:
		panic(fmt.Sprintf("expr: unknown expression node %T", e))
	}
}

func renderChild(sb *strings.Builder, child Expr, parentPrec int) {
	if precedence(child) < parentPrec {
		sb.WriteByte('(')
		render(sb, child)
		sb.WriteByte(')')
		return
	}
	render(sb, child)
}

func precedence(e Expr) int {
	switch n := e.(type) {
	case *Binary:
		return binaryPrec(n.Op)
	case *Unary:
		return precNot
	default:
		return precAtom
	}
}

func binaryPrec(op BinaryOp) int {
	switch op {
	case OpOr:
		return precOr
	case OpAnd:
		return precAnd
	default:
		return precCompare
	}
}
