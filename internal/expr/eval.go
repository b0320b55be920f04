package expr

import "fmt"

// Eval evaluates an expression against a run-info environment.
//
// Evaluation is type-strict:
//   - "and"/"or" short-circuit and require boolean operands
//   - "not" requires a boolean operand
//   - "=="/"!=" compare values of the same kind; mismatched kinds are
//     never equal (not an error)
//   - referencing a property absent from env is an error
//
// A failed evaluation signals a contract violation by the caller (a stored
// condition mentions a property the harness never supplies); it is surfaced,
// never masked as false.
func Eval(e Expr, env map[string]Value) (Value, error) {
	switch n := e.(type) {
	case *Variable:
		v, ok := env[n.Name]
		if !ok {
			return nil, fmt.Errorf("undefined property %q", n.Name)
		}
		return v, nil

	case *StringLiteral:
		return String(n.Value), nil

	case *IntLiteral:
		return Int(n.Value), nil

	case *BoolLiteral:
		return Bool(n.Value), nil

	case *Unary:
		if n.Op != OpNot {
			return nil, fmt.Errorf("unknown unary operator %q", n.Op)
		}
		operand, err := evalBool(n.Operand, env)
		if err != nil {
			return nil, err
		}
		return Bool(!operand), nil

	case *Binary:
		return evalBinary(n, env)

	default:
		return nil, fmt.Errorf("unknown expression node %T", e)
	}
}

// EvalBool evaluates an expression and requires a boolean result.
//
// Conditions in expectation tables must evaluate to a boolean; any other
// result kind is a data error in the table.
func EvalBool(e Expr, env map[string]Value) (bool, error) {
	return evalBool(e, env)
}

func evalBool(e Expr, env map[string]Value) (bool, error) {
	v, err := Eval(e, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(Bool)
	if !ok {
		return false, fmt.Errorf("condition evaluated to non-boolean %T", v)
	}
	return bool(b), nil
}

func evalBinary(n *Binary, env map[string]Value) (Value, error) {
	switch n.Op {
	case OpAnd:
		lhs, err := evalBool(n.LHS, env)
		if err != nil {
			return nil, err
		}
		if !lhs {
			return Bool(false), nil
		}
		rhs, err := evalBool(n.RHS, env)
		if err != nil {
			return nil, err
		}
		return Bool(rhs), nil

	case OpOr:
		lhs, err := evalBool(n.LHS, env)
		if err != nil {
			return nil, err
		}
		if lhs {
			return Bool(true), nil
		}
		rhs, err := evalBool(n.RHS, env)
		if err != nil {
			return nil, err
		}
		return Bool(rhs), nil

	case OpEq, OpNeq:
		lhs, err := Eval(n.LHS, env)
		if err != nil {
			return nil, err
		}
		rhs, err := Eval(n.RHS, env)
		if err != nil {
			return nil, err
		}
		eq := valuesEqual(lhs, rhs)
		if n.Op == OpNeq {
			eq = !eq
		}
		return Bool(eq), nil

	default:
		return nil, fmt.Errorf("unknown binary operator %q", n.Op)
	}
}

// valuesEqual compares two values for type-strict equality.
// Values of different kinds are never equal.
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	default:
		return false
	}
}
