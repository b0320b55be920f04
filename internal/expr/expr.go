package expr

// Expr represents a node in a condition expression.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the evaluator and serializer.
//
// Expression types:
//   - Variable: reference to a run-info property ("os", "debug")
//   - StringLiteral, IntLiteral, BoolLiteral: constants
//   - Binary: ==, !=, and, or
//   - Unary: not
//
// Expressions are immutable once built. The reconciliation engine treats
// them as opaque beyond evaluation and identity comparison.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Variable references a run-info property by name.
//
// Evaluates to the property's value; evaluation fails if the property is
// absent from the environment.
type Variable struct {
	Name string
}

func (*Variable) exprNode() {}

// StringLiteral is a quoted string constant.
type StringLiteral struct {
	Value string
}

func (*StringLiteral) exprNode() {}

// IntLiteral is an integer constant.
//
// Run-info values are strings, integers, or booleans - never floats.
// Fractional-looking values (OS versions like "16.04") arrive as strings.
type IntLiteral struct {
	Value int64
}

func (*IntLiteral) exprNode() {}

// BoolLiteral is a boolean constant.
type BoolLiteral struct {
	Value bool
}

func (*BoolLiteral) exprNode() {}

// BinaryOp identifies a binary operator.
type BinaryOp string

const (
	OpEq  BinaryOp = "=="
	OpNeq BinaryOp = "!="
	OpAnd BinaryOp = "and"
	OpOr  BinaryOp = "or"
)

// Binary applies a binary operator to two sub-expressions.
//
// "and" and "or" short-circuit left-to-right and require boolean operands.
// "==" and "!=" use type-strict equality: values of different kinds are
// never equal.
type Binary struct {
	Op  BinaryOp
	LHS Expr
	RHS Expr
}

func (*Binary) exprNode() {}

// UnaryOp identifies a unary operator.
type UnaryOp string

const OpNot UnaryOp = "not"

// Unary applies a unary operator to a sub-expression.
type Unary struct {
	Op      UnaryOp
	Operand Expr
}

func (*Unary) exprNode() {}

// Value is a run-info property value or evaluation result.
//
// Sealed to String, Int, and Bool - the only value kinds the expectation
// format supports.
type Value interface {
	valueNode()
}

// String is a string-valued property ("os" == "linux").
type String string

func (String) valueNode() {}

// Int is an integer-valued property ("bits" == 64).
type Int int64

func (Int) valueNode() {}

// Bool is a boolean-valued property ("debug").
type Bool bool

func (Bool) valueNode() {}

// Var builds a variable reference.
func Var(name string) *Variable {
	return &Variable{Name: name}
}

// Not builds a logical negation.
func Not(operand Expr) *Unary {
	return &Unary{Op: OpNot, Operand: operand}
}

// And builds a short-circuit conjunction.
func And(lhs, rhs Expr) *Binary {
	return &Binary{Op: OpAnd, LHS: lhs, RHS: rhs}
}

// Equal builds an equality test between a property and a literal value.
//
// String values compile to a string literal, integers to a numeric literal.
// Boolean values have no literal form in the condition grammar; boolean
// properties are expressed as a bare variable or its negation instead, so
// Equal(name, Bool(v)) returns the variable or "not" variable.
func Equal(name string, value Value) Expr {
	switch v := value.(type) {
	case String:
		return &Binary{Op: OpEq, LHS: Var(name), RHS: &StringLiteral{Value: string(v)}}
	case Int:
		return &Binary{Op: OpEq, LHS: Var(name), RHS: &IntLiteral{Value: int64(v)}}
	case Bool:
		if bool(v) {
			return Var(name)
		}
		return Not(Var(name))
	default:
		panic("expr: unknown value kind")
	}
}
