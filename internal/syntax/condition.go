package syntax

import (
	"fmt"
	"strconv"

	"github.com/verdictlab/verdict/internal/expr"
)

// ParseCondition parses one condition expression, e.g.
// `debug and os == "linux"`. Grammar, loosest first:
//
//	or    := and ("or" and)*
//	and   := unary ("and" unary)*
//	unary := "not" unary | compare
//	compare := atom (("==" | "!=") atom)?
//	atom  := ident | string | number | "true" | "false" | "(" or ")"
func ParseCondition(s string) (expr.Expr, error) {
	tokens, err := lexCondition(s)
	if err != nil {
		return nil, err
	}
	p := &condParser{tokens: tokens}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		return nil, fmt.Errorf("column %d: unexpected %q", p.peek().col, p.peek().text)
	}
	return e, nil
}

type condParser struct {
	tokens []token
	pos    int
}

func (p *condParser) peek() token { return p.tokens[p.pos] }

func (p *condParser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *condParser) parseOr() (expr.Expr, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenOr {
		p.next()
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = &expr.Binary{Op: expr.OpOr, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *condParser) parseAnd() (expr.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenAnd {
		p.next()
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = expr.And(lhs, rhs)
	}
	return lhs, nil
}

func (p *condParser) parseUnary() (expr.Expr, error) {
	if p.peek().kind == tokenNot {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.Not(operand), nil
	}
	return p.parseCompare()
}

func (p *condParser) parseCompare() (expr.Expr, error) {
	lhs, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	kind := p.peek().kind
	if kind != tokenEq && kind != tokenNeq {
		return lhs, nil
	}
	p.next()
	rhs, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	op := expr.OpEq
	if kind == tokenNeq {
		op = expr.OpNeq
	}
	return &expr.Binary{Op: op, LHS: lhs, RHS: rhs}, nil
}

func (p *condParser) parseAtom() (expr.Expr, error) {
	t := p.next()
	switch t.kind {
	case tokenIdent:
		return expr.Var(t.text), nil

	case tokenString:
		return &expr.StringLiteral{Value: t.text}, nil

	case tokenNumber:
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: bad number %q", t.col, t.text)
		}
		return &expr.IntLiteral{Value: n}, nil

	case tokenTrue:
		return &expr.BoolLiteral{Value: true}, nil

	case tokenFalse:
		return &expr.BoolLiteral{Value: false}, nil

	case tokenLParen:
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokenRParen {
			return nil, fmt.Errorf("column %d: expected ')'", p.peek().col)
		}
		p.next()
		return e, nil

	default:
		return nil, fmt.Errorf("column %d: unexpected %q", t.col, t.text)
	}
}
