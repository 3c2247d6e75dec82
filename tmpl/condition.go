package tmpl

import (
	"strings"

	"github.com/ardnew/brace/async"
)

type opKind int

const (
	opOr opKind = iota + 1
	opAnd
	opEq
	opNe
	opGt
	opGe
	opLt
	opLe
)

// conditionOps maps operator spellings, including their keyword aliases.
var conditionOps = map[string]opKind{
	"||": opOr, "or": opOr,
	"&&": opAnd, "and": opAnd,
	"==": opEq, "eq": opEq, "is": opEq,
	"!=": opNe, "ne": opNe,
	">": opGt, "gt": opGt,
	">=": opGe, "ge": opGe,
	"<": opLt, "lt": opLt,
	"<=": opLe, "le": opLe,
}

func (k opKind) comparison() bool { return k >= opEq }

// condition is a node of a parsed if condition.
type condition interface {
	eval(ctx *SectionResolutionContext) *async.Future[any]
}

type operandCond struct {
	expr *Expression
}

type notCond struct {
	operand condition
}

type binaryCond struct {
	op          opKind
	left, right condition
	origin      Origin
}

func (c *operandCond) eval(ctx *SectionResolutionContext) *async.Future[any] {
	return ctx.Evaluate(c.expr)
}

func (c *notCond) eval(ctx *SectionResolutionContext) *async.Future[any] {
	return async.Map(c.operand.eval(ctx), func(v any) (any, error) {
		return IsFalsy(v), nil
	})
}

func (c *binaryCond) eval(ctx *SectionResolutionContext) *async.Future[any] {
	switch c.op {
	case opAnd:
		return async.Then(c.left.eval(ctx), func(l any) *async.Future[any] {
			if IsFalsy(l) {
				return async.Completed[any](false)
			}

			return truthOf(c.right.eval(ctx))
		})

	case opOr:
		return async.Then(c.left.eval(ctx), func(l any) *async.Future[any] {
			if IsTruthy(l) {
				return async.Completed[any](true)
			}

			return truthOf(c.right.eval(ctx))
		})
	}

	both := async.All([]*async.Future[any]{c.left.eval(ctx), c.right.eval(ctx)})

	return async.Map(both, func(v []any) (any, error) {
		ok, err := compareOp(c.op, v[0], v[1])
		if err != nil {
			return nil, WrapError(err).At(c.origin)
		}

		return ok, nil
	})
}

func truthOf(f *async.Future[any]) *async.Future[any] {
	return async.Map(f, func(v any) (any, error) { return IsTruthy(v), nil })
}

func compareOp(op opKind, a, b any) (bool, error) {
	switch op {
	case opEq:
		return Equals(a, b), nil
	case opNe:
		return !Equals(a, b), nil
	}

	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}

	switch op {
	case opGt:
		return c > 0, nil
	case opGe:
		return c >= 0, nil
	case opLt:
		return c < 0, nil
	case opLe:
		return c <= 0, nil
	}

	return false, nil
}

// condParser is a precedence climbing parser over section tokens:
//
//	or   := and (("||" | "or") and)*
//	and  := cmp (("&&" | "and") cmp)*
//	cmp  := unary (op unary)*
//	unary := "!" unary | "(" or ")" | operand
type condParser struct {
	tokens []string
	pos    int
	lookup func(string) (*Expression, error)
}

func parseCondition(tokens []string, lookup func(string) (*Expression, error)) (condition, error) {
	p := &condParser{tokens: tokens, lookup: lookup}

	c, err := p.or()
	if err != nil {
		return nil, err
	}

	if p.pos < len(p.tokens) {
		return nil, ErrInvalidSectionParams.Format("unexpected %q in condition %q",
			p.tokens[p.pos], strings.Join(tokens, " "))
	}

	return c, nil
}

func (p *condParser) peek() (opKind, bool) {
	if p.pos >= len(p.tokens) {
		return 0, false
	}

	op, ok := conditionOps[p.tokens[p.pos]]

	return op, ok
}

func (p *condParser) or() (condition, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.peek()
		if !ok || op != opOr {
			return left, nil
		}

		p.pos++

		right, err := p.and()
		if err != nil {
			return nil, err
		}

		left = &binaryCond{op: opOr, left: left, right: right}
	}
}

func (p *condParser) and() (condition, error) {
	left, err := p.cmp()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.peek()
		if !ok || op != opAnd {
			return left, nil
		}

		p.pos++

		right, err := p.cmp()
		if err != nil {
			return nil, err
		}

		left = &binaryCond{op: opAnd, left: left, right: right}
	}
}

func (p *condParser) cmp() (condition, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.peek()
		if !ok || !op.comparison() {
			return left, nil
		}

		p.pos++

		right, err := p.unary()
		if err != nil {
			return nil, err
		}

		var origin Origin
		if o, ok := left.(*operandCond); ok {
			origin = o.expr.Origin()
		}

		left = &binaryCond{op: op, left: left, right: right, origin: origin}
	}
}

func (p *condParser) unary() (condition, error) {
	if p.pos >= len(p.tokens) {
		return nil, ErrInvalidSectionParams.Format("incomplete condition %q", strings.Join(p.tokens, " "))
	}

	tok := p.tokens[p.pos]
	p.pos++

	if _, ok := conditionOps[tok]; ok {
		return nil, ErrInvalidSectionParams.Format("unexpected operator %q", tok)
	}

	switch {
	case tok == "!":
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}

		return &notCond{operand: operand}, nil

	case strings.HasPrefix(tok, "!") && len(tok) > 1:
		operand, err := p.atom(tok[1:])
		if err != nil {
			return nil, err
		}

		return &notCond{operand: operand}, nil
	}

	return p.atom(tok)
}

func (p *condParser) atom(tok string) (condition, error) {
	if strings.HasPrefix(tok, "(") && strings.HasSuffix(tok, ")") {
		inner := splitTokens(tok[1 : len(tok)-1])
		if len(inner) == 0 {
			return nil, ErrInvalidSectionParams.Format("empty group %q", tok)
		}

		return parseCondition(inner, p.lookup)
	}

	expr, err := p.lookup(tok)
	if err != nil {
		return nil, err
	}

	if expr == nil {
		return nil, ErrInvalidSectionParams.Format("unknown operand %q", tok)
	}

	return &operandCond{expr: expr}, nil
}
