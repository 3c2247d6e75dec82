package tmpl

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/ardnew/brace/async"
)

const (
	whenName   = "when"
	switchName = "switch"
	isName     = "is"
	caseName   = "case"
	whenValue  = "value"
)

type whenOp int

const (
	whenEq whenOp = iota
	whenNe
	whenGt
	whenGe
	whenLt
	whenLe
	whenIn
	whenNotIn
)

var whenOps = map[string]whenOp{
	"eq": whenEq, "==": whenEq, "is": whenEq,
	"ne": whenNe, "!=": whenNe,
	"gt": whenGt, ">": whenGt,
	"ge": whenGe, ">=": whenGe,
	"lt": whenLt, "<": whenLt,
	"le": whenLe, "<=": whenLe,
	"in": whenIn,
	"ni": whenNotIn, "!in": whenNotIn,
}

// whenFactory builds
//
//	{#when value}{#is 1}..{#is in 2 3}..{#else}..{/when}
//
// Case blocks are tested in order and the first match renders.
type whenFactory struct{}

func (whenFactory) Spec() SectionSpec {
	return SectionSpec{
		Aliases:     []string{whenName, switchName},
		BlockLabels: []string{isName, caseName, elseName},
		Params: map[string][]Parameter{
			MainBlockLabel: {{Name: whenValue}},
		},
	}
}

func (whenFactory) InitializeBlock(_ *Scope, block *BlockInfo) (*Scope, error) {
	switch block.Label() {
	case MainBlockLabel:
		value, _ := block.Param(whenValue)
		_, err := block.AddExpression(whenValue, value)

		return nil, err

	case isName, caseName:
		_, operands, err := caseOperands(block.Params())
		if err != nil {
			return nil, err.At(block.Origin())
		}

		for i, o := range operands {
			if _, err := block.AddExpression(strconv.Itoa(i), o); err != nil {
				return nil, err
			}
		}
	}

	return nil, nil
}

// caseOperands splits a case block into its operator and operands.
func caseOperands(params Params) (whenOp, []string, *Error) {
	tokens := params.Positional()
	if len(tokens) == 0 {
		return 0, nil, ErrMandatoryParamsMissing.Format("{#%s} requires a value", isName)
	}

	op := whenEq

	if len(tokens) > 1 {
		switch o, ok := whenOps[tokens[0]]; {
		case ok:
			op, tokens = o, tokens[1:]
		case tokens[0] == "not" && tokens[1] == "in":
			op, tokens = whenNotIn, tokens[2:]
		}
	}

	switch {
	case len(tokens) == 0:
		return 0, nil, ErrMandatoryParamsMissing.Format("{#%s} requires a value", isName)
	case op != whenIn && op != whenNotIn && len(tokens) != 1:
		return 0, nil, ErrInvalidSectionParams.Format("{#%s} expects a single value", isName)
	}

	return op, tokens, nil
}

func (whenFactory) Initialize(ctx *SectionInitContext) (SectionHelper, error) {
	h := &whenHelper{value: ctx.Expression(whenValue)}

	for _, b := range ctx.Blocks[1:] {
		if b.Label == elseName {
			h.otherwise = b

			continue
		}

		op, operands, err := caseOperands(b.Params)
		if err != nil {
			return nil, err.At(b.Origin())
		}

		c := whenCase{op: op, block: b, operands: make([]*Expression, len(operands))}
		for i := range operands {
			c.operands[i] = b.Expression(strconv.Itoa(i))
		}

		h.cases = append(h.cases, c)
	}

	return h, nil
}

type whenCase struct {
	op       whenOp
	operands []*Expression
	block    *SectionBlock
}

type whenHelper struct {
	value     *Expression
	cases     []whenCase
	otherwise *SectionBlock
}

func (h *whenHelper) Resolve(ctx *SectionResolutionContext) *async.Future[ResultNode] {
	return async.Then(ctx.Evaluate(h.value), func(v any) *async.Future[ResultNode] {
		return h.match(ctx, unwrapItem(v), 0)
	})
}

func (h *whenHelper) match(ctx *SectionResolutionContext, v any, i int) *async.Future[ResultNode] {
	if i >= len(h.cases) {
		if h.otherwise != nil {
			return ctx.Execute(h.otherwise, nil)
		}

		return async.Completed(emptyResult)
	}

	c := h.cases[i]

	return async.Then(c.test(ctx, v), func(ok bool) *async.Future[ResultNode] {
		if ok {
			return ctx.Execute(c.block, nil)
		}

		return h.match(ctx, v, i+1)
	})
}

func (c *whenCase) test(ctx *SectionResolutionContext, v any) *async.Future[bool] {
	enum := isEnum(v)

	fs := make([]*async.Future[any], len(c.operands))
	for i, o := range c.operands {
		if name, ok := constantName(o); ok && enum {
			fs[i] = async.Completed[any](name)
		} else {
			fs[i] = ctx.Evaluate(o)
		}
	}

	return async.Map(async.All(fs), func(operands []any) (bool, error) {
		switch c.op {
		case whenEq:
			return Equals(v, operands[0]), nil
		case whenNe:
			return !Equals(v, operands[0]), nil
		case whenIn, whenNotIn:
			found := false
			for _, o := range operands {
				if Equals(v, o) {
					found = true

					break
				}
			}

			return found == (c.op == whenIn), nil
		}

		n, err := Compare(v, operands[0])
		if err != nil {
			return false, WrapError(err).At(c.block.Origin())
		}

		switch c.op {
		case whenGt:
			return n > 0, nil
		case whenGe:
			return n >= 0, nil
		case whenLt:
			return n < 0, nil
		default:
			return n <= 0, nil
		}
	})
}

// isEnum reports whether v is a named integer type with a String method,
// the usual shape of a Go enumeration.
func isEnum(v any) bool {
	if _, ok := v.(fmt.Stringer); !ok {
		return false
	}

	t := reflect.TypeOf(v)

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return t.Name() != ""
	}

	return false
}

// constantName returns the bare identifier of an operand like `ON`.
func constantName(e *Expression) (string, bool) {
	if e.IsLiteral() || e.HasNamespace() || len(e.Parts()) != 1 {
		return "", false
	}

	p := e.Parts()[0]
	if p.IsVirtualMethod() || !isIdentifier(p.Name()) {
		return "", false
	}

	return p.Name(), true
}
