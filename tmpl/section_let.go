package tmpl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ardnew/brace/async"
)

const (
	letName = "let"
	setName = "set"

	// optionalSuffix marks a key that is bound only if the name is not
	// already defined, e.g. `{#let name?='guest'}`.
	optionalSuffix = "?"
	lookupPrefix   = "$lookup:"
)

// letFactory builds `{#let a=1 b=foo.bar}..{/let}`. The end tag may be
// omitted, in which case the bindings last until the parent section ends.
type letFactory struct{}

func (letFactory) Spec() SectionSpec {
	return SectionSpec{
		Aliases:       []string{letName, setName},
		MissingEndTag: MissingEndTagBindToParent,
	}
}

func (letFactory) InitializeBlock(enclosing *Scope, block *BlockInfo) (*Scope, error) {
	params := block.Params()
	if len(params) == 0 {
		return nil, ErrMandatoryParamsMissing.At(block.Origin()).Format("{#%s} requires key=value", letName)
	}

	scope := NewScope(enclosing)

	for _, kv := range params {
		if _, err := strconv.Atoi(kv.Key); err == nil {
			return nil, ErrInvalidSectionParams.At(block.Origin()).
				Format("{#%s}: %q is not of the form key=value", letName, kv.Value)
		}

		expr, err := block.AddExpression(kv.Key, kv.Value)
		if err != nil {
			return nil, err
		}

		name, optional := strings.CutSuffix(kv.Key, optionalSuffix)
		if optional {
			if _, err := block.AddExpression(lookupPrefix+name, name); err != nil {
				return nil, err
			}

			if _, ok := enclosing.Binding(name); ok {
				continue
			}
		}

		scope.PutBinding(name, literalTypeHint(expr))
	}

	return scope, nil
}

func (letFactory) Initialize(ctx *SectionInitContext) (SectionHelper, error) {
	main := ctx.MainBlock()
	h := &letHelper{}

	for _, kv := range main.Params {
		name, optional := strings.CutSuffix(kv.Key, optionalSuffix)

		b := letBinding{name: name, value: main.Expression(kv.Key)}
		if optional {
			b.lookup = main.Expression(lookupPrefix + name)
		}

		h.bindings = append(h.bindings, b)
	}

	return h, nil
}

// literalTypeHint names the type of a literal value expression.
func literalTypeHint(expr *Expression) string {
	if expr.IsLiteral() {
		if expr.Literal() == nil {
			return ""
		}

		return fmt.Sprintf("%T", expr.Literal())
	}

	if parts := expr.Parts(); len(parts) == 1 {
		return parts[0].TypeHint()
	}

	return ""
}

type letBinding struct {
	name   string
	value  *Expression
	lookup *Expression
}

type letHelper struct {
	bindings []letBinding
}

// Resolve evaluates all values concurrently and renders the block with
// the bindings in a child context.
func (h *letHelper) Resolve(ctx *SectionResolutionContext) *async.Future[ResultNode] {
	fs := make([]*async.Future[any], len(h.bindings))

	for i, b := range h.bindings {
		if b.lookup == nil {
			fs[i] = ctx.Evaluate(b.value)

			continue
		}

		fs[i] = async.Then(lookup(ctx, b.lookup), func(v any) *async.Future[any] {
			if v == nil || IsNotFound(v) {
				return ctx.Evaluate(b.value)
			}

			return async.Completed(v)
		})
	}

	return async.Then(async.All(fs), func(values []any) *async.Future[ResultNode] {
		data := make(map[string]any, len(values))
		for i, v := range values {
			data[h.bindings[i].name] = v
		}

		return ctx.Execute(nil, ctx.ResolutionContext().CreateChild(data, nil))
	})
}

// lookup evaluates expr treating a strict-mode miss as NotFound.
func lookup(ctx *SectionResolutionContext, expr *Expression) *async.Future[any] {
	return async.Recover(ctx.Evaluate(expr), func(err error) *async.Future[any] {
		if errors.Is(err, ErrPropertyNotFound) {
			return async.Completed[any](&NotFound{Name: expr.String()})
		}

		return async.Failed[any](err)
	})
}
