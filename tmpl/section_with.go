package tmpl

import (
	"github.com/ardnew/brace/async"
)

const (
	withName   = "with"
	withObject = "object"
)

// withFactory builds `{#with obj}..{/with}`, which makes obj the data of
// the block so that its members resolve without a prefix.
type withFactory struct{}

func (withFactory) Spec() SectionSpec {
	return SectionSpec{
		Aliases: []string{withName},
		Params: map[string][]Parameter{
			MainBlockLabel: {{Name: withObject}},
		},
	}
}

func (withFactory) InitializeBlock(enclosing *Scope, block *BlockInfo) (*Scope, error) {
	value, _ := block.Param(withObject)
	if _, err := block.AddExpression(withObject, value); err != nil {
		return nil, err
	}

	return NewScope(enclosing), nil
}

func (withFactory) Initialize(ctx *SectionInitContext) (SectionHelper, error) {
	return &withHelper{object: ctx.Expression(withObject)}, nil
}

type withHelper struct {
	object *Expression
}

func (h *withHelper) Resolve(ctx *SectionResolutionContext) *async.Future[ResultNode] {
	return async.Then(ctx.Evaluate(h.object), func(v any) *async.Future[ResultNode] {
		return ctx.Execute(nil, ctx.ResolutionContext().CreateChild(v, nil))
	})
}
