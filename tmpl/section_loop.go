package tmpl

import (
	"log/slog"

	"github.com/ardnew/brace/async"
)

const (
	loopEach       = "each"
	loopFor        = "for"
	loopAlias      = "alias"
	loopIn         = "in"
	loopIterable   = "iterable"
	defaultAlias   = "it"
	defaultMetaSep = "_"
)

// loopFactory builds `{#for item in items}` and `{#each items}`; the
// latter binds each element to `it`.
type loopFactory struct{}

func (loopFactory) Spec() SectionSpec {
	return SectionSpec{
		Aliases:     []string{loopEach, loopFor},
		BlockLabels: []string{elseName},
		Params: map[string][]Parameter{
			MainBlockLabel: {
				{
					Name:       loopAlias,
					Default:    defaultAlias,
					HasDefault: true,
					Accepts:    func(v string) bool { return v != loopIn },
				},
				{
					Name:     loopIn,
					Optional: true,
					Accepts:  func(v string) bool { return v == loopIn },
				},
				{Name: loopIterable},
			},
		},
	}
}

func (loopFactory) InitializeBlock(enclosing *Scope, block *BlockInfo) (*Scope, error) {
	if block.Label() != MainBlockLabel {
		return nil, nil
	}

	alias, _ := block.Param(loopAlias)
	if !isIdentifier(alias) {
		return nil, ErrInvalidSectionParams.At(block.Origin()).Format("invalid alias %q", alias)
	}

	iterable, _ := block.Param(loopIterable)

	expr, err := block.AddExpression(loopIterable, iterable)
	if err != nil {
		return nil, err
	}

	hint := ""
	if parts := expr.Parts(); len(parts) > 0 && parts[0].TypeHint() != "" {
		hint = "element of " + parts[0].TypeHint()
	}

	scope := NewScope(enclosing)
	scope.PutBinding(alias, hint)

	return scope, nil
}

func (loopFactory) Initialize(ctx *SectionInitContext) (SectionHelper, error) {
	alias, _ := ctx.Param(loopAlias)

	h := &loopHelper{
		alias:    alias,
		prefix:   ctx.Engine.iterationPrefix,
		iterable: ctx.Expression(loopIterable),
		main:     ctx.MainBlock(),
		origin:   ctx.Origin(),
	}

	for _, b := range ctx.Blocks[1:] {
		if b.Label == elseName {
			h.otherwise = b
		}
	}

	return h, nil
}

type loopHelper struct {
	alias     string
	prefix    string
	iterable  *Expression
	main      *SectionBlock
	otherwise *SectionBlock
	origin    Origin
}

// Resolve renders the main block once per element. Elements render
// concurrently; the output keeps the element order.
func (h *loopHelper) Resolve(ctx *SectionResolutionContext) *async.Future[ResultNode] {
	return async.Then(ctx.Evaluate(h.iterable), func(v any) *async.Future[ResultNode] {
		elems, err := Iterate(v)
		if err != nil {
			return async.Failed[ResultNode](WrapError(err).At(h.origin).
				With(slog.String("iterable", h.iterable.String())))
		}

		if len(elems) == 0 {
			if h.otherwise != nil {
				return ctx.Execute(h.otherwise, nil)
			}

			return async.Completed(emptyResult)
		}

		rc := ctx.ResolutionContext()
		fs := make([]*async.Future[ResultNode], len(elems))

		for i, el := range elems {
			data := &iterationData{
				alias:  h.alias,
				prefix: h.prefix,
				item:   &IterationItem{Value: el, Index: i, HasNext: i < len(elems)-1},
			}
			fs[i] = ctx.Execute(h.main, rc.CreateChild(data, nil))
		}

		return compose(fs)
	})
}
