package mapper

import (
	"github.com/goccy/go-json"

	"github.com/ardnew/brace/async"
	"github.com/ardnew/brace/tmpl"
)

// Raw is text that is emitted without escaping.
type Raw string

func (r Raw) String() string { return string(r) }

// Install registers the HTML and JSON mappers with their default
// configuration, along with [Resolvers].
func Install(b *tmpl.Builder) *tmpl.Builder {
	return b.
		AddResultMapper(NewHTML(), NewJSON()).
		AddValueResolver(Resolvers()...)
}

// Resolvers returns the value resolvers for the `raw` and `safe` properties,
// which mark a value as [Raw], and the `json` property, which encodes a value
// as a raw JSON document.
func Resolvers() []tmpl.ValueResolver {
	return []tmpl.ValueResolver{
		tmpl.NewValueResolver(tmpl.PriorityHigh, property("raw", "safe"), resolveRaw),
		tmpl.NewValueResolver(tmpl.PriorityHigh, property("json"), resolveJSON),
	}
}

func property(names ...string) func(*tmpl.EvalContext) bool {
	return func(ctx *tmpl.EvalContext) bool {
		if ctx.IsVirtualMethod() {
			return false
		}

		for _, name := range names {
			if ctx.Name() == name {
				return true
			}
		}

		return false
	}
}

func resolveRaw(ctx *tmpl.EvalContext) *async.Future[any] {
	if r, ok := ctx.Base().(Raw); ok {
		return async.Completed[any](r)
	}

	return async.Completed[any](Raw(tmpl.Stringify(ctx.Base())))
}

func resolveJSON(ctx *tmpl.EvalContext) *async.Future[any] {
	b, err := json.MarshalNoEscape(ctx.Base())
	if err != nil {
		return async.Failed[any](err)
	}

	return async.Completed[any](Raw(b))
}
