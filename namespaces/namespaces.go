package namespaces

import (
	"fmt"

	"github.com/ardnew/brace/async"
	"github.com/ardnew/brace/tmpl"
)

// Install registers the str and expr namespaces on b, and env when it is
// not nil.
func Install(b *tmpl.Builder, env *Env) *tmpl.Builder {
	if env != nil {
		b.AddNamespaceResolver(env)
	}

	return b.AddNamespaceResolver(NewString(), NewExpr())
}

// method is a virtual method of a namespace. args are the evaluated
// parameters of the call.
type method func(ctx *tmpl.EvalContext, args []any) (any, error)

// methods maps method names to implementations along with the minimum
// number of arguments each requires.
type methods map[string]struct {
	min int
	fn  method
}

// dispatch resolves ctx against a namespace. Properties are looked up with
// prop; calls are dispatched through ms after their parameters resolve.
func dispatch(ctx *tmpl.EvalContext, prop func(string) (any, bool), ms methods) *async.Future[any] {
	if !ctx.IsVirtualMethod() {
		if prop != nil {
			if v, ok := prop(ctx.Name()); ok {
				return async.Completed(v)
			}
		}

		return async.Completed[any](tmpl.NotFoundResult(ctx))
	}

	m, ok := ms[ctx.Name()]
	if !ok {
		return async.Completed[any](tmpl.NotFoundResult(ctx))
	}

	if n := len(ctx.Params()); n < m.min {
		return async.Failed[any](fmt.Errorf("%s: want at least %d arguments, got %d", ctx.Name(), m.min, n))
	}

	return async.Map(ctx.EvaluateParams(), func(args []any) (any, error) {
		return m.fn(ctx, args)
	})
}
