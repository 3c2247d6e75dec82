package tmpl

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/brace/async"
	"github.com/ardnew/brace/log"
)

// evaluator resolves expressions part by part through the resolver chain.
type evaluator struct {
	resolvers  []ValueResolver
	namespaces map[string][]NamespaceResolver
	strict     bool
	observer   Observer
	logger     log.Logger
}

func (e *evaluator) evaluate(expr *Expression, rc *ResolutionContext) *async.Future[any] {
	if expr.hasLiteral {
		return async.Completed(expr.literal)
	}

	if expr.namespace != "" {
		return e.evaluateNamespace(expr, rc)
	}

	first := expr.parts[0]
	if first.hasLiteral {
		return e.next(expr, rc, first.literal, 1)
	}

	f := e.resolveRoot(expr, first, rc, rc)
	if v, err, ok := f.Result(); ok {
		if err != nil {
			return f
		}

		return e.next(expr, rc, v, 1)
	}

	return async.Then(f, func(v any) *async.Future[any] {
		return e.next(expr, rc, v, 1)
	})
}

func (e *evaluator) evaluateNamespace(expr *Expression, rc *ResolutionContext) *async.Future[any] {
	list, ok := e.namespaces[expr.namespace]
	if !ok {
		return async.Failed[any](ErrNamespaceResolverNotFound.At(expr.origin).
			Format("%q in {%s}", expr.namespace, expr.source))
	}

	first := expr.parts[0]
	ctx := &EvalContext{name: first.name, part: first, rc: rc, expr: expr}

	f := e.tryNamespace(list, 0, ctx)

	return async.Then(f, func(v any) *async.Future[any] {
		return e.next(expr, rc, v, 1)
	})
}

// tryNamespace consults the namespace resolvers in priority order until one
// returns something other than NotFound.
func (e *evaluator) tryNamespace(list []NamespaceResolver, i int, ctx *EvalContext) *async.Future[any] {
	if i >= len(list) {
		return async.Completed[any](NotFoundResult(ctx))
	}

	f := e.guard(ctx, list[i].Resolve)

	return async.Then(f, func(v any) *async.Future[any] {
		if IsNotFound(v) {
			return e.tryNamespace(list, i+1, ctx)
		}

		return async.Completed(v)
	})
}

// next resolves the remaining parts from index i against base. Completed
// futures are consumed in a loop so that synchronous chains do not recurse.
func (e *evaluator) next(expr *Expression, rc *ResolutionContext, base any, i int) *async.Future[any] {
	for ; i < len(expr.parts); i++ {
		f := e.resolvePart(expr, expr.parts[i], rc, base)

		v, err, ok := f.Result()
		if !ok {
			following := i + 1

			return async.Then(f, func(v any) *async.Future[any] {
				return e.next(expr, rc, v, following)
			})
		}

		if err != nil {
			return f
		}

		base = v
	}

	return e.finish(expr, rc, base)
}

// finish applies strict rendering to the final value of an expression.
func (e *evaluator) finish(expr *Expression, rc *ResolutionContext, v any) *async.Future[any] {
	nf, ok := v.(*NotFound)
	if !ok {
		return async.Completed(v)
	}

	if !e.strict {
		e.logger.Trace("expression not found",
			slog.String("expression", expr.source),
			slog.Any("origin", expr.origin))

		return async.Completed(v)
	}

	return async.Failed[any](e.notFoundError(expr, rc, nf))
}

// resolveRoot resolves the first part of a data-rooted expression, falling
// back to the parent contexts while the lookup is not found.
func (e *evaluator) resolveRoot(
	expr *Expression,
	part *Part,
	rc, frame *ResolutionContext,
) *async.Future[any] {
	f := e.resolvePart(expr, part, rc, frame.data)

	if frame.parent == nil {
		return f
	}

	return async.Then(f, func(v any) *async.Future[any] {
		if IsNotFound(v) {
			return e.resolveRoot(expr, part, rc, frame.parent)
		}

		return async.Completed(v)
	})
}

// resolvePart resolves one part against base. An iteration item is first
// unwrapped; names its value does not have are looked up in the iteration
// metadata.
func (e *evaluator) resolvePart(expr *Expression, part *Part, rc *ResolutionContext, base any) *async.Future[any] {
	item, isItem := base.(*IterationItem)
	if isItem {
		base = item.Value
	}

	ctx := &EvalContext{base: base, name: part.name, part: part, rc: rc, expr: expr}
	f := e.resolveValue(ctx)

	if !isItem || part.virtual {
		return f
	}

	return async.Then(f, func(v any) *async.Future[any] {
		if IsNotFound(v) {
			if m, ok := item.metadata(part.name); ok {
				return async.Completed(m)
			}
		}

		return async.Completed(v)
	})
}

// resolveValue finds the value of ctx using the part cache if possible.
func (e *evaluator) resolveValue(ctx *EvalContext) *async.Future[any] {
	if c := ctx.part.cache.Load(); c != nil && c.typ == reflect.TypeOf(ctx.base) && c.resolver.AppliesTo(ctx) {
		e.observeCache(true)

		return e.flatten(ctx, e.guard(ctx, c.resolver.Resolve), c.index, false, false)
	}

	e.observeCache(false)

	return e.scan(ctx, 0, true, true)
}

// scan tries the resolvers from index start. first reports that no earlier
// resolver applied, and cacheable that every resolver scanned so far allows
// caching.
func (e *evaluator) scan(ctx *EvalContext, start int, first, cacheable bool) *async.Future[any] {
	for i := start; i < len(e.resolvers); i++ {
		r := e.resolvers[i]
		cacheable = cacheable && isCacheable(r)

		if !r.AppliesTo(ctx) {
			continue
		}

		return e.flatten(ctx, e.guard(ctx, r.Resolve), i, first && cacheable, cacheable)
	}

	return async.Completed[any](NotFoundResult(ctx))
}

// flatten continues the scan after a NotFound result, records the resolver
// at index in the part cache if store is set and awaits values that are
// themselves futures.
func (e *evaluator) flatten(ctx *EvalContext, f *async.Future[any], index int, store, cacheable bool) *async.Future[any] {
	return async.Then(f, func(v any) *async.Future[any] {
		if _, ok := v.(*NotFound); ok {
			return e.scan(ctx, index+1, false, cacheable)
		}

		if store {
			ctx.part.cache.CompareAndSwap(nil, &cachedResolver{
				typ:      reflect.TypeOf(ctx.base),
				index:    index,
				resolver: e.resolvers[index],
			})
		}

		if nested, ok := v.(*async.Future[any]); ok {
			return nested
		}

		return async.Completed(v)
	})
}

// guard converts panics and foreign errors of a resolver into
// ErrResolverFailure.
func (e *evaluator) guard(ctx *EvalContext, resolve func(*EvalContext) *async.Future[any]) (f *async.Future[any]) {
	defer func() {
		if r := recover(); r != nil {
			f = async.Failed[any](ErrResolverFailure.At(ctx.expr.origin).
				Format("%s in {%s}: %v", ctx.name, ctx.expr.source, r))
		}
	}()

	f = resolve(ctx)
	if f == nil {
		return async.Completed[any](NotFoundResult(ctx))
	}

	return async.Recover(f, func(err error) *async.Future[any] {
		if _, ok := err.(*Error); ok {
			return async.Failed[any](err)
		}

		return async.Failed[any](ErrResolverFailure.At(ctx.expr.origin).
			Format("%s in {%s}", ctx.name, ctx.expr.source).Wrap(err))
	})
}

func (e *evaluator) observeCache(hit bool) {
	if e.observer != nil {
		e.observer.ResolverCache(hit)
	}
}

// notFoundError builds the strict rendering error for nf, naming map keys,
// methods and properties differently and suggesting close matches.
func (e *evaluator) notFoundError(expr *Expression, rc *ResolutionContext, nf *NotFound) *Error {
	var (
		what       string
		candidates []string
	)

	// Report the first lookup of the chain that failed. Every part after
	// it wraps the previous NotFound, so the depth locates the part.
	depth := 1
	for inner, ok := nf.Base.(*NotFound); ok; inner, ok = nf.Base.(*NotFound) {
		nf = inner
		depth++
	}

	first := depth == len(expr.parts)

	base := nf.Base
	if item, ok := base.(*IterationItem); ok {
		base = item.Value
	}

	switch {
	case first && expr.namespace != "":
		what = fmt.Sprintf("Property %q not found in namespace %q", nf.Name, expr.namespace)

	case first && !expr.parts[0].hasLiteral:
		candidates = visibleNames(rc)
		what = fmt.Sprintf("Entry %q not found in the data", nf.Name)

	case nf.Method:
		what = fmt.Sprintf("Method %q not found on the base object %q", nf.Name, typeName(base))

	case isMap(base):
		candidates = mapKeys(base)
		what = fmt.Sprintf("Key %q not found in the map with keys %v", nf.Name, candidates)

	default:
		candidates = fieldNames(base)
		what = fmt.Sprintf("Property %q not found on the base object %q", nf.Name, typeName(base))
	}

	err := ErrPropertyNotFound.At(expr.origin).
		Format("%s in expression {%s}", what, expr.source).
		With(slog.String("name", nf.Name))

	if hint := suggest(nf.Name, candidates); hint != "" {
		err = err.With(slog.String("hint", hint))
		err = err.Format("%s in expression {%s}, did you mean %q?", what, expr.source, hint)
	}

	return err
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}

	return reflect.TypeOf(v).String()
}

// suggest returns the best fuzzy match of name among candidates.
func suggest(name string, candidates []string) string {
	if name == "" || len(candidates) == 0 {
		return ""
	}

	matches := fuzzy.Find(strings.ToLower(name), lowerAll(candidates))
	if len(matches) == 0 {
		return ""
	}

	return candidates[matches[0].Index]
}

func lowerAll(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = strings.ToLower(v)
	}

	return out
}

func visibleNames(rc *ResolutionContext) []string {
	if rc == nil {
		return nil
	}

	return sortedKeys(rc.Bindings())
}
