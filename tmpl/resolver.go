package tmpl

import (
	"cmp"
	"slices"

	"github.com/ardnew/brace/async"
)

// Resolver priorities. Higher values are consulted first; resolvers of
// equal priority keep their registration order.
const (
	PriorityDefault    = 1
	PriorityBuiltin    = PriorityDefault
	PriorityHigh       = 10
	PriorityReflection = -1
)

// ValueResolver resolves one part of an expression against a base object.
//
// A resolver that cannot resolve an applicable lookup returns a completed
// future holding a *NotFound; the evaluator then tries the next applicable
// resolver.
type ValueResolver interface {
	Priority() int
	AppliesTo(ctx *EvalContext) bool
	Resolve(ctx *EvalContext) *async.Future[any]
}

// NamespaceResolver resolves the first part of an expression with a
// namespace prefix such as `env:HOME`.
type NamespaceResolver interface {
	Namespace() string
	Priority() int
	Resolve(ctx *EvalContext) *async.Future[any]
}

// Cacheable is implemented by resolvers whose applicability depends on more
// than the dynamic type of the base object. Returning false disables the
// per-part resolver cache.
type Cacheable interface {
	Cacheable() bool
}

func isCacheable(r ValueResolver) bool {
	c, ok := r.(Cacheable)

	return !ok || c.Cacheable()
}

// EvalContext describes a single part lookup.
type EvalContext struct {
	base any
	name string
	part *Part
	rc   *ResolutionContext
	expr *Expression
}

// Base returns the object the part is resolved against.
func (c *EvalContext) Base() any { return c.base }

// Name returns the part name.
func (c *EvalContext) Name() string { return c.name }

// Params returns the virtual method arguments, if any.
func (c *EvalContext) Params() []*Expression {
	if c.part == nil {
		return nil
	}

	return c.part.params
}

// IsVirtualMethod reports whether the part is a method call.
func (c *EvalContext) IsVirtualMethod() bool { return c.part != nil && c.part.virtual }

// ResolutionContext returns the context of the evaluation.
func (c *EvalContext) ResolutionContext() *ResolutionContext { return c.rc }

// Expression returns the expression being evaluated.
func (c *EvalContext) Expression() *Expression { return c.expr }

// Evaluate evaluates expr in the context of the lookup.
func (c *EvalContext) Evaluate(expr *Expression) *async.Future[any] {
	return c.rc.Evaluate(expr)
}

// EvaluateParams concurrently evaluates all method arguments.
func (c *EvalContext) EvaluateParams() *async.Future[[]any] {
	params := c.Params()

	fs := make([]*async.Future[any], len(params))
	for i, p := range params {
		fs[i] = c.rc.Evaluate(p)
	}

	return async.All(fs)
}

// NewValueResolver returns a resolver from functions.
func NewValueResolver(
	priority int,
	appliesTo func(*EvalContext) bool,
	resolve func(*EvalContext) *async.Future[any],
) ValueResolver {
	return &funcResolver{priority: priority, appliesTo: appliesTo, resolve: resolve}
}

type funcResolver struct {
	priority  int
	appliesTo func(*EvalContext) bool
	resolve   func(*EvalContext) *async.Future[any]
}

func (r *funcResolver) Priority() int                               { return r.priority }
func (r *funcResolver) AppliesTo(ctx *EvalContext) bool             { return r.appliesTo(ctx) }
func (r *funcResolver) Resolve(ctx *EvalContext) *async.Future[any] { return r.resolve(ctx) }

// prioritized is implemented by every ordered extension point.
type prioritized interface {
	Priority() int
}

// sortByPriority sorts descending by priority, stable on registration order.
func sortByPriority[T prioritized](s []T) {
	slices.SortStableFunc(s, func(a, b T) int {
		return cmp.Compare(b.Priority(), a.Priority())
	})
}
