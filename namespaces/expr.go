package namespaces

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/brace/async"
	"github.com/ardnew/brace/tmpl"
)

// ExprNamespace is the namespace of the expression resolver.
const ExprNamespace = "expr"

// Expr evaluates expr-lang programs against the names visible where the
// expression appears. Undefined names evaluate to nil.
//
//	{expr:eval('price * qty')}
//	{#if expr:eval('len(items) > 2')}...{/if}
//
// Compiled programs are cached by source and shared between templates.
type Expr struct {
	priority int
	programs sync.Map
	methods  methods
}

// NewExpr returns the expression resolver.
func NewExpr() *Expr {
	x := &Expr{priority: tmpl.PriorityDefault}
	x.methods = methods{
		"eval": {1, func(ctx *tmpl.EvalContext, args []any) (any, error) {
			return x.Eval(tmpl.Stringify(args[0]), ctx.ResolutionContext().Bindings())
		}},
	}

	return x
}

// Namespace implements [tmpl.NamespaceResolver].
func (x *Expr) Namespace() string { return ExprNamespace }

// Priority implements [tmpl.NamespaceResolver].
func (x *Expr) Priority() int { return x.priority }

// Resolve implements [tmpl.NamespaceResolver].
func (x *Expr) Resolve(ctx *tmpl.EvalContext) *async.Future[any] {
	return dispatch(ctx, nil, x.methods)
}

// Eval compiles source, or reuses a cached program, and runs it with env.
func (x *Expr) Eval(source string, env map[string]any) (any, error) {
	program, err := x.compile(source)
	if err != nil {
		return nil, err
	}

	v, err := vm.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("expr %q: %w", source, err)
	}

	return v, nil
}

func (x *Expr) compile(source string) (*vm.Program, error) {
	if p, ok := x.programs.Load(source); ok {
		return p.(*vm.Program), nil
	}

	program, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("expr %q: %w", source, err)
	}

	p, _ := x.programs.LoadOrStore(source, program)

	return p.(*vm.Program), nil
}
