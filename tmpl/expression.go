package tmpl

import (
	"reflect"
	"strings"
	"sync/atomic"
)

// Expression is the immutable parsed form of a value expression such as
// `item.name`, `data:user.roles.take(3)` or `'literal'`.
type Expression struct {
	namespace  string
	parts      []*Part
	literal    any
	hasLiteral bool
	origin     Origin
	source     string
}

// Part is one segment of a dotted expression. A part with parameters is a
// virtual method call, e.g. `take(3)`.
type Part struct {
	name       string
	typeHint   string
	params     []*Expression
	virtual    bool
	literal    any
	hasLiteral bool

	// cache is the single-assignment resolver cache. A lost race on the
	// first write only costs another full resolver scan.
	cache atomic.Pointer[cachedResolver]
}

type cachedResolver struct {
	typ      reflect.Type
	index    int
	resolver ValueResolver
}

// newLiteralExpression creates an expression for a precomputed constant.
func newLiteralExpression(source string, value any, origin Origin) *Expression {
	return &Expression{
		literal:    value,
		hasLiteral: true,
		origin:     origin,
		source:     source,
	}
}

// Namespace returns the namespace prefix, or the empty string.
func (e *Expression) Namespace() string { return e.namespace }

// HasNamespace reports whether the expression starts with `ns:`.
func (e *Expression) HasNamespace() bool { return e.namespace != "" }

// Parts returns the ordered parts. Literal expressions have no parts.
func (e *Expression) Parts() []*Part { return e.parts }

// IsLiteral reports whether the expression is a precomputed constant.
func (e *Expression) IsLiteral() bool { return e.hasLiteral }

// Literal returns the precomputed constant of a literal expression.
func (e *Expression) Literal() any { return e.literal }

// Origin returns the position of the expression in its template.
func (e *Expression) Origin() Origin { return e.origin }

// String returns the source text of the expression.
func (e *Expression) String() string { return e.source }

// Name returns the part name (or method name for virtual methods).
func (p *Part) Name() string { return p.name }

// TypeHint returns the type hint bound to the part at parse time, if any.
func (p *Part) TypeHint() string { return p.typeHint }

// IsVirtualMethod reports whether the part is a method call.
func (p *Part) IsVirtualMethod() bool { return p.virtual }

// Params returns the argument expressions of a virtual method part.
func (p *Part) Params() []*Expression { return p.params }

// IsLiteral reports whether the part is a literal base such as `'abc'` in
// `'abc'.length`.
func (p *Part) IsLiteral() bool { return p.hasLiteral }

// String returns the part in template syntax.
func (p *Part) String() string {
	if !p.virtual {
		return p.name
	}

	args := make([]string, len(p.params))
	for i, param := range p.params {
		args[i] = param.String()
	}

	return p.name + "(" + strings.Join(args, ",") + ")"
}
