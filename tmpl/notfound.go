package tmpl

import "log/slog"

// NotFound is the result of a lookup that no resolver could satisfy. It is
// falsy, iterates as empty and renders as the empty string, but it is
// distinct from nil.
type NotFound struct {
	Name   string
	Base   any
	Method bool
}

// String returns a constant marker.
func (n *NotFound) String() string { return "NOT_FOUND" }

// LogValue implements slog.LogValuer.
func (n *NotFound) LogValue() slog.Value {
	return slog.GroupValue(slog.String("name", n.Name), slog.Bool("method", n.Method))
}

// IsNotFound reports whether v is a NotFound result.
func IsNotFound(v any) bool {
	_, ok := v.(*NotFound)

	return ok
}

// NotFoundResult returns the NotFound value for the lookup described by ctx.
func NotFoundResult(ctx *EvalContext) *NotFound {
	return &NotFound{Name: ctx.name, Base: ctx.base, Method: ctx.part != nil && ctx.part.virtual}
}
