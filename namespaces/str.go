package namespaces

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/spf13/cast"

	"github.com/ardnew/brace/async"
	"github.com/ardnew/brace/tmpl"
)

// StrNamespace is the namespace of the string helper resolver.
const StrNamespace = "str"

// String provides string helpers.
//
// Properties: nl, tab, space.
//
// Methods:
//
//	slug(s)             URL-safe slug of s
//	concat(a, b, ...)   arguments joined without a separator
//	join(sep, a, ...)   arguments joined by sep; slices are flattened
//	fmt(format, ...)    Printf-style formatting
//	repeat(s, n)        s repeated n times
type String struct {
	priority int
}

// NewString returns the string helper resolver.
func NewString() *String { return &String{priority: tmpl.PriorityDefault} }

// Namespace implements [tmpl.NamespaceResolver].
func (s *String) Namespace() string { return StrNamespace }

// Priority implements [tmpl.NamespaceResolver].
func (s *String) Priority() int { return s.priority }

var strProps = map[string]any{
	"nl":    "\n",
	"tab":   "\t",
	"space": " ",
}

var strMethods = methods{
	"slug": {1, func(_ *tmpl.EvalContext, args []any) (any, error) {
		return slug.Make(tmpl.Stringify(args[0])), nil
	}},
	"concat": {0, func(_ *tmpl.EvalContext, args []any) (any, error) {
		return strings.Join(flatten(args), ""), nil
	}},
	"join": {1, func(_ *tmpl.EvalContext, args []any) (any, error) {
		return strings.Join(flatten(args[1:]), tmpl.Stringify(args[0])), nil
	}},
	"fmt": {1, func(_ *tmpl.EvalContext, args []any) (any, error) {
		return fmt.Sprintf(tmpl.Stringify(args[0]), args[1:]...), nil
	}},
	"repeat": {2, func(_ *tmpl.EvalContext, args []any) (any, error) {
		n, err := cast.ToIntE(args[1])
		if err != nil {
			return nil, err
		}

		if n < 0 {
			return nil, fmt.Errorf("repeat: negative count %d", n)
		}

		return strings.Repeat(tmpl.Stringify(args[0]), n), nil
	}},
}

// Resolve implements [tmpl.NamespaceResolver].
func (s *String) Resolve(ctx *tmpl.EvalContext) *async.Future[any] {
	return dispatch(ctx, func(name string) (any, bool) {
		v, ok := strProps[name]

		return v, ok
	}, strMethods)
}

// flatten stringifies args, expanding slices in place.
func flatten(args []any) []string {
	var out []string

	for _, a := range args {
		switch v := a.(type) {
		case []string:
			out = append(out, v...)
		case []any:
			out = append(out, flatten(v)...)
		default:
			out = append(out, tmpl.Stringify(v))
		}
	}

	return out
}
