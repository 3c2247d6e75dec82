package tmpl

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/ardnew/brace/async"
)

// DefaultValueResolvers returns the built-in resolvers for maps, slices,
// strings, numbers, iteration items, `this`, the `or` family and exported
// struct members.
func DefaultValueResolvers() []ValueResolver {
	return []ValueResolver{
		NewValueResolver(PriorityHigh, appliesToIteration, resolveIteration),
		NewValueResolver(PriorityHigh, appliesToThis, resolveThis),
		NewValueResolver(PriorityHigh, appliesToOr, resolveOr),
		NewValueResolver(PriorityHigh, appliesToName("orEmpty", 0), resolveOrEmpty),
		NewValueResolver(PriorityHigh, appliesToName("ifTruthy", 1), resolveIfTruthy),
		NewValueResolver(PriorityBuiltin, appliesToComparison, resolveComparison),
		NewValueResolver(PriorityBuiltin, appliesToKind(reflect.Map), resolveMap),
		NewValueResolver(PriorityBuiltin, appliesToKind(reflect.Slice, reflect.Array), resolveList),
		NewValueResolver(PriorityBuiltin, appliesToKind(reflect.String), resolveString),
		NewValueResolver(PriorityBuiltin, appliesToNumber, resolveNumber),
		NewValueResolver(PriorityBuiltin, appliesToType[MapEntry], resolveMapEntry),
		NewValueResolver(PriorityBuiltin, appliesToType[time.Time], resolveTime),
		NewValueResolver(PriorityReflection, appliesToReflection, resolveReflection),
	}
}

func completed(v any) *async.Future[any] { return async.Completed(v) }

func notFound(ctx *EvalContext) *async.Future[any] {
	return async.Completed[any](NotFoundResult(ctx))
}

func appliesToName(name string, params int) func(*EvalContext) bool {
	return func(ctx *EvalContext) bool {
		return ctx.name == name && len(ctx.Params()) == params
	}
}

func appliesToKind(kinds ...reflect.Kind) func(*EvalContext) bool {
	return func(ctx *EvalContext) bool {
		if ctx.base == nil {
			return false
		}

		return slices.Contains(kinds, reflect.TypeOf(ctx.base).Kind())
	}
}

func appliesToType[T any](ctx *EvalContext) bool {
	_, ok := ctx.base.(T)

	return ok
}

func appliesToIteration(ctx *EvalContext) bool {
	_, ok := ctx.base.(*iterationData)

	return ok && !ctx.IsVirtualMethod()
}

func resolveIteration(ctx *EvalContext) *async.Future[any] {
	d := ctx.base.(*iterationData)

	if ctx.name == d.alias {
		return completed(d.item)
	}

	if key, ok := d.metadataKey(ctx.name); ok {
		if v, ok := d.item.metadata(key); ok {
			return completed(v)
		}
	}

	return notFound(ctx)
}

func appliesToThis(ctx *EvalContext) bool {
	return ctx.name == "this" && !ctx.IsVirtualMethod()
}

func resolveThis(ctx *EvalContext) *async.Future[any] { return completed(ctx.base) }

func appliesToOr(ctx *EvalContext) bool {
	return (ctx.name == "or" || ctx.name == "?:") && len(ctx.Params()) == 1
}

func resolveOr(ctx *EvalContext) *async.Future[any] {
	if ctx.base == nil || IsNotFound(ctx.base) {
		return ctx.Evaluate(ctx.Params()[0])
	}

	return completed(ctx.base)
}

func resolveOrEmpty(ctx *EvalContext) *async.Future[any] {
	if ctx.base == nil || IsNotFound(ctx.base) {
		return completed([]any{})
	}

	return completed(ctx.base)
}

func resolveIfTruthy(ctx *EvalContext) *async.Future[any] {
	if IsFalsy(ctx.base) {
		return completed(nil)
	}

	return ctx.Evaluate(ctx.Params()[0])
}

func appliesToComparison(ctx *EvalContext) bool {
	op, ok := conditionOps[ctx.name]

	return ok && ctx.IsVirtualMethod() && len(ctx.Params()) == 1 && op.comparison()
}

func resolveComparison(ctx *EvalContext) *async.Future[any] {
	op := conditionOps[ctx.name]

	return async.Map(ctx.Evaluate(ctx.Params()[0]), func(v any) (any, error) {
		ok, err := compareOp(op, ctx.base, v)
		if err != nil {
			return nil, WrapError(err).At(ctx.expr.Origin())
		}

		return ok, nil
	})
}

// withParams evaluates the method arguments and applies fn.
func withParams(ctx *EvalContext, fn func([]any) (any, error)) *async.Future[any] {
	return async.Map(ctx.EvaluateParams(), fn)
}

func resolveMap(ctx *EvalContext) *async.Future[any] {
	rv := reflect.ValueOf(ctx.base)
	if rv.Type().Key().Kind() != reflect.String {
		return notFound(ctx)
	}

	if !ctx.IsVirtualMethod() {
		if m, ok := ctx.base.(map[string]any); ok {
			if v, ok := m[ctx.name]; ok {
				return completed(v)
			}
		} else if v := rv.MapIndex(reflect.ValueOf(ctx.name).Convert(rv.Type().Key())); v.IsValid() {
			return completed(v.Interface())
		}

		switch ctx.name {
		case "size", "length":
			return completed(rv.Len())
		case "isEmpty":
			return completed(rv.Len() == 0)
		case "keys", "keySet":
			keys := mapKeys(ctx.base)
			out := make([]any, len(keys))
			for i, k := range keys {
				out[i] = k
			}

			return completed(out)
		case "values", "entries", "entrySet":
			entries, _ := Iterate(ctx.base)
			if ctx.name != "values" {
				return completed(entries)
			}

			out := make([]any, len(entries))
			for i, e := range entries {
				out[i] = e.(MapEntry).Value
			}

			return completed(out)
		}

		return notFound(ctx)
	}

	switch {
	case ctx.name == "get" && len(ctx.Params()) == 1, ctx.name == "containsKey" && len(ctx.Params()) == 1:
		return withParams(ctx, func(args []any) (any, error) {
			v := rv.MapIndex(reflect.ValueOf(Stringify(args[0])).Convert(rv.Type().Key()))
			if ctx.name == "containsKey" {
				return v.IsValid(), nil
			}

			if !v.IsValid() {
				return nil, nil
			}

			return v.Interface(), nil
		})
	}

	return notFound(ctx)
}

func resolveList(ctx *EvalContext) *async.Future[any] {
	items, err := Iterate(ctx.base)
	if err != nil {
		return async.Failed[any](err)
	}

	if !ctx.IsVirtualMethod() {
		switch ctx.name {
		case "size", "length":
			return completed(len(items))
		case "isEmpty":
			return completed(len(items) == 0)
		case "first":
			if len(items) > 0 {
				return completed(items[0])
			}
		case "last":
			if len(items) > 0 {
				return completed(items[len(items)-1])
			}
		case "reversed":
			out := slices.Clone(items)
			slices.Reverse(out)

			return completed(out)
		default:
			if i, err := strconv.Atoi(ctx.name); err == nil && i >= 0 && i < len(items) {
				return completed(items[i])
			}
		}

		return notFound(ctx)
	}

	if len(ctx.Params()) != 1 {
		return notFound(ctx)
	}

	switch ctx.name {
	case "get", "take", "takeLast", "skip", "contains", "join":
	default:
		return notFound(ctx)
	}

	return withParams(ctx, func(args []any) (any, error) {
		if ctx.name == "contains" {
			return slices.ContainsFunc(items, func(v any) bool { return Equals(v, args[0]) }), nil
		}

		if ctx.name == "join" {
			parts := make([]string, len(items))
			for i, v := range items {
				parts[i] = Stringify(v)
			}

			return strings.Join(parts, Stringify(args[0])), nil
		}

		n, err := cast.ToIntE(unwrapItem(args[0]))
		if err != nil {
			return nil, ErrResolverFailure.At(ctx.expr.Origin()).
				Format("%s(%v): expected an integer", ctx.name, args[0])
		}

		n = max(n, 0)

		switch ctx.name {
		case "get":
			if n >= len(items) {
				return nil, nil
			}

			return items[n], nil
		case "take":
			return items[:min(n, len(items))], nil
		case "takeLast":
			return items[len(items)-min(n, len(items)):], nil
		default:
			return items[min(n, len(items)):], nil
		}
	})
}

func resolveString(ctx *EvalContext) *async.Future[any] {
	s := reflect.ValueOf(ctx.base).String()

	if !ctx.IsVirtualMethod() {
		switch ctx.name {
		case "length", "size":
			return completed(len([]rune(s)))
		case "isEmpty":
			return completed(s == "")
		case "upper", "toUpperCase":
			return completed(strings.ToUpper(s))
		case "lower", "toLowerCase":
			return completed(strings.ToLower(s))
		case "trim":
			return completed(strings.TrimSpace(s))
		case "capitalize":
			return completed(capitalize(s))
		case "slug":
			return completed(slug.Make(s))
		}

		return notFound(ctx)
	}

	n := len(ctx.Params())

	switch ctx.name {
	case "contains", "startsWith", "endsWith", "split", "indexOf":
		if n != 1 {
			return notFound(ctx)
		}
	case "replace":
		if n != 2 {
			return notFound(ctx)
		}
	case "substring":
		if n != 1 && n != 2 {
			return notFound(ctx)
		}
	case "fmt", "format", "concat", "+":
	default:
		return notFound(ctx)
	}

	return withParams(ctx, func(args []any) (any, error) {
		switch ctx.name {
		case "contains":
			return strings.Contains(s, Stringify(args[0])), nil
		case "startsWith":
			return strings.HasPrefix(s, Stringify(args[0])), nil
		case "endsWith":
			return strings.HasSuffix(s, Stringify(args[0])), nil
		case "indexOf":
			return strings.Index(s, Stringify(args[0])), nil
		case "split":
			parts := strings.Split(s, Stringify(args[0]))
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}

			return out, nil
		case "replace":
			return strings.ReplaceAll(s, Stringify(args[0]), Stringify(args[1])), nil
		case "substring":
			return substring(s, args)
		case "fmt", "format":
			for i, a := range args {
				args[i] = unwrapItem(a)
			}

			return fmt.Sprintf(s, args...), nil
		}

		var sb strings.Builder

		sb.WriteString(s)

		for _, a := range args {
			sb.WriteString(Stringify(a))
		}

		return sb.String(), nil
	})
}

func capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}

	return s
}

func substring(s string, args []any) (any, error) {
	runes := []rune(s)

	begin, err := cast.ToIntE(unwrapItem(args[0]))
	if err != nil {
		return nil, err
	}

	end := len(runes)
	if len(args) > 1 {
		if end, err = cast.ToIntE(unwrapItem(args[1])); err != nil {
			return nil, err
		}
	}

	begin = min(max(begin, 0), len(runes))
	end = min(max(end, begin), len(runes))

	return string(runes[begin:end]), nil
}

func appliesToNumber(ctx *EvalContext) bool {
	if !ctx.IsVirtualMethod() || len(ctx.Params()) != 1 {
		return false
	}

	_, ok := toDecimal(ctx.base)

	return ok && !isEnum(ctx.base)
}

func resolveNumber(ctx *EvalContext) *async.Future[any] {
	switch ctx.name {
	case "plus", "+", "minus", "-", "times", "*", "div", "/", "mod", "%":
	default:
		return notFound(ctx)
	}

	return withParams(ctx, func(args []any) (any, error) {
		a, _ := toDecimal(ctx.base)

		b, ok := toDecimal(unwrapItem(args[0]))
		if !ok {
			return nil, ErrIncomparableValues.At(ctx.expr.Origin()).
				Format("%s %s %s", typeName(ctx.base), ctx.name, typeName(args[0]))
		}

		var r decimal.Decimal

		switch ctx.name {
		case "plus", "+":
			r = a.Add(b)
		case "minus", "-":
			r = a.Sub(b)
		case "times", "*":
			r = a.Mul(b)
		default:
			if b.IsZero() {
				return nil, ErrResolverFailure.At(ctx.expr.Origin()).Format("division by zero")
			}

			if ctx.name == "mod" || ctx.name == "%" {
				r = a.Mod(b)
			} else {
				r = a.Div(b)
			}
		}

		return numberLike(ctx.base, unwrapItem(args[0]), r), nil
	})
}

// numberLike converts r back to int when both operands are integers and the
// result is whole, and to float64 otherwise.
func numberLike(a, b any, r decimal.Decimal) any {
	if isInteger(a) && isInteger(b) && r.IsInteger() {
		if _, ok := a.(int64); ok {
			return r.IntPart()
		}

		if _, ok := b.(int64); ok {
			return r.IntPart()
		}

		return int(r.IntPart())
	}

	return r.InexactFloat64()
}

func isInteger(v any) bool {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}

	return false
}

func resolveMapEntry(ctx *EvalContext) *async.Future[any] {
	e := ctx.base.(MapEntry)

	switch ctx.name {
	case "key", "getKey":
		return completed(e.Key)
	case "value", "getValue":
		return completed(e.Value)
	}

	return notFound(ctx)
}

func resolveTime(ctx *EvalContext) *async.Future[any] {
	t := ctx.base.(time.Time)

	switch {
	case ctx.name == "format" && len(ctx.Params()) == 1:
		return withParams(ctx, func(args []any) (any, error) {
			return t.Format(Stringify(args[0])), nil
		})
	case ctx.name == "year" && !ctx.IsVirtualMethod():
		return completed(t.Year())
	case ctx.name == "unix" && !ctx.IsVirtualMethod():
		return completed(t.Unix())
	}

	return notFound(ctx)
}
