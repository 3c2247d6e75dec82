package tmpl

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/ardnew/brace/async"
)

var errorType = reflect.TypeFor[error]()

// appliesToReflection accepts structs, pointers to structs and any value
// whose type declares methods.
func appliesToReflection(ctx *EvalContext) bool {
	if ctx.base == nil {
		return false
	}

	switch ctx.base.(type) {
	case *iterationData, *NotFound:
		return false
	}

	t := reflect.TypeOf(ctx.base)
	if t.NumMethod() > 0 {
		return true
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Kind() == reflect.Struct
}

// memberNames returns the Go identifiers a template name may refer to:
// `name` matches Name, GetName and IsName.
func memberNames(name string) []string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return nil
	}

	exported := string(unicode.ToUpper(r)) + name[size:]

	return []string{exported, "Get" + exported, "Is" + exported}
}

// resolveReflection resolves exported fields and methods. Methods may
// return a single value, or a value and an error.
func resolveReflection(ctx *EvalContext) *async.Future[any] {
	rv := reflect.ValueOf(ctx.base)
	names := memberNames(ctx.name)

	for _, n := range names {
		m := rv.MethodByName(n)
		if !m.IsValid() {
			continue
		}

		if !ctx.IsVirtualMethod() {
			if m.Type().NumIn() == 0 {
				return callMethod(ctx, m, nil)
			}

			continue
		}

		if !acceptsArgs(m.Type(), len(ctx.Params())) {
			continue
		}

		return async.Then(ctx.EvaluateParams(), func(args []any) *async.Future[any] {
			return callMethod(ctx, m, args)
		})
	}

	if ctx.IsVirtualMethod() {
		return notFound(ctx)
	}

	sv := indirect(rv)
	if sv.Kind() != reflect.Struct {
		return notFound(ctx)
	}

	if len(names) > 0 {
		if f, ok := sv.Type().FieldByName(names[0]); ok && f.IsExported() {
			return completed(sv.FieldByIndex(f.Index).Interface())
		}
	}

	// Fall back to a case-insensitive field match such as `url` for URL.
	for i := range sv.NumField() {
		if f := sv.Type().Field(i); f.IsExported() && strings.EqualFold(f.Name, ctx.name) {
			return completed(sv.Field(i).Interface())
		}
	}

	return notFound(ctx)
}

func acceptsArgs(t reflect.Type, n int) bool {
	if t.IsVariadic() {
		return n >= t.NumIn()-1
	}

	return t.NumIn() == n
}

func callMethod(ctx *EvalContext, m reflect.Value, args []any) *async.Future[any] {
	t := m.Type()
	in := make([]reflect.Value, len(args))

	for i, a := range args {
		var pt reflect.Type
		if t.IsVariadic() && i >= t.NumIn()-1 {
			pt = t.In(t.NumIn() - 1).Elem()
		} else {
			pt = t.In(i)
		}

		v, err := convertArg(unwrapItem(a), pt)
		if err != nil {
			return async.Failed[any](ErrResolverFailure.At(ctx.expr.Origin()).
				Format("argument %d of %s: %v", i, ctx.name, err))
		}

		in[i] = v
	}

	out := m.Call(in)

	switch {
	case len(out) == 0:
		return completed(nil)
	case len(out) == 2 && t.Out(1).Implements(errorType):
		if err, _ := out[1].Interface().(error); err != nil {
			return async.Failed[any](err)
		}
	}

	return completed(out[0].Interface())
}

// convertArg converts a template value to the parameter type of a method.
func convertArg(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil || IsNotFound(v) {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	var (
		c   any
		err error
	)

	switch t.Kind() {
	case reflect.String:
		c = Stringify(v)
	case reflect.Bool:
		c, err = cast.ToBoolE(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		c, err = cast.ToInt64E(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		c, err = cast.ToUint64E(v)
	case reflect.Float32, reflect.Float64:
		c, err = cast.ToFloat64E(v)
	default:
		if rv.Type().ConvertibleTo(t) {
			return rv.Convert(t), nil
		}

		return reflect.Value{}, ErrResolverFailure.Format("cannot use %s as %s", rv.Type(), t)
	}

	if err != nil {
		return reflect.Value{}, err
	}

	return reflect.ValueOf(c).Convert(t), nil
}
