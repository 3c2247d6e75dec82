package tmpl

import (
	"math/big"
	"reflect"

	"github.com/shopspring/decimal"
)

// IsFalsy reports whether v is falsy: nil, NotFound, false, the empty
// string, numeric zero, and empty collections.
func IsFalsy(v any) bool {
	if it, ok := v.(*IterationItem); ok {
		v = it.Value
	}

	switch v := v.(type) {
	case nil, *NotFound:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case int:
		return v == 0
	case int64:
		return v == 0
	case float64:
		return v == 0
	case decimal.Decimal:
		return v.IsZero()
	case *big.Int:
		return v == nil || v.Sign() == 0
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Bool:
		return !rv.Bool()
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}

	return false
}

// IsTruthy is the negation of IsFalsy.
func IsTruthy(v any) bool { return !IsFalsy(v) }
