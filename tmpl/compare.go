package tmpl

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Equals reports whether a and b are equal. Numbers of different types are
// compared by value.
func Equals(a, b any) bool {
	a, b = unwrapItem(a), unwrapItem(b)

	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if s, ok := b.(string); ok {
		if st, ok := a.(fmt.Stringer); ok {
			return st.String() == s
		}
	}

	if s, ok := a.(string); ok {
		if st, ok := b.(fmt.Stringer); ok {
			return st.String() == s
		}
	}

	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.Equal(db)
		}

		return false
	}

	switch x := a.(type) {
	case string:
		y, ok := b.(string)

		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)

		return ok && x.Equal(y)
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb && ta.Comparable() {
		return a == b
	}

	return reflect.DeepEqual(a, b)
}

// Compare orders a and b. It supports numbers of any type, strings and
// time.Time values; other combinations are incomparable.
func Compare(a, b any) (int, error) {
	a, b = unwrapItem(a), unwrapItem(b)

	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.Cmp(db), nil
		}
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	}

	return 0, ErrIncomparableValues.Format("%s and %s", typeName(a), typeName(b))
}

func unwrapItem(v any) any {
	if it, ok := v.(*IterationItem); ok {
		return it.Value
	}

	return v
}

// toDecimal converts numeric values, including named numeric types.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case *decimal.Decimal:
		if x == nil {
			return decimal.Decimal{}, false
		}

		return *x, true
	case *big.Int:
		if x == nil {
			return decimal.Decimal{}, false
		}

		return decimal.NewFromBigInt(x, 0), true
	case float32:
		return decimal.NewFromFloat32(x), true
	case float64:
		return decimal.NewFromFloat(x), true
	case bool, string:
		return decimal.Decimal{}, false
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0), true
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(rv.Float()), true
	}

	return decimal.Decimal{}, false
}
