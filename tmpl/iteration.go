package tmpl

import (
	"iter"
	"reflect"
	"slices"
	"strconv"
)

// IterationItem is the value bound to a loop alias. Names that the element
// does not define resolve to the iteration metadata, e.g. `it.count`.
type IterationItem struct {
	Value   any
	Index   int
	HasNext bool
}

// iterationKeys lists the metadata names of an IterationItem.
var iterationKeys = []string{
	"count", "index", "hasNext", "isFirst", "isLast",
	"odd", "even", "isOdd", "isEven", "indexParity",
}

// Count returns the 1-based position of the item.
func (it *IterationItem) Count() int { return it.Index + 1 }

func (it *IterationItem) metadata(key string) (any, bool) {
	switch key {
	case "count":
		return it.Index + 1, true
	case "index":
		return it.Index, true
	case "hasNext":
		return it.HasNext, true
	case "isFirst", "first":
		return it.Index == 0, true
	case "isLast", "last":
		return !it.HasNext, true
	case "odd", "isOdd":
		return it.Index%2 == 1, true
	case "even", "isEven":
		return it.Index%2 == 0, true
	case "indexParity":
		if it.Index%2 == 0 {
			return "even", true
		}

		return "odd", true
	}

	return nil, false
}

// String returns the string form of the element.
func (it *IterationItem) String() string { return Stringify(it.Value) }

// iterationData is the data of the child context of one loop iteration.
type iterationData struct {
	alias  string
	prefix string
	item   *IterationItem
}

// MapEntry is a key-value pair produced by iterating a map.
type MapEntry struct {
	Key   any
	Value any
}

// String returns "key=value".
func (e MapEntry) String() string { return Stringify(e.Key) + "=" + Stringify(e.Value) }

// Iterate materializes the elements of an iterable value:
//
//   - slices and arrays yield their elements;
//   - maps yield MapEntry values ordered by key;
//   - an integer n yields 1 through n, up to MaxIntRange;
//   - channels yield received values until closed;
//   - iter.Seq functions yield their sequence;
//   - NotFound yields nothing.
func Iterate(v any) ([]any, error) {
	if it, ok := v.(*IterationItem); ok {
		v = it.Value
	}

	switch v := v.(type) {
	case nil:
		return nil, ErrIteration.Format("cannot iterate null")
	case *NotFound:
		return nil, nil
	case []any:
		return v, nil
	case iter.Seq[any]:
		return slices.Collect(v), nil
	}

	rv := indirect(reflect.ValueOf(v))

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}

		return out, nil

	case reflect.Map:
		keys := rv.MapKeys()
		slices.SortFunc(keys, compareKeys)

		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = MapEntry{Key: k.Interface(), Value: rv.MapIndex(k).Interface()}
		}

		return out, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intRange(rv.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n := rv.Uint(); n > MaxIntRange {
			return nil, ErrIteration.Format("integer range %d exceeds %d", n, MaxIntRange)
		}

		return intRange(int64(rv.Uint()))

	case reflect.Chan:
		if rv.Type().ChanDir()&reflect.RecvDir == 0 {
			break
		}

		var out []any

		for {
			x, ok := rv.Recv()
			if !ok {
				return out, nil
			}

			out = append(out, x.Interface())
		}

	case reflect.Func:
		if out, ok := collectSeq(rv); ok {
			return out, nil
		}

	case reflect.Invalid:
		return nil, ErrIteration.Format("cannot iterate null")
	}

	return nil, ErrIteration.Format("cannot iterate value of type %s", typeName(v))
}

// MaxIntRange is the largest integer n that iterates as 1 through n.
const MaxIntRange = 1 << 24

func intRange(n int64) ([]any, error) {
	if n <= 0 {
		return []any{}, nil
	}

	if n > MaxIntRange {
		return nil, ErrIteration.Format("integer range %d exceeds %d", n, MaxIntRange)
	}

	out := make([]any, n)
	for i := range out {
		out[i] = i + 1
	}

	return out, nil
}

// collectSeq calls a function of the form func(yield func(T) bool).
func collectSeq(fn reflect.Value) ([]any, bool) {
	t := fn.Type()
	if t.NumIn() != 1 || t.NumOut() != 0 {
		return nil, false
	}

	yt := t.In(0)
	if yt.Kind() != reflect.Func || yt.NumIn() != 1 || yt.NumOut() != 1 ||
		yt.Out(0).Kind() != reflect.Bool {
		return nil, false
	}

	var out []any

	yield := reflect.MakeFunc(yt, func(args []reflect.Value) []reflect.Value {
		out = append(out, args[0].Interface())

		return []reflect.Value{reflect.ValueOf(true)}
	})

	fn.Call([]reflect.Value{yield})

	return out, true
}

// metadataKey splits `alias<prefix>key` into the metadata key.
func (d *iterationData) metadataKey(name string) (string, bool) {
	p := d.alias + d.prefix
	if len(name) <= len(p) || name[:len(p)] != p {
		return "", false
	}

	return name[len(p):], true
}

func (d *iterationData) String() string {
	return d.alias + "#" + strconv.Itoa(d.item.Index)
}
