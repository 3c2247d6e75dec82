package repl

import (
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// signature describes a property (params == nil) or virtual method.
type signature struct {
	name   string
	params []string
}

func (s signature) isMethod() bool { return s.params != nil }

// String formats s as it is called, e.g. "join(sep, ...items)".
func (s signature) String() string {
	if !s.isMethod() {
		return s.name
	}

	return s.name + "(" + strings.Join(s.params, ", ") + ")"
}

func sig(name string, params ...string) signature {
	if params == nil {
		params = []string{}
	}

	return signature{name: name, params: params}
}

func prop(name string) signature { return signature{name: name} }

// namespaceMembers lists the members of the namespaces installed by the
// brace command.
var namespaceMembers = map[string][]signature{
	"env": {
		sig("get", "name", "default"),
		sig("has", "name"),
		sig("prefix", "name", "...items"),
		sig("prefixif", "name", "...items"),
	},
	"str": {
		prop("nl"),
		prop("tab"),
		prop("space"),
		sig("slug", "s"),
		sig("concat", "...items"),
		sig("join", "sep", "...items"),
		sig("fmt", "format", "...args"),
		sig("repeat", "s", "count"),
	},
	"expr": {
		sig("eval", "source"),
	},
}

// Built-in members by the kind of value they apply to.
var (
	anyMembers = []signature{
		sig("or", "default"),
		prop("orEmpty"),
		sig("ifTruthy", "value"),
		prop("raw"),
		prop("json"),
	}
	stringMembers = []signature{
		prop("length"),
		prop("isEmpty"),
		prop("upper"),
		prop("lower"),
		prop("trim"),
		prop("capitalize"),
		prop("slug"),
		sig("contains", "s"),
		sig("startsWith", "prefix"),
		sig("endsWith", "suffix"),
		sig("indexOf", "s"),
		sig("split", "sep"),
		sig("replace", "old", "new"),
		sig("substring", "start", "end"),
		sig("fmt", "...args"),
		sig("concat", "...items"),
	}
	listMembers = []signature{
		prop("size"),
		prop("isEmpty"),
		prop("first"),
		prop("last"),
		prop("reversed"),
		sig("get", "index"),
		sig("take", "n"),
		sig("takeLast", "n"),
		sig("skip", "n"),
		sig("contains", "item"),
		sig("join", "sep"),
	}
	mapMembers = []signature{
		prop("size"),
		prop("isEmpty"),
		prop("keys"),
		prop("values"),
		prop("entries"),
		sig("get", "key"),
		sig("containsKey", "key"),
	}
	numberMembers = []signature{
		sig("plus", "n"),
		sig("minus", "n"),
		sig("times", "n"),
		sig("div", "n"),
		sig("mod", "n"),
	}
)

// membersOf returns the built-in members applicable to v.
func membersOf(v any) []signature {
	var kind []signature

	switch reflect.ValueOf(v).Kind() {
	case reflect.String:
		kind = stringMembers
	case reflect.Slice, reflect.Array:
		kind = listMembers
	case reflect.Map:
		kind = mapMembers
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		kind = numberMembers
	}

	return slices.Concat(kind, anyMembers)
}

// signatureStyle styles for parameter hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected virtual method call in the input.
type functionCall struct {
	name     string // qualified name, e.g. "str:join" or "name.substring"
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// isNameRune reports whether r may appear in a qualified member name.
func isNameRune(r rune) bool {
	return r == '.' || r == ':' || r == '_' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// detectFunctionCall reports whether the cursor is inside the parameter list
// of a virtual method call, and if so the method name and argument index.
// Parentheses inside string literals are ignored.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	// Find the innermost unclosed paren before the cursor, tracking the
	// position of each open paren and the commas at its depth.
	var (
		opens  []int
		commas []int
		quote  rune
	)

	for i, r := range input[:cursor] {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '(':
			opens = append(opens, i)
			commas = append(commas, 0)
		case r == ')':
			if len(opens) > 0 {
				opens = opens[:len(opens)-1]
				commas = commas[:len(commas)-1]
			}
		case r == ',':
			if len(commas) > 0 {
				commas[len(commas)-1]++
			}
		}
	}

	if len(opens) == 0 {
		return functionCall{}
	}

	open := opens[len(opens)-1]
	start := open

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isNameRune(r) {
			break
		}

		start -= size
	}

	name := strings.Trim(input[start:open], ".")
	if name == "" {
		return functionCall{}
	}

	return functionCall{name: name, argIndex: commas[len(commas)-1], inCall: true}
}

// getSignature returns the signature of the named method. A name with a
// namespace prefix such as "str:join" is looked up in that namespace; any
// other name is looked up by its last segment among the built-in methods.
func getSignature(name string) (signature, bool) {
	var members [][]signature

	if ns, member, ok := strings.Cut(name, ":"); ok {
		members = [][]signature{namespaceMembers[ns]}
		name = member
	} else {
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}

		members = [][]signature{anyMembers, stringMembers, listMembers, mapMembers, numberMembers}
	}

	for _, list := range members {
		for _, s := range list {
			if s.name == name && s.isMethod() {
				return s, true
			}
		}
	}

	return signature{}, false
}

// formatTypeName converts a reflect.Type to a readable type name.
// Examples: "string", "int", "bool", "list".
func formatTypeName(t reflect.Type) string {
	if t == nil {
		return "null"
	}

	switch t.Kind() {
	case reflect.Func:
		return "func"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64:
		return "uint"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		return "map"
	case reflect.Ptr:
		return formatTypeName(t.Elem())
	default:
		if t.Name() != "" {
			return t.Name()
		}

		return "value"
	}
}

// renderSignatureHint renders s with the parameter at argIdx highlighted.
// A variadic parameter is highlighted for every index at or beyond it.
func renderSignatureHint(s signature, argIdx int) string {
	if len(s.params) == 0 {
		return signatureNameStyle.Render(s.name) + signatureStyle.Render("()")
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(s.name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range s.params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")

		if (variadic && argIdx >= i) || (!variadic && argIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
