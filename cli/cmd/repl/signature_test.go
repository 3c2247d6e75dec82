package repl

import (
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		cursor     int
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{
			name:   "no call",
			input:  "{greeting",
			cursor: 9,
		},
		{
			name:       "namespace first arg",
			input:      "{str:join(",
			cursor:     10,
			wantName:   "str:join",
			wantInCall: true,
		},
		{
			name:       "namespace second arg",
			input:      "{str:join(', ', a",
			cursor:     17,
			wantName:   "str:join",
			wantIndex:  1,
			wantInCall: true,
		},
		{
			name:       "virtual method",
			input:      "{name.substring(0, ",
			cursor:     19,
			wantName:   "name.substring",
			wantIndex:  1,
			wantInCall: true,
		},
		{
			name:   "closed call",
			input:  "{name.substring(0, 2)}",
			cursor: 22,
		},
		{
			name:       "nested call",
			input:      "{str:join(',', name.substring(1",
			cursor:     31,
			wantName:   "name.substring",
			wantInCall: true,
		},
		{
			name:       "after nested call",
			input:      "{str:join(',', name.upper(), x",
			cursor:     30,
			wantName:   "str:join",
			wantIndex:  2,
			wantInCall: true,
		},
		{
			name:   "grouping paren",
			input:  "{(a",
			cursor: 3,
		},
		{
			name:       "paren in string",
			input:      "{s.replace('(', ",
			cursor:     16,
			wantName:   "s.replace",
			wantIndex:  1,
			wantInCall: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, tt.cursor)

			if got.name != tt.wantName {
				t.Errorf("name = %q, want %q", got.name, tt.wantName)
			}

			if got.argIndex != tt.wantIndex {
				t.Errorf("argIndex = %d, want %d", got.argIndex, tt.wantIndex)
			}

			if got.inCall != tt.wantInCall {
				t.Errorf("inCall = %v, want %v", got.inCall, tt.wantInCall)
			}
		})
	}
}

func TestGetSignature(t *testing.T) {
	tests := []struct {
		name       string
		wantOK     bool
		wantParams []string
	}{
		{"str:join", true, []string{"sep", "...items"}},
		{"env:get", true, []string{"name", "default"}},
		{"expr:eval", true, []string{"source"}},
		{"name.substring", true, []string{"start", "end"}},
		{"a.b.replace", true, []string{"old", "new"}},
		{"or", true, []string{"default"}},
		{"upper", false, nil},
		{"str:nl", false, nil},
		{"env:nope", false, nil},
		{"nope:join", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := getSignature(tt.name)
			if ok != tt.wantOK {
				t.Fatalf("getSignature(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			}

			if ok && !slices.Equal(s.params, tt.wantParams) {
				t.Errorf("params = %v, want %v", s.params, tt.wantParams)
			}
		})
	}
}

func TestSignatureString(t *testing.T) {
	if got := sig("join", "sep", "...items").String(); got != "join(sep, ...items)" {
		t.Errorf("String() = %q", got)
	}

	if got := sig("orEmpty").String(); got != "orEmpty()" {
		t.Errorf("String() = %q", got)
	}

	if got := prop("nl").String(); got != "nl" {
		t.Errorf("String() = %q", got)
	}
}

func TestMembersOf(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"s", "capitalize"},
		{[]string{"a"}, "takeLast"},
		{map[string]int{}, "containsKey"},
		{3.5, "div"},
		{uint8(1), "times"},
		{nil, "or"},
		{true, "ifTruthy"},
	}

	for _, tt := range tests {
		if !slices.ContainsFunc(membersOf(tt.value), func(s signature) bool {
			return s.name == tt.want
		}) {
			t.Errorf("membersOf(%#v) missing %q", tt.value, tt.want)
		}
	}

	if slices.ContainsFunc(membersOf(true), func(s signature) bool {
		return s.name == "upper"
	}) {
		t.Error("membersOf(true) includes string members")
	}
}

func TestFormatTypeName(t *testing.T) {
	n := 1

	tests := []struct {
		typ  reflect.Type
		want string
	}{
		{nil, "null"},
		{reflect.TypeOf(""), "string"},
		{reflect.TypeOf(1), "int"},
		{reflect.TypeOf(uint(1)), "uint"},
		{reflect.TypeOf(1.5), "float"},
		{reflect.TypeOf(true), "bool"},
		{reflect.TypeOf([]any{}), "list"},
		{reflect.TypeOf(map[string]any{}), "map"},
		{reflect.TypeOf(&n), "int"},
		{reflect.TypeOf(func() {}), "func"},
		{reflect.TypeOf(time.Time{}), "Time"},
		{reflect.TypeOf(struct{}{}), "value"},
	}

	for _, tt := range tests {
		if got := formatTypeName(tt.typ); got != tt.want {
			t.Errorf("formatTypeName(%v) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestRenderSignatureHint(t *testing.T) {
	s, _ := getSignature("str:join")

	for _, idx := range []int{0, 1, 5} {
		got := renderSignatureHint(s, idx)
		for _, part := range []string{"join", "sep", "...items"} {
			if !strings.Contains(got, part) {
				t.Errorf("renderSignatureHint(join, %d) = %q, missing %q", idx, got, part)
			}
		}
	}

	if got := renderSignatureHint(sig("orEmpty"), 0); !strings.Contains(got, "orEmpty") {
		t.Errorf("renderSignatureHint(orEmpty) = %q", got)
	}
}
