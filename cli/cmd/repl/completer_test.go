package repl

import (
	"slices"
	"testing"
)

func TestWordBounds_TemplateSyntax(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"bare", "foo", 3, "foo", 0, 3},
		{"after_brace", "{user", 5, "user", 1, 5},
		{"dot_separated", "{user.na", 8, "na", 6, 8},
		{"namespace_member", "{str:jo", 7, "jo", 5, 7},
		{"section_name", "{#ea", 4, "ea", 2, 4},
		{"after_elvis", "{x ?: y", 7, "y", 6, 7},
		{"after_paren", "{s.substring(le", 15, "le", 13, 15},
		{"after_quote", "{s.split('x", 11, "x", 10, 11},
		{"mid_word", "{foobar}", 3, "foobar", 1, 7},
		{"empty_at_boundary", "{a + ", 5, "", 5, 5},
		// Hyphens are part of data keys.
		{"hyphenated", "{first-name", 11, "first-name", 1, 11},
		{"empty_after_dot", "{user.", 6, "", 6, 6},
		{"cursor_past_end", "{ab", 10, "ab", 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "{user", 1, ""},
		{"simple_chain", "{user.address.ci", 14, "user.address"},
		{"after_operator", "{x + user.na", 10, "user"},
		{"after_paren", "{(user.na", 7, "user"},
		{"namespace", "{str:jo", 5, "str:"},
		{"elvis_is_not_namespace", "{a ?:b", 5, ""},
		{"no_chain", "{a + ", 5, ""},
		{"hyphenated_chain", "{site.first-name.", 17, "site.first-name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parentPath(tt.input, tt.wordStart); got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestSectionContext(t *testing.T) {
	tests := []struct {
		input     string
		wordStart int
		want      bool
	}{
		{"{#ea", 2, true},
		{"{/ea", 2, true},
		{"{a / b", 5, false},
		{"{user", 1, false},
		{"ea", 0, false},
	}

	for _, tt := range tests {
		if got := sectionContext(tt.input, tt.wordStart); got != tt.want {
			t.Errorf("sectionContext(%q, %d) = %v, want %v",
				tt.input, tt.wordStart, got, tt.want)
		}
	}
}

func testSource() completionSource {
	return completionSource{
		data: map[string]any{
			"count": 3,
			"user": map[string]any{
				"name": "Ada",
				"tags": []any{"a", "b"},
			},
		},
		namespaces: []string{"env", "str"},
		sections:   []string{"each", "for", "if"},
	}
}

func TestChildCandidates(t *testing.T) {
	src := testSource()

	t.Run("top_level", func(t *testing.T) {
		got := src.childCandidates("")
		want := []string{"count", "user", "env:", "str:", "this"}

		if !slices.Equal(got, want) {
			t.Errorf("childCandidates(\"\") = %v, want %v", got, want)
		}
	})

	t.Run("namespace", func(t *testing.T) {
		got := src.childCandidates("str:")
		for _, name := range []string{"nl", "join", "repeat"} {
			if !slices.Contains(got, name) {
				t.Errorf("childCandidates(\"str:\") = %v, missing %q", got, name)
			}
		}
	})

	t.Run("map_keys", func(t *testing.T) {
		for _, parent := range []string{"user", "this.user"} {
			got := src.childCandidates(parent)
			if want := []string{"name", "tags"}; !slices.Equal(got, want) {
				t.Errorf("childCandidates(%q) = %v, want %v", parent, got, want)
			}
		}
	})

	t.Run("value_members", func(t *testing.T) {
		tests := map[string][]string{
			"user.name": {"upper", "substring", "or"},
			"user.tags": {"first", "join", "orEmpty"},
			"count":     {"plus", "mod"},
		}

		for parent, names := range tests {
			got := src.childCandidates(parent)
			for _, name := range names {
				if !slices.Contains(got, name) {
					t.Errorf("childCandidates(%q) = %v, missing %q", parent, got, name)
				}
			}
		}
	})

	t.Run("missing", func(t *testing.T) {
		if got := src.childCandidates("nope"); got != nil {
			t.Errorf("childCandidates(\"nope\") = %v, want nil", got)
		}
	})
}

func TestFormatPreview(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"Ada", "string Ada"},
		{42, "int 42"},
		{[]any{1, 2}, "list[2]"},
		{map[string]any{"a": 1}, "map[1]"},
		{nil, "null"},
	}

	for _, tt := range tests {
		if got := formatPreview(tt.value); got != tt.want {
			t.Errorf("formatPreview(%#v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestIsFunction(t *testing.T) {
	for name, want := range map[string]bool{
		"join":     true,
		"str:join": true,
		"upper":    false,
		"user":     false,
	} {
		if got := isFunction(name); got != want {
			t.Errorf("isFunction(%q) = %v, want %v", name, got, want)
		}
	}
}
