package repl

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cast"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "edit", "clear", "quit"}

// isWordBoundary reports whether r delimits a word for completion. Hyphens
// are not boundaries since data keys may contain them.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'{', '}', '(', ')', '[', ']',
		'+', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'#', '@', '\'', '"':
		return true
	}

	return false
}

// wordBounds returns the word at cursor and its byte offsets in input. The
// word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the word at
// wordStart. For "{x + user.address.ci" and the word "ci" it returns
// "user.address". A word that follows a namespace separator yields the
// namespace with its colon, e.g. "str:" for "{str:jo". Top-level words
// yield "".
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]

	if ns, ok := strings.CutSuffix(prefix, ":"); ok {
		_, s, _ := wordBounds(ns, len(ns))
		if s < len(ns) {
			return ns[s:] + ":"
		}

		return ""
	}

	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimRight(prefix, ".")

	end := len(prefix)
	pos := end

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.TrimSpace(prefix[pos:end])
}

// sectionContext reports whether the word at wordStart names a section,
// i.e. it directly follows a '#' or '/' tag opener.
func sectionContext(input string, wordStart int) bool {
	if wordStart == 0 {
		return false
	}

	switch input[wordStart-1] {
	case '#':
		return true
	case '/':
		return wordStart > 1 && input[wordStart-2] == '{'
	}

	return false
}

// completionSource supplies the names offered for completion.
type completionSource struct {
	data       map[string]any
	namespaces []string
	sections   []string
}

// childCandidates returns the completions valid after parent. At the top
// level these are data keys, namespaces (with their colon), and "this".
// After "ns:" they are the namespace members. After a data path they are
// the keys of a map value, or the built-in members of any other value.
func (s completionSource) childCandidates(parent string) []string {
	if parent == "" {
		names := slices.Sorted(maps.Keys(s.data))
		for _, ns := range s.namespaces {
			names = append(names, ns+":")
		}

		return append(names, "this")
	}

	if ns, ok := strings.CutSuffix(parent, ":"); ok {
		return signatureNames(namespaceMembers[ns])
	}

	val, ok := lookupPath(s.data, strings.Split(parent, "."))
	if !ok {
		return nil
	}

	if m, err := cast.ToStringMapE(val); err == nil && reflect.ValueOf(val).Kind() == reflect.Map {
		return slices.Sorted(maps.Keys(m))
	}

	return signatureNames(membersOf(val))
}

// lookupPath resolves a dotted path against data. The leading "this"
// segment refers to data itself.
func lookupPath(data map[string]any, path []string) (any, bool) {
	if len(path) > 0 && path[0] == "this" {
		path = path[1:]
	}

	var cur any = data

	for _, seg := range path {
		m, err := cast.ToStringMapE(cur)
		if err != nil {
			return nil, false
		}

		v, ok := m[seg]
		if !ok {
			return nil, false
		}

		cur = v
	}

	return cur, true
}

func signatureNames(sigs []signature) []string {
	names := make([]string, 0, len(sigs))
	for _, s := range sigs {
		if !slices.Contains(names, s.name) {
			names = append(names, s.name)
		}
	}

	return names
}

// computeMatches returns the fuzzy matches for the word at the cursor,
// ranked best-first, with the candidate list and the word's offsets. An
// empty word at the top level yields no matches; an empty word after a
// member access or namespace yields every candidate.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)

	switch {
	case m.mode == modeCtrl:
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		candidates = ctrlCommands

	case sectionContext(input, wordStart):
		candidates = m.source.sections

	default:
		parent := parentPath(input, wordStart)
		candidates = m.source.childCandidates(parent)

		if word == "" {
			if parent == "" || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// width. Matched characters are highlighted and the selected candidate
// (while tabbing) uses the selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if i > 0 && used+entryWidth+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted. Methods are shown with a "()" suffix that is not inserted on
// completion.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	if isFunction(match.Str) {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}

// isFunction reports whether name is a virtual method taking arguments
// rather than a property or data key.
func isFunction(name string) bool {
	_, ok := getSignature(name)

	return ok
}

// formatPreview returns a short description of a data value: its type and,
// for scalars, its value.
func formatPreview(v any) string {
	typ := formatTypeName(reflect.TypeOf(v))

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return fmt.Sprintf("%s[%d]", typ, rv.Len())
	case reflect.Invalid:
		return typ
	}

	s := fmt.Sprint(v)
	if len(s) > 40 {
		s = s[:37] + "..."
	}

	return typ + " " + s
}
