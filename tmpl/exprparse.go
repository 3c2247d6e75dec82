package tmpl

import (
	"strconv"
	"strings"
	"unicode"
)

// orNullSuffix is shorthand for `.or(null)`.
const orNullSuffix = "??"

// parseExpression parses the expression micro-grammar:
//
//	[namespace ":"] part ("." part | "[" literal "]")*
//
// where a part is a name, a literal, or a virtual method `name(arg, ...)`.
// Infix notation `a op b op c` is rewritten to `a.op(b).op(c)` and the
// elvis operator `?:` is an alias of `or`.
func parseExpression(value string, scope *Scope, origin Origin) (*Expression, error) {
	source := strings.TrimSpace(value)
	if source == "" {
		return nil, ErrEmptyExpression.At(origin)
	}

	if lit, ok := parseLiteral(source); ok {
		return newLiteralExpression(source, lit, origin), nil
	}

	if isListLiteral(source) {
		return parseListLiteral(source, scope, origin)
	}

	expr := source

	if strings.HasSuffix(expr, orNullSuffix) && len(expr) > len(orNullSuffix) {
		expr = expr[:len(expr)-len(orNullSuffix)] + ".or(null)"
	}

	tokens, err := splitInfix(expr, origin)
	if err != nil {
		return nil, err
	}

	if len(tokens) > 1 {
		if expr, err = rewriteInfix(tokens, origin); err != nil {
			return nil, err
		}
	}

	namespace, rest, err := splitNamespace(expr, origin)
	if err != nil {
		return nil, err
	}

	raw, err := splitParts(rest, origin)
	if err != nil {
		return nil, err
	}

	e := &Expression{
		namespace: namespace,
		parts:     make([]*Part, 0, len(raw)),
		origin:    origin,
		source:    source,
	}

	for i, rp := range raw {
		part, err := parsePart(rp, i == 0 && namespace == "", scope, origin)
		if err != nil {
			return nil, err
		}

		e.parts = append(e.parts, part)
	}

	return e, nil
}

type rawPart struct {
	text    string
	bracket bool
}

func parsePart(rp rawPart, first bool, scope *Scope, origin Origin) (*Part, error) {
	if rp.bracket {
		lit, ok := parseLiteral(strings.TrimSpace(rp.text))
		if !ok {
			return nil, ErrInvalidBracketExpression.At(origin).
				Format("[%s] must contain a string or integer literal", rp.text)
		}

		switch v := lit.(type) {
		case string:
			return &Part{name: v}, nil
		case int:
			return &Part{name: strconv.Itoa(v)}, nil
		case int64:
			return &Part{name: strconv.FormatInt(v, 10)}, nil
		}

		return nil, ErrInvalidBracketExpression.At(origin).
			Format("[%s] must contain a string or integer literal", rp.text)
	}

	text := rp.text

	if first {
		if lit, ok := parseLiteral(text); ok {
			return &Part{name: text, literal: lit, hasLiteral: true}, nil
		}
	}

	open := strings.IndexByte(text, '(')
	if open < 0 {
		if strings.ContainsAny(text, ")'\" \t") {
			return nil, ErrInvalidExpression.At(origin).Format("invalid part %q", text)
		}

		part := &Part{name: text}
		if first && scope != nil {
			part.typeHint, _ = scope.Binding(text)
		}

		return part, nil
	}

	name := text[:open]
	if name == "" || !strings.HasSuffix(text, ")") || !isMethodName(name) {
		return nil, ErrInvalidVirtualMethod.At(origin).Format("%q", text)
	}

	args, err := splitArgs(text[open+1:len(text)-1], origin)
	if err != nil {
		return nil, err
	}

	part := &Part{name: name, virtual: true, params: make([]*Expression, 0, len(args))}

	for _, arg := range args {
		param, err := parseExpression(arg, scope, origin)
		if err != nil {
			return nil, ErrInvalidVirtualMethod.At(origin).Format("%q", text).Wrap(err)
		}

		part.params = append(part.params, param)
	}

	return part, nil
}

// isMethodName accepts identifiers and the operator names produced by infix
// rewriting, such as `+` or `==`.
func isMethodName(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) || isQuote(r) || r == '(' || r == ')' || r == '.' {
			return false
		}
	}

	return true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '-'):
		default:
			return false
		}
	}

	return true
}

// splitNamespace recognises `ns:` only when the colon precedes any space,
// parenthesis or quote.
func splitNamespace(s string, origin Origin) (string, string, error) {
	for i, r := range s {
		switch {
		case r == ':':
			ns := s[:i]
			if !isIdentifier(ns) {
				return "", "", ErrInvalidNamespace.At(origin).Format("%q", ns)
			}

			if i+1 >= len(s) {
				return "", "", ErrInvalidExpression.At(origin).
					Format("namespace %q without expression", ns)
			}

			return ns, s[i+1:], nil

		case unicode.IsSpace(r) || r == '(' || isQuote(r):
			return "", s, nil
		}
	}

	return "", s, nil
}

// splitParts splits on dots and brackets outside literals and parentheses.
func splitParts(s string, origin Origin) ([]rawPart, error) {
	var (
		parts   []rawPart
		buf     strings.Builder
		quote   rune
		escaped bool
		depth   int
	)

	flush := func() error {
		if buf.Len() == 0 {
			return ErrInvalidExpression.At(origin).Format("empty part in %q", s)
		}

		parts = append(parts, rawPart{text: buf.String()})
		buf.Reset()

		return nil
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case quote != 0:
			buf.WriteRune(r)

			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			}

		case isQuote(r):
			quote = r
			buf.WriteRune(r)

		case r == '(':
			depth++
			buf.WriteRune(r)

		case r == ')':
			depth--
			if depth < 0 {
				return nil, ErrInvalidVirtualMethod.At(origin).Format("unbalanced ) in %q", s)
			}

			buf.WriteRune(r)

		case depth > 0:
			buf.WriteRune(r)

		case r == '.':
			if err := flush(); err != nil {
				return nil, err
			}

		case r == '[':
			if buf.Len() > 0 {
				if err := flush(); err != nil {
					return nil, err
				}
			}

			end := closingBracket(runes, i)
			if end < 0 {
				return nil, ErrInvalidBracketExpression.At(origin).Format("unterminated [ in %q", s)
			}

			parts = append(parts, rawPart{text: string(runes[i+1 : end]), bracket: true})
			i = end

			if i+1 < len(runes) {
				switch runes[i+1] {
				case '.':
					i++ // the dot only separates; the next part must follow
					if i+1 == len(runes) {
						return nil, ErrInvalidExpression.At(origin).Format("trailing dot in %q", s)
					}
				case '[':
				default:
					return nil, ErrInvalidBracketExpression.At(origin).
						Format("unexpected %q after ] in %q", runes[i+1], s)
				}
			}

		default:
			buf.WriteRune(r)
		}
	}

	switch {
	case quote != 0:
		return nil, ErrUnterminatedStringLiteral.At(origin).Format("in %q", s)
	case depth != 0:
		return nil, ErrInvalidVirtualMethod.At(origin).Format("unbalanced ( in %q", s)
	}

	if buf.Len() > 0 || len(parts) == 0 || runes[len(runes)-1] == '.' {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	return parts, nil
}

// closingBracket returns the index of the ']' matching the '[' at start.
func closingBracket(runes []rune, start int) int {
	var quote rune

	for i := start + 1; i < len(runes); i++ {
		r := runes[i]

		switch {
		case quote != 0:
			if r == '\\' {
				i++
			} else if r == quote {
				quote = 0
			}
		case isQuote(r):
			quote = r
		case r == ']':
			return i
		}
	}

	return -1
}

// splitArgs splits method arguments on commas outside literals and nested
// parentheses or brackets.
func splitArgs(s string, origin Origin) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	items := splitTopLevel(s, ',')
	for i, item := range items {
		items[i] = strings.TrimSpace(item)
		if items[i] == "" {
			return nil, ErrInvalidVirtualMethod.At(origin).Format("empty argument in (%s)", s)
		}
	}

	return items, nil
}

// splitTopLevel splits s on sep outside quotes, parentheses and brackets.
func splitTopLevel(s string, sep rune) []string {
	var (
		items []string
		quote rune
		depth int
		start int
	)

	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote && (i == 0 || s[i-1] != '\\') {
				quote = 0
			}
		case isQuote(r):
			quote = r
		case r == '(' || r == '[':
			depth++
		case r == ')' || r == ']':
			depth--
		case r == sep && depth == 0:
			items = append(items, s[start:i])
			start = i + len(string(sep))
		}
	}

	return append(items, s[start:])
}

// splitInfix splits on whitespace outside literals, parentheses and
// brackets.
func splitInfix(s string, origin Origin) ([]string, error) {
	tokens := splitTokens(s)
	if tokens == nil {
		return nil, ErrUnterminatedStringLiteral.At(origin).Format("in %q", s)
	}

	return tokens, nil
}

func rewriteInfix(tokens []string, origin Origin) (string, error) {
	if len(tokens)%2 == 0 {
		return "", ErrInvalidExpression.At(origin).
			Format("infix notation requires operand operator operand: %q", strings.Join(tokens, " "))
	}

	var sb strings.Builder

	sb.WriteString(tokens[0])

	for i := 1; i+1 < len(tokens); i += 2 {
		op := tokens[i]
		if op == "?:" {
			op = "or"
		}

		sb.WriteString(".")
		sb.WriteString(op)
		sb.WriteString("(")
		sb.WriteString(tokens[i+1])
		sb.WriteString(")")
	}

	return sb.String(), nil
}

func isListLiteral(s string) bool {
	return len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' &&
		closingBracket([]rune(s), 0) == len([]rune(s))-1
}

// parseListLiteral parses `[a, b, c]`. Items must be literals.
func parseListLiteral(source string, scope *Scope, origin Origin) (*Expression, error) {
	inner := strings.TrimSpace(source[1 : len(source)-1])
	if inner == "" {
		return newLiteralExpression(source, []any{}, origin), nil
	}

	items := splitTopLevel(inner, ',')
	values := make([]any, 0, len(items))

	for _, item := range items {
		e, err := parseExpression(item, scope, origin)
		if err != nil {
			return nil, err
		}

		if !e.IsLiteral() {
			return nil, ErrInvalidExpression.At(origin).
				Format("list literal item %q is not a literal", strings.TrimSpace(item))
		}

		values = append(values, e.Literal())
	}

	return newLiteralExpression(source, values, origin), nil
}
