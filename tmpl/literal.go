package tmpl

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	intLiteral    = regexp.MustCompile(`^[-+]?\d{1,10}$`)
	longLiteral   = regexp.MustCompile(`^[-+]?\d{1,19}[lL]$`)
	floatLiteral  = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+[fF]$`)
	doubleLiteral = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+[dD]$`)
	plainDecimal  = regexp.MustCompile(`^[-+]?[0-9]*\.[0-9]+$`)
)

// parseLiteral reports whether s is literal syntax and returns its value.
//
// Recognised forms: quoted strings ('a' or "a"), true, false, null, int
// (`42`), long (`42L`), float (`1.5f`), double (`1.5d`) and plain decimals
// (`1.5`) which are doubles.
func parseLiteral(s string) (any, bool) {
	if s == "" {
		return nil, false
	}

	switch s {
	case "null":
		return nil, true
	case "true":
		return true, true
	case "false":
		return false, true
	}

	if isStringLiteral(s) {
		return unquote(s), true
	}

	c := s[0]
	if c != '-' && c != '+' && c != '.' && (c < '0' || c > '9') {
		return nil, false
	}

	switch {
	case intLiteral.MatchString(s):
		if i, err := strconv.ParseInt(s, 10, 32); err == nil {
			return int(i), true
		}
		// Out of the 32-bit range; promote instead of rejecting.
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}

	case longLiteral.MatchString(s):
		if i, err := strconv.ParseInt(s[:len(s)-1], 10, 64); err == nil {
			return i, true
		}

	case floatLiteral.MatchString(s):
		if f, err := strconv.ParseFloat(s[:len(s)-1], 32); err == nil {
			return float32(f), true
		}

	case doubleLiteral.MatchString(s):
		if f, err := strconv.ParseFloat(s[:len(s)-1], 64); err == nil {
			return f, true
		}

	case plainDecimal.MatchString(s):
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}

	return nil, false
}

// isStringLiteral reports whether s is exactly one quoted string.
func isStringLiteral(s string) bool {
	if len(s) < 2 {
		return false
	}

	q := s[0]
	if (q != '\'' && q != '"') || s[len(s)-1] != q {
		return false
	}

	for i := 1; i < len(s)-1; i++ {
		if s[i] == '\\' {
			i++

			continue
		}

		if s[i] == q {
			return false
		}
	}

	return !strings.HasSuffix(s[:len(s)-1], `\`) || strings.HasSuffix(s[:len(s)-1], `\\`)
}

func isQuote(r rune) bool { return r == '\'' || r == '"' }

// unquote strips the quotes of a string literal and resolves escaped quotes
// and backslashes.
func unquote(s string) string {
	body := s[1 : len(s)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}

	var sb strings.Builder

	sb.Grow(len(body))

	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			switch body[i+1] {
			case '\'', '"', '\\':
				i++
			}
		}

		sb.WriteByte(body[i])
	}

	return sb.String()
}
