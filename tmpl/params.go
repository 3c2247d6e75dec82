package tmpl

import (
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Param is a bound section parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an insertion-ordered parameter list.
type Params []Param

// Get returns the value bound to key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}

	return "", false
}

// Has reports whether key is bound.
func (p Params) Has(key string) bool {
	_, ok := p.Get(key)

	return ok
}

// Keys returns the keys in binding order.
func (p Params) Keys() []string {
	keys := make([]string, len(p))
	for i, kv := range p {
		keys[i] = kv.Key
	}

	return keys
}

// Positional returns the values bound to synthetic positional keys, in order.
func (p Params) Positional() []string {
	var values []string

	for _, kv := range p {
		if _, err := strconv.Atoi(kv.Key); err == nil {
			values = append(values, kv.Value)
		}
	}

	return values
}

func (p *Params) put(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value

			return
		}
	}

	*p = append(*p, Param{Key: key, Value: value})
}

// Parameter declares a parameter accepted by a section helper block.
type Parameter struct {
	Name       string
	Default    string
	HasDefault bool
	Optional   bool

	// Accepts reports whether a positional value may bind to the parameter.
	// A nil predicate accepts every value.
	Accepts func(value string) bool
}

func (p Parameter) accepts(value string) bool {
	return p.Accepts == nil || p.Accepts(value)
}

func (p Parameter) mandatory() bool {
	return !p.Optional && !p.HasDefault
}

// splitTokens splits section tag content on whitespace outside quotes,
// brackets and parentheses. It returns nil if a quote is left open.
func splitTokens(s string) []string {
	var (
		tokens  = []string{}
		buf     strings.Builder
		quote   rune
		escaped bool
		depth   int
	)

	for _, r := range s {
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

			continue

		case isQuote(r):
			quote = r

		case r == '(' || r == '[':
			depth++

		case r == ')' || r == ']':
			depth--

		case depth <= 0 && unicode.IsSpace(r):
			if buf.Len() > 0 {
				tokens = append(tokens, buf.String())
				buf.Reset()
			}

			continue
		}

		buf.WriteRune(r)
	}

	if quote != 0 {
		return nil
	}

	if buf.Len() > 0 {
		tokens = append(tokens, buf.String())
	}

	return tokens
}

// splitNamed reports whether token has the form key=value, where the '='
// is not part of a comparison operator and key is an identifier optionally
// followed by '?'.
func splitNamed(token string) (string, string, bool) {
	if isQuote(rune(token[0])) || token[0] == '(' {
		return "", "", false
	}

	i := strings.IndexByte(token, '=')
	if i <= 0 || i == len(token)-1 {
		return "", "", false
	}

	switch token[i-1] {
	case '!', '<', '>', '=':
		return "", "", false
	}

	if token[i+1] == '=' {
		return "", "", false
	}

	key := token[:i]
	if !isIdentifier(strings.TrimSuffix(key, "?")) {
		return "", "", false
	}

	return key, token[i+1:], true
}

// bindParams binds tag tokens to the declared parameters of a block.
//
// Named tokens bind by key. Positional tokens bind to the first unbound
// parameter whose predicate accepts them; when there are fewer positional
// tokens than declared parameters, parameters without a default value are
// preferred. Unmatched positional tokens are kept under their index. Unbound
// parameters with defaults are then filled, and a missing mandatory
// parameter is an error.
func bindParams(tag string, declared []Parameter, tokens []string, origin Origin) (Params, error) {
	var (
		params     Params
		positional []string
		bound      = make(map[string]bool, len(declared))
	)

	for _, tok := range tokens {
		key, value, ok := splitNamed(tok)
		if !ok {
			positional = append(positional, tok)

			continue
		}

		if params.Has(key) {
			return nil, ErrDuplicateParameter.At(origin).Format("{#%s}: %q", tag, key)
		}

		params.put(key, value)
		bound[key] = true
	}

	preferNoDefault := len(positional) < len(declared)

	for i, tok := range positional {
		idx := -1

		if preferNoDefault {
			idx = slices.IndexFunc(declared, func(p Parameter) bool {
				return !bound[p.Name] && !p.HasDefault && p.accepts(tok)
			})
		}

		if idx < 0 {
			idx = slices.IndexFunc(declared, func(p Parameter) bool {
				return !bound[p.Name] && p.accepts(tok)
			})
		}

		if idx < 0 {
			params.put(strconv.Itoa(i), tok)

			continue
		}

		params.put(declared[idx].Name, tok)
		bound[declared[idx].Name] = true
	}

	var missing []string

	for _, p := range declared {
		switch {
		case bound[p.Name]:
		case p.HasDefault:
			params.put(p.Name, p.Default)
		case p.mandatory():
			missing = append(missing, p.Name)
		}
	}

	if len(missing) > 0 {
		return nil, ErrMandatoryParamsMissing.At(origin).
			Format("{#%s}: %s", tag, strings.Join(missing, ", "))
	}

	return params, nil
}
