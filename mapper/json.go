package mapper

import (
	"github.com/goccy/go-json"

	"github.com/ardnew/brace/tmpl"
)

// JSON escapes output expressions of application/json templates so that
// they can be placed inside a string literal.
type JSON struct{}

// NewJSON returns a JSON string escaper.
func NewJSON() *JSON { return &JSON{} }

func (*JSON) Priority() int { return tmpl.PriorityDefault }

func (*JSON) AppliesTo(origin tmpl.Origin, _ any) bool {
	return origin.Variant.ContentType == tmpl.ContentTypeJSON
}

func (*JSON) Map(value any, _ *tmpl.Expression) (string, error) {
	if r, ok := value.(Raw); ok {
		return string(r), nil
	}

	return EscapeJSON(tmpl.Stringify(value))
}

// EscapeJSON returns s encoded as the content of a JSON string, without the
// surrounding quotes. HTML characters are not escaped.
func EscapeJSON(s string) (string, error) {
	b, err := json.MarshalNoEscape(s)
	if err != nil {
		return "", err
	}

	return string(b[1 : len(b)-1]), nil
}
