package mapper

import (
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ardnew/brace/tmpl"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// HTML escapes output expressions of markup templates.
type HTML struct {
	policy       *bluemonday.Policy
	contentTypes []string
}

// HTMLOption configures an [HTML] mapper.
type HTMLOption func(*HTML)

// WithPolicy sets the policy used to sanitize [Raw] values. A nil policy
// emits them unchanged.
func WithPolicy(p *bluemonday.Policy) HTMLOption {
	return func(h *HTML) { h.policy = p }
}

// WithContentTypes sets the content types the mapper applies to.
func WithContentTypes(types ...string) HTMLOption {
	return func(h *HTML) { h.contentTypes = types }
}

// NewHTML returns an HTML mapper for text/html, text/xml and
// application/xhtml+xml templates. Raw values are sanitized with
// [bluemonday.UGCPolicy] unless configured otherwise.
func NewHTML(opts ...HTMLOption) *HTML {
	h := &HTML{
		policy: bluemonday.UGCPolicy(),
		contentTypes: []string{
			tmpl.ContentTypeHTML,
			tmpl.ContentTypeXML,
			"application/xhtml+xml",
		},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *HTML) Priority() int { return tmpl.PriorityDefault }

func (h *HTML) AppliesTo(origin tmpl.Origin, _ any) bool {
	return slices.Contains(h.contentTypes, origin.Variant.ContentType)
}

func (h *HTML) Map(value any, _ *tmpl.Expression) (string, error) {
	if r, ok := value.(Raw); ok {
		if h.policy == nil {
			return string(r), nil
		}

		return h.policy.Sanitize(string(r)), nil
	}

	return EscapeHTML(tmpl.Stringify(value)), nil
}

// EscapeHTML replaces the characters &, <, >, " and ' with entities.
func EscapeHTML(s string) string { return htmlEscaper.Replace(s) }
