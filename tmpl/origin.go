package tmpl

import (
	"log/slog"
	"mime"
	"path"
	"strconv"
	"strings"
)

// Variant describes the content of a template, typically derived from the
// suffix of the file it was loaded from.
type Variant struct {
	ContentType string
	Encoding    string
}

// Common content types.
const (
	ContentTypeHTML  = "text/html"
	ContentTypeText  = "text/plain"
	ContentTypeJSON  = "application/json"
	ContentTypeXML   = "text/xml"
	DefaultEncoding  = "UTF-8"
	defaultTypeGuess = ContentTypeText
)

// VariantForName guesses the variant of a template from its file name.
func VariantForName(name string) Variant {
	ext := path.Ext(name)
	if ext == "" {
		return Variant{ContentType: defaultTypeGuess, Encoding: DefaultEncoding}
	}

	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return Variant{ContentType: defaultTypeGuess, Encoding: DefaultEncoding}
	}

	// Strip parameters such as "; charset=utf-8".
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	return Variant{ContentType: ct, Encoding: DefaultEncoding}
}

// IsZero reports whether v is the zero Variant.
func (v Variant) IsZero() bool { return v == Variant{} }

// Origin identifies the position of a node or expression in its template.
// Lines and columns are 1-based.
type Origin struct {
	TemplateID string
	Line       int
	Column     int
	Variant    Variant
}

// IsKnown reports whether the origin refers to a real source position.
func (o Origin) IsKnown() bool { return o.Line > 0 }

// String returns a compact human-readable description of the origin.
func (o Origin) String() string {
	var sb strings.Builder

	sb.WriteString("template [")
	sb.WriteString(o.TemplateID)
	sb.WriteString("]")

	if o.IsKnown() {
		sb.WriteString(" line ")
		sb.WriteString(strconv.Itoa(o.Line))

		if o.Column > 0 {
			sb.WriteString(" col ")
			sb.WriteString(strconv.Itoa(o.Column))
		}
	}

	return sb.String()
}

// LogValue implements slog.LogValuer.
func (o Origin) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("template", o.TemplateID),
		slog.Int("line", o.Line),
		slog.Int("column", o.Column),
	)
}
