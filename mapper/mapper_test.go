package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/brace/tmpl"
)

func render(t *testing.T, contentType, src string, data map[string]any) string {
	t.Helper()

	e := Install(tmpl.NewBuilder().AddDefaults()).Build()

	tpl, err := e.ParseString(t.Context(), src,
		tmpl.WithVariant(tmpl.Variant{ContentType: contentType, Encoding: tmpl.DefaultEncoding}))
	require.NoError(t, err)

	out, err := tpl.Render(t.Context(), data)
	require.NoError(t, err)

	return out
}

func TestHTML(t *testing.T) {
	data := map[string]any{
		"text":   `<a href='x'>Tom & "Jerry"</a>`,
		"markup": `<b>bold</b><script>alert(1)</script>`,
		"n":      5,
	}

	tests := []struct {
		name, contentType, src, want string
	}{
		{
			name:        "escaped",
			contentType: tmpl.ContentTypeHTML,
			src:         "<p>{text}</p>",
			want:        "<p>&lt;a href=&#39;x&#39;&gt;Tom &amp; &quot;Jerry&quot;&lt;/a&gt;</p>",
		},
		{
			name:        "raw is sanitized",
			contentType: tmpl.ContentTypeHTML,
			src:         "<div>{markup.raw}</div>",
			want:        "<div><b>bold</b></div>",
		},
		{
			name:        "safe alias",
			contentType: tmpl.ContentTypeXML,
			src:         "{markup.safe}",
			want:        "<b>bold</b>",
		},
		{
			name:        "numbers unchanged",
			contentType: tmpl.ContentTypeHTML,
			src:         "{n}",
			want:        "5",
		},
		{
			name:        "plain text is not escaped",
			contentType: tmpl.ContentTypeText,
			src:         "{text}",
			want:        `<a href='x'>Tom & "Jerry"</a>`,
		},
		{
			name:        "template text is not escaped",
			contentType: tmpl.ContentTypeHTML,
			src:         "<i>&amp;</i>",
			want:        "<i>&amp;</i>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.contentType, tt.src, data))
		})
	}
}

func TestHTML_Options(t *testing.T) {
	h := NewHTML(WithPolicy(nil), WithContentTypes("text/x-custom"))

	assert.True(t, h.AppliesTo(tmpl.Origin{Variant: tmpl.Variant{ContentType: "text/x-custom"}}, "x"))
	assert.False(t, h.AppliesTo(tmpl.Origin{Variant: tmpl.Variant{ContentType: tmpl.ContentTypeHTML}}, "x"))

	out, err := h.Map(Raw("<script>x</script>"), nil)
	require.NoError(t, err)
	assert.Equal(t, "<script>x</script>", out)
}

func TestJSON(t *testing.T) {
	data := map[string]any{
		"s":    "say \"hi\"\n<&>\t\\",
		"list": []any{1, "a", true},
		"obj":  map[string]any{"k": "<v>"},
	}

	tests := []struct {
		name, src, want string
	}{
		{name: "string content", src: `{"s": "{s}"}`, want: `{"s": "say \"hi\"\n<&>\t\\"}`},
		{name: "json property", src: `{"list": {list.json}}`, want: `{"list": [1,"a",true]}`},
		{name: "map property", src: `{"obj": {obj.json}}`, want: `{"obj": {"k":"<v>"}}`},
		{name: "raw", src: `{"s": {s.raw}}`, want: "{\"s\": say \"hi\"\n<&>\t\\}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tmpl.ContentTypeJSON, tt.src, data))
		})
	}
}

func TestEscapeJSON(t *testing.T) {
	got, err := EscapeJSON("a b\"c")
	require.NoError(t, err)
	assert.Equal(t, `a b\"c`, got)
}
