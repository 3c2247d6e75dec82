package locate

import (
	"io"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/brace/tmpl"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"base.html":         {Data: []byte("<h1>{#insert title}Untitled{/insert}</h1>{#insert /}")},
		"page.html":         {Data: []byte("{#include base}{#title}{name}{/title}<p>hi</p>{/include}")},
		"mail/welcome.txt":  {Data: []byte("Welcome, {name}!")},
		"data/config.json":  {Data: []byte(`{"name": "{name}"}`)},
		"notes":             {Data: []byte("plain {name}")},
		"partials/.keep":    {Data: nil},
		"partials/dir.html": {Mode: fs.ModeDir | 0o755},
	}
}

func read(t *testing.T, loc *tmpl.TemplateLocation) string {
	t.Helper()

	rc, err := loc.Open()
	require.NoError(t, err)

	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)

	return string(b)
}

func TestFS_Locate(t *testing.T) {
	l := New(testFS())

	tests := []struct {
		id, name, contentType string
	}{
		{id: "base", name: "base.html", contentType: tmpl.ContentTypeHTML},
		{id: "base.html", name: "base.html", contentType: tmpl.ContentTypeHTML},
		{id: "mail/welcome", name: "mail/welcome.txt", contentType: tmpl.ContentTypeText},
		{id: "/mail/../mail/welcome", name: "mail/welcome.txt", contentType: tmpl.ContentTypeText},
		{id: "data/config", name: "data/config.json", contentType: tmpl.ContentTypeJSON},
		{id: "notes", name: "notes", contentType: tmpl.ContentTypeText},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			loc, ok := l.Locate(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.name, loc.Name)
			assert.Equal(t, tt.contentType, loc.Variant.ContentType)
			assert.Equal(t, string(testFS()[tt.name].Data), read(t, loc))
		})
	}

	for _, id := range []string{"", ".", "missing", "partials/dir", "partials"} {
		_, ok := l.Locate(id)
		assert.False(t, ok, id)
	}
}

func TestFS_Suffixes(t *testing.T) {
	l := New(testFS(), WithSuffixes(".txt"), WithPriority(7))

	assert.Equal(t, 7, l.Priority())

	_, ok := l.Locate("base")
	assert.False(t, ok)

	loc, ok := l.Locate("mail/welcome")
	require.True(t, ok)
	assert.Equal(t, "mail/welcome.txt", loc.Name)
}

func TestFS_Engine(t *testing.T) {
	e := tmpl.NewBuilder().AddDefaults().AddLocator(New(testFS())).Build()

	tpl, err := e.GetTemplate("page")
	require.NoError(t, err)
	assert.Equal(t, tmpl.ContentTypeHTML, tpl.Variant().ContentType)

	out, err := tpl.Render(t.Context(), map[string]any{"name": "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Ann</h1><p>hi</p>", out)

	_, err = e.GetTemplate("nope")
	assert.ErrorIs(t, err, tmpl.ErrTemplateNotFound)
}

func TestMap(t *testing.T) {
	m := NewMap(map[string]string{"a": "A {x}"})

	loc, ok := m.Locate("a")
	require.True(t, ok)
	assert.Equal(t, "A {x}", read(t, loc))
	assert.True(t, loc.Variant.IsZero())

	json := tmpl.Variant{ContentType: tmpl.ContentTypeJSON, Encoding: tmpl.DefaultEncoding}
	m.Set("b", "{x}", json)

	loc, ok = m.Locate("b")
	require.True(t, ok)
	assert.Equal(t, json, loc.Variant)

	m.Delete("a")

	_, ok = m.Locate("a")
	assert.False(t, ok)
	assert.Equal(t, 3, m.WithPriority(3).Priority())
}

func TestLocatorPriority(t *testing.T) {
	low := NewMap(map[string]string{"t": "low"})
	high := NewMap(map[string]string{"t": "high"}).WithPriority(tmpl.PriorityHigh)

	e := tmpl.NewBuilder().AddDefaults().AddLocator(low, high).Build()

	tpl, err := e.GetTemplate("t")
	require.NoError(t, err)

	out, err := tpl.Render(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, "high", out)
}
