package tmpl

import (
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEngine(opts ...Option) *Engine {
	return NewBuilder(opts...).AddDefaults().Build()
}

func mustParse(t *testing.T, e *Engine, src string) *Template {
	t.Helper()

	tpl, err := e.ParseString(t.Context(), src)
	require.NoError(t, err, "parse %q", src)

	return tpl
}

func mustRender(t *testing.T, e *Engine, src string, data any) string {
	t.Helper()

	out, err := mustParse(t, e, src).Render(t.Context(), data)
	require.NoError(t, err, "render %q", src)

	return out
}

// mapLocator serves templates from memory and counts lookups.
type mapLocator struct {
	templates map[string]string
	lookups   atomic.Int32
}

func (l *mapLocator) Priority() int { return PriorityDefault }

func (l *mapLocator) Locate(id string) (*TemplateLocation, bool) {
	l.lookups.Add(1)

	src, ok := l.templates[id]
	if !ok {
		return nil, false
	}

	return &TemplateLocation{
		Name: id,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(src)), nil
		},
	}, true
}

type person struct {
	Name  string
	Age   int
	Tags  []string
	email string
}

func (p person) Initials() string {
	if p.Name == "" {
		return ""
	}

	return p.Name[:1]
}

func (p person) Greet(greeting string) string { return greeting + ", " + p.Name }

func (p *person) Email() string { return p.email }

type status int

const (
	statusOff status = iota
	statusOn
)

func (s status) String() string {
	switch s {
	case statusOn:
		return "ON"
	default:
		return "OFF"
	}
}
