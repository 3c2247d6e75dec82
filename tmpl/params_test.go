package tmpl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "", want: []string{}},
		{input: "  a  b ", want: []string{"a", "b"}},
		{input: "item in items", want: []string{"item", "in", "items"}},
		{input: "a='x y' b", want: []string{"a='x y'", "b"}},
		{input: "(a || b) && c", want: []string{"(a || b)", "&&", "c"}},
		{input: "s.replace('a', 'b')", want: []string{"s.replace('a', 'b')"}},
		{input: "[1, 2]", want: []string{"[1, 2]"}},
		{input: `'it\'s' x`, want: []string{`'it\'s'`, "x"}},
		{input: "'open", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, splitTokens(tt.input))
		})
	}
}

func TestSplitNamed(t *testing.T) {
	tests := []struct {
		token      string
		key, value string
		ok         bool
	}{
		{token: "a=1", key: "a", value: "1", ok: true},
		{token: "name?='guest'", key: "name?", value: "'guest'", ok: true},
		{token: "total=price.times(2)", key: "total", value: "price.times(2)", ok: true},
		{token: "a==1"},
		{token: "a!=1"},
		{token: "a<=1"},
		{token: "a>=1"},
		{token: "=1"},
		{token: "a="},
		{token: "'a=1'"},
		{token: "a.b=1"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			key, value, ok := splitNamed(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestBindParams(t *testing.T) {
	loop := loopFactory{}.Spec().Params[MainBlockLabel]
	include := includeFactory{}.Spec().Params[MainBlockLabel]

	tests := []struct {
		name     string
		declared []Parameter
		tokens   []string
		want     Params
	}{
		{
			name:     "each shorthand prefers parameters without default",
			declared: loop,
			tokens:   []string{"items"},
			want:     Params{{Key: "iterable", Value: "items"}, {Key: "alias", Value: "it"}},
		},
		{
			name:     "for in",
			declared: loop,
			tokens:   []string{"item", "in", "items"},
			want:     Params{{Key: "alias", Value: "item"}, {Key: "in", Value: "in"}, {Key: "iterable", Value: "items"}},
		},
		{
			name:     "predicate",
			declared: include,
			tokens:   []string{"base", "isolated"},
			want:     Params{{Key: "template", Value: "base"}, {Key: "isolated", Value: "isolated"}},
		},
		{
			name:     "named and data",
			declared: include,
			tokens:   []string{"base", "title='x'"},
			want:     Params{{Key: "title", Value: "'x'"}, {Key: "template", Value: "base"}, {Key: "isolated", Value: "false"}},
		},
		{
			name:     "unmatched positional keeps index",
			declared: nil,
			tokens:   []string{"a", "&&", "b"},
			want:     Params{{Key: "0", Value: "a"}, {Key: "1", Value: "&&"}, {Key: "2", Value: "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bindParams("test", tt.declared, tt.tokens, Origin{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := bindParams("each", loop, []string{}, Origin{})
	assert.True(t, errors.Is(err, ErrMandatoryParamsMissing))

	_, err = bindParams("let", nil, []string{"a=1", "a=2"}, Origin{})
	assert.True(t, errors.Is(err, ErrDuplicateParameter))
}

func TestParams_Accessors(t *testing.T) {
	p := Params{{Key: "0", Value: "a"}, {Key: "k", Value: "v"}, {Key: "1", Value: "b"}}

	v, ok := p.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.False(t, p.Has("missing"))
	assert.Equal(t, []string{"0", "k", "1"}, p.Keys())
	assert.Equal(t, []string{"a", "b"}, p.Positional())
}
