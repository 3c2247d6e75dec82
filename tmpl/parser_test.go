package tmpl

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_TextAndExpressions(t *testing.T) {
	e := newTestEngine()
	tpl := mustParse(t, e, "Hello {name}!")

	nodes := tpl.Nodes()
	require.Len(t, nodes, 3)
	assert.IsType(t, &TextNode{}, nodes[0])
	assert.IsType(t, &ExpressionNode{}, nodes[1])
	assert.IsType(t, &TextNode{}, nodes[2])

	exprs := tpl.Expressions()
	require.Len(t, exprs, 1)
	assert.Equal(t, "name", exprs[0].String())
	assert.Equal(t, 1, exprs[0].Origin().Line)
	assert.Equal(t, 7, exprs[0].Origin().Column)
}

func TestParse_NotATag(t *testing.T) {
	e := newTestEngine()

	tests := []string{
		"a { b",
		"{ name }",
		"function() {}",
		"{",
		"trailing {",
		"json {\"a\": 1}",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			assert.Equal(t, src, mustRender(t, e, src, nil))
		})
	}
}

func TestParse_Escapes(t *testing.T) {
	e := newTestEngine()

	tests := map[string]string{
		`\{name\}`:       "{name}",
		`\{name}`:        "{name}",
		`a\b`:            `a\b`,
		`back\\slash`:    `back\\slash`,
		`end\`:           `end\`,
		`\{#if x\}`:      "{#if x}",
		`{|{raw} \{|}`:   `{raw} \{`,
		`{|a|b|}`:        "a|b",
		`x{! note !}y`:   "xy",
		`x{! {a} !}y`:    "xy",
		`x{!!}y`:         "xy",
		`{|{#if}{/if}|}`: "{#if}{/if}",
		`\\{foo}`:        `\\bar`,
		`\\\{foo}`:       `\\{foo}`,
		`a\\b{foo}`:      `a\\bbar`,
	}

	data := map[string]any{"foo": "bar"}

	for src, want := range tests {
		t.Run(src, func(t *testing.T) {
			assert.Equal(t, want, mustRender(t, e, src, data))
		})
	}
}

func TestParse_Errors(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name string
		src  string
		want error
		line int
		col  int
	}{
		{name: "unterminated expression", src: "a {foo", want: ErrUnterminatedExpression, line: 1, col: 3},
		{name: "unterminated section", src: "{#if x}", want: ErrUnterminatedSection, line: 1, col: 1},
		{name: "unterminated section tag", src: "{#if x", want: ErrUnterminatedSection, line: 1, col: 1},
		{name: "unterminated literal", src: "{foo('x}", want: ErrUnterminatedStringLiteral, line: 1, col: 1},
		{name: "unterminated comment", src: "\n{! foo", want: ErrUnterminatedComment, line: 2, col: 1},
		{name: "unterminated cdata", src: "{| foo", want: ErrUnterminatedCdata, line: 1, col: 1},
		{name: "end without start", src: "ab{/if}", want: ErrSectionStartNotFound, line: 1, col: 3},
		{name: "mismatched end", src: "{#if a}\n{/each}", want: ErrSectionEndDoesNotMatch, line: 2, col: 1},
		{name: "unknown section", src: "{#unknown}", want: ErrNoSectionHelperFound, line: 1, col: 1},
		{name: "missing condition", src: "ab\n{#if}{/if}", want: ErrMandatoryParamsMissing, line: 2, col: 1},
		{name: "missing template", src: "{#include}{/include}", want: ErrMandatoryParamsMissing, line: 1, col: 1},
		{name: "missing iterable", src: "{#each}{/each}", want: ErrMandatoryParamsMissing, line: 1, col: 1},
		{name: "invalid expression", src: "x {foo..bar}", want: ErrInvalidExpression, line: 1, col: 3},
		{name: "invalid method", src: "{foo.bar(}", want: ErrInvalidVirtualMethod, line: 1, col: 1},
		{name: "unknown namespace form", src: "{1x:foo}", want: ErrInvalidNamespace, line: 1, col: 1},
		{name: "bad param declaration", src: "{@a b c}", want: ErrInvalidParamDeclaration, line: 1, col: 1},
		{name: "duplicate parameter", src: "{#let a=1 a=2}{/let}", want: ErrDuplicateParameter, line: 1, col: 1},
		{name: "else without if", src: "{#else}", want: ErrNoSectionHelperFound, line: 1, col: 1},
		{name: "bad else", src: "{#if a}{#else b}{/if}", want: ErrInvalidSectionParams, line: 1, col: 8},
		{name: "bad condition", src: "{#if a &&}{/if}", want: ErrInvalidSectionParams, line: 1, col: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ParseString(t.Context(), tt.src, ID("test"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var te *Error
			require.True(t, errors.As(err, &te))
			assert.Equal(t, "test", te.Origin().TemplateID)
			assert.Equal(t, tt.line, te.Origin().Line, "line")
			assert.Equal(t, tt.col, te.Origin().Column, "column")
		})
	}
}

func TestParse_UnknownSectionSuggestion(t *testing.T) {
	_, err := newTestEngine().ParseString(t.Context(), "{#eac items}{/eac}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean {#each}")
}

func TestParse_LineEndings(t *testing.T) {
	e := newTestEngine()

	tests := map[string]string{
		"a\nb":     "a\nb",
		"a\r\nb":   "a\r\nb",
		"a\rb":     "a\rb",
		"a\n\n\nb": "a\n\n\nb",
		"a\r\n":    "a\r\n",
	}

	for src, want := range tests {
		assert.Equal(t, want, mustRender(t, e, src, nil), "%q", src)
	}

	_, err := e.ParseString(t.Context(), "a\rb\r\n{#if x}", ID("crlf"))
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 3, te.Origin().Line)
}

func TestParse_ParameterDeclarations(t *testing.T) {
	e := newTestEngine()
	tpl := mustParse(t, e, "{@org.acme.Item item}\n{@string name='guest'}\n{item.name}")

	decls := tpl.ParameterDeclarations()
	require.Len(t, decls, 2)
	assert.Equal(t, "org.acme.Item", decls[0].TypeInfo)
	assert.Equal(t, "item", decls[0].Key)
	assert.Nil(t, decls[0].Default)
	assert.Equal(t, "name", decls[1].Key)
	require.NotNil(t, decls[1].Default)
	assert.Equal(t, "guest", decls[1].Default.Literal())

	var exprs []string
	for _, x := range tpl.Expressions() {
		exprs = append(exprs, x.String())
	}

	assert.Contains(t, exprs, "item.name")

	for _, x := range tpl.Expressions() {
		if x.String() == "item.name" {
			assert.Equal(t, "org.acme.Item", x.Parts()[0].TypeHint())
		}
	}
}

func TestParse_SectionStructure(t *testing.T) {
	e := newTestEngine()
	tpl := mustParse(t, e, "{#if a}A{#else if b}B{#else}C{/if}")

	nodes := tpl.Nodes()
	require.Len(t, nodes, 1)

	s, ok := nodes[0].(*SectionNode)
	require.True(t, ok)
	assert.Equal(t, "if", s.Name)
	require.Len(t, s.Blocks, 3)
	assert.True(t, s.Blocks[0].IsMain())
	assert.Equal(t, "else", s.Blocks[1].Label)
	assert.Equal(t, "else", s.Blocks[2].Label)
	assert.Equal(t, []string{"a"}, s.Blocks[0].ExpressionKeys())
	assert.Equal(t, []string{"b"}, s.Blocks[1].ExpressionKeys())
	assert.Empty(t, s.Blocks[2].ExpressionKeys())

	ids := map[string]bool{}
	Walk(tpl.Nodes(), func(n Node) bool {
		if s, ok := n.(*SectionNode); ok {
			for _, b := range s.Blocks {
				assert.False(t, ids[b.ID], "duplicate block id %s", b.ID)
				ids[b.ID] = true
			}
		}

		return true
	})
}

func TestParse_GeneratedIDIsStable(t *testing.T) {
	e := newTestEngine()

	a := mustParse(t, e, "hello {name}")
	b := mustParse(t, e, "hello {name}")
	c := mustParse(t, e, "hello {other}")

	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
	assert.True(t, strings.HasPrefix(a.ID(), "tmpl-"))
}
