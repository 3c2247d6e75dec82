package tmpl

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStringFuzzer(t *testing.T, seed int64, clean func(string) string) *fuzz.Fuzzer {
	t.Helper()
	t.Logf("seed: %d", seed)

	return fuzz.New().RandSource(rand.NewSource(seed)).Funcs(func(s *string, c fuzz.Continue) {
		*s = clean(c.RandString() + "\n" + c.RandString() + "\r\n" + c.RandString())
	})
}

func TestProperty_PlainTextIsUnchanged(t *testing.T) {
	e := newTestEngine()
	f := newStringFuzzer(t, time.Now().UnixNano(), func(s string) string {
		return strings.NewReplacer("{", "(", `\`, "/").Replace(s)
	})

	for range 200 {
		var s string
		f.Fuzz(&s)

		assert.Equal(t, s, mustRender(t, e, s, nil))
	}
}

func TestProperty_EscapedDelimitersAreLiteral(t *testing.T) {
	e := newTestEngine()
	f := newStringFuzzer(t, time.Now().UnixNano(), func(s string) string {
		return strings.ReplaceAll(s, `\`, "/") + "{name}{#if x}"
	})

	escape := strings.NewReplacer("{", `\{`, "}", `\}`)

	for range 200 {
		var s string
		f.Fuzz(&s)

		assert.Equal(t, s, mustRender(t, e, escape.Replace(s), map[string]any{"name": "n"}))
	}
}

func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		"Hello {name}!",
		"{#each items}{it.count}:{/each}",
		"{#if a && (b || !c)}x{#else if d > 1}y{#else}z{/if}",
		"{#let a=1 b?='x'}{a}{b}{/let}",
		"{@string name='Joe'}\nHi {name}",
		"{#when n}{#is in 1 2}a{#is not in 3}b{#else}c{/when}",
		"{#include base}{#title}T{/title}{/include}",
		"{| raw {x} |}{! comment !}\\{esc\\}",
		"{foo.bar('a', 1).baz[0]['k']}",
		"{x ?: 'y'}{z??}{n + 1}",
		"{#for i in 3}\r\n{i}\r\n{/for}\r\n",
	} {
		f.Add(seed)
	}

	e := newTestEngine(WithTimeout(time.Second))
	data := map[string]any{
		"name":  "n",
		"items": []any{1, "two", 3.0},
		"a":     true,
		"n":     2,
	}

	f.Fuzz(func(t *testing.T, src string) {
		tpl, err := e.ParseString(context.Background(), src)
		if err != nil {
			var te *Error
			require.ErrorAs(t, err, &te)

			return
		}

		require.NotNil(t, tpl.Root())

		// Rendering may fail, but it must not panic or hang.
		_, _ = tpl.Render(context.Background(), data)
	})
}
