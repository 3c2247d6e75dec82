package tmpl

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/brace/async"
)

func TestRender_Expressions(t *testing.T) {
	data := map[string]any{
		"name":  "World",
		"count": 41,
		"price": 1.25,
		"flag":  true,
		"items": []string{"a", "b", "c"},
		"user":  map[string]any{"name": "Ann", "roles": []any{"admin"}},
		"m":     map[string]int{"b": 2, "a": 1},
		"p":     person{Name: "Bob", Age: 30},
		"pp":    &person{Name: "Eve", email: "eve@example.com"},
		"at":    time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}

	tests := []struct {
		src  string
		want string
	}{
		{src: "Hello {name}!", want: "Hello World!"},
		{src: "{user.name} {user.roles.0}", want: "Ann admin"},
		{src: "{user['name']}", want: "Ann"},
		{src: "{items.size} {items.0} {items[1]} {items.last}", want: "3 a b c"},
		{src: "{items.take(2).join('-')}", want: "a-b"},
		{src: "{items.reversed.join('')}", want: "cba"},
		{src: "{items.contains('b')}", want: "true"},
		{src: "{name.upper} {name.lower} {name.length}", want: "WORLD world 5"},
		{src: "{name.substring(1, 3)}", want: "or"},
		{src: "{name.replace('o', '0')}", want: "W0rld"},
		{src: "{name.startsWith('Wo')}", want: "true"},
		{src: "{name + '!'}", want: "World!"},
		{src: "{count + 1}", want: "42"},
		{src: "{count - 1}", want: "40"},
		{src: "{count * 2}", want: "82"},
		{src: "{count / 2}", want: "20.5"},
		{src: "{count % 5}", want: "1"},
		{src: "{price.times(2)}", want: "2.5"},
		{src: "{count == 41} {count gt 50}", want: "true false"},
		{src: "{missing ?: 'guest'}", want: "guest"},
		{src: "{missing or 'x'}", want: "x"},
		{src: "{name ?: 'guest'}", want: "World"},
		{src: "[{missing??}]", want: "[]"},
		{src: "[{missing}]", want: "[]"},
		{src: "[{name.missing}]", want: "[]"},
		{src: "{flag.ifTruthy('yes')}", want: "yes"},
		{src: "{m.keys.join(',')} {m.get('a')} {m.containsKey('z')}", want: "a,b 1 false"},
		{src: "{m.size}", want: "2"},
		{src: "{p.name} {p.age} {p.initials}", want: "Bob 30 B"},
		{src: "{p.greet('Hi')}", want: "Hi, Bob"},
		{src: "{pp.email}", want: "eve@example.com"},
		{src: "{at.year} {at.format('2006-01-02')}", want: "2024 2024-05-06"},
		{src: "{42.plus(1)}", want: "43"},
	}

	e := newTestEngine()

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, mustRender(t, e, tt.src, data))
		})
	}
}

func TestRender_InstanceData(t *testing.T) {
	tpl := mustParse(t, newTestEngine(), "{greeting}, {name}!")

	out, err := tpl.Instance().Data("greeting", "Hi").Data("name", "Ann").Render(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Hi, Ann!", out)

	out, err = tpl.Instance().SetData(map[string]any{"greeting": "Yo"}).Render(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Yo, !", out)
}

func TestRender_Strict(t *testing.T) {
	e := newTestEngine(WithStrictRendering(true))
	data := map[string]any{
		"name": "Ann",
		"user": map[string]any{"name": "Ann"},
		"p":    person{Name: "Bob"},
	}

	tests := []struct {
		src      string
		contains []string
	}{
		{src: "{missing}", contains: []string{`Entry "missing" not found`}},
		{src: "{nam}", contains: []string{`Entry "nam" not found`, `did you mean "name"`}},
		{src: "{user.nam}", contains: []string{`Key "nam" not found`, `did you mean "name"`}},
		{src: "{p.nme}", contains: []string{`Property "nme" not found`, `did you mean "Name"`}},
		{src: "{p.shout()}", contains: []string{`Method "shout" not found`}},
		{src: "{#if missing}x{/if}", contains: []string{`Entry "missing" not found`}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := mustParse(t, e, tt.src).Render(t.Context(), data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrPropertyNotFound), "got %v", err)

			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}

	// Defaults still apply in strict mode.
	assert.Equal(t, "x", mustRender(t, e, "{missing ?: 'x'}", data))
	assert.Equal(t, "[]", mustRender(t, e, "[{missing??}]", data))
}

func TestRender_ResolverFailure(t *testing.T) {
	e := NewBuilder().AddDefaults().AddValueResolver(
		NewValueResolver(PriorityHigh+1,
			func(ctx *EvalContext) bool { return ctx.Name() == "boom" },
			func(*EvalContext) *async.Future[any] { panic("kaboom") }),
		NewValueResolver(PriorityHigh+1,
			func(ctx *EvalContext) bool { return ctx.Name() == "fail" },
			func(*EvalContext) *async.Future[any] { return async.Failed[any](fmt.Errorf("plain")) }),
	).Build()

	for _, src := range []string{"{boom}", "{fail}"} {
		_, err := mustParse(t, e, src).Render(t.Context(), nil)
		require.Error(t, err, src)
		assert.True(t, errors.Is(err, ErrResolverFailure), "got %v", err)
	}

	_, err := mustParse(t, e, "{count / 0}").Render(t.Context(), map[string]any{"count": 1})
	assert.True(t, errors.Is(err, ErrResolverFailure), "got %v", err)
}

func TestRender_Namespace(t *testing.T) {
	e := NewBuilder().AddDefaults().AddNamespaceResolver(
		testNamespace{name: "cfg", priority: 1, values: map[string]any{"host": "low", "port": 80}},
		testNamespace{name: "cfg", priority: 5, values: map[string]any{"host": "high"}},
	).Build()

	assert.Equal(t, "high:80", mustRender(t, e, "{cfg:host}:{cfg:port}", nil))
	assert.Equal(t, "HIGH", mustRender(t, e, "{cfg:host.upper}", nil))
	assert.Equal(t, "", mustRender(t, e, "{cfg:nope}", nil))

	_, err := mustParse(t, e, "{nope:host}").Render(t.Context(), nil)
	assert.True(t, errors.Is(err, ErrNamespaceResolverNotFound), "got %v", err)

	tied := NewBuilder().AddDefaults().AddNamespaceResolver(
		testNamespace{name: "cfg", priority: 3, values: map[string]any{"host": "first"}},
		testNamespace{name: "cfg", priority: 3, values: map[string]any{"host": "second", "port": 81}},
		testNamespace{name: "cfg", priority: 3, values: map[string]any{"host": "third", "port": 82}},
	).Build()

	for range 5 {
		assert.Equal(t, "first:81", mustRender(t, tied, "{cfg:host}:{cfg:port}", nil))
	}

	strict := NewBuilder(WithStrictRendering(true)).AddDefaults().AddNamespaceResolver(
		testNamespace{name: "cfg", values: map[string]any{}},
	).Build()

	_, err = mustParse(t, strict, "{cfg:nope}").Render(t.Context(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `not found in namespace "cfg"`)
}

type testNamespace struct {
	name     string
	priority int
	values   map[string]any
}

func (n testNamespace) Namespace() string { return n.name }
func (n testNamespace) Priority() int     { return n.priority }

func (n testNamespace) Resolve(ctx *EvalContext) *async.Future[any] {
	if v, ok := n.values[ctx.Name()]; ok {
		return async.Completed(v)
	}

	return async.Completed[any](NotFoundResult(ctx))
}

type upperMapper struct{}

func (upperMapper) Priority() int { return PriorityDefault }

func (upperMapper) AppliesTo(origin Origin, value any) bool {
	_, ok := value.(string)

	return ok && origin.Variant.ContentType == "text/shout"
}

func (upperMapper) Map(value any, _ *Expression) (string, error) {
	return strings.ToUpper(value.(string)), nil
}

func TestRender_ResultMapper(t *testing.T) {
	e := NewBuilder().AddDefaults().AddResultMapper(upperMapper{}).Build()

	tpl, err := e.ParseString(t.Context(), "hi {name} {n}", WithVariant(Variant{ContentType: "text/shout"}))
	require.NoError(t, err)

	out, err := tpl.Render(t.Context(), map[string]any{"name": "ann", "n": 1})
	require.NoError(t, err)
	assert.Equal(t, "hi ANN 1", out)

	assert.Equal(t, "hi ann", mustRender(t, e, "hi {name}", map[string]any{"name": "ann"}))
}

func TestRender_Timeout(t *testing.T) {
	never := NewValueResolver(PriorityHigh+1,
		func(ctx *EvalContext) bool { return ctx.Name() == "never" },
		func(*EvalContext) *async.Future[any] {
			f, _ := async.New[any]()

			return f
		})

	e := NewBuilder(WithTimeout(20 * time.Millisecond)).AddDefaults().AddValueResolver(never).Build()
	tpl := mustParse(t, e, "a{never}b")

	_, err := tpl.Render(t.Context(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRenderTimeout), "got %v", err)

	_, err = tpl.Instance().SetAttribute(AttributeTimeout, 10).Render(t.Context())
	assert.True(t, errors.Is(err, ErrRenderTimeout), "got %v", err)

	v, ok := tpl.Instance().SetAttribute(AttributeTimeout, time.Second).Attribute(AttributeTimeout)
	assert.True(t, ok)
	assert.Equal(t, time.Second, v)
}

func TestRender_Chunks(t *testing.T) {
	tpl := mustParse(t, newTestEngine(), "a{#each items}[{it}]{/each}b")
	data := map[string]any{"items": []int{1, 2, 3}}

	var chunks []string
	for s, err := range tpl.Instance().SetData(data).Chunks(t.Context()) {
		require.NoError(t, err)
		chunks = append(chunks, s)
	}

	assert.Equal(t, "a[1][2][3]b", strings.Join(chunks, ""))
	assert.Greater(t, len(chunks), 1)

	var first string
	for s := range tpl.Instance().SetData(data).Chunks(t.Context()) {
		first = s

		break
	}

	assert.Equal(t, "a", first)

	bad := mustParse(t, newTestEngine(WithStrictRendering(true)), "x{missing}")
	for s, err := range bad.Instance().Chunks(t.Context()) {
		if err != nil {
			assert.Empty(t, s)
			assert.True(t, errors.Is(err, ErrPropertyNotFound))
		}
	}
}

type slowItem struct{ N int }

// Element values resolve on other goroutines after a random delay; the
// output must still follow the element order.
func TestRender_LoopOrderWithAsyncResolvers(t *testing.T) {
	slow := NewValueResolver(PriorityHigh+1,
		func(ctx *EvalContext) bool {
			_, ok := ctx.Base().(slowItem)

			return ok && ctx.Name() == "n"
		},
		func(ctx *EvalContext) *async.Future[any] {
			n := ctx.Base().(slowItem).N

			return async.Go(func() (any, error) {
				time.Sleep(time.Duration(rand.IntN(3)) * time.Millisecond)

				return n, nil
			})
		})

	e := NewBuilder().AddDefaults().AddValueResolver(slow).Build()
	tpl := mustParse(t, e, "{#each items}{it.n},{/each}")

	items := make([]slowItem, 30)

	var want strings.Builder
	for i := range items {
		items[i] = slowItem{N: i}
		fmt.Fprintf(&want, "%d,", i)
	}

	for range 5 {
		out, err := tpl.Render(t.Context(), map[string]any{"items": items})
		require.NoError(t, err)
		assert.Equal(t, want.String(), out)
	}
}

type counter struct{ hits, misses int }

func (c *counter) Parsed(string, time.Duration, error)   {}
func (c *counter) Rendered(string, time.Duration, error) {}

func (c *counter) ResolverCache(hit bool) {
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

func TestResolverCache_Polymorphic(t *testing.T) {
	obs := &counter{}
	e := newTestEngine(WithObserver(obs))
	tpl := mustParse(t, e, "{#each items}{it.name};{/each}")

	items := []any{
		map[string]any{"name": "a"},
		person{Name: "b"},
		map[string]any{"name": "c"},
		&person{Name: "d"},
	}

	for range 3 {
		out, err := tpl.Render(t.Context(), map[string]any{"items": items})
		require.NoError(t, err)
		assert.Equal(t, "a;b;c;d;", out)
	}

	assert.Positive(t, obs.hits)
}

type tieBase struct{}

func TestResolverCache_TieBreakAndFallthrough(t *testing.T) {
	applies := func(ctx *EvalContext) bool {
		_, ok := ctx.Base().(tieBase)

		return ok
	}

	value := func(v any) func(*EvalContext) *async.Future[any] {
		return func(*EvalContext) *async.Future[any] { return async.Completed(v) }
	}

	e := NewBuilder().AddDefaults().AddValueResolver(
		NewValueResolver(7, applies, value("first")),
		NewValueResolver(7, applies, value("second")),
	).Build()

	for range 3 {
		assert.Equal(t, "first", mustRender(t, e, "{t.x}", map[string]any{"t": tieBase{}}))
	}

	// A higher priority resolver that applies but finds nothing falls
	// through to the next one, also once the part cache is populated.
	e = NewBuilder().AddDefaults().AddValueResolver(
		NewValueResolver(9, applies, func(ctx *EvalContext) *async.Future[any] {
			return async.Completed[any](NotFoundResult(ctx))
		}),
		NewValueResolver(8, applies, value("fallback")),
	).Build()

	tpl := mustParse(t, e, "{t.x}")
	for range 3 {
		out, err := tpl.Render(t.Context(), map[string]any{"t": tieBase{}})
		require.NoError(t, err)
		assert.Equal(t, "fallback", out)
	}
}

type modeResolver struct{}

func (modeResolver) Priority() int   { return PriorityHigh + 5 }
func (modeResolver) Cacheable() bool { return false }

func (modeResolver) AppliesTo(ctx *EvalContext) bool {
	mode, _ := ctx.ResolutionContext().Attribute("mode")

	return mode == "override" && ctx.Name() == "x"
}

func (modeResolver) Resolve(*EvalContext) *async.Future[any] {
	return async.Completed[any]("override")
}

func TestResolverCache_NonCacheableResolver(t *testing.T) {
	e := NewBuilder().AddDefaults().AddValueResolver(modeResolver{}).Build()
	tpl := mustParse(t, e, "{m.x}")
	data := map[string]any{"m": map[string]any{"x": "plain"}}

	for range 2 {
		out, err := tpl.Instance().SetData(data).SetAttribute("mode", "normal").Render(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "plain", out)

		out, err = tpl.Instance().SetData(data).SetAttribute("mode", "override").Render(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "override", out)
	}
}
