package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/brace/tmpl"
)

func TestObserver_Records(t *testing.T) {
	o := New(nil)

	o.Parsed("a", time.Millisecond, nil)
	o.Parsed("b", time.Millisecond, errors.New("bad"))
	o.Rendered("a", time.Millisecond, nil)
	o.ResolverCache(true)
	o.ResolverCache(true)
	o.ResolverCache(false)

	assert.Equal(t, 2, testutil.CollectAndCount(o.parseDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(o.renderDuration))
	assert.Equal(t, 2.0, testutil.ToFloat64(o.cacheLookups.WithLabelValues(OutcomeHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.cacheLookups.WithLabelValues(OutcomeMiss)))
}

func TestObserver_Engine(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := New(reg)

	e := tmpl.NewBuilder(tmpl.WithObserver(o)).AddDefaults().Build()

	tpl, err := e.ParseString(t.Context(), "{#each items}{it.name};{/each}")
	require.NoError(t, err)

	_, err = e.ParseString(t.Context(), "{#if}{/if}")
	require.Error(t, err)

	items := []any{map[string]any{"name": "a"}, map[string]any{"name": "b"}}

	for range 3 {
		out, err := tpl.Render(t.Context(), map[string]any{"items": items})
		require.NoError(t, err)
		assert.Equal(t, "a;b;", out)
	}

	assert.Equal(t, 2, testutil.CollectAndCount(o.parseDuration))
	assert.Positive(t, testutil.ToFloat64(o.cacheLookups.WithLabelValues(OutcomeHit)))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 4)
}

func TestWriteFile(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := New(reg)
	o.Rendered("a", 2*time.Second, nil)

	path := filepath.Join(t.TempDir(), "brace.prom")
	require.NoError(t, WriteFile(path, reg))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "brace_render_duration_seconds_count{outcome=\"ok\"} 1")
}
