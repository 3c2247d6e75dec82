package cmd

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ardnew/brace/locate"
	"github.com/ardnew/brace/log"
	"github.com/ardnew/brace/mapper"
	"github.com/ardnew/brace/metrics"
	"github.com/ardnew/brace/namespaces"
	"github.com/ardnew/brace/tmpl"
)

// Output escaping modes.
const (
	EscapeAuto = "auto"
	EscapeHTML = "html"
	EscapeJSON = "json"
	EscapeNone = "none"
)

// Engine holds the flags shared by every command that renders templates.
type Engine struct {
	Dir     string            `default:"."                 help:"Template root directory for includes"         short:"d" type:"existingdir"`
	Data    []string          `help:"Data file (YAML, JSON or TOML)"                  placeholder:"FILE"   short:"D" type:"existingfile"`
	Set     map[string]string `help:"Set a data value, dotted keys nest"              placeholder:"KEY=VALUE" short:"S"`
	EnvFile []string          `help:"Dotenv file for the env: namespace"              placeholder:"FILE"   type:"existingfile"`
	Strict  bool              `help:"Fail on expressions that resolve to nothing"`
	Timeout time.Duration     `default:"${timeoutDefault}" help:"Render timeout per template (0 disables)"`
	Escape  string            `default:"auto"              enum:"auto,html,json,none"                     help:"Output escaping (${enum})"`
	Metrics string            `help:"Write Prometheus metrics to file on exit"         placeholder:"FILE"   type:"path"`
}

// Vars returns the kong variables referenced by the Engine flags.
func (*Engine) Vars() kong.Vars {
	return kong.Vars{"timeoutDefault": tmpl.DefaultTimeout.String()}
}

// Group returns the kong group of the Engine flags.
func (*Engine) Group() kong.Group {
	return kong.Group{Key: "engine", Title: "Engine options"}
}

// session is an engine built from the flags, together with the data every
// template is rendered against.
type session struct {
	*tmpl.Engine

	data     map[string]any
	variant  tmpl.Variant
	registry *prometheus.Registry
	metrics  string
}

// open loads the data and environment files and builds the engine.
func (e *Engine) open(ctx context.Context) (*session, error) {
	data, err := loadData(e.Data, e.Set)
	if err != nil {
		return nil, err
	}

	env, err := namespaces.NewEnv(e.EnvFile)
	if err != nil {
		return nil, ErrEnvFile.Wrap(err)
	}

	registry := prometheus.NewRegistry()

	b := tmpl.NewBuilder(
		tmpl.WithStrictRendering(e.Strict),
		tmpl.WithTimeout(e.Timeout),
		tmpl.WithLogger(log.Default()),
		tmpl.WithObserver(metrics.New(registry)),
	).
		AddDefaults().
		AddLocator(locate.Dir(e.Dir))

	namespaces.Install(b, env)

	s := &session{data: data, registry: registry, metrics: e.Metrics}

	switch e.Escape {
	case EscapeNone:
		b.AddValueResolver(mapper.Resolvers()...)

		s.variant = tmpl.Variant{ContentType: tmpl.ContentTypeText, Encoding: tmpl.DefaultEncoding}

	case EscapeHTML:
		mapper.Install(b)

		s.variant = tmpl.Variant{ContentType: tmpl.ContentTypeHTML, Encoding: tmpl.DefaultEncoding}

	case EscapeJSON:
		mapper.Install(b)

		s.variant = tmpl.Variant{ContentType: tmpl.ContentTypeJSON, Encoding: tmpl.DefaultEncoding}

	default:
		mapper.Install(b)
	}

	s.Engine = b.Build()

	log.DebugContext(ctx, "session opened",
		slog.String("dir", e.Dir),
		slog.Int("data", len(data)),
		slog.String("escape", e.Escape),
		slog.Any("namespaces", s.Namespaces()))

	return s, nil
}

// variantFor returns the variant of the template named name: the one forced
// by --escape, or the one implied by its file suffix.
func (s *session) variantFor(name string) tmpl.Variant {
	if !s.variant.IsZero() {
		return s.variant
	}

	return tmpl.VariantForName(name)
}

// parse parses the template read from r.
func (s *session) parse(ctx context.Context, name string, r io.Reader) (*tmpl.Template, error) {
	t, err := s.ParseReader(ctx, r, tmpl.ID(name), tmpl.WithVariant(s.variantFor(name)))
	if err != nil {
		return nil, ErrParseTemplate.With(log.Template(name)).Wrap(err)
	}

	return t, nil
}

// render renders t against the session data.
func (s *session) render(ctx context.Context, t *tmpl.Template) (string, error) {
	out, err := t.Instance().SetData(s.data).Render(ctx)
	if err != nil {
		return "", ErrRenderTemplate.With(log.Template(t.ID())).Wrap(err)
	}

	return out, nil
}

// Close writes the collected metrics if requested.
func (s *session) Close() error {
	if s.metrics == "" {
		return nil
	}

	if err := metrics.WriteFile(s.metrics, s.registry); err != nil {
		return ErrWriteMetrics.With(slog.String("file", s.metrics)).Wrap(err)
	}

	return nil
}
