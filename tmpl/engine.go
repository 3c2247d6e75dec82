package tmpl

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"

	"github.com/ardnew/brace/log"
)

// Observer receives engine events, e.g. to export metrics.
type Observer interface {
	Parsed(id string, d time.Duration, err error)
	Rendered(id string, d time.Duration, err error)
	ResolverCache(hit bool)
}

// Engine parses and renders templates. It is immutable once built and safe
// for concurrent use.
type Engine struct {
	eval             *evaluator
	sections         map[string]SectionHelperFactory
	mappers          []ResultMapper
	locators         []TemplateLocator
	removeStandalone bool
	timeout          time.Duration
	iterationPrefix  string
	logger           log.Logger
	observer         Observer

	templates sync.Map // id -> *Template
	sources   sync.Map // content hash -> *Template
	loads     singleflight.Group
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	strict           bool
	removeStandalone bool
	timeout          time.Duration
	iterationPrefix  string
	logger           log.Logger
	observer         Observer
}

// DefaultTimeout bounds the rendering of a template instance.
const DefaultTimeout = 10 * time.Second

func defaultOptions() options {
	return options{
		removeStandalone: true,
		timeout:          DefaultTimeout,
		iterationPrefix:  defaultMetaSep,
	}
}

// WithStrictRendering makes expressions that resolve to nothing fail with
// ErrPropertyNotFound instead of rendering empty.
func WithStrictRendering(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithRemoveStandaloneLines controls whether lines holding only section
// tags, parameter declarations or comments are removed from the output.
func WithRemoveStandaloneLines(remove bool) Option {
	return func(o *options) { o.removeStandalone = remove }
}

// WithTimeout sets the default render timeout; zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithIterationMetadataPrefix sets the separator of prefixed iteration
// metadata such as `it_count`.
func WithIterationMetadataPrefix(prefix string) Option {
	return func(o *options) { o.iterationPrefix = prefix }
}

// WithLogger sets the engine logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithObserver registers an observer of engine events.
func WithObserver(observer Observer) Option {
	return func(o *options) { o.observer = observer }
}

// Builder assembles an Engine.
type Builder struct {
	opts       options
	resolvers  []ValueResolver
	namespaces []NamespaceResolver
	sections   []sectionEntry
	mappers    []ResultMapper
	locators   []TemplateLocator
}

// NewBuilder returns an empty builder. Call AddDefaults for the built-in
// resolvers and section helpers.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{opts: defaultOptions()}

	return b.Options(opts...)
}

// Options applies engine options.
func (b *Builder) Options(opts ...Option) *Builder {
	for _, opt := range opts {
		opt(&b.opts)
	}

	return b
}

// AddDefaults registers the built-in value resolvers and section helpers.
func (b *Builder) AddDefaults() *Builder {
	return b.AddDefaultValueResolvers().AddDefaultSectionHelpers()
}

// AddDefaultValueResolvers registers the built-in value resolvers.
func (b *Builder) AddDefaultValueResolvers() *Builder {
	return b.AddValueResolver(DefaultValueResolvers()...)
}

// AddDefaultSectionHelpers registers if, each/for, with, let/set, include,
// insert, eval and when/switch.
func (b *Builder) AddDefaultSectionHelpers() *Builder {
	for _, f := range []SectionHelperFactory{
		ifFactory{}, loopFactory{}, withFactory{}, &letFactory{},
		includeFactory{}, insertFactory{}, evalFactory{}, whenFactory{},
	} {
		b.AddSectionHelper(f)
	}

	return b
}

// AddValueResolver registers value resolvers.
func (b *Builder) AddValueResolver(rs ...ValueResolver) *Builder {
	b.resolvers = append(b.resolvers, rs...)

	return b
}

// AddNamespaceResolver registers namespace resolvers.
func (b *Builder) AddNamespaceResolver(rs ...NamespaceResolver) *Builder {
	b.namespaces = append(b.namespaces, rs...)

	return b
}

// sectionEntry is one registration of a section helper factory.
type sectionEntry struct {
	name     string
	factory  SectionHelperFactory
	priority int
}

func (s sectionEntry) Priority() int { return s.priority }

// AddSectionHelper registers a section helper factory under the given
// names, or under its default aliases if none are given. A factory with a
// Priority method is registered at that priority, otherwise at
// PriorityDefault. When several factories claim a name, the highest
// priority wins and ties go to the earliest registration; built-in helpers
// are replaced by registering above PriorityBuiltin.
func (b *Builder) AddSectionHelper(f SectionHelperFactory, names ...string) *Builder {
	if len(names) == 0 {
		names = f.Spec().Aliases
	}

	priority := PriorityDefault
	if p, ok := f.(prioritized); ok {
		priority = p.Priority()
	}

	for _, n := range names {
		b.sections = append(b.sections, sectionEntry{name: n, factory: f, priority: priority})
	}

	return b
}

// AddResultMapper registers result mappers.
func (b *Builder) AddResultMapper(ms ...ResultMapper) *Builder {
	b.mappers = append(b.mappers, ms...)

	return b
}

// AddLocator registers template locators.
func (b *Builder) AddLocator(ls ...TemplateLocator) *Builder {
	b.locators = append(b.locators, ls...)

	return b
}

// Build returns the engine. The builder may be reused.
func (b *Builder) Build() *Engine {
	resolvers := slices.Clone(b.resolvers)
	sortByPriority(resolvers)

	namespaces := make(map[string][]NamespaceResolver)
	for _, r := range b.namespaces {
		namespaces[r.Namespace()] = append(namespaces[r.Namespace()], r)
	}

	for _, list := range namespaces {
		sortByPriority(list)
	}

	mappers := slices.Clone(b.mappers)
	sortByPriority(mappers)

	locators := slices.Clone(b.locators)
	sortByPriority(locators)

	sections := slices.Clone(b.sections)
	sortByPriority(sections)

	e := &Engine{
		eval: &evaluator{
			resolvers:  resolvers,
			namespaces: namespaces,
			strict:     b.opts.strict,
			observer:   b.opts.observer,
			logger:     b.opts.logger,
		},
		sections:         make(map[string]SectionHelperFactory, len(b.sections)),
		mappers:          mappers,
		locators:         locators,
		removeStandalone: b.opts.removeStandalone,
		timeout:          b.opts.timeout,
		iterationPrefix:  b.opts.iterationPrefix,
		logger:           b.opts.logger,
		observer:         b.opts.observer,
	}

	for _, s := range sections {
		if _, ok := e.sections[s.name]; !ok {
			e.sections[s.name] = s.factory
		}
	}

	e.logger.Debug("engine built",
		slog.Int("resolvers", len(resolvers)),
		slog.Int("namespaces", len(namespaces)),
		slog.Any("sections", e.SectionNames()),
		slog.Bool("strict", b.opts.strict))

	return e
}

// IsStrict reports whether strict rendering is enabled.
func (e *Engine) IsStrict() bool { return e.eval.strict }

// SectionNames returns the sorted names of all registered section helpers.
func (e *Engine) SectionNames() []string { return sortedKeys(e.sections) }

// Namespaces returns the sorted registered namespaces.
func (e *Engine) Namespaces() []string { return sortedKeys(e.eval.namespaces) }

func (e *Engine) sectionFactory(name string) (SectionHelperFactory, bool) {
	f, ok := e.sections[name]

	return f, ok
}

// ParseOption configures a single parse.
type ParseOption func(*parseOptions)

type parseOptions struct {
	id      string
	variant Variant
}

// ID sets the template id. Without it an id is derived from the content.
func ID(id string) ParseOption {
	return func(o *parseOptions) { o.id = id }
}

// WithVariant sets the content variant of the template.
func WithVariant(v Variant) ParseOption {
	return func(o *parseOptions) { o.variant = v }
}

// ParseString parses a template from a string.
func (e *Engine) ParseString(ctx context.Context, content string, opts ...ParseOption) (*Template, error) {
	o := parseOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.id == "" {
		o.id = generatedID(content)
	}

	return e.parse(ctx, strings.NewReader(content), o)
}

// ParseReader parses a template from r.
func (e *Engine) ParseReader(ctx context.Context, r io.Reader, opts ...ParseOption) (*Template, error) {
	o := parseOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.id != "" {
		return e.parse(ctx, r, o)
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	o.id = generatedID(string(content))

	return e.parse(ctx, bytes.NewReader(content), o)
}

// generatedID derives a stable template id from the content.
func generatedID(content string) string {
	return "tmpl-" + strconv.FormatUint(xxh3.HashString(content), 16)
}

func (e *Engine) parse(ctx context.Context, r io.Reader, o parseOptions) (*Template, error) {
	if o.variant.IsZero() {
		o.variant = Variant{ContentType: ContentTypeText, Encoding: DefaultEncoding}
	}

	start := time.Now()
	t, err := newParser(e, o.id, o.variant).parse(r)
	elapsed := time.Since(start)

	if e.observer != nil {
		e.observer.Parsed(o.id, elapsed, err)
	}

	if err != nil {
		e.logger.DebugContext(ctx, "parse failed",
			log.Template(o.id),
			log.Err(err))

		return nil, err
	}

	e.logger.TraceContext(ctx, "parsed",
		log.Template(o.id),
		log.Elapsed(elapsed))

	return t, nil
}

// parseCached parses content once per distinct content and variant.
func (e *Engine) parseCached(content string, variant Variant) (*Template, error) {
	key := xxh3.HashString(variant.ContentType + "\x00" + content)
	if t, ok := e.sources.Load(key); ok {
		return t.(*Template), nil
	}

	t, err := e.parse(context.Background(), strings.NewReader(content),
		parseOptions{id: generatedID(content), variant: variant})
	if err != nil {
		return nil, err
	}

	actual, _ := e.sources.LoadOrStore(key, t)

	return actual.(*Template), nil
}

// GetTemplate returns the template with the given id, loading it through
// the locators on first use. Concurrent loads of the same id are merged.
func (e *Engine) GetTemplate(id string) (*Template, error) {
	if t, ok := e.templates.Load(id); ok {
		return t.(*Template), nil
	}

	v, err, _ := e.loads.Do(id, func() (any, error) {
		if t, ok := e.templates.Load(id); ok {
			return t, nil
		}

		t, err := e.load(id)
		if err != nil {
			return nil, err
		}

		actual, _ := e.templates.LoadOrStore(id, t)

		return actual, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Template), nil
}

func (e *Engine) load(id string) (*Template, error) {
	for _, l := range e.locators {
		loc, ok := l.Locate(id)
		if !ok {
			continue
		}

		rc, err := loc.Open()
		if err != nil {
			return nil, ErrTemplateNotFound.Format("%q", id).Wrap(err)
		}

		variant := loc.Variant
		if variant.IsZero() {
			variant = VariantForName(id)
		}

		t, err := e.parse(context.Background(), rc, parseOptions{id: id, variant: variant})

		if cerr := rc.Close(); err == nil && cerr != nil {
			err = cerr
		}

		return t, err
	}

	return nil, ErrTemplateNotFound.Format("%q", id)
}

// PutTemplate caches t under id, replacing any existing template.
func (e *Engine) PutTemplate(id string, t *Template) {
	e.templates.Store(id, t)
}

// RemoveTemplates evicts the cached templates whose id matches.
func (e *Engine) RemoveTemplates(match func(id string) bool) {
	e.templates.Range(func(k, _ any) bool {
		if match(k.(string)) {
			e.templates.Delete(k)
		}

		return true
	})
}

// ClearTemplates evicts every cached template.
func (e *Engine) ClearTemplates() {
	e.templates.Clear()
	e.sources.Clear()
}
