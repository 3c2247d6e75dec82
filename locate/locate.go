// Package locate provides template locators backed by file systems and
// in-memory maps.
package locate

import (
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/klauspost/readahead"

	"github.com/ardnew/brace/tmpl"
)

// DefaultSuffixes are probed, in order, when a template id has no match as
// given.
var DefaultSuffixes = []string{".html", ".txt", ".json", ".xml"}

// FS locates templates in a file system.
type FS struct {
	fsys     fs.FS
	suffixes []string
	priority int
}

// Option configures an [FS] locator.
type Option func(*FS)

// WithSuffixes sets the suffixes probed for ids that do not match a file.
func WithSuffixes(suffixes ...string) Option {
	return func(l *FS) { l.suffixes = suffixes }
}

// WithPriority sets the locator priority.
func WithPriority(priority int) Option {
	return func(l *FS) { l.priority = priority }
}

// New returns a locator over fsys. Template ids are slash-separated paths
// relative to its root.
func New(fsys fs.FS, opts ...Option) *FS {
	l := &FS{
		fsys:     fsys,
		suffixes: DefaultSuffixes,
		priority: tmpl.PriorityDefault,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Dir returns a locator over the directory tree rooted at dir.
func Dir(dir string, opts ...Option) *FS {
	return New(os.DirFS(dir), opts...)
}

func (l *FS) Priority() int { return l.priority }

// Locate finds id, then id with each configured suffix appended. The
// variant is derived from the name of the matched file.
func (l *FS) Locate(id string) (*tmpl.TemplateLocation, bool) {
	name := strings.TrimPrefix(path.Clean("/"+id), "/")
	if !fs.ValidPath(name) || name == "." {
		return nil, false
	}

	for _, candidate := range l.candidates(name) {
		info, err := fs.Stat(l.fsys, candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		return &tmpl.TemplateLocation{
			Open:    l.opener(candidate),
			Variant: tmpl.VariantForName(candidate),
			Name:    candidate,
		}, true
	}

	return nil, false
}

func (l *FS) candidates(name string) []string {
	names := make([]string, 0, len(l.suffixes)+1)
	names = append(names, name)

	if path.Ext(name) != "" {
		return names
	}

	for _, s := range l.suffixes {
		names = append(names, name+s)
	}

	return names
}

func (l *FS) opener(name string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		f, err := l.fsys.Open(name)
		if err != nil {
			return nil, err
		}

		return readahead.NewReadCloser(f), nil
	}
}

// Map locates templates held in memory. It is safe for concurrent use.
type Map struct {
	mu        sync.RWMutex
	templates map[string]string
	variants  map[string]tmpl.Variant
	priority  int
}

// NewMap returns a locator over a copy of templates.
func NewMap(templates map[string]string) *Map {
	m := &Map{
		templates: make(map[string]string, len(templates)),
		variants:  make(map[string]tmpl.Variant),
		priority:  tmpl.PriorityDefault,
	}

	for id, content := range templates {
		m.templates[id] = content
	}

	return m
}

// WithPriority sets the locator priority and returns m.
func (m *Map) WithPriority(priority int) *Map {
	m.priority = priority

	return m
}

// Set adds or replaces the template id. An optional variant overrides the
// one derived from id.
func (m *Map) Set(id, content string, variant ...tmpl.Variant) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.templates[id] = content

	if len(variant) > 0 {
		m.variants[id] = variant[0]
	} else {
		delete(m.variants, id)
	}
}

// Delete removes the template id.
func (m *Map) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.templates, id)
	delete(m.variants, id)
}

func (m *Map) Priority() int { return m.priority }

func (m *Map) Locate(id string) (*tmpl.TemplateLocation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.templates[id]
	if !ok {
		return nil, false
	}

	return &tmpl.TemplateLocation{
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
		Variant: m.variants[id],
		Name:    id,
	}, true
}
