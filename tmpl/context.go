package tmpl

import (
	"maps"

	"github.com/ardnew/brace/async"
)

// ResolutionContext is one frame of the render-time context chain. Name
// lookups that fail on the data of a frame continue on its parent.
type ResolutionContext struct {
	data     any
	parent   *ResolutionContext
	blocks   map[string]*SectionBlock
	attrs    map[string]any
	engine   *Engine
	template *Template
}

func newRootContext(e *Engine, t *Template, data any, attrs map[string]any) *ResolutionContext {
	return &ResolutionContext{data: data, attrs: attrs, engine: e, template: t}
}

// Data returns the data object of this frame.
func (c *ResolutionContext) Data() any { return c.data }

// Parent returns the enclosing frame, or nil.
func (c *ResolutionContext) Parent() *ResolutionContext { return c.parent }

// Engine returns the engine rendering the template.
func (c *ResolutionContext) Engine() *Engine { return c.engine }

// Template returns the template being rendered.
func (c *ResolutionContext) Template() *Template { return c.template }

// Attribute returns a render attribute of the template instance.
func (c *ResolutionContext) Attribute(key string) (any, bool) {
	v, ok := c.attrs[key]

	return v, ok
}

// CreateChild returns a frame with data whose lookups fall back to c.
func (c *ResolutionContext) CreateChild(data any, blocks map[string]*SectionBlock) *ResolutionContext {
	return &ResolutionContext{
		data:     data,
		parent:   c,
		blocks:   blocks,
		attrs:    c.attrs,
		engine:   c.engine,
		template: c.template,
	}
}

// CreateIsolated returns a root frame that shares only the attributes and
// engine of c.
func (c *ResolutionContext) CreateIsolated(data any, blocks map[string]*SectionBlock) *ResolutionContext {
	child := c.CreateChild(data, blocks)
	child.parent = nil

	return child
}

// ExtendingBlock returns the block named name supplied by the nearest
// including section.
func (c *ResolutionContext) ExtendingBlock(name string) *SectionBlock {
	for rc := c; rc != nil; rc = rc.parent {
		if b, ok := rc.blocks[name]; ok {
			return b
		}
	}

	return nil
}

// Evaluate evaluates expr in this context.
func (c *ResolutionContext) Evaluate(expr *Expression) *async.Future[any] {
	return c.engine.eval.evaluate(expr, c)
}

// Bindings flattens the names visible from this frame into a map; inner
// frames shadow outer ones.
func (c *ResolutionContext) Bindings() map[string]any {
	var chain []*ResolutionContext
	for rc := c; rc != nil; rc = rc.parent {
		chain = append(chain, rc)
	}

	m := make(map[string]any)

	for i := len(chain) - 1; i >= 0; i-- {
		switch d := chain[i].data.(type) {
		case map[string]any:
			maps.Copy(m, d)
		case *iterationData:
			m[d.alias] = d.item.Value
			for _, k := range iterationKeys {
				m[d.alias+d.prefix+k], _ = d.item.metadata(k)
			}
		}
	}

	return m
}
