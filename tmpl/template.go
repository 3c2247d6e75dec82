package tmpl

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/ardnew/brace/async"
	"github.com/ardnew/brace/log"
)

// AttributeTimeout is the instance attribute that overrides the render
// timeout. Its value is a time.Duration or a number of milliseconds.
const AttributeTimeout = "timeout"

// Template is an immutable parsed template.
type Template struct {
	engine  *Engine
	id      string
	variant Variant
	root    *SectionNode
	params  []*ParameterDeclarationNode
}

// ID returns the template id.
func (t *Template) ID() string { return t.id }

// Variant returns the content variant.
func (t *Template) Variant() Variant { return t.variant }

// Root returns the root section, whose main block holds the top-level
// nodes.
func (t *Template) Root() *SectionNode { return t.root }

// Nodes returns the top-level nodes.
func (t *Template) Nodes() []Node { return t.root.MainBlock().Nodes }

// ParameterDeclarations returns the `{@type name}` declarations in source
// order.
func (t *Template) ParameterDeclarations() []*ParameterDeclarationNode { return t.params }

// Expressions returns every expression of the template in source order,
// including section parameters.
func (t *Template) Expressions() []*Expression {
	var out []*Expression

	Walk(t.Nodes(), func(n Node) bool {
		switch n := n.(type) {
		case *ExpressionNode:
			out = append(out, n.Expression)
		case *SectionNode:
			for _, b := range n.Blocks {
				for _, k := range b.exprKeys {
					out = append(out, b.Expressions[k])
				}
			}
		}

		return true
	})

	return out
}

// Instance returns a new render instance of the template.
func (t *Template) Instance() *Instance {
	return &Instance{template: t, attrs: make(map[string]any)}
}

// Render renders the template with data.
func (t *Template) Render(ctx context.Context, data any) (string, error) {
	return t.Instance().SetData(data).Render(ctx)
}

// resolve renders the root of t in rc.
func (t *Template) resolve(rc *ResolutionContext) *async.Future[ResultNode] {
	rc.template = t

	return t.root.Helper.Resolve(&SectionResolutionContext{rc: rc, section: t.root})
}

// Instance holds the data and attributes of a single rendering. An
// instance must not be modified while it renders.
type Instance struct {
	template *Template
	data     any
	dataMap  map[string]any
	attrs    map[string]any
}

// Template returns the template of the instance.
func (i *Instance) Template() *Template { return i.template }

// SetData sets the root data object, replacing any Data entries.
func (i *Instance) SetData(data any) *Instance {
	i.data, i.dataMap = data, nil

	return i
}

// Data sets a single entry of the root data map.
func (i *Instance) Data(key string, value any) *Instance {
	if i.dataMap == nil {
		i.dataMap = make(map[string]any)
		i.data = i.dataMap
	}

	i.dataMap[key] = value

	return i
}

// SetAttribute sets a render attribute, see AttributeTimeout.
func (i *Instance) SetAttribute(key string, value any) *Instance {
	i.attrs[key] = value

	return i
}

// Attribute returns a render attribute.
func (i *Instance) Attribute(key string) (any, bool) {
	v, ok := i.attrs[key]

	return v, ok
}

func (i *Instance) timeout() time.Duration {
	v, ok := i.attrs[AttributeTimeout]
	if !ok {
		return i.template.engine.timeout
	}

	if d, ok := v.(time.Duration); ok {
		return d
	}

	if ms, err := cast.ToInt64E(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}

	return i.template.engine.timeout
}

// RenderAsync starts rendering and returns the future result tree.
func (i *Instance) RenderAsync() *async.Future[ResultNode] {
	t := i.template
	rc := newRootContext(t.engine, t, i.data, i.attrs)

	return t.resolve(rc)
}

// Render renders the instance to a string.
func (i *Instance) Render(ctx context.Context) (string, error) {
	var sb strings.Builder

	err := i.Consume(ctx, func(s string) error {
		sb.WriteString(s)

		return nil
	})
	if err != nil {
		return "", err
	}

	return sb.String(), nil
}

// Consume renders the instance and passes the output to fn in order.
// Rendering fails with ErrRenderTimeout if it does not complete within the
// instance timeout.
func (i *Instance) Consume(ctx context.Context, fn func(string) error) error {
	t := i.template
	e := t.engine
	start := time.Now()

	if d := i.timeout(); d > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeoutCause(ctx, d,
			ErrRenderTimeout.At(Origin{TemplateID: t.id}).Format("after %s", d))
		defer cancel()
	}

	root, err := i.RenderAsync().Await(ctx)
	if err == nil {
		err = root.process(&sink{engine: e, consume: fn})
	}

	if e.observer != nil {
		e.observer.Rendered(t.id, time.Since(start), err)
	}

	if err != nil {
		e.logger.DebugContext(ctx, "render failed",
			log.Template(t.id),
			log.Err(err))

		return err
	}

	e.logger.TraceContext(ctx, "rendered",
		log.Template(t.id),
		log.Elapsed(time.Since(start)))

	return nil
}

// Chunks renders the instance and yields the output in order. Iteration
// stops at the first error, which is yielded with an empty chunk.
func (i *Instance) Chunks(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := false

		err := i.Consume(ctx, func(s string) error {
			if !yield(s, nil) {
				stopped = true

				return errStopChunks
			}

			return nil
		})

		if err != nil && !stopped {
			yield("", err)
		}
	}
}

var errStopChunks = NewError(CodeUnknown, "chunk iteration stopped")
