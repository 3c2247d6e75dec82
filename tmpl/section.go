package tmpl

import (
	"github.com/ardnew/brace/async"
)

// MainBlockLabel is the label of the first block of every section.
const MainBlockLabel = ""

// MissingEndTagStrategy decides what happens to a section that is still open
// when its parent section or the template ends.
type MissingEndTagStrategy int

const (
	// MissingEndTagError reports an unterminated section.
	MissingEndTagError MissingEndTagStrategy = iota
	// MissingEndTagBindToParent closes the section implicitly.
	MissingEndTagBindToParent
)

// SectionSpec is the declarative part of a section helper factory.
type SectionSpec struct {
	// Aliases are the tag names the factory is registered under by default.
	Aliases []string
	// Params declares the parameters of each block by label.
	Params map[string][]Parameter
	// BlockLabels lists the labels that start a new block of the section.
	BlockLabels []string
	// UnknownAsBlocks treats nested tags that name no section helper as
	// blocks of this section.
	UnknownAsBlocks bool
	// MissingEndTag is the strategy for an omitted end tag.
	MissingEndTag MissingEndTagStrategy
}

func (s *SectionSpec) isBlockLabel(label string) bool {
	for _, l := range s.BlockLabels {
		if l == label {
			return true
		}
	}

	return false
}

// SectionHelperFactory builds a SectionHelper from the parsed blocks of a
// section tag.
type SectionHelperFactory interface {
	Spec() SectionSpec

	// InitializeBlock is called for each block as soon as its start tag is
	// parsed. It may register expressions on the block and returns the scope
	// for the block content, or nil to reuse the enclosing scope.
	InitializeBlock(enclosing *Scope, block *BlockInfo) (*Scope, error)

	// Initialize is called once the section end tag is parsed.
	Initialize(ctx *SectionInitContext) (SectionHelper, error)
}

// SectionHelper renders a section at render time.
type SectionHelper interface {
	Resolve(ctx *SectionResolutionContext) *async.Future[ResultNode]
}

// BlockInfo is the parse-time view of a block whose start tag was just read.
type BlockInfo struct {
	block *SectionBlock
	scope *Scope
}

// Label returns the block label, MainBlockLabel for the main block.
func (b *BlockInfo) Label() string { return b.block.Label }

// Params returns the bound block parameters.
func (b *BlockInfo) Params() Params { return b.block.Params }

// Param returns the value bound to key.
func (b *BlockInfo) Param(key string) (string, bool) { return b.block.Params.Get(key) }

// Origin returns the position of the block start tag.
func (b *BlockInfo) Origin() Origin { return b.block.origin }

// AddExpression parses value in the enclosing scope and registers it on
// the block under key.
func (b *BlockInfo) AddExpression(key, value string) (*Expression, error) {
	expr, err := parseExpression(value, b.scope, b.block.origin)
	if err != nil {
		return nil, err
	}

	b.block.addExpression(key, expr)

	return expr, nil
}

func (b *SectionBlock) addExpression(key string, expr *Expression) {
	if b.Expressions == nil {
		b.Expressions = make(map[string]*Expression)
	}

	if _, ok := b.Expressions[key]; !ok {
		b.exprKeys = append(b.exprKeys, key)
	}

	b.Expressions[key] = expr
}

// SectionInitContext is passed to SectionHelperFactory.Initialize.
type SectionInitContext struct {
	Name   string
	Blocks []*SectionBlock
	Engine *Engine
	origin Origin
}

// MainBlock returns the first block.
func (c *SectionInitContext) MainBlock() *SectionBlock { return c.Blocks[0] }

// Param returns a parameter of the main block.
func (c *SectionInitContext) Param(key string) (string, bool) {
	return c.Blocks[0].Params.Get(key)
}

// Expression returns an expression registered on the main block.
func (c *SectionInitContext) Expression(key string) *Expression {
	return c.Blocks[0].Expression(key)
}

// Origin returns the position of the section start tag.
func (c *SectionInitContext) Origin() Origin { return c.origin }

// SectionResolutionContext is passed to SectionHelper.Resolve.
type SectionResolutionContext struct {
	rc      *ResolutionContext
	section *SectionNode
}

// ResolutionContext returns the context the section renders in.
func (c *SectionResolutionContext) ResolutionContext() *ResolutionContext { return c.rc }

// Section returns the section node being rendered.
func (c *SectionResolutionContext) Section() *SectionNode { return c.section }

// Evaluate evaluates expr in the current context.
func (c *SectionResolutionContext) Evaluate(expr *Expression) *async.Future[any] {
	return c.rc.Evaluate(expr)
}

// EvaluateBlock concurrently evaluates every expression of block and
// returns them keyed like the block.
func (c *SectionResolutionContext) EvaluateBlock(block *SectionBlock) *async.Future[map[string]any] {
	keys := block.exprKeys

	fs := make([]*async.Future[any], len(keys))
	for i, k := range keys {
		fs[i] = c.rc.Evaluate(block.Expressions[k])
	}

	return async.Map(async.All(fs), func(values []any) (map[string]any, error) {
		m := make(map[string]any, len(values))
		for i, v := range values {
			m[keys[i]] = v
		}

		return m, nil
	})
}

// Execute renders the nodes of block in rc. A nil block means the main
// block and a nil rc the current context.
func (c *SectionResolutionContext) Execute(block *SectionBlock, rc *ResolutionContext) *async.Future[ResultNode] {
	if block == nil {
		block = c.section.MainBlock()
	}

	if rc == nil {
		rc = c.rc
	}

	return rc.engine.executeBlock(block, rc)
}

// rootHelper renders the main block of a template.
type rootHelper struct{}

func (rootHelper) Resolve(ctx *SectionResolutionContext) *async.Future[ResultNode] {
	return ctx.Execute(nil, nil)
}
