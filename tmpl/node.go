package tmpl

// Node is an element of a parsed template tree.
type Node interface {
	Origin() Origin
	node()
}

// TextNode is static template text.
type TextNode struct {
	Value  string
	origin Origin
	result ResultNode
}

// LineSeparatorNode is a single line terminator: "\n", "\r" or "\r\n".
type LineSeparatorNode struct {
	Value  string
	origin Origin
	result ResultNode
}

// ExpressionNode outputs the value of an expression.
type ExpressionNode struct {
	Expression *Expression
}

// ParameterDeclarationNode records `{@type key=default}`. It produces no
// output; a default value is materialized by an enclosing let section.
type ParameterDeclarationNode struct {
	TypeInfo string
	Key      string
	Default  *Expression
	origin   Origin
}

// SectionNode is a section tag with its blocks and the helper built for
// them at parse time.
type SectionNode struct {
	Name   string
	Blocks []*SectionBlock
	Helper SectionHelper
	origin Origin
}

// commentNode marks a comment for standalone line detection. It never
// survives parsing.
type commentNode struct {
	origin Origin
}

func newTextNode(value string, origin Origin) *TextNode {
	return &TextNode{Value: value, origin: origin, result: textResult(value)}
}

func newLineSeparatorNode(value string, origin Origin) *LineSeparatorNode {
	return &LineSeparatorNode{Value: value, origin: origin, result: textResult(value)}
}

func (n *TextNode) Origin() Origin                 { return n.origin }
func (n *LineSeparatorNode) Origin() Origin        { return n.origin }
func (n *ExpressionNode) Origin() Origin           { return n.Expression.Origin() }
func (n *ParameterDeclarationNode) Origin() Origin { return n.origin }
func (n *SectionNode) Origin() Origin              { return n.origin }
func (n *commentNode) Origin() Origin              { return n.origin }

func (*TextNode) node()                 {}
func (*LineSeparatorNode) node()        {}
func (*ExpressionNode) node()           {}
func (*ParameterDeclarationNode) node() {}
func (*SectionNode) node()              {}
func (*commentNode) node()              {}

// MainBlock returns the first block of the section.
func (n *SectionNode) MainBlock() *SectionBlock { return n.Blocks[0] }

// IsWhitespace reports whether the text consists only of whitespace.
func (n *TextNode) IsWhitespace() bool { return isBlank(n.Value) }

// SectionBlock is one block of a section: the main block, or a labeled
// block such as `{#else}`.
type SectionBlock struct {
	ID          string
	Label       string
	Params      Params
	Expressions map[string]*Expression
	Nodes       []Node
	origin      Origin

	// exprKeys preserves the order in which expressions were added.
	exprKeys []string
}

// Origin returns the position of the tag that opened the block.
func (b *SectionBlock) Origin() Origin { return b.origin }

// IsMain reports whether b is the main block of its section.
func (b *SectionBlock) IsMain() bool { return b.Label == MainBlockLabel }

// Expression returns the expression registered under key.
func (b *SectionBlock) Expression(key string) *Expression { return b.Expressions[key] }

// ExpressionKeys returns the registration order of the block expressions.
func (b *SectionBlock) ExpressionKeys() []string { return b.exprKeys }

// IsEmpty reports whether the block would output only whitespace.
func (b *SectionBlock) IsEmpty() bool {
	for _, n := range b.Nodes {
		switch n := n.(type) {
		case *TextNode:
			if !n.IsWhitespace() {
				return false
			}
		case *LineSeparatorNode, *ParameterDeclarationNode:
		default:
			return false
		}
	}

	return true
}

// Walk calls fn for each node of the subtree in depth-first order,
// descending into section blocks while fn returns true.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}

		if s, ok := n.(*SectionNode); ok {
			for _, b := range s.Blocks {
				Walk(b.Nodes, fn)
			}
		}
	}
}
