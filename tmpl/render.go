package tmpl

import (
	"github.com/ardnew/brace/async"
)

// executeBlock resolves every node of block concurrently and composes the
// results in node order.
func (e *Engine) executeBlock(block *SectionBlock, rc *ResolutionContext) *async.Future[ResultNode] {
	switch len(block.Nodes) {
	case 0:
		return async.Completed(emptyResult)
	case 1:
		return e.resolveNode(block.Nodes[0], rc)
	}

	fs := make([]*async.Future[ResultNode], len(block.Nodes))
	for i, n := range block.Nodes {
		fs[i] = e.resolveNode(n, rc)
	}

	return compose(fs)
}

func (e *Engine) resolveNode(n Node, rc *ResolutionContext) *async.Future[ResultNode] {
	switch n := n.(type) {
	case *TextNode:
		return async.Completed(n.result)
	case *LineSeparatorNode:
		return async.Completed(n.result)
	case *ExpressionNode:
		expr := n.Expression

		return async.Map(rc.Evaluate(expr), func(v any) (ResultNode, error) {
			return valueResult{value: v, expr: expr}, nil
		})
	case *SectionNode:
		return resolveSection(n, rc)
	}

	return async.Completed(emptyResult)
}

// resolveSection runs the section helper, turning a panic raised while it
// starts into a render error.
func resolveSection(n *SectionNode, rc *ResolutionContext) (f *async.Future[ResultNode]) {
	defer func() {
		if r := recover(); r != nil {
			f = async.Failed[ResultNode](ErrResolverFailure.At(n.Origin()).
				Format("{#%s}: %v", n.Name, r))
		}
	}()

	f = n.Helper.Resolve(&SectionResolutionContext{rc: rc, section: n})
	if f == nil {
		return async.Completed(emptyResult)
	}

	return f
}
