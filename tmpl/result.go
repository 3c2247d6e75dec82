package tmpl

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/ardnew/brace/async"
)

// ResultNode is a node of the render result tree. Values are converted to
// text only when the tree is finalized.
type ResultNode interface {
	process(s *sink) error
}

// textResult is static text.
type textResult string

// valueResult is an evaluated expression awaiting result mapping.
type valueResult struct {
	value any
	expr  *Expression
}

// multiResult is an ordered composite.
type multiResult []ResultNode

// emptyResult renders nothing.
var emptyResult ResultNode = multiResult(nil)

// TextResult returns a result node holding static text.
func TextResult(s string) ResultNode { return textResult(s) }

// ValueResult returns a result node for value, mapped at finalization
// using the origin of expr.
func ValueResult(value any, expr *Expression) ResultNode {
	return valueResult{value: value, expr: expr}
}

// EmptyResult returns a result node that renders nothing.
func EmptyResult() ResultNode { return emptyResult }

// sink receives the text of a result tree in order.
type sink struct {
	engine  *Engine
	consume func(string) error
}

func (r textResult) process(s *sink) error {
	if r == "" {
		return nil
	}

	return s.consume(string(r))
}

func (r valueResult) process(s *sink) error {
	text, err := s.engine.mapResult(r.value, r.expr)
	if err != nil {
		return err
	}

	if text == "" {
		return nil
	}

	return s.consume(text)
}

func (r multiResult) process(s *sink) error {
	for _, n := range r {
		if err := n.process(s); err != nil {
			return err
		}
	}

	return nil
}

// compose joins child results. A single child is returned as-is and
// completed children are joined without waiting.
func compose(fs []*async.Future[ResultNode]) *async.Future[ResultNode] {
	switch len(fs) {
	case 0:
		return async.Completed(emptyResult)
	case 1:
		return fs[0]
	}

	return async.Map(async.All(fs), func(nodes []ResultNode) (ResultNode, error) {
		return multiResult(nodes), nil
	})
}

// Stringify converts a value to its default text form.
func Stringify(v any) string {
	switch v := v.(type) {
	case nil, *NotFound:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case *IterationItem:
		return Stringify(v.Value)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	}

	if s, err := cast.ToStringE(v); err == nil {
		return s
	}

	return fmt.Sprint(v)
}
