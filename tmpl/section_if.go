package tmpl

import (
	"strconv"
	"strings"

	"github.com/ardnew/brace/async"
)

const (
	ifName   = "if"
	elseName = "else"
)

// ifFactory builds `{#if cond}..{#else if cond}..{#else}..{/if}`.
type ifFactory struct{}

func (ifFactory) Spec() SectionSpec {
	return SectionSpec{
		Aliases:     []string{ifName},
		BlockLabels: []string{elseName},
	}
}

func (ifFactory) InitializeBlock(_ *Scope, block *BlockInfo) (*Scope, error) {
	tokens, perr := conditionTokens(block.Label(), block.Params())
	if perr != nil {
		return nil, perr.At(block.Origin())
	}

	if tokens != nil {
		_, err := parseCondition(tokens, func(tok string) (*Expression, error) {
			return block.AddExpression(tok, tok)
		})
		if err != nil {
			return nil, err
		}
	}

	return nil, nil
}

func (ifFactory) Initialize(ctx *SectionInitContext) (SectionHelper, error) {
	h := &ifHelper{branches: make([]ifBranch, 0, len(ctx.Blocks))}

	for _, b := range ctx.Blocks {
		tokens, perr := conditionTokens(b.Label, b.Params)
		if perr != nil {
			return nil, perr.At(b.Origin())
		}

		branch := ifBranch{block: b}

		if tokens != nil {
			cond, err := parseCondition(tokens, func(tok string) (*Expression, error) {
				return b.Expression(tok), nil
			})
			if err != nil {
				return nil, err
			}

			branch.cond = cond
		}

		h.branches = append(h.branches, branch)
	}

	return h, nil
}

// conditionTokens returns the condition of a block, or nil for a plain
// `{#else}`.
func conditionTokens(label string, params Params) ([]string, *Error) {
	tokens := make([]string, 0, len(params))
	for _, kv := range params {
		if _, err := strconv.Atoi(kv.Key); err == nil {
			tokens = append(tokens, kv.Value)
		} else {
			tokens = append(tokens, kv.Key+"="+kv.Value)
		}
	}

	if label == elseName {
		switch {
		case len(tokens) == 0:
			return nil, nil
		case tokens[0] != ifName:
			return nil, ErrInvalidSectionParams.Format("{#else %s}", strings.Join(tokens, " "))
		}

		tokens = tokens[1:]
	}

	if len(tokens) == 0 {
		return nil, ErrMandatoryParamsMissing.Format("{#%s} requires a condition", ifName)
	}

	return tokens, nil
}

type ifBranch struct {
	block *SectionBlock
	cond  condition
}

type ifHelper struct {
	branches []ifBranch
}

func (h *ifHelper) Resolve(ctx *SectionResolutionContext) *async.Future[ResultNode] {
	return h.branch(ctx, 0)
}

func (h *ifHelper) branch(ctx *SectionResolutionContext, i int) *async.Future[ResultNode] {
	if i >= len(h.branches) {
		return async.Completed(emptyResult)
	}

	b := h.branches[i]
	if b.cond == nil {
		return ctx.Execute(b.block, nil)
	}

	return async.Then(b.cond.eval(ctx), func(v any) *async.Future[ResultNode] {
		if IsTruthy(v) {
			return ctx.Execute(b.block, nil)
		}

		return h.branch(ctx, i+1)
	})
}
