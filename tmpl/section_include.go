package tmpl

import (
	"strconv"

	"github.com/ardnew/brace/async"
)

const (
	includeName      = "include"
	insertName       = "insert"
	evalName         = "eval"
	includeTemplate  = "template"
	includeIsolated  = "isolated"
	insertBlockName  = "name"
	defaultBlockName = "$default$"
)

// includeFactory builds `{#include base title='x'}{#body}..{/body}{/include}`.
// Nested tags that name no section helper define the blocks that the
// included template inserts with `{#insert body}`; the remaining content
// becomes the default block. Other named parameters are passed as data.
type includeFactory struct{}

func (includeFactory) Spec() SectionSpec {
	return SectionSpec{
		Aliases:         []string{includeName},
		UnknownAsBlocks: true,
		Params: map[string][]Parameter{
			MainBlockLabel: {
				{Name: includeTemplate},
				{
					Name:       includeIsolated,
					Default:    "false",
					HasDefault: true,
					Accepts:    func(v string) bool { return v == includeIsolated },
				},
			},
		},
	}
}

func (includeFactory) InitializeBlock(_ *Scope, block *BlockInfo) (*Scope, error) {
	if block.Label() != MainBlockLabel {
		return nil, nil
	}

	return nil, addDataExpressions(block, includeTemplate, includeIsolated)
}

// addDataExpressions registers every named parameter not listed in
// reserved as a data expression.
func addDataExpressions(block *BlockInfo, reserved ...string) error {
	for _, kv := range block.Params() {
		if isReserved(kv.Key, reserved) {
			continue
		}

		if _, err := strconv.Atoi(kv.Key); err == nil {
			return ErrInvalidSectionParams.At(block.Origin()).Format("unexpected parameter %q", kv.Value)
		}

		if _, err := block.AddExpression(kv.Key, kv.Value); err != nil {
			return err
		}
	}

	return nil
}

func isReserved(key string, reserved []string) bool {
	for _, r := range reserved {
		if key == r {
			return true
		}
	}

	return false
}

func (includeFactory) Initialize(ctx *SectionInitContext) (SectionHelper, error) {
	id, _ := ctx.Param(includeTemplate)
	if lit, ok := parseLiteral(id); ok {
		id = Stringify(lit)
	}

	isolated, _ := ctx.Param(includeIsolated)

	h := &includeHelper{
		id:       id,
		isolated: isolated == includeIsolated || isolated == "true",
		data:     ctx.MainBlock(),
		blocks:   map[string]*SectionBlock{defaultBlockName: ctx.MainBlock()},
		origin:   ctx.Origin(),
	}

	for _, b := range ctx.Blocks[1:] {
		h.blocks[b.Label] = b
	}

	return h, nil
}

type includeHelper struct {
	id       string
	isolated bool
	data     *SectionBlock
	blocks   map[string]*SectionBlock
	origin   Origin
}

func (h *includeHelper) Resolve(ctx *SectionResolutionContext) *async.Future[ResultNode] {
	rc := ctx.ResolutionContext()

	t, err := rc.Engine().GetTemplate(h.id)
	if err != nil {
		return async.Failed[ResultNode](WrapError(err).At(h.origin))
	}

	return async.Then(ctx.EvaluateBlock(h.data), func(data map[string]any) *async.Future[ResultNode] {
		child := rc.CreateChild(data, h.blocks)
		if h.isolated {
			child = rc.CreateIsolated(data, h.blocks)
		}

		return t.resolve(child)
	})
}

// insertFactory builds `{#insert name}default{/insert}`.
type insertFactory struct{}

func (insertFactory) Spec() SectionSpec {
	return SectionSpec{
		Aliases: []string{insertName},
		Params: map[string][]Parameter{
			MainBlockLabel: {{Name: insertBlockName, Default: defaultBlockName, HasDefault: true}},
		},
	}
}

func (insertFactory) InitializeBlock(*Scope, *BlockInfo) (*Scope, error) { return nil, nil }

func (insertFactory) Initialize(ctx *SectionInitContext) (SectionHelper, error) {
	name, _ := ctx.Param(insertBlockName)

	return &insertHelper{name: name}, nil
}

type insertHelper struct {
	name string
}

// Resolve renders the block supplied by the including template, or the
// content of the insert tag if there is none.
func (h *insertHelper) Resolve(ctx *SectionResolutionContext) *async.Future[ResultNode] {
	b := ctx.ResolutionContext().ExtendingBlock(h.name)
	if b == nil || (h.name == defaultBlockName && b.IsEmpty()) {
		return ctx.Execute(nil, nil)
	}

	return ctx.Execute(b, nil)
}

// evalFactory builds `{#eval source name=value /}`, which parses the value
// of source as a template and renders it in place.
type evalFactory struct{}

func (evalFactory) Spec() SectionSpec {
	return SectionSpec{
		Aliases: []string{evalName},
		Params: map[string][]Parameter{
			MainBlockLabel: {{Name: includeTemplate}},
		},
	}
}

func (evalFactory) InitializeBlock(_ *Scope, block *BlockInfo) (*Scope, error) {
	source, _ := block.Param(includeTemplate)
	if _, err := block.AddExpression(includeTemplate, source); err != nil {
		return nil, err
	}

	return nil, addDataExpressions(block, includeTemplate)
}

func (evalFactory) Initialize(ctx *SectionInitContext) (SectionHelper, error) {
	return &evalHelper{block: ctx.MainBlock(), origin: ctx.Origin()}, nil
}

type evalHelper struct {
	block  *SectionBlock
	origin Origin
}

func (h *evalHelper) Resolve(ctx *SectionResolutionContext) *async.Future[ResultNode] {
	rc := ctx.ResolutionContext()

	return async.Then(ctx.EvaluateBlock(h.block), func(data map[string]any) *async.Future[ResultNode] {
		source := Stringify(data[includeTemplate])
		delete(data, includeTemplate)

		t, err := rc.Engine().parseCached(source, h.origin.Variant)
		if err != nil {
			return async.Failed[ResultNode](WrapError(err).At(h.origin))
		}

		return t.resolve(rc.CreateChild(data, nil))
	})
}
