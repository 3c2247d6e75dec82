package tmpl

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Tag delimiters and markers.
const (
	startDelimiter = '{'
	endDelimiter   = '}'
	escapeChar     = '\\'
	sectionStart   = '#'
	sectionEnd     = '/'
	paramDecl      = '@'
	commentMarker  = '!'
	cdataMarker    = '|'

	rootSectionName = "$root"
)

type parserState int

const (
	stateText parserState = iota
	stateEscape
	stateTagCandidate
	stateTag
	stateTagLiteral
	stateComment
	stateCdata
	stateLineSeparator
)

// frame is an open section on the parser stack.
type frame struct {
	name     string
	factory  SectionHelperFactory
	spec     SectionSpec
	blocks   []*SectionBlock
	current  *SectionBlock
	origin   Origin
	implicit bool
}

// parser is a single-use character state machine that builds the node tree
// of one template. Open sections and their scopes are kept on two stacks
// that grow and shrink in lock-step.
type parser struct {
	engine           *Engine
	id               string
	variant          Variant
	removeStandalone bool

	state   parserState
	buf     strings.Builder
	quote   rune
	escaped bool
	last    rune

	line   int
	col    int
	prevCR bool

	tagOrigin  Origin
	textOrigin Origin

	frames  []*frame
	scopes  []*Scope
	items   []lineItem
	params  []*ParameterDeclarationNode
	blockID int
}

func newParser(e *Engine, id string, variant Variant) *parser {
	p := &parser{
		engine:           e,
		id:               id,
		variant:          variant,
		removeStandalone: e.removeStandalone,
		line:             1,
	}

	root := &SectionBlock{ID: p.nextBlockID(), Label: MainBlockLabel}
	p.frames = []*frame{{name: rootSectionName, blocks: []*SectionBlock{root}, current: root}}
	p.scopes = []*Scope{NewScope(nil)}

	return p
}

func (p *parser) parse(r io.Reader) (*Template, error) {
	br := bufio.NewReader(r)

	for {
		c, _, err := br.ReadRune()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		if err := p.process(c); err != nil {
			return nil, err
		}

		p.advance(c)
	}

	return p.finish()
}

// origin returns the position of the character being processed.
func (p *parser) origin() Origin {
	line, col := p.line, p.col+1
	if p.prevCR {
		line, col = line+1, 1
	}

	return Origin{TemplateID: p.id, Line: line, Column: col, Variant: p.variant}
}

// advance updates the position after c was processed. A lone '\r' ends a
// line as soon as the next character is known not to be '\n'.
func (p *parser) advance(c rune) {
	if p.prevCR && c != '\n' {
		p.line++
		p.col = 0
	}

	p.prevCR = false

	switch c {
	case '\n':
		p.line++
		p.col = 0
	case '\r':
		p.prevCR = true
	default:
		p.col++
	}
}

func (p *parser) process(c rune) error {
	switch p.state {
	case stateText:
		return p.text(c)
	case stateEscape:
		return p.escape(c)
	case stateTagCandidate:
		return p.tagCandidate(c)
	case stateTag:
		return p.tag(c)
	case stateTagLiteral:
		p.tagLiteral(c)
	case stateComment:
		p.comment(c)
	case stateCdata:
		p.cdata(c)
	case stateLineSeparator:
		return p.lineSeparator(c)
	}

	return nil
}

func (p *parser) text(c rune) error {
	switch c {
	case startDelimiter:
		p.tagOrigin = p.origin()
		p.state = stateTagCandidate
	case escapeChar:
		p.state = stateEscape
	case '\n', '\r':
		p.flushText()
		p.textOrigin = p.origin()
		p.buf.WriteRune(c)
		p.state = stateLineSeparator
	default:
		p.appendText(c)
	}

	return nil
}

func (p *parser) appendText(c rune) {
	if p.buf.Len() == 0 {
		p.textOrigin = p.origin()
	}

	p.buf.WriteRune(c)
}

// escape handles the character after '\'. Only delimiters are escaped;
// other sequences are kept verbatim, so `\\` is two backslashes and does not
// escape what follows.
func (p *parser) escape(c rune) error {
	p.state = stateText

	switch c {
	case startDelimiter, endDelimiter:
		p.appendText(c)

		return nil
	case '\n', '\r':
		p.appendText(escapeChar)

		return p.text(c)
	}

	p.appendText(escapeChar)
	p.appendText(c)

	return nil
}

func isTagStart(c rune) bool {
	switch c {
	case sectionStart, sectionEnd, paramDecl, commentMarker, cdataMarker, '_', '$':
		return true
	}

	return unicode.IsLetter(c) || unicode.IsDigit(c)
}

func (p *parser) tagCandidate(c rune) error {
	if !isTagStart(c) {
		p.state = stateText
		if p.buf.Len() == 0 {
			p.textOrigin = p.tagOrigin
		}

		p.buf.WriteRune(startDelimiter)

		return p.text(c)
	}

	p.flushText()
	p.last = 0

	switch c {
	case commentMarker:
		p.state = stateComment
	case cdataMarker:
		p.state = stateCdata
	default:
		p.state = stateTag
		p.buf.WriteRune(c)
	}

	return nil
}

func (p *parser) tag(c rune) error {
	switch {
	case isQuote(c):
		p.quote = c
		p.escaped = false
		p.state = stateTagLiteral
		p.buf.WriteRune(c)
	case c == endDelimiter:
		p.state = stateText

		return p.flushTag()
	default:
		p.buf.WriteRune(c)
	}

	return nil
}

func (p *parser) tagLiteral(c rune) {
	p.buf.WriteRune(c)

	switch {
	case p.escaped:
		p.escaped = false
	case c == '\\':
		p.escaped = true
	case c == p.quote:
		p.state = stateTag
	}
}

func (p *parser) comment(c rune) {
	if c == endDelimiter && p.last == commentMarker {
		p.state = stateText

		if p.removeStandalone {
			n := &commentNode{origin: p.tagOrigin}
			p.addNode(n)
			p.items = append(p.items, lineItem{kind: itemComment, node: n})
		}

		return
	}

	p.last = c
}

func (p *parser) cdata(c rune) {
	if c == endDelimiter && p.last == cdataMarker {
		p.state = stateText

		content := p.buf.String()
		p.buf.Reset()

		content = content[:len(content)-1]
		if content != "" {
			n := newTextNode(content, p.tagOrigin)
			p.addNode(n)
			p.items = append(p.items, lineItem{kind: itemText, node: n})
		}

		return
	}

	p.buf.WriteRune(c)
	p.last = c
}

func (p *parser) lineSeparator(c rune) error {
	if c == '\n' && p.buf.String() == "\r" {
		p.buf.WriteRune(c)
		p.flushSeparator()
		p.state = stateText

		return nil
	}

	p.flushSeparator()
	p.state = stateText

	return p.text(c)
}

func (p *parser) flushText() {
	if p.buf.Len() == 0 {
		return
	}

	n := newTextNode(p.buf.String(), p.textOrigin)
	p.buf.Reset()
	p.addNode(n)
	p.items = append(p.items, lineItem{kind: itemText, node: n})
}

func (p *parser) flushSeparator() {
	n := newLineSeparatorNode(p.buf.String(), p.textOrigin)
	p.buf.Reset()
	p.addNode(n)
	p.items = append(p.items, lineItem{kind: itemSeparator, node: n})
}

func (p *parser) flushTag() error {
	content := p.buf.String()
	p.buf.Reset()

	switch content[0] {
	case sectionStart:
		return p.sectionStart(content[1:], p.tagOrigin)
	case sectionEnd:
		return p.sectionEnd(content[1:], p.tagOrigin)
	case paramDecl:
		return p.paramDeclaration(content[1:], p.tagOrigin)
	}

	expr, err := parseExpression(content, p.scope(), p.tagOrigin)
	if err != nil {
		return err
	}

	p.addNode(&ExpressionNode{Expression: expr})
	p.items = append(p.items, lineItem{kind: itemExpression})

	return nil
}

func (p *parser) top() *frame { return p.frames[len(p.frames)-1] }

func (p *parser) scope() *Scope { return p.scopes[len(p.scopes)-1] }

func (p *parser) addNode(n Node) {
	f := p.top()
	f.current.Nodes = append(f.current.Nodes, n)
}

func (p *parser) nextBlockID() string {
	p.blockID++

	return p.id + "#" + strconv.Itoa(p.blockID)
}

func (p *parser) sectionStart(content string, origin Origin) error {
	content = strings.TrimSpace(content)

	selfClose := strings.HasSuffix(content, string(sectionEnd))
	if selfClose {
		content = strings.TrimSpace(content[:len(content)-1])
	}

	name, rest := content, ""
	if i := strings.IndexFunc(content, unicode.IsSpace); i >= 0 {
		name, rest = content[:i], content[i+1:]
	}

	if name == "" {
		return ErrNoSectionHelperFound.At(origin).Format("empty section name")
	}

	tokens := splitTokens(rest)
	if tokens == nil {
		return ErrUnterminatedStringLiteral.At(origin).Format("{#%s}", content)
	}

	p.items = append(p.items, lineItem{kind: itemSection})

	if idx := p.blockOwner(name); idx > 0 {
		for len(p.frames)-1 > idx {
			if err := p.closeTop(); err != nil {
				return err
			}
		}

		return p.startBlock(idx, name, tokens, origin)
	}

	factory, ok := p.engine.sectionFactory(name)
	if !ok {
		err := ErrNoSectionHelperFound.At(origin).Format("{#%s}", name)
		if hint := suggest(name, p.engine.SectionNames()); hint != "" {
			err = err.Format("{#%s}, did you mean {#%s}?", name, hint)
		}

		return err
	}

	spec := factory.Spec()

	params, err := bindParams(name, spec.Params[MainBlockLabel], tokens, origin)
	if err != nil {
		return err
	}

	block := &SectionBlock{ID: p.nextBlockID(), Label: MainBlockLabel, Params: params, origin: origin}

	scope, err := factory.InitializeBlock(p.scope(), &BlockInfo{block: block, scope: p.scope()})
	if err != nil {
		return atOrigin(err, origin)
	}

	if scope == nil {
		scope = p.scope()
	}

	f := &frame{
		name:    name,
		factory: factory,
		spec:    spec,
		blocks:  []*SectionBlock{block},
		current: block,
		origin:  origin,
	}

	if selfClose {
		node, err := p.buildSection(f)
		if err != nil {
			return err
		}

		p.addNode(node)

		return nil
	}

	p.frames = append(p.frames, f)
	p.scopes = append(p.scopes, scope)

	return nil
}

// blockOwner returns the index of the open section that label starts a
// block of, looking through sections whose end tag may be omitted.
func (p *parser) blockOwner(label string) int {
	for i := len(p.frames) - 1; i > 0; i-- {
		f := p.frames[i]
		if f.spec.isBlockLabel(label) {
			return i
		}

		if f.spec.UnknownAsBlocks {
			if _, ok := p.engine.sectionFactory(label); !ok {
				return i
			}
		}

		if f.spec.MissingEndTag != MissingEndTagBindToParent {
			break
		}
	}

	return -1
}

func (p *parser) startBlock(idx int, label string, tokens []string, origin Origin) error {
	f := p.frames[idx]

	params, err := bindParams(f.name+" "+label, f.spec.Params[label], tokens, origin)
	if err != nil {
		return err
	}

	block := &SectionBlock{ID: p.nextBlockID(), Label: label, Params: params, origin: origin}
	enclosing := p.scopes[idx-1]

	scope, err := f.factory.InitializeBlock(enclosing, &BlockInfo{block: block, scope: enclosing})
	if err != nil {
		return atOrigin(err, origin)
	}

	if scope == nil {
		scope = enclosing
	}

	f.blocks = append(f.blocks, block)
	f.current = block
	p.scopes[idx] = scope

	return nil
}

func (p *parser) sectionEnd(content string, origin Origin) error {
	name := strings.TrimSpace(content)

	p.items = append(p.items, lineItem{kind: itemSection})

	for {
		if len(p.frames) == 1 {
			return ErrSectionStartNotFound.At(origin).Format("{/%s}", name)
		}

		f := p.top()

		switch {
		case f.implicit && name != f.name:
			// Declared parameter defaults close with their enclosing section.
		case name == "" || name == f.name:
			return p.closeTop()
		case !f.current.IsMain() && name == f.current.Label:
			f.current = f.blocks[0]

			return nil
		case f.spec.MissingEndTag == MissingEndTagBindToParent:
		case f.spec.UnknownAsBlocks && !f.current.IsMain():
			return ErrSectionBlockEndDoesNotMatch.At(origin).
				Format("{/%s} does not match {#%s}", name, f.current.Label)
		default:
			return ErrSectionEndDoesNotMatch.At(origin).
				Format("{/%s} does not match {#%s} at %s", name, f.name, f.origin)
		}

		if err := p.closeTop(); err != nil {
			return err
		}
	}
}

func (p *parser) closeTop() error {
	f := p.top()

	node, err := p.buildSection(f)
	if err != nil {
		return err
	}

	p.frames = p.frames[:len(p.frames)-1]
	p.scopes = p.scopes[:len(p.scopes)-1]
	p.addNode(node)

	return nil
}

func (p *parser) buildSection(f *frame) (*SectionNode, error) {
	node := &SectionNode{Name: f.name, Blocks: f.blocks, origin: f.origin}

	helper, err := f.factory.Initialize(&SectionInitContext{
		Name:   f.name,
		Blocks: f.blocks,
		Engine: p.engine,
		origin: f.origin,
	})
	if err != nil {
		return nil, atOrigin(err, f.origin)
	}

	node.Helper = helper

	return node, nil
}

// paramDeclaration parses `[type] key [= default]`. A default value opens
// an implicit let section so that the value is bound at render time unless
// the data already provides it.
func (p *parser) paramDeclaration(content string, origin Origin) error {
	content = strings.TrimSpace(content)

	left, right, hasDefault := content, "", false
	if i := indexTopLevel(content, '='); i >= 0 {
		left, right, hasDefault = content[:i], strings.TrimSpace(content[i+1:]), true
	}

	decl := &ParameterDeclarationNode{origin: origin}

	switch fields := strings.Fields(left); len(fields) {
	case 1:
		decl.Key = fields[0]
	case 2:
		decl.TypeInfo, decl.Key = fields[0], fields[1]
	default:
		return ErrInvalidParamDeclaration.At(origin).Format("{@%s}", content)
	}

	if !isIdentifier(decl.Key) {
		return ErrInvalidParamDeclaration.At(origin).Format("invalid key %q", decl.Key)
	}

	if hasDefault && right == "" {
		return ErrInvalidParamDeclaration.At(origin).Format("empty default value for %q", decl.Key)
	}

	p.scope().PutBinding(decl.Key, decl.TypeInfo)
	p.items = append(p.items, lineItem{kind: itemParamDecl})

	if !hasDefault {
		p.addNode(decl)
		p.params = append(p.params, decl)

		return nil
	}

	var err error
	if decl.Default, err = parseExpression(right, p.scope(), origin); err != nil {
		return err
	}

	p.addNode(decl)
	p.params = append(p.params, decl)

	factory := &letFactory{}
	block := &SectionBlock{
		ID:     p.nextBlockID(),
		Label:  MainBlockLabel,
		Params: Params{{Key: decl.Key + optionalSuffix, Value: right}},
		origin: origin,
	}

	scope, err := factory.InitializeBlock(p.scope(), &BlockInfo{block: block, scope: p.scope()})
	if err != nil {
		return err
	}

	p.frames = append(p.frames, &frame{
		name:     letName,
		factory:  factory,
		spec:     factory.Spec(),
		blocks:   []*SectionBlock{block},
		current:  block,
		origin:   origin,
		implicit: true,
	})
	p.scopes = append(p.scopes, scope)

	return nil
}

// indexTopLevel returns the index of the first c outside string literals.
func indexTopLevel(s string, c byte) int {
	var quote byte

	for i := 0; i < len(s); i++ {
		switch {
		case quote != 0:
			if s[i] == '\\' {
				i++
			} else if s[i] == quote {
				quote = 0
			}
		case s[i] == '\'' || s[i] == '"':
			quote = s[i]
		case s[i] == c:
			return i
		}
	}

	return -1
}

func (p *parser) finish() (*Template, error) {
	switch p.state {
	case stateTagCandidate:
		if p.buf.Len() == 0 {
			p.textOrigin = p.tagOrigin
		}

		p.buf.WriteRune(startDelimiter)
	case stateEscape:
		p.appendText(escapeChar)
	case stateTag:
		if strings.HasPrefix(p.buf.String(), string(sectionStart)) {
			return nil, ErrUnterminatedSection.At(p.tagOrigin).Format("{%s", p.buf.String())
		}

		return nil, ErrUnterminatedExpression.At(p.tagOrigin).Format("{%s", p.buf.String())
	case stateTagLiteral:
		return nil, ErrUnterminatedStringLiteral.At(p.tagOrigin).Format("{%s", p.buf.String())
	case stateComment:
		return nil, ErrUnterminatedComment.At(p.tagOrigin)
	case stateCdata:
		return nil, ErrUnterminatedCdata.At(p.tagOrigin)
	case stateLineSeparator:
		p.flushSeparator()
	}

	p.flushText()

	for len(p.frames) > 1 {
		f := p.top()
		if !f.implicit && f.spec.MissingEndTag != MissingEndTagBindToParent {
			return nil, ErrUnterminatedSection.At(f.origin).Format("{#%s} is not closed", f.name)
		}

		if err := p.closeTop(); err != nil {
			return nil, err
		}
	}

	root := &SectionNode{
		Name:   rootSectionName,
		Blocks: p.frames[0].blocks,
		Helper: rootHelper{},
		origin: Origin{TemplateID: p.id, Variant: p.variant},
	}

	if p.removeStandalone {
		p.removeStandaloneLines(root)
	}

	return &Template{
		engine:  p.engine,
		id:      p.id,
		variant: p.variant,
		root:    root,
		params:  p.params,
	}, nil
}

// atOrigin positions err at origin unless it already has a position.
func atOrigin(err error, origin Origin) error {
	var te *Error
	if errors.As(err, &te) {
		if te.Origin().IsKnown() {
			return err
		}

		return te.At(origin)
	}

	return ErrInvalidSectionParams.At(origin).Wrap(err)
}
