package tmpl

type itemKind int

const (
	itemText itemKind = iota
	itemSeparator
	itemExpression
	itemSection
	itemParamDecl
	itemComment
)

// lineItem records, in source order, everything the parser emitted. Text
// nodes and line separators are kept by identity so that they can be
// removed from the finished tree.
type lineItem struct {
	kind itemKind
	node Node
}

// removeStandaloneLines removes the whitespace and the line separator of
// every line that holds only section tags, parameter declarations or
// comments besides whitespace.
func (p *parser) removeStandaloneLines(root *SectionNode) {
	remove := make(map[Node]bool)

	var line []lineItem

	check := func(sep Node) {
		if isStandalone(line) {
			for _, it := range line {
				if it.kind == itemText {
					remove[it.node] = true
				}
			}

			if sep != nil {
				remove[sep] = true
			}
		}

		line = line[:0]
	}

	for _, it := range p.items {
		if it.kind == itemSeparator {
			check(it.node)

			continue
		}

		line = append(line, it)
	}

	check(nil)

	for _, b := range root.Blocks {
		prune(b, remove)
	}
}

func isStandalone(line []lineItem) bool {
	structural := false

	for _, it := range line {
		switch it.kind {
		case itemExpression:
			return false
		case itemText:
			if !it.node.(*TextNode).IsWhitespace() {
				return false
			}
		default:
			structural = true
		}
	}

	return structural
}

// prune removes marked nodes and comment markers from b and its sections.
func prune(b *SectionBlock, remove map[Node]bool) {
	kept := b.Nodes[:0]

	for _, n := range b.Nodes {
		if _, ok := n.(*commentNode); ok || remove[n] {
			continue
		}

		if s, ok := n.(*SectionNode); ok {
			for _, sb := range s.Blocks {
				prune(sb, remove)
			}
		}

		kept = append(kept, n)
	}

	clear(b.Nodes[len(kept):])
	b.Nodes = kept
}
