package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/brace/tmpl"
)

// AST prints the node tree of a parsed template.
type AST struct {
	Format   string `default:"text" enum:"text,json,yaml" help:"Output format (${enum})" short:"f"`
	Template string `arg:"" default:"-" help:"Template file or '-' for stdin" optional:"" type:"existingfile"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context, eng *Engine) (err error) {
	s, err := eng.open(ctx)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, s.Close()) }()

	srcs, err := openSources([]string{a.Template})
	if err != nil {
		return ErrOpenTemplate.Wrap(err)
	}

	defer closeSources(srcs)

	t, err := s.parse(ctx, srcs[0].Name, srcs[0])
	if err != nil {
		return err
	}

	tree := dumpNodes(t.Nodes())
	w := stdout(ctx)

	switch a.Format {
	case "json":
		b, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		_, err = fmt.Fprintf(w, "%s\n", b)

		return wrapWrite(err)

	case "yaml":
		b, err := yaml.Marshal(tree)
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		_, err = w.Write(b)

		return wrapWrite(err)

	default:
		return wrapWrite(writeText(w, tree, 0))
	}
}

func wrapWrite(err error) error {
	if err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// astNode is the serialized form of a [tmpl.Node].
type astNode struct {
	Kind       string     `json:"kind"                 yaml:"kind"`
	Line       int        `json:"line,omitempty"       yaml:"line,omitempty"`
	Column     int        `json:"column,omitempty"     yaml:"column,omitempty"`
	Value      string     `json:"value,omitempty"      yaml:"value,omitempty"`
	Expression string     `json:"expression,omitempty" yaml:"expression,omitempty"`
	Name       string     `json:"name,omitempty"       yaml:"name,omitempty"`
	Type       string     `json:"type,omitempty"       yaml:"type,omitempty"`
	Blocks     []astBlock `json:"blocks,omitempty"     yaml:"blocks,omitempty"`
}

type astBlock struct {
	Label  string    `json:"label"            yaml:"label"`
	Params []string  `json:"params,omitempty" yaml:"params,omitempty"`
	Nodes  []astNode `json:"nodes,omitempty"  yaml:"nodes,omitempty"`
}

func dumpNodes(nodes []tmpl.Node) []astNode {
	out := make([]astNode, 0, len(nodes))

	for _, n := range nodes {
		o := n.Origin()
		an := astNode{Line: o.Line, Column: o.Column}

		switch n := n.(type) {
		case *tmpl.TextNode:
			an.Kind, an.Value = "text", n.Value

		case *tmpl.LineSeparatorNode:
			an.Kind, an.Value = "newline", n.Value

		case *tmpl.ExpressionNode:
			an.Kind, an.Expression = "expression", n.Expression.String()

		case *tmpl.ParameterDeclarationNode:
			an.Kind, an.Name, an.Type = "parameter", n.Key, n.TypeInfo
			if n.Default != nil {
				an.Expression = n.Default.String()
			}

		case *tmpl.SectionNode:
			an.Kind, an.Name = "section", n.Name
			for _, b := range n.Blocks {
				an.Blocks = append(an.Blocks, dumpBlock(b))
			}

		default:
			an.Kind = fmt.Sprintf("%T", n)
		}

		out = append(out, an)
	}

	return out
}

func dumpBlock(b *tmpl.SectionBlock) astBlock {
	ab := astBlock{Label: b.Label, Nodes: dumpNodes(b.Nodes)}
	if b.IsMain() {
		ab.Label = "main"
	}

	for _, p := range b.Params {
		ab.Params = append(ab.Params, p.Key+"="+p.Value)
	}

	return ab
}

// writeText writes the tree with one node per line, indented by depth.
func writeText(w io.Writer, nodes []astNode, depth int) error {
	indent := strings.Repeat("  ", depth)

	for _, n := range nodes {
		line := indent + n.Kind

		switch n.Kind {
		case "text", "newline":
			line += " " + strconv.Quote(n.Value)
		case "expression":
			line += " {" + n.Expression + "}"
		case "parameter":
			line += " " + n.Type + " " + n.Name
			if n.Expression != "" {
				line += "=" + n.Expression
			}
		case "section":
			line += " " + n.Name
		}

		if n.Line > 0 {
			line += fmt.Sprintf(" @%d:%d", n.Line, n.Column)
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}

		for _, b := range n.Blocks {
			header := strings.TrimSpace(fmt.Sprintf("[%s] %s", b.Label, strings.Join(b.Params, " ")))
			if _, err := fmt.Fprintf(w, "%s  %s\n", indent, header); err != nil {
				return err
			}

			if err := writeText(w, b.Nodes, depth+2); err != nil {
				return err
			}
		}
	}

	return nil
}
