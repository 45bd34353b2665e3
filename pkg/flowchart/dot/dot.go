// Package dot renders flowcharts with Graphviz.
//
// A [Builder] collects the nodes and edges emitted by
// [flowchart.Graph.Render] and produces DOT text. [RenderSVG] and
// [RenderPNG] lay that text out with the embedded Graphviz engine, and
// [Write] picks the output format from a file extension.
//
//	b := dot.New(g.Name())
//	if err := g.Render(b); err != nil {
//		return err
//	}
//	svg, err := dot.RenderSVG(ctx, b.String())
package dot

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart"
)

// Builder accumulates DOT statements. It implements [flowchart.Renderer].
// The zero value is not usable; call [New].
type Builder struct {
	name    string
	rankdir string
	nodes   []string
	edges   []string
}

// Option configures a Builder.
type Option func(*Builder)

// WithRankDir sets the layout direction ("TB", "LR", ...). Default "TB".
func WithRankDir(dir string) Option {
	return func(b *Builder) {
		b.rankdir = dir
	}
}

// New creates an empty builder for a graph called name.
func New(name string, opts ...Option) *Builder {
	b := &Builder{name: name, rankdir: "TB"}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EmitNode implements flowchart.Renderer.
func (b *Builder) EmitNode(id, label string, shape flowchart.Shape) {
	attrs := []string{"label=" + quote(label), "shape=" + string(shape)}
	switch shape {
	case flowchart.ShapeBox:
		attrs = append(attrs, "style=rounded")
	case flowchart.ShapePoint:
		attrs = append(attrs, "width=0.15")
	case flowchart.ShapeBar:
		attrs = append(attrs, "style=filled", "fillcolor=black", "height=0.08", "fontsize=10")
	}
	b.nodes = append(b.nodes, fmt.Sprintf("  %s [%s];", quote(id), strings.Join(attrs, ", ")))
}

// EmitEdge implements flowchart.Renderer.
func (b *Builder) EmitEdge(fromID, toID, label string) {
	stmt := fmt.Sprintf("  %s -> %s", quote(fromID), quote(toID))
	if label != "" {
		stmt += " [label=" + quote(label) + "]"
	}
	b.edges = append(b.edges, stmt+";")
}

// String returns the DOT document.
func (b *Builder) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %s {\n", quote(b.name))
	fmt.Fprintf(&buf, "  rankdir=%s;\n", b.rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")
	for _, n := range b.nodes {
		buf.WriteString(n)
		buf.WriteByte('\n')
	}
	buf.WriteString("\n")
	for _, e := range b.edges {
		buf.WriteString(e)
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.String()
}

// FromGraph renders g and returns its DOT text.
func FromGraph(g *flowchart.Graph, opts ...Option) (string, error) {
	b := New(g.Name(), opts...)
	if err := g.Render(b); err != nil {
		return "", fmt.Errorf("render %s: %w", g.Name(), err)
	}
	return b.String(), nil
}

// quote returns s as a DOT string literal. Unlike %q it leaves
// non-ASCII text alone, which Graphviz reads as UTF-8.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
