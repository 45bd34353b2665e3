package dot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart"
)

// pickGraph is Start -> Grip(1.5) -> Lift(0.5) -> End.
func pickGraph() *flowchart.Graph {
	g := flowchart.NewGraph("pick")
	start := g.AddRoot("Start")
	grip := g.AddAction("Grip", flowchart.Seconds(1.5))
	lift := g.AddAction("Lift", flowchart.Seconds(0.5))
	end := g.AddRoot("End")
	g.AddNext(start, grip, "")
	g.AddNext(grip, lift, "")
	g.AddNext(lift, end, "")
	g.SetRoot(start)
	return g
}

func TestBuilder_String(t *testing.T) {
	b := New("demo", WithRankDir("LR"))
	b.EmitNode("a", "Grip", flowchart.ShapeBox)
	b.EmitNode("b", "Done?", flowchart.ShapeDiamond)
	b.EmitEdge("a", "b", "")
	b.EmitEdge("b", "a", "No")

	out := b.String()
	assert.True(t, strings.HasPrefix(out, "digraph \"demo\" {\n"))
	assert.Contains(t, out, "rankdir=LR;")
	assert.Contains(t, out, `"a" [label="Grip", shape=box, style=rounded];`)
	assert.Contains(t, out, `"b" [label="Done?", shape=diamond];`)
	assert.Contains(t, out, `"a" -> "b";`)
	assert.Contains(t, out, `"b" -> "a" [label="No"];`)
	assert.True(t, strings.HasSuffix(out, "}\n"))

	// nodes come before edges
	assert.Less(t, strings.Index(out, `"b" [label`), strings.Index(out, `"a" -> "b"`))
}

func TestBuilder_MarkerShapes(t *testing.T) {
	b := New("markers")
	b.EmitNode("p", "", flowchart.ShapeBar)
	b.EmitNode("c", "", flowchart.ShapePoint)

	out := b.String()
	assert.Contains(t, out, "shape=rect, style=filled")
	assert.Contains(t, out, "shape=point, width=0.15")
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", `"plain"`},
		{`say "hi"`, `"say \"hi\""`},
		{`a\b`, `"a\\b"`},
		{"two\nlines", `"two\nlines"`},
		{"ワーク把持", `"ワーク把持"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, quote(tt.in))
		})
	}
}

func TestFromGraph(t *testing.T) {
	g := pickGraph()
	out, err := FromGraph(g)
	require.NoError(t, err)

	for _, ref := range g.Nodes() {
		assert.Contains(t, out, quote(g.ID(ref))+" [label="+quote(g.Label(ref)))
	}
	assert.Equal(t, 3, strings.Count(out, "->"))
	assert.Equal(t, 2, strings.Count(out, "shape=box, style=rounded"))
}

func TestFromGraph_SubroutineLabel(t *testing.T) {
	g := flowchart.NewGraph("sub")
	body := g.AddAction("Inner", flowchart.Seconds(1))
	sub := g.AddSubroutine("Tool change", body, false)
	g.SetRoot(sub)

	out, err := FromGraph(g)
	require.NoError(t, err)
	assert.Contains(t, out, `label=" | Tool change | ", shape=record`)
}

func TestFromGraph_NoRoot(t *testing.T) {
	_, err := FromGraph(flowchart.NewGraph("empty"))
	assert.ErrorIs(t, err, flowchart.ErrNoRoot)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{".svg", FormatSVG, false},
		{"PNG", FormatPNG, false},
		{"dot", FormatDOT, false},
		{".gv", FormatDOT, false},
		{".pdf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderSVG(t *testing.T) {
	out, err := FromGraph(pickGraph())
	require.NoError(t, err)

	svg, err := RenderSVG(context.Background(), out)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	assert.Contains(t, string(svg), "Grip")
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	_, err := RenderSVG(context.Background(), "digraph { invalid syntax")
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	g := pickGraph()

	dotPath := filepath.Join(dir, "pick.dot")
	require.NoError(t, Write(context.Background(), dotPath, g))
	data, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `digraph "pick"`)

	err = Write(context.Background(), filepath.Join(dir, "pick.pdf"), g)
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "pick.pdf"))
}
