package flowchart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraph_Empty(t *testing.T) {
	g := NewGraph("empty")

	assert.Equal(t, "empty", g.Name())
	assert.Equal(t, 0, g.Len())
	assert.Equal(t, NoNode, g.Root())
	assert.Empty(t, g.Edges())
}

func TestAddAction_AssignsStableID(t *testing.T) {
	g := NewGraph("ids")
	a := g.AddAction("Grip", Seconds(0.5))
	b := g.AddAction("Grip", Seconds(0.5))

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, g.ID(a), g.ID(b), "same label must still give distinct IDs")
	_, err := uuid.Parse(g.ID(a))
	assert.NoError(t, err)

	ref, ok := g.Lookup(g.ID(a))
	require.True(t, ok)
	assert.Equal(t, a, ref)
	assert.Equal(t, "Grip", g.Label(a))
	assert.Equal(t, KindAction, g.Kind(a))
}

func TestDuration_ActionAndSubroutine(t *testing.T) {
	g := NewGraph("durations")
	dated := g.AddAction("Move", Seconds(1.5))
	undated := g.AddAction("Wait", nil)
	fn := g.AddAction("Model", DurationFunc(func() (float64, bool) { return 0, false }))
	sub := g.AddSubroutine("Home", NoNode, false)
	conn := g.AddConnector("")

	d, ok := g.Duration(dated)
	assert.True(t, ok)
	assert.InDelta(t, 1.5, d, 1e-9)

	_, ok = g.Duration(undated)
	assert.False(t, ok)
	_, ok = g.Duration(fn)
	assert.False(t, ok)
	_, ok = g.Duration(sub)
	assert.False(t, ok)
	_, ok = g.Duration(conn)
	assert.False(t, ok)

	g.SetDuration(sub, Seconds(4))
	d, ok = g.Duration(sub)
	assert.True(t, ok)
	assert.InDelta(t, 4.0, d, 1e-9)
}

func TestSetDuration_PanicsOnWrongKind(t *testing.T) {
	g := NewGraph("panic")
	c := g.AddConnector("c")

	assert.Panics(t, func() { g.SetDuration(c, Seconds(1)) })
}

func TestBuilders_PanicOnUnknownHandle(t *testing.T) {
	g := NewGraph("panic")
	a := g.AddAction("A", nil)

	assert.Panics(t, func() { g.AddNext(a, NodeRef(99), "") })
	assert.Panics(t, func() { g.AddLoop("L", NodeRef(99), 2) })
	assert.Panics(t, func() { g.AddDecision("D", a, NodeRef(99)) })
	assert.Panics(t, func() { g.SetRoot(NodeRef(99)) })
	assert.Panics(t, func() { g.SetBranches(a, a, a) }, "A is not a decision")

	assert.Empty(t, g.NextLinks(a), "failed AddNext must not write anything")
}

func TestShape_PerKind(t *testing.T) {
	g := NewGraph("shapes")
	tests := []struct {
		ref  NodeRef
		want Shape
	}{
		{g.AddAction("a", nil), ShapeBox},
		{g.AddDecision("d", NoNode, NoNode), ShapeDiamond},
		{g.AddSubroutine("s", NoNode, false), ShapeRecord},
		{g.AddInput("i"), ShapeParallelogram},
		{g.AddRoot("r"), ShapeEllipse},
		{g.AddLoopStart("ls"), ShapeTrapezium},
		{g.AddLoopEnd("le"), ShapeInvTrapezium},
		{g.AddConnector("c"), ShapePoint},
		{g.AddLoop("l", NoNode, 1), ShapeHexagon},
		{g.AddParallel("p"), ShapeBox3D},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.Shape(tt.ref), g.Label(tt.ref))
	}
}

func TestIsComposite(t *testing.T) {
	g := NewGraph("composite")
	body := g.AddAction("body", nil)

	assert.True(t, g.IsComposite(g.AddLoop("l", body, 1)))
	assert.True(t, g.IsComposite(g.AddParallel("p", body)))
	assert.True(t, g.IsComposite(g.AddDecision("d", body, body)))
	assert.True(t, g.IsComposite(g.AddSubroutine("inline", body, true)))
	assert.False(t, g.IsComposite(g.AddSubroutine("opaque", body, false)))
	assert.False(t, g.IsComposite(body))
	assert.False(t, g.IsComposite(NodeRef(42)))
}

func TestParseKind(t *testing.T) {
	for k := KindAction; k <= KindParallelEnd; k++ {
		got, ok := ParseKind(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}

	_, ok := ParseKind("teleport")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Kind(0).String())
}

func TestClone_IsIndependent(t *testing.T) {
	g, loop := loopGraph()
	c := g.Clone()

	assert.Equal(t, g.Nodes(), c.Nodes())
	assert.Equal(t, edgeSet(g), edgeSet(c))
	assert.Equal(t, g.ID(loop), c.ID(loop))

	extra := c.AddAction("extra", nil)
	c.AddNext(c.Root(), extra, "")

	assert.False(t, g.Has(extra))
	assert.Len(t, g.NextLinks(g.Root()), 1)
	assert.Len(t, c.NextLinks(c.Root()), 2)
}

func TestParallelBranches_AddBranch(t *testing.T) {
	g := NewGraph("branches")
	a := g.AddAction("a", nil)
	b := g.AddAction("b", nil)
	par := g.AddParallel("p", a)
	g.AddBranch(par, b)

	assert.Equal(t, []NodeRef{a, b}, g.ParallelBranches(par))
}

func TestDecision_Accessors(t *testing.T) {
	g := NewGraph("decision")
	yes := g.AddAction("y", nil)
	no := g.AddAction("n", nil)
	dec := g.AddDecision("d", NoNode, NoNode)

	assert.Equal(t, BranchYes, g.DefaultBranch(dec))
	g.SetBranches(dec, yes, no)
	g.SetDefaultBranch(dec, BranchNo)

	gotYes, gotNo := g.DecisionBranches(dec)
	assert.Equal(t, yes, gotYes)
	assert.Equal(t, no, gotNo)
	assert.Equal(t, BranchNo, g.DefaultBranch(dec))
	assert.Equal(t, "No", BranchNo.String())
	assert.Equal(t, "Yes", BranchYes.String())
}
