package flowchart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk_ForwardBreadthFirst(t *testing.T) {
	g := NewGraph("walk")
	a := g.AddAction("A", nil)
	b := g.AddAction("B", nil)
	c := g.AddAction("C", nil)
	d := g.AddAction("D", nil)
	g.AddNext(a, b, "")
	g.AddNext(a, c, "")
	g.AddNext(b, d, "")
	g.AddNext(c, d, "")

	assert.Equal(t, []NodeRef{a, b, c, d}, g.Reachable(a, Forward))
}

func TestWalk_TerminatesOnCycle(t *testing.T) {
	g := NewGraph("cycle")
	a := g.AddAction("A", nil)
	b := g.AddAction("B", nil)
	g.AddNext(a, b, "")
	g.AddNext(b, a, "")

	assert.Equal(t, []NodeRef{a, b}, g.Reachable(a, Forward))
	assert.Equal(t, []NodeRef{a, b}, g.Reachable(a, Both))
}

func TestWalk_BackwardAndBoth(t *testing.T) {
	g := NewGraph("walk")
	in := g.AddInput("in")
	a := g.AddAction("A", nil)
	b := g.AddAction("B", nil)
	g.AddNext(in, b, "")
	g.AddNext(a, b, "")

	assert.Equal(t, []NodeRef{b, in, a}, g.Reachable(b, Backward))
	assert.Equal(t, []NodeRef{a, b, in}, g.Reachable(a, Both))
	assert.Equal(t, []NodeRef{a, b}, g.Reachable(a, Forward))
}

func TestWalker_PruneAndPush(t *testing.T) {
	g := NewGraph("walk")
	a := g.AddAction("A", nil)
	b := g.AddAction("B", nil)
	c := g.AddAction("C", nil)
	island := g.AddAction("island", nil)
	g.AddNext(a, b, "")
	g.AddNext(b, c, "")

	w := g.Walk(Forward, a)
	r, ok := w.Next()
	require.True(t, ok)
	assert.Equal(t, a, r)
	w.Prune()
	w.Push(island)

	r, ok = w.Next()
	require.True(t, ok)
	assert.Equal(t, island, r)

	_, ok = w.Next()
	assert.False(t, ok, "b was pruned")
	assert.True(t, w.Visited(a))
	assert.False(t, w.Visited(b))
}

func TestWalker_Reset(t *testing.T) {
	g := NewGraph("walk")
	a := g.AddAction("A", nil)
	b := g.AddAction("B", nil)
	g.AddNext(a, b, "")

	w := g.Walk(Forward, a)
	var first []NodeRef
	for r := range w.All() {
		first = append(first, r)
	}

	c := g.AddAction("C", nil)
	g.AddNext(b, c, "")
	w.Reset()
	var second []NodeRef
	for r := range w.All() {
		second = append(second, r)
	}

	assert.Equal(t, []NodeRef{a, b}, first)
	assert.Equal(t, []NodeRef{a, b, c}, second)
}

func TestWalker_SkipsRemovedNodes(t *testing.T) {
	g := NewGraph("walk")
	a := g.AddAction("A", nil)
	w := g.Walk(Forward, a, NodeRef(99))

	assert.Equal(t, []NodeRef{a}, collect(w))
}

func TestLastNode_Unique(t *testing.T) {
	g := NewGraph("last")
	first, last := chain(g, "s", 1, 2, 3)

	got, err := g.LastNode(first)
	require.NoError(t, err)
	assert.Equal(t, last, got)
}

func TestLastNode_DiamondConverges(t *testing.T) {
	g := NewGraph("last")
	a := g.AddAction("A", nil)
	b := g.AddAction("B", nil)
	c := g.AddAction("C", nil)
	d := g.AddAction("D", nil)
	g.AddNext(a, b, "")
	g.AddNext(a, c, "")
	g.AddNext(b, d, "")
	g.AddNext(c, d, "")

	got, err := g.LastNode(a)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestLastNode_TwoDeadEnds(t *testing.T) {
	g := NewGraph("last")
	a := g.AddAction("A", nil)
	g.AddNext(a, g.AddAction("B", nil), "")
	g.AddNext(a, g.AddAction("C", nil), "")

	_, err := g.LastNode(a)
	require.Error(t, err)

	var se *StructuralError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "A", se.Label)
	assert.Contains(t, se.Reason, "2 terminal nodes")
}

func TestLastNode_CycleWithoutExit(t *testing.T) {
	g := NewGraph("last")
	a := g.AddAction("A", nil)
	b := g.AddAction("B", nil)
	g.AddNext(a, b, "")
	g.AddNext(b, a, "")

	_, err := g.LastNode(a)
	assert.True(t, errors.Is(err, ErrStructural))
}

func TestLastNode_UnknownRoot(t *testing.T) {
	g := NewGraph("last")
	_, err := g.LastNode(NodeRef(3))
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func collect(w *Walker) []NodeRef {
	var out []NodeRef
	for r := range w.All() {
		out = append(out, r)
	}
	return out
}
