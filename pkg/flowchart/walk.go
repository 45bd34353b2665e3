package flowchart

import (
	"iter"
	"strings"
)

// Direction selects which links a Walker follows.
type Direction int

const (
	// Forward follows next-links.
	Forward Direction = iota
	// Backward follows back-links.
	Backward
	// Both follows next-links and back-links.
	Both
)

// Walker is a restartable breadth-first walk guarded by a visited set.
// It terminates on any graph, cyclic or not, once no unvisited node is
// left in its queue.
//
// Successors of the node last returned by Next are queued lazily when Next
// is called again, so the caller can Prune them or Push other nodes first.
//
// A Walker reads the arena without locking. Do not mutate the graph from
// another goroutine while walking it.
type Walker struct {
	g       *Graph
	dir     Direction
	roots   []NodeRef
	queue   []NodeRef
	visited map[NodeRef]struct{}
	cur     NodeRef
	pruned  bool
}

// Walk starts a walk from roots in the given direction.
func (g *Graph) Walk(dir Direction, roots ...NodeRef) *Walker {
	w := &Walker{g: g, dir: dir, roots: append([]NodeRef(nil), roots...)}
	w.Reset()
	return w
}

// Reset restarts the walk from its roots with an empty visited set.
func (w *Walker) Reset() {
	w.queue = append(w.queue[:0], w.roots...)
	w.visited = make(map[NodeRef]struct{})
	w.cur = NoNode
	w.pruned = false
}

// Next returns the next unvisited node.
func (w *Walker) Next() (NodeRef, bool) {
	w.expand()
	for len(w.queue) > 0 {
		r := w.queue[0]
		w.queue = w.queue[1:]
		if _, seen := w.visited[r]; seen {
			continue
		}
		if _, ok := w.g.nodes[r]; !ok {
			continue
		}
		w.visited[r] = struct{}{}
		w.cur = r
		w.pruned = false
		return r, true
	}
	return NoNode, false
}

// Prune stops the walk from following the links of the node last
// returned by Next.
func (w *Walker) Prune() {
	w.pruned = true
}

// Push queues ref. It is ignored if ref was already visited.
func (w *Walker) Push(ref NodeRef) {
	w.queue = append(w.queue, ref)
}

// Visited reports whether ref has been returned by Next since the last Reset.
func (w *Walker) Visited(ref NodeRef) bool {
	_, ok := w.visited[ref]
	return ok
}

// All iterates the remaining nodes of the walk.
func (w *Walker) All() iter.Seq[NodeRef] {
	return func(yield func(NodeRef) bool) {
		for r, ok := w.Next(); ok; r, ok = w.Next() {
			if !yield(r) {
				return
			}
		}
	}
}

func (w *Walker) expand() {
	if w.cur == NoNode {
		return
	}
	n, ok := w.g.nodes[w.cur]
	w.cur = NoNode
	if !ok || w.pruned {
		return
	}
	if w.dir != Backward {
		for _, l := range n.next {
			if _, seen := w.visited[l.To]; !seen {
				w.queue = append(w.queue, l.To)
			}
		}
	}
	if w.dir != Forward {
		for _, p := range sortedRefs(n.back) {
			if _, seen := w.visited[p]; !seen {
				w.queue = append(w.queue, p)
			}
		}
	}
}

// Reachable returns every node reachable from root in walk order.
func (g *Graph) Reachable(root NodeRef, dir Direction) []NodeRef {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []NodeRef
	for r := range g.Walk(dir, root).All() {
		out = append(out, r)
	}
	return out
}

// LastNode returns the unique node reachable from root that has no
// next-links. A sub-graph that ends in several dead ends, or in none,
// cannot be spliced and yields a StructuralError.
func (g *Graph) LastNode(root NodeRef) (NodeRef, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[root]
	if !ok {
		return NoNode, ErrNodeNotFound
	}
	return g.lastNode(n)
}

func (g *Graph) lastNode(root *node) (NodeRef, error) {
	var ends []*node
	for r := range g.Walk(Forward, root.ref).All() {
		if n := g.nodes[r]; len(n.next) == 0 {
			ends = append(ends, n)
		}
	}
	switch len(ends) {
	case 1:
		return ends[0].ref, nil
	case 0:
		return NoNode, structuralErr(root, "sub-graph has no terminal node")
	}
	labels := make([]string, len(ends))
	for i, e := range ends {
		labels[i] = e.label
	}
	return NoNode, structuralErr(root, "sub-graph does not converge: %d terminal nodes (%s)",
		len(ends), strings.Join(labels, ", "))
}
