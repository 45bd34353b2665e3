package flowchart

// Renderer receives the nodes and edges of a graph. Implementations decide
// what to draw with them; see package dot for a Graphviz one.
type Renderer interface {
	EmitNode(id, label string, shape Shape)
	EmitEdge(fromID, toID, label string)
}

// Render walks the component containing the root, following next-links and
// back-links, and emits every node once and every (from, to) pair once.
// Nodes are emitted before edges, both in walk order.
func (g *Graph) Render(r Renderer) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.root == NoNode {
		return ErrNoRoot
	}

	var order []*node
	for ref := range g.Walk(Both, g.root).All() {
		n := g.nodes[ref]
		order = append(order, n)
		r.EmitNode(n.id, displayLabel(n), n.shape())
	}

	type pair struct{ from, to NodeRef }
	emitted := make(map[pair]bool)
	for _, n := range order {
		for _, l := range n.next {
			p := pair{n.ref, l.To}
			if emitted[p] {
				continue
			}
			emitted[p] = true
			r.EmitEdge(n.id, g.nodes[l.To].id, l.Label)
		}
	}
	return nil
}

func displayLabel(n *node) string {
	if n.kind == KindSubroutine {
		return " | " + n.label + " | "
	}
	return n.label
}
