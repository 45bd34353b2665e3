package flowchart

import "fmt"

// AddNext appends a next-link from -> to and registers from in to's
// back-links. Both handles are checked before anything is written.
// Panics if either handle is unknown.
func (g *Graph) AddNext(from, to NodeRef, label string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.link(g.mustKind(from), g.mustKind(to), label)
}

// AddFrom is AddNext(source, ref, label). It returns ref so that chains
// read in execution order:
//
//	b := g.AddFrom(g.AddAction("B", nil), a, "")
func (g *Graph) AddFrom(ref, source NodeRef, label string) NodeRef {
	g.AddNext(source, ref, label)
	return ref
}

// DropNext removes every next-link from -> to together with the back-link.
// Returns false if there was no such link.
func (g *Graph) DropNext(from, to NodeRef) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok1 := g.get(from)
	t, ok2 := g.get(to)
	if !ok1 || !ok2 {
		return false
	}
	return g.unlink(f, t)
}

// DropBack removes pred from node's back-links, and with it pred's
// next-links to node.
func (g *Graph) DropBack(ref, pred NodeRef) bool {
	return g.DropNext(pred, ref)
}

// ReplaceNext retargets ref's first next-link to old so that it points at
// new, keeping its label and position. Returns false if ref has no
// next-link to old.
func (g *Graph) ReplaceNext(ref, old, new NodeRef) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok1 := g.get(ref)
	o, ok2 := g.get(old)
	nw, ok3 := g.get(new)
	if !ok1 || !ok2 || !ok3 {
		return false
	}
	return g.retarget(n, o, nw)
}

// ReplaceBack moves every next-link old -> ref so that it starts at new.
// Returns false if old is not a predecessor of ref.
func (g *Graph) ReplaceBack(ref, old, new NodeRef) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok1 := g.get(ref)
	o, ok2 := g.get(old)
	nw, ok3 := g.get(new)
	if !ok1 || !ok2 || !ok3 {
		return false
	}
	if _, ok := n.back[o.ref]; !ok {
		return false
	}
	if o == nw {
		return true
	}
	for _, l := range o.next {
		if l.To == n.ref {
			g.link(nw, n, l.Label)
		}
	}
	g.unlink(o, n)
	return true
}

// CheckLinks verifies that every next-link has its back-link and every
// back-link has at least one next-link.
func (g *Graph) CheckLinks() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, r := range sortedKeys(g.nodes) {
		n := g.nodes[r]
		for _, l := range n.next {
			t, ok := g.nodes[l.To]
			if !ok {
				return structuralErr(n, "next-link to missing node %d", l.To)
			}
			if _, ok := t.back[n.ref]; !ok {
				return structuralErr(n, "next-link to %q has no back-link", t.label)
			}
		}
		for p := range n.back {
			pn, ok := g.nodes[p]
			if !ok {
				return structuralErr(n, "back-link to missing node %d", p)
			}
			if !hasNext(pn, n.ref) {
				return structuralErr(n, "back-link to %q has no next-link", pn.label)
			}
		}
	}
	return nil
}

// link, unlink and retarget are the lock-free primitives shared by the
// public methods and the compiler.

func (g *Graph) link(from, to *node, label string) {
	from.next = append(from.next, Link{To: to.ref, Label: label})
	to.back[from.ref] = struct{}{}
}

// linkOnce adds from -> to unless that link already exists.
func (g *Graph) linkOnce(from, to *node, label string) {
	if hasNext(from, to.ref) {
		return
	}
	g.link(from, to, label)
}

func (g *Graph) unlink(from, to *node) bool {
	kept := from.next[:0]
	dropped := false
	for _, l := range from.next {
		if l.To == to.ref {
			dropped = true
			continue
		}
		kept = append(kept, l)
	}
	from.next = kept
	delete(to.back, from.ref)
	return dropped
}

func (g *Graph) retarget(n, old, nw *node) bool {
	for i, l := range n.next {
		if l.To != old.ref {
			continue
		}
		n.next[i].To = nw.ref
		nw.back[n.ref] = struct{}{}
		if !hasNext(n, old.ref) {
			delete(old.back, n.ref)
		}
		return true
	}
	return false
}

func hasNext(n *node, to NodeRef) bool {
	for _, l := range n.next {
		if l.To == to {
			return true
		}
	}
	return false
}

// String renders a link for debugging.
func (l Link) String() string {
	if l.Label == "" {
		return fmt.Sprintf("->%d", l.To)
	}
	return fmt.Sprintf("-%s->%d", l.Label, l.To)
}
