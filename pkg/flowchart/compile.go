package flowchart

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/observability"
)

// Compile returns a copy of the graph in which every composite node
// (loop, parallel block, unexpanded decision, inline subroutine) has been
// replaced by primitive nodes. The receiver is never modified, so a failed
// Compile leaves it exactly as it was.
//
// Expansion rules:
//   - Loop: LoopStart -> body ... last -> LoopEnd
//   - Parallel: ParallelStart -> each branch ... each last -> ParallelEnd
//   - Decision: decision -Yes-> yes ... last -> yes rejoin, and the same for No.
//     A rejoin that was not set explicitly defaults to the decision's single
//     next element.
//   - Inline subroutine: entry connector -> body ... last -> exit connector
//
// In each case every link into the composite is redirected to the new
// entry node and every link out of it now leaves from the new exit node.
// Handles, IDs and labels of existing nodes are preserved.
//
// The walk restarts after each expansion so that composites nested inside
// a body are expanded once their parent has spliced them in. A decision
// stays in place and is only marked expanded.
//
// ctx only carries tracing and metrics context.
func (g *Graph) Compile(ctx context.Context, opts ...Option) (compiled *Graph, err error) {
	cfg := newConfig(opts)

	g.mu.RLock()
	if g.root == NoNode {
		g.mu.RUnlock()
		return nil, ErrNoRoot
	}
	out := g.cloneLocked()
	g.mu.RUnlock()

	done := observability.TimedOperation()
	observability.LogCompileStart(cfg.logger, g.name, len(out.nodes))

	var span trace.Span
	if cfg.tracingEnabled {
		ctx, span = cfg.spans.StartCompileSpan(ctx, g.name)
		defer func() { cfg.spans.EndSpanWithError(span, err) }()
	}

	c := &compiler{g: out, cfg: &cfg, ctx: ctx}
	err = c.run()

	elapsed := done()
	cfg.metrics.RecordCompile(ctx, g.name, c.expansions, elapsed, err)
	if err != nil {
		observability.LogCompileError(cfg.logger, g.name, err, observability.Milliseconds(elapsed))
		return nil, err
	}
	observability.LogCompileComplete(cfg.logger, g.name, observability.Milliseconds(elapsed), c.expansions, len(out.nodes))
	return out, nil
}

type compiler struct {
	g          *Graph
	cfg        *config
	ctx        context.Context
	expansions int
}

func (c *compiler) run() error {
	w := c.g.Walk(Both, c.g.root)
	for r, ok := w.Next(); ok; r, ok = w.Next() {
		n := c.g.nodes[r]
		if !n.isComposite() {
			continue
		}
		if err := c.expand(n); err != nil {
			return err
		}
		if r == w.roots[0] {
			// the root itself was replaced by its entry node
			w = c.g.Walk(Both, c.g.root)
			continue
		}
		w.Reset()
	}
	return nil
}

func (c *compiler) expand(n *node) error {
	before := len(c.g.nodes)
	kind, id, label := n.kind, n.id, n.label

	var err error
	switch n.kind {
	case KindLoop:
		err = c.expandLoop(n)
	case KindParallel:
		err = c.expandParallel(n)
	case KindDecision:
		err = c.expandDecision(n)
	case KindSubroutine:
		err = c.expandSubroutine(n)
	}
	if err != nil {
		return err
	}

	c.expansions++
	added := len(c.g.nodes) - before
	observability.LogExpansion(c.cfg.logger, kind.String(), id, label, added)
	c.cfg.metrics.RecordExpansion(c.ctx, kind.String())
	c.cfg.spans.AddSpanEvent(c.ctx, "flowchart.expand",
		attribute.String("kind", kind.String()),
		attribute.String("node.id", id),
	)
	return nil
}

func (c *compiler) expandLoop(n *node) error {
	if n.body == NoNode {
		return configErr(n, "loop has no body")
	}
	if n.iterations < 1 {
		return configErr(n, "iteration count must be positive, got %d", n.iterations)
	}
	body, last, err := c.subGraph(n, n.body)
	if err != nil {
		return err
	}

	start := c.g.add(KindLoopStart, n.label)
	end := c.g.add(KindLoopEnd, n.label)
	start.iterations = n.iterations
	start.pair, end.pair = end.ref, start.ref

	c.g.link(start, body, "")
	c.g.link(last, end, "")
	c.splice(n, start, end)
	return nil
}

func (c *compiler) expandParallel(n *node) error {
	if len(n.branches) == 0 {
		return configErr(n, "parallel block has no branches")
	}
	roots := make([]*node, len(n.branches))
	lasts := make([]*node, len(n.branches))
	seen := make(map[NodeRef]bool, len(n.branches))
	for i, b := range n.branches {
		if seen[b] {
			return configErr(n, "branch %d is listed twice", b)
		}
		seen[b] = true
		root, last, err := c.subGraph(n, b)
		if err != nil {
			return err
		}
		roots[i], lasts[i] = root, last
	}

	start := c.g.add(KindParallelStart, n.label)
	end := c.g.add(KindParallelEnd, n.label)
	start.pair, end.pair = end.ref, start.ref

	for i := range roots {
		c.g.link(start, roots[i], "")
		c.g.linkOnce(lasts[i], end, "")
	}
	c.splice(n, start, end)
	return nil
}

func (c *compiler) expandDecision(n *node) error {
	if n.yes == NoNode || n.no == NoNode {
		return configErr(n, "decision needs both a yes and a no branch")
	}
	if n.yes == n.no {
		return configErr(n, "yes and no branches share the same root")
	}

	yesRejoin, noRejoin := n.yesRejoin, n.noRejoin
	if yesRejoin == NoNode || noRejoin == NoNode {
		switch len(n.next) {
		case 0:
			return configErr(n, "decision element has no next element")
		case 1:
		default:
			return configErr(n, "decision element has multiple next elements")
		}
		if yesRejoin == NoNode {
			yesRejoin = n.next[0].To
		}
		if noRejoin == NoNode {
			noRejoin = n.next[0].To
		}
	}
	yesTarget, ok1 := c.g.nodes[yesRejoin]
	noTarget, ok2 := c.g.nodes[noRejoin]
	if !ok1 || !ok2 {
		return configErr(n, "rejoin target does not exist")
	}

	yes, lastYes, err := c.subGraph(n, n.yes)
	if err != nil {
		return err
	}
	no, lastNo, err := c.subGraph(n, n.no)
	if err != nil {
		return err
	}

	for _, l := range append([]Link(nil), n.next...) {
		c.g.unlink(n, c.g.nodes[l.To])
	}
	c.g.link(n, yes, BranchYes.String())
	c.g.link(n, no, BranchNo.String())
	c.g.linkOnce(lastYes, yesTarget, "")
	c.g.linkOnce(lastNo, noTarget, "")
	n.expanded = true
	return nil
}

func (c *compiler) expandSubroutine(n *node) error {
	if n.body == NoNode {
		return configErr(n, "inline subroutine has no body")
	}
	body, last, err := c.subGraph(n, n.body)
	if err != nil {
		return err
	}

	entry := c.g.add(KindConnector, n.label)
	exit := c.g.add(KindConnector, n.label)

	// a body framed by its own Start and End markers is entered past Start
	// and left before End
	if body != last && body.kind == KindRoot {
		for _, l := range append([]Link(nil), body.next...) {
			target := c.g.nodes[l.To]
			c.g.link(entry, target, l.Label)
			c.g.unlink(body, target)
		}
		c.g.remove(body)
	} else {
		c.g.link(entry, body, "")
	}
	if body != last && last.kind == KindRoot {
		for _, p := range sortedRefs(last.back) {
			pn := c.g.nodes[p]
			for c.g.retarget(pn, last, exit) {
			}
		}
		c.g.remove(last)
	} else {
		c.g.link(last, exit, "")
	}

	c.splice(n, entry, exit)
	return nil
}

// subGraph resolves a composite's sub-graph root and its terminal node.
// The root must still be an island: a root that already has predecessors
// is shared with the surrounding graph and cannot be spliced.
func (c *compiler) subGraph(owner *node, ref NodeRef) (root, last *node, err error) {
	root, ok := c.g.nodes[ref]
	if !ok {
		return nil, nil, configErr(owner, "sub-graph root %d does not exist", ref)
	}
	if len(root.back) > 0 {
		return nil, nil, structuralErr(owner, "sub-graph root %q is already linked into the graph", root.label)
	}
	lastRef, err := c.g.lastNode(root)
	if err != nil {
		return nil, nil, err
	}
	return root, c.g.nodes[lastRef], nil
}

// splice moves every link into n onto entry and every link out of n onto
// exit, then drops n from the arena.
func (c *compiler) splice(n, entry, exit *node) {
	for _, p := range sortedRefs(n.back) {
		pn := c.g.nodes[p]
		for c.g.retarget(pn, n, entry) {
		}
	}
	for _, l := range append([]Link(nil), n.next...) {
		target := c.g.nodes[l.To]
		c.g.link(exit, target, l.Label)
		c.g.unlink(n, target)
	}
	if c.g.root == n.ref {
		c.g.root = entry.ref
	}
	c.g.remove(n)
}
