package flowchart

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/trace"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/observability"
)

// Estimate is the result of a duration aggregation.
type Estimate struct {
	// Seconds is the aggregated duration.
	Seconds float64
	// Undated lists the labels of actions that had no duration and were
	// counted as zero, in the order they were reached.
	Undated []string
}

// Estimate aggregates the duration of the flow starting at root.
// It works on raw graphs and on the output of Compile:
//
//   - a sequence sums every distinct node reached through next-links
//   - a parallel block takes its longest branch
//   - a loop multiplies one pass over its body by the iteration count
//   - a decision contributes its default branch only
//   - an inline subroutine contributes its body; an opaque one its own
//     duration, or the one given with WithSubroutineDuration
//
// Connectors, roots, inputs and hand-placed loop markers count as zero.
// An action without a duration is logged and counted as zero unless
// WithStrictDurations is set.
func (g *Graph) Estimate(ctx context.Context, root NodeRef, opts ...Option) (est Estimate, err error) {
	cfg := newConfig(opts)

	g.mu.RLock()
	defer g.mu.RUnlock()

	start, ok := g.nodes[root]
	if !ok {
		return Estimate{}, fmt.Errorf("estimate from %d: %w", root, ErrNodeNotFound)
	}

	var span trace.Span
	if cfg.tracingEnabled {
		ctx, span = cfg.spans.StartEstimateSpan(ctx, g.name, start.id)
		defer func() { cfg.spans.EndSpanWithError(span, err) }()
	}

	a := &aggregator{
		g:      g,
		cfg:    &cfg,
		active: make(map[NodeRef]bool),
		seen:   make(map[NodeRef]bool),
	}
	seconds, err := a.region([]NodeRef{root}, NoNode)
	cfg.metrics.RecordEstimate(ctx, g.name, seconds, len(a.undated), err)
	if err != nil {
		observability.LogEstimateError(cfg.logger, g.name, err)
		return Estimate{}, err
	}
	observability.LogEstimate(cfg.logger, g.name, seconds, len(a.undated))
	return Estimate{Seconds: seconds, Undated: a.undated}, nil
}

// AggregateDuration is Estimate without the list of undated actions.
func (g *Graph) AggregateDuration(ctx context.Context, root NodeRef, opts ...Option) (float64, error) {
	est, err := g.Estimate(ctx, root, opts...)
	return est.Seconds, err
}

// TaktTime aggregates the duration of the whole flow from the graph root.
func (g *Graph) TaktTime(ctx context.Context, opts ...Option) (float64, error) {
	root := g.Root()
	if root == NoNode {
		return 0, ErrNoRoot
	}
	return g.AggregateDuration(ctx, root, opts...)
}

type aggregator struct {
	g   *Graph
	cfg *config

	// active holds composites whose body is being evaluated.
	active  map[NodeRef]bool
	seen    map[NodeRef]bool
	undated []string
}

// region sums the nodes reachable from roots, not counting stop or
// anything behind it.
func (a *aggregator) region(roots []NodeRef, stop NodeRef) (float64, error) {
	var total float64
	w := a.g.Walk(Forward, roots...)
	for r, ok := w.Next(); ok; r, ok = w.Next() {
		if r == stop {
			w.Prune()
			continue
		}
		d, err := a.node(a.g.nodes[r], w)
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

func (a *aggregator) node(n *node, w *Walker) (float64, error) {
	switch n.kind {
	case KindAction:
		return a.action(n)

	case KindSubroutine:
		if !n.inline {
			return a.opaque(n)
		}
		if n.body == NoNode {
			return 0, configErr(n, "inline subroutine has no body")
		}
		return a.nested(n, func() (float64, error) {
			return a.region([]NodeRef{n.body}, NoNode)
		})

	case KindLoop:
		if n.body == NoNode {
			return 0, configErr(n, "loop has no body")
		}
		if n.iterations < 1 {
			return 0, configErr(n, "iteration count must be positive, got %d", n.iterations)
		}
		return a.nested(n, func() (float64, error) {
			d, err := a.region([]NodeRef{n.body}, NoNode)
			return d * float64(n.iterations), err
		})

	case KindParallel:
		if len(n.branches) == 0 {
			return 0, configErr(n, "parallel block has no branches")
		}
		return a.nested(n, func() (float64, error) {
			return a.longest(n.branches, NoNode)
		})

	case KindDecision:
		selected, rejoin := n.yes, n.yesRejoin
		if n.defaultBranch == BranchNo {
			selected, rejoin = n.no, n.noRejoin
		}
		if selected == NoNode {
			return 0, configErr(n, "default branch %s is not set", n.defaultBranch)
		}
		if n.expanded {
			w.Prune()
			w.Push(selected)
			return 0, nil
		}
		d, err := a.nested(n, func() (float64, error) {
			return a.region([]NodeRef{selected}, NoNode)
		})
		// an explicit rejoin replaces the decision's next-links
		if err == nil && rejoin != NoNode {
			w.Prune()
			w.Push(rejoin)
		}
		return d, err

	case KindLoopStart:
		if n.pair == NoNode {
			return 0, nil
		}
		w.Prune()
		w.Push(n.pair)
		return a.nested(n, func() (float64, error) {
			d, err := a.region(targets(n), n.pair)
			return d * float64(n.iterations), err
		})

	case KindParallelStart:
		if n.pair == NoNode {
			return 0, nil
		}
		w.Prune()
		w.Push(n.pair)
		return a.nested(n, func() (float64, error) {
			return a.longest(targets(n), n.pair)
		})
	}
	return 0, nil
}

// nested evaluates the body of a composite, failing if the composite is
// reached again from inside itself.
func (a *aggregator) nested(n *node, eval func() (float64, error)) (float64, error) {
	if a.active[n.ref] {
		return 0, structuralErr(n, "%s contains itself", n.kind)
	}
	a.active[n.ref] = true
	defer delete(a.active, n.ref)
	return eval()
}

func (a *aggregator) longest(branches []NodeRef, stop NodeRef) (float64, error) {
	var longest float64
	for _, b := range branches {
		d, err := a.region([]NodeRef{b}, stop)
		if err != nil {
			return 0, err
		}
		longest = max(longest, d)
	}
	return longest, nil
}

func (a *aggregator) action(n *node) (float64, error) {
	if n.timing != nil {
		if d, ok := n.timing.Duration(); ok {
			return d, nil
		}
	}
	if a.cfg.strict {
		return 0, &MissingDurationError{NodeID: n.id, Label: n.label, Kind: n.kind}
	}
	if !a.seen[n.ref] {
		a.seen[n.ref] = true
		a.undated = append(a.undated, n.label)
		observability.LogMissingDuration(a.cfg.logger, n.id, n.label)
	}
	return 0, nil
}

func (a *aggregator) opaque(n *node) (float64, error) {
	if n.timing != nil {
		if d, ok := n.timing.Duration(); ok {
			return d, nil
		}
	}
	if d, ok := a.cfg.subroutines[n.id]; ok {
		return d, nil
	}
	if d, ok := a.cfg.subroutines[n.label]; ok {
		return d, nil
	}
	return 0, &MissingDurationError{NodeID: n.id, Label: n.label, Kind: n.kind}
}

func targets(n *node) []NodeRef {
	refs := make([]NodeRef, 0, len(n.next))
	for _, l := range n.next {
		if !slices.Contains(refs, l.To) {
			refs = append(refs, l.To)
		}
	}
	return refs
}
