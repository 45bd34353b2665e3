package machine

import (
	"context"
	"fmt"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart"
)

// DetailFunc adds a summary's detail flowchart to g and returns its root.
// The root must not be linked from anything else in g.
type DetailFunc func(g *flowchart.Graph) (flowchart.NodeRef, error)

// Behavior is one motion sequence of a unit, made of summaries run in order.
type Behavior struct {
	unit      string
	name      string
	g         *flowchart.Graph
	end       flowchart.NodeRef
	last      flowchart.NodeRef
	summaries []flowchart.NodeRef
}

func newBehavior(unit, name string) *Behavior {
	g := flowchart.NewGraph(unit + "/" + name)
	start := g.AddRoot("Start")
	end := g.AddRoot("End")
	g.AddNext(start, end, "")
	g.SetRoot(start)
	return &Behavior{unit: unit, name: name, g: g, end: end, last: start}
}

// Name returns the behavior name.
func (b *Behavior) Name() string {
	return b.name
}

// Graph returns the behavior's raw graph.
func (b *Behavior) Graph() *flowchart.Graph {
	return b.g
}

// Summaries returns the summary subroutine nodes in order.
func (b *Behavior) Summaries() []flowchart.NodeRef {
	return append([]flowchart.NodeRef(nil), b.summaries...)
}

// AddSummary appends a summary whose body is built by detail. Inline
// summaries are expanded into the behavior when it is compiled; opaque
// ones need a duration from SetDuration or flowchart.WithSubroutineDuration.
// A nil detail adds an opaque summary with no body.
func (b *Behavior) AddSummary(label string, inline bool, detail DetailFunc) (flowchart.NodeRef, error) {
	body := flowchart.NoNode
	if detail != nil {
		root, err := detail(b.g)
		if err != nil {
			return flowchart.NoNode, fmt.Errorf("summary %q: %w", label, err)
		}
		body = root
	}
	if inline && body == flowchart.NoNode {
		return flowchart.NoNode, &flowchart.ConfigurationError{
			Label:  label,
			Reason: "inline summary needs a detail flowchart",
		}
	}

	sub := b.g.AddSubroutine(label, body, inline)
	b.g.DropNext(b.last, b.end)
	b.g.AddNext(b.last, sub, "")
	b.g.AddNext(sub, b.end, "")
	b.last = sub
	b.summaries = append(b.summaries, sub)
	return sub, nil
}

// SetDuration sets the duration of an opaque summary.
func (b *Behavior) SetDuration(summary flowchart.NodeRef, seconds float64) {
	b.g.SetDuration(summary, flowchart.Seconds(seconds))
}

// Compile returns the behavior with every composite expanded.
func (b *Behavior) Compile(ctx context.Context, opts ...flowchart.Option) (*flowchart.Graph, error) {
	compiled, err := b.g.Compile(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", b.unit, b.name, err)
	}
	return compiled, nil
}

// TaktTime compiles the behavior and aggregates its duration from Start.
func (b *Behavior) TaktTime(ctx context.Context, opts ...flowchart.Option) (flowchart.Estimate, error) {
	compiled, err := b.Compile(ctx, opts...)
	if err != nil {
		return flowchart.Estimate{}, err
	}
	est, err := compiled.Estimate(ctx, compiled.Root(), opts...)
	if err != nil {
		return flowchart.Estimate{}, fmt.Errorf("%s/%s: %w", b.unit, b.name, err)
	}
	return est, nil
}
