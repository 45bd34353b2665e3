package definition

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart"
)

// Flowchart is a built document: the graph, the handle of the document's
// root and the handle of every document node by its ID.
type Flowchart struct {
	Graph *flowchart.Graph
	Root  flowchart.NodeRef
	Refs  map[string]flowchart.NodeRef
}

// Ref returns the handle of the node with the given document ID, or
// flowchart.NoNode.
func (f *Flowchart) Ref(id string) flowchart.NodeRef {
	return f.Refs[id]
}

// Build validates doc and constructs its graph with the document root as
// the graph root. vars override the document's own variables. Every
// problem found is returned joined.
func Build(doc *Document, vars map[string]any) (*Flowchart, error) {
	fc, err := BuildInto(flowchart.NewGraph(doc.Name), doc, vars)
	if err != nil {
		return nil, err
	}
	fc.Graph.SetRoot(fc.Root)
	return fc, nil
}

// BuildInto adds doc's nodes to g and leaves g's root alone. It is used to
// place a flowchart inside a larger one, for example as a subroutine body.
// On error g may hold some of doc's nodes.
func BuildInto(g *flowchart.Graph, doc *Document, vars map[string]any) (*Flowchart, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(doc.Vars)+len(vars))
	maps.Copy(merged, doc.Vars)
	maps.Copy(merged, vars)

	b := &builder{
		g:        g,
		vars:     merged,
		specs:    make(map[string]*NodeSpec, len(doc.Nodes)),
		refs:     make(map[string]flowchart.NodeRef, len(doc.Nodes)),
		creating: make(map[string]bool),
	}
	for i := range doc.Nodes {
		b.specs[doc.Nodes[i].ID] = &doc.Nodes[i]
	}

	for _, n := range doc.Nodes {
		b.create(n.ID)
	}
	for _, n := range doc.Nodes {
		b.wire(b.specs[n.ID])
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return &Flowchart{Graph: g, Root: b.refs[doc.Root], Refs: b.refs}, nil
}

type builder struct {
	g        *flowchart.Graph
	vars     map[string]any
	specs    map[string]*NodeSpec
	refs     map[string]flowchart.NodeRef
	creating map[string]bool
	errs     []error
}

func (b *builder) fail(id, format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf("node %q: %s", id, fmt.Sprintf(format, args...)))
}

// create adds the node for id, creating the nodes it holds (branches,
// bodies) first.
func (b *builder) create(id string) flowchart.NodeRef {
	if ref, ok := b.refs[id]; ok {
		return ref
	}
	if b.creating[id] {
		b.fail(id, "contains itself")
		return flowchart.NoNode
	}
	b.creating[id] = true
	defer delete(b.creating, id)

	n, ok := b.specs[id]
	if !ok {
		return flowchart.NoNode
	}
	kind, _ := parseKind(n.Kind)
	label, _ := labelExpander.Expand(n.Label, b.vars)

	var ref flowchart.NodeRef
	switch kind {
	case flowchart.KindAction:
		ref = b.g.AddAction(label, b.duration(n))
	case flowchart.KindDecision:
		ref = b.g.AddDecision(label, b.create(n.Yes), b.create(n.No))
	case flowchart.KindLoop:
		body := b.create(n.Body)
		ref = b.g.AddLoop(label, body, b.iterations(n))
	case flowchart.KindParallel:
		branches := make([]flowchart.NodeRef, 0, len(n.Branches))
		for _, br := range n.Branches {
			if ref := b.create(br); ref != flowchart.NoNode {
				branches = append(branches, ref)
			}
		}
		ref = b.g.AddParallel(label, branches...)
	case flowchart.KindSubroutine:
		ref = b.g.AddSubroutine(label, b.create(n.Body), n.Inline)
		if d := b.duration(n); d != nil {
			b.g.SetDuration(ref, d)
		}
	case flowchart.KindConnector:
		ref = b.g.AddConnector(label)
	case flowchart.KindRoot:
		ref = b.g.AddRoot(label)
	case flowchart.KindInput:
		ref = b.g.AddInput(label)
	case flowchart.KindLoopStart:
		ref = b.g.AddLoopStart(label)
	case flowchart.KindLoopEnd:
		ref = b.g.AddLoopEnd(label)
	}
	b.refs[id] = ref
	return ref
}

// wire adds next-links and decision settings once every node exists.
func (b *builder) wire(n *NodeSpec) {
	from := b.refs[n.ID]
	for _, t := range n.Next {
		to, ok := b.refs[t.To]
		if !ok || to == flowchart.NoNode {
			continue
		}
		label, _ := labelExpander.Expand(t.Label, b.vars)
		b.g.AddNext(from, to, label)
	}

	if kind, _ := parseKind(n.Kind); kind != flowchart.KindDecision {
		return
	}
	if n.YesRejoin != "" || n.NoRejoin != "" {
		b.g.SetRejoin(from, b.refs[n.YesRejoin], b.refs[n.NoRejoin])
	}
	if branch, ok := b.defaultBranch(n); ok {
		b.g.SetDefaultBranch(from, branch)
	}
}

func (b *builder) value(n *NodeSpec, field string, raw Scalar) (string, bool) {
	s, err := raw.expand(b.vars)
	if err != nil {
		b.fail(n.ID, "%s: %v", field, err)
		return "", false
	}
	return s, true
}

// duration returns nil when the node has no duration, leaving it undated.
func (b *builder) duration(n *NodeSpec) flowchart.DurationProvider {
	if n.Duration == "" {
		return nil
	}
	secs, err := n.Duration.Seconds(b.vars)
	if err != nil {
		b.fail(n.ID, "%v", err)
		return nil
	}
	return flowchart.Seconds(secs)
}

func (b *builder) iterations(n *NodeSpec) int {
	s, ok := b.value(n, "iterations", n.Iterations)
	if !ok {
		return 0
	}
	it, err := strconv.Atoi(s)
	if err != nil || it < 1 {
		b.fail(n.ID, "iterations %q is not a positive integer", s)
		return 0
	}
	return it
}

func (b *builder) defaultBranch(n *NodeSpec) (flowchart.Branch, bool) {
	switch strings.ToLower(strings.TrimSpace(n.Default)) {
	case "", "yes":
		return flowchart.BranchYes, true
	case "no":
		return flowchart.BranchNo, true
	}
	cond, ok := b.value(n, "default", Scalar(n.Default))
	if !ok {
		return 0, false
	}
	yes, err := Evaluate(cond, b.vars)
	if err != nil {
		b.fail(n.ID, "default: %v", err)
		return 0, false
	}
	if yes {
		return flowchart.BranchYes, true
	}
	return flowchart.BranchNo, true
}
