package flowchart

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Graph is an arena of flowchart nodes with a designated root.
// Nodes are created through the Add* methods and linked with AddNext /
// AddFrom; they reference each other by NodeRef only.
//
// Each two-sided link update is done under the graph lock, so a single
// primitive call is atomic. Building, compiling and aggregating one graph
// is still expected to happen on one goroutine; Compile returns a new
// Graph that can be shared read-only.
//
// Example:
//
//	g := flowchart.NewGraph("pick")
//	start := g.AddRoot("Start")
//	move := g.AddAction("Move", flowchart.Seconds(1.2))
//	end := g.AddRoot("End")
//	g.AddNext(start, move, "")
//	g.AddNext(move, end, "")
//	g.SetRoot(start)
//
//	compiled, err := g.Compile(ctx)
type Graph struct {
	mu      sync.RWMutex
	name    string
	nodes   map[NodeRef]*node
	byID    map[string]NodeRef
	lastRef NodeRef
	root    NodeRef
}

// Edge is a next-link seen from outside the arena.
type Edge struct {
	From  NodeRef
	To    NodeRef
	Label string
}

// NewGraph creates an empty graph. name is used in logs and spans.
func NewGraph(name string) *Graph {
	return &Graph{
		name:  name,
		nodes: make(map[NodeRef]*node),
		byID:  make(map[string]NodeRef),
	}
}

// Name returns the graph name.
func (g *Graph) Name() string {
	return g.name
}

func (g *Graph) add(kind Kind, label string) *node {
	g.lastRef++
	n := &node{
		ref:   g.lastRef,
		id:    uuid.NewString(),
		label: label,
		kind:  kind,
		back:  make(map[NodeRef]struct{}),
	}
	g.nodes[n.ref] = n
	g.byID[n.id] = n.ref
	return n
}

func (g *Graph) addLocked(kind Kind, label string, fill func(n *node)) NodeRef {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.add(kind, label)
	if fill != nil {
		fill(n)
	}
	return n.ref
}

// mustRef panics if ref is set but unknown. Callers hold the lock.
func (g *Graph) mustRef(ref NodeRef, what string) {
	if ref == NoNode {
		return
	}
	if _, ok := g.nodes[ref]; !ok {
		panic(fmt.Sprintf("flowchart: %s refers to unknown node %d", what, ref))
	}
}

// mustKind returns the node for ref, panicking if it is unknown or not one of kinds.
func (g *Graph) mustKind(ref NodeRef, kinds ...Kind) *node {
	n, ok := g.nodes[ref]
	if !ok {
		panic(fmt.Sprintf("flowchart: unknown node %d", ref))
	}
	if len(kinds) > 0 && !slices.Contains(kinds, n.kind) {
		panic(fmt.Sprintf("flowchart: node %q is a %s", n.label, n.kind))
	}
	return n
}

// AddAction adds a primitive unit of work. timing may be nil when the
// duration is not known yet.
func (g *Graph) AddAction(label string, timing DurationProvider) NodeRef {
	return g.addLocked(KindAction, label, func(n *node) { n.timing = timing })
}

// AddDecision adds a decision with the given branch roots.
// Either branch may be NoNode and set later with SetBranches.
func (g *Graph) AddDecision(label string, yes, no NodeRef) NodeRef {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustRef(yes, "yes branch")
	g.mustRef(no, "no branch")
	n := g.add(KindDecision, label)
	n.yes, n.no = yes, no
	return n.ref
}

// SetBranches sets the yes and no branch roots of a decision.
func (g *Graph) SetBranches(decision, yes, no NodeRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.mustKind(decision, KindDecision)
	g.mustRef(yes, "yes branch")
	g.mustRef(no, "no branch")
	n.yes, n.no = yes, no
}

// SetRejoin sets explicit rejoin targets for the two branches of a decision.
// NoNode means "rejoin at the decision's own next element".
func (g *Graph) SetRejoin(decision, yesRejoin, noRejoin NodeRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.mustKind(decision, KindDecision)
	g.mustRef(yesRejoin, "yes rejoin")
	g.mustRef(noRejoin, "no rejoin")
	n.yesRejoin, n.noRejoin = yesRejoin, noRejoin
}

// SetDefaultBranch selects the branch whose duration a decision reports.
func (g *Graph) SetDefaultBranch(decision NodeRef, b Branch) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustKind(decision, KindDecision).defaultBranch = b
}

// AddLoop adds a loop repeating the sub-graph rooted at body.
// iterations is checked at compile and aggregation time.
func (g *Graph) AddLoop(label string, body NodeRef, iterations int) NodeRef {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustRef(body, "loop body")
	n := g.add(KindLoop, label)
	n.body, n.iterations = body, iterations
	return n.ref
}

// AddParallel adds a parallel block running the given branch roots concurrently.
func (g *Graph) AddParallel(label string, branches ...NodeRef) NodeRef {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, b := range branches {
		g.mustRef(b, "parallel branch")
	}
	n := g.add(KindParallel, label)
	n.branches = append([]NodeRef(nil), branches...)
	return n.ref
}

// AddBranch appends a branch root to a parallel block.
func (g *Graph) AddBranch(parallel, branch NodeRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.mustKind(parallel, KindParallel)
	g.mustRef(branch, "parallel branch")
	n.branches = append(n.branches, branch)
}

// AddSubroutine adds a subroutine whose body is the sub-graph rooted at body.
// Inline subroutines are expanded in place by Compile; opaque ones stay a
// black box and need a duration from SetDuration or WithSubroutineDuration.
func (g *Graph) AddSubroutine(label string, body NodeRef, inline bool) NodeRef {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustRef(body, "subroutine body")
	n := g.add(KindSubroutine, label)
	n.body, n.inline = body, inline
	return n.ref
}

// SetDuration attaches a duration to an action or an opaque subroutine.
func (g *Graph) SetDuration(ref NodeRef, timing DurationProvider) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustKind(ref, KindAction, KindSubroutine).timing = timing
}

// AddConnector adds a zero-duration pass-through node.
func (g *Graph) AddConnector(label string) NodeRef {
	return g.addLocked(KindConnector, label, nil)
}

// AddRoot adds a start or end terminal.
func (g *Graph) AddRoot(label string) NodeRef {
	return g.addLocked(KindRoot, label, nil)
}

// AddInput adds an input marker.
func (g *Graph) AddInput(label string) NodeRef {
	return g.addLocked(KindInput, label, nil)
}

// AddLoopStart adds a hand-placed loop start marker. Unlike the markers
// Compile synthesizes it is not paired and aggregates as a connector.
func (g *Graph) AddLoopStart(label string) NodeRef {
	return g.addLocked(KindLoopStart, label, nil)
}

// AddLoopEnd adds a hand-placed loop end marker.
func (g *Graph) AddLoopEnd(label string) NodeRef {
	return g.addLocked(KindLoopEnd, label, nil)
}

// SetRoot designates the root node.
func (g *Graph) SetRoot(ref NodeRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustKind(ref)
	g.root = ref
}

// Root returns the root node, or NoNode if none was set.
func (g *Graph) Root() NodeRef {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.root
}

func (g *Graph) get(ref NodeRef) (*node, bool) {
	n, ok := g.nodes[ref]
	return n, ok
}

// Has reports whether ref is a live node.
func (g *Graph) Has(ref NodeRef) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[ref]
	return ok
}

// Lookup finds a node by its stable ID.
func (g *Graph) Lookup(id string) (NodeRef, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ref, ok := g.byID[id]
	return ref, ok
}

// Kind returns the node's kind, or 0 for unknown handles.
func (g *Graph) Kind(ref NodeRef) Kind {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[ref]; ok {
		return n.kind
	}
	return 0
}

// Label returns the node's display label.
func (g *Graph) Label(ref NodeRef) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[ref]; ok {
		return n.label
	}
	return ""
}

// ID returns the node's stable identifier.
func (g *Graph) ID(ref NodeRef) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[ref]; ok {
		return n.id
	}
	return ""
}

// Shape returns the shape a renderer should draw the node with.
func (g *Graph) Shape(ref NodeRef) Shape {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[ref]; ok {
		return n.shape()
	}
	return ""
}

// NextLinks returns a copy of the node's ordered next-links.
func (g *Graph) NextLinks(ref NodeRef) []Link {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[ref]; ok {
		return append([]Link(nil), n.next...)
	}
	return nil
}

// BackLinks returns the node's predecessors in ascending handle order.
func (g *Graph) BackLinks(ref NodeRef) []NodeRef {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[ref]; ok {
		return sortedRefs(n.back)
	}
	return nil
}

// Duration returns the duration of an action or opaque subroutine.
// ok is false for every other kind and for undated nodes.
func (g *Graph) Duration(ref NodeRef) (float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[ref]
	if !ok || n.timing == nil {
		return 0, false
	}
	if n.kind != KindAction && n.kind != KindSubroutine {
		return 0, false
	}
	return n.timing.Duration()
}

// DecisionBranches returns the yes and no branch roots of a decision.
func (g *Graph) DecisionBranches(ref NodeRef) (yes, no NodeRef) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[ref]; ok && n.kind == KindDecision {
		return n.yes, n.no
	}
	return NoNode, NoNode
}

// DefaultBranch returns the branch a decision reports.
func (g *Graph) DefaultBranch(ref NodeRef) Branch {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[ref]; ok {
		return n.defaultBranch
	}
	return BranchYes
}

// Body returns the body root of a loop or subroutine.
func (g *Graph) Body(ref NodeRef) NodeRef {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[ref]; ok {
		return n.body
	}
	return NoNode
}

// Iterations returns the iteration count of a loop or compiled loop start.
func (g *Graph) Iterations(ref NodeRef) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[ref]; ok {
		return n.iterations
	}
	return 0
}

// ParallelBranches returns the branch roots of a parallel block.
func (g *Graph) ParallelBranches(ref NodeRef) []NodeRef {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[ref]; ok {
		return append([]NodeRef(nil), n.branches...)
	}
	return nil
}

// Pair returns the matching end (or start) of a compiled loop or parallel marker.
func (g *Graph) Pair(ref NodeRef) NodeRef {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[ref]; ok {
		return n.pair
	}
	return NoNode
}

// IsComposite reports whether Compile would expand the node.
func (g *Graph) IsComposite(ref NodeRef) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[ref]
	return ok && n.isComposite()
}

// Len returns the number of live nodes, islands included.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Nodes returns every live node handle in ascending order.
func (g *Graph) Nodes() []NodeRef {
	g.mu.RLock()
	defer g.mu.RUnlock()
	refs := make([]NodeRef, 0, len(g.nodes))
	for r := range g.nodes {
		refs = append(refs, r)
	}
	slices.Sort(refs)
	return refs
}

// Edges returns every next-link in the arena, ordered by source handle and
// then by link position.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var edges []Edge
	for _, r := range sortedKeys(g.nodes) {
		for _, l := range g.nodes[r].next {
			edges = append(edges, Edge{From: r, To: l.To, Label: l.Label})
		}
	}
	return edges
}

// Clone returns a deep copy sharing no mutable state with g.
// Handles, IDs and labels are preserved.
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cloneLocked()
}

func (g *Graph) cloneLocked() *Graph {
	c := &Graph{
		name:    g.name,
		nodes:   make(map[NodeRef]*node, len(g.nodes)),
		byID:    make(map[string]NodeRef, len(g.byID)),
		lastRef: g.lastRef,
		root:    g.root,
	}
	for r, n := range g.nodes {
		c.nodes[r] = n.clone()
	}
	for id, r := range g.byID {
		c.byID[id] = r
	}
	return c
}

// remove drops a node that no longer has links from the arena.
func (g *Graph) remove(n *node) {
	delete(g.nodes, n.ref)
	delete(g.byID, n.id)
}

func sortedRefs(set map[NodeRef]struct{}) []NodeRef {
	refs := make([]NodeRef, 0, len(set))
	for r := range set {
		refs = append(refs, r)
	}
	slices.Sort(refs)
	return refs
}

func sortedKeys(m map[NodeRef]*node) []NodeRef {
	refs := make([]NodeRef, 0, len(m))
	for r := range m {
		refs = append(refs, r)
	}
	slices.Sort(refs)
	return refs
}
