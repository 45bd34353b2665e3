package flowchart

// NodeRef is a handle to a node in a Graph's arena.
// The zero value NoNode refers to nothing.
type NodeRef int

// NoNode is the unset handle.
const NoNode NodeRef = 0

// Kind is the variant tag of a node.
type Kind int

const (
	KindAction Kind = iota + 1
	KindDecision
	KindLoop
	KindParallel
	KindSubroutine
	KindConnector
	KindRoot
	KindInput
	KindLoopStart
	KindLoopEnd
	KindParallelStart
	KindParallelEnd
)

var kindNames = map[Kind]string{
	KindAction:        "action",
	KindDecision:      "decision",
	KindLoop:          "loop",
	KindParallel:      "parallel",
	KindSubroutine:    "subroutine",
	KindConnector:     "connector",
	KindRoot:          "root",
	KindInput:         "input",
	KindLoopStart:     "loop_start",
	KindLoopEnd:       "loop_end",
	KindParallelStart: "parallel_start",
	KindParallelEnd:   "parallel_end",
}

// String returns the kind name used in logs, metrics and definitions.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Branch selects one side of a Decision.
type Branch int

const (
	BranchYes Branch = iota
	BranchNo
)

// String returns the edge label used for the branch.
func (b Branch) String() string {
	if b == BranchNo {
		return "No"
	}
	return "Yes"
}

// Shape is the drawing shape a renderer should use for a node.
// Values are Graphviz shape names.
type Shape string

const (
	ShapeBox           Shape = "box"
	ShapeDiamond       Shape = "diamond"
	ShapeRecord        Shape = "record"
	ShapeParallelogram Shape = "parallelogram"
	ShapeEllipse       Shape = "ellipse"
	ShapeTrapezium     Shape = "trapezium"
	ShapeInvTrapezium  Shape = "invtrapezium"
	ShapePoint         Shape = "point"
	ShapeBar           Shape = "rect"
	ShapeHexagon       Shape = "hexagon"
	ShapeBox3D         Shape = "box3d"
)

// DurationProvider is implemented by anything that can time an action,
// for example an actuator model or a fixed estimate.
// ok is false when no duration is known yet.
type DurationProvider interface {
	Duration() (seconds float64, ok bool)
}

// Seconds is a fixed duration.
type Seconds float64

// Duration implements DurationProvider.
func (s Seconds) Duration() (float64, bool) {
	return float64(s), true
}

// DurationFunc adapts a function to DurationProvider.
type DurationFunc func() (float64, bool)

// Duration implements DurationProvider.
func (f DurationFunc) Duration() (float64, bool) {
	return f()
}

// Link is a labeled next-link.
type Link struct {
	To    NodeRef
	Label string
}

// node is an arena entry. Fields after back are the per-kind payload.
type node struct {
	ref   NodeRef
	id    string
	label string
	kind  Kind

	next []Link
	back map[NodeRef]struct{}

	timing DurationProvider // action, opaque subroutine

	yes, no             NodeRef // decision
	yesRejoin, noRejoin NodeRef
	defaultBranch       Branch
	expanded            bool

	body       NodeRef // loop, subroutine
	iterations int     // loop, loop start
	inline     bool    // subroutine

	branches []NodeRef // parallel

	pair NodeRef // loop start <-> loop end, parallel start <-> parallel end
}

func (n *node) isComposite() bool {
	switch n.kind {
	case KindLoop, KindParallel:
		return true
	case KindDecision:
		return !n.expanded
	case KindSubroutine:
		return n.inline
	}
	return false
}

func (n *node) shape() Shape {
	switch n.kind {
	case KindAction:
		return ShapeBox
	case KindDecision:
		return ShapeDiamond
	case KindSubroutine:
		return ShapeRecord
	case KindInput:
		return ShapeParallelogram
	case KindRoot:
		return ShapeEllipse
	case KindLoopStart:
		return ShapeTrapezium
	case KindLoopEnd:
		return ShapeInvTrapezium
	case KindParallelStart, KindParallelEnd:
		return ShapeBar
	case KindLoop:
		return ShapeHexagon
	case KindParallel:
		return ShapeBox3D
	}
	return ShapePoint
}

func (n *node) clone() *node {
	c := *n
	c.next = append([]Link(nil), n.next...)
	c.back = make(map[NodeRef]struct{}, len(n.back))
	for r := range n.back {
		c.back[r] = struct{}{}
	}
	c.branches = append([]NodeRef(nil), n.branches...)
	return &c
}
