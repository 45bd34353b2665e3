package flowchart

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// chain adds one action per duration and links them in order.
// Returns the first and last node.
func chain(g *Graph, prefix string, durations ...float64) (first, last NodeRef) {
	for i, d := range durations {
		a := g.AddAction(prefix+string(rune('A'+i)), Seconds(d))
		if first == NoNode {
			first = a
		} else {
			g.AddNext(last, a, "")
		}
		last = a
	}
	return first, last
}

// frame wraps inner between Start and End roots and makes Start the root.
func frame(g *Graph, inner NodeRef) (start, end NodeRef) {
	start = g.AddRoot("Start")
	end = g.AddRoot("End")
	g.AddNext(start, inner, "")
	g.AddNext(inner, end, "")
	g.SetRoot(start)
	return start, end
}

// loopGraph is Start -> Loop(3 x [1.0, 2.0]) -> End.
func loopGraph() (*Graph, NodeRef) {
	g := NewGraph("loop")
	body, _ := chain(g, "step", 1.0, 2.0)
	loop := g.AddLoop("Repeat", body, 3)
	frame(g, loop)
	return g, loop
}

// parallelGraph is Start -> Parallel([1.0], [1.0, 1.0]) -> End.
func parallelGraph() (*Graph, NodeRef) {
	g := NewGraph("parallel")
	a, _ := chain(g, "left", 1.0)
	b, _ := chain(g, "right", 1.0, 1.0)
	par := g.AddParallel("Both arms", a, b)
	frame(g, par)
	return g, par
}

// decisionGraph is Start -> Decision(yes 5.0, no 2.0, default no) -> End.
func decisionGraph() (*Graph, NodeRef) {
	g := NewGraph("decision")
	yes, _ := chain(g, "yes", 5.0)
	no, _ := chain(g, "no", 2.0)
	dec := g.AddDecision("Part present?", yes, no)
	g.SetDefaultBranch(dec, BranchNo)
	frame(g, dec)
	return g, dec
}

// edgeSet returns the graph's edges keyed by "from->to:label" using IDs.
func edgeSet(g *Graph) map[string]int {
	set := make(map[string]int)
	for _, e := range g.Edges() {
		set[g.ID(e.From)+"->"+g.ID(e.To)+":"+e.Label]++
	}
	return set
}

func compile(t *testing.T, g *Graph, opts ...Option) *Graph {
	t.Helper()
	compiled, err := g.Compile(context.Background(), opts...)
	require.NoError(t, err)
	require.NoError(t, compiled.CheckLinks())
	return compiled
}

func takt(t *testing.T, g *Graph, opts ...Option) float64 {
	t.Helper()
	d, err := g.TaktTime(context.Background(), opts...)
	require.NoError(t, err)
	return d
}

// testLogHandler captures log records for testing.
type testLogHandler struct {
	buf   *bytes.Buffer
	level slog.Level
}

func newTestLogHandler() *testLogHandler {
	return &testLogHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testLogHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func (h *testLogHandler) WithGroup(_ string) slog.Handler { return h }

func (h *testLogHandler) getRecords() []map[string]any {
	var records []map[string]any
	for _, line := range bytes.Split(h.buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(line, &m); err == nil {
			records = append(records, m)
		}
	}
	return records
}

func (h *testLogHandler) messages() []string {
	var msgs []string
	for _, r := range h.getRecords() {
		msg, _ := r["msg"].(string)
		msgs = append(msgs, msg)
	}
	return msgs
}
