package flowchart

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// fakeMetrics records calls made by Compile and Estimate.
type fakeMetrics struct {
	mu          sync.Mutex
	compiles    []error
	expansions  []string
	estimates   []float64
	undated     int
	estimateErr error
}

func (m *fakeMetrics) RecordCompile(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compiles = append(m.compiles, err)
}

func (m *fakeMetrics) RecordExpansion(_ context.Context, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expansions = append(m.expansions, kind)
}

func (m *fakeMetrics) RecordEstimate(_ context.Context, _ string, seconds float64, undated int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.estimates = append(m.estimates, seconds)
	m.undated += undated
	m.estimateErr = err
}

// testSpans is a SpanManager backed by its own tracer provider.
type testSpans struct {
	tracer trace.Tracer
}

func newTestSpans(t *testing.T) (*testSpans, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	})
	return &testSpans{tracer: tp.Tracer("flowchart-test")}, exporter
}

func (s *testSpans) StartCompileSpan(ctx context.Context, graph string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "flowchart.compile", trace.WithAttributes(attribute.String("graph.name", graph)))
}

func (s *testSpans) StartEstimateSpan(ctx context.Context, graph, root string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "flowchart.takt", trace.WithAttributes(
		attribute.String("graph.name", graph),
		attribute.String("root.id", root),
	))
}

func (s *testSpans) EndSpanWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *testSpans) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

func TestCompile_WithLogger(t *testing.T) {
	h := newTestLogHandler()
	g, _ := parallelGraph()

	compile(t, g, WithLogger(slog.New(h)))

	msgs := h.messages()
	assert.Contains(t, msgs, "flowchart compile starting")
	assert.Contains(t, msgs, "composite expanded")
	assert.Contains(t, msgs, "flowchart compiled")

	for _, r := range h.getRecords() {
		if r["msg"] == "composite expanded" {
			assert.Equal(t, "parallel", r["kind"])
			assert.Equal(t, "Both arms", r["label"])
			assert.EqualValues(t, 1, r["nodes_added"], "two markers added, one composite removed")
		}
		if r["msg"] == "flowchart compiled" {
			assert.Equal(t, "parallel", r["graph"])
			assert.EqualValues(t, 1, r["expansions"])
		}
	}
}

func TestCompile_WithLogger_Error(t *testing.T) {
	h := newTestLogHandler()
	g := NewGraph("broken")
	frame(g, g.AddParallel("P"))

	_, err := g.Compile(context.Background(), WithLogger(slog.New(h)))
	require.Error(t, err)

	records := h.getRecords()
	require.NotEmpty(t, records)
	last := records[len(records)-1]
	assert.Equal(t, "flowchart compile failed", last["msg"])
	assert.Equal(t, "ERROR", last["level"])
	assert.Contains(t, last["error"], "parallel block has no branches")
}

func TestCompile_WithMetricsRecorder(t *testing.T) {
	m := &fakeMetrics{}
	g, _ := loopGraph()
	g.AddDecision("unlinked", g.AddAction("y", nil), g.AddAction("n", nil))

	compile(t, g, WithMetricsRecorder(m))

	require.Len(t, m.compiles, 1)
	assert.NoError(t, m.compiles[0])
	assert.Equal(t, []string{"loop"}, m.expansions, "islands are not compiled")
}

func TestCompile_WithTracing(t *testing.T) {
	spans, exporter := newTestSpans(t)
	g, _ := decisionGraph()

	compile(t, g, WithSpanManager(spans))

	stubs := exporter.GetSpans()
	require.Len(t, stubs, 1)
	s := stubs[0]
	assert.Equal(t, "flowchart.compile", s.Name)
	require.Len(t, s.Events, 1)
	assert.Equal(t, "flowchart.expand", s.Events[0].Name)
	assert.Contains(t, s.Events[0].Attributes, attribute.String("kind", "decision"))
}

func TestCompile_WithTracing_Error(t *testing.T) {
	spans, exporter := newTestSpans(t)
	g := NewGraph("broken")
	frame(g, g.AddLoop("L", NoNode, 1))

	_, err := g.Compile(context.Background(), WithSpanManager(spans))
	require.Error(t, err)

	stubs := exporter.GetSpans()
	require.Len(t, stubs, 1)
	assert.Equal(t, codes.Error, stubs[0].Status.Code)
}

func TestEstimate_WithObservability(t *testing.T) {
	h := newTestLogHandler()
	m := &fakeMetrics{}
	spans, exporter := newTestSpans(t)
	g := NewGraph("observed")
	first, _ := chain(g, "s", 1, 2)
	g.AddNext(first, g.AddAction("undated", nil), "")
	start, _ := frame(g, first)

	est, err := g.Estimate(context.Background(), start,
		WithLogger(slog.New(h)),
		WithMetricsRecorder(m),
		WithSpanManager(spans),
	)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, est.Seconds, 1e-9)

	assert.Equal(t, []float64{3.0}, m.estimates)
	assert.Equal(t, 1, m.undated)
	assert.Contains(t, h.messages(), "takt time estimated")

	stubs := exporter.GetSpans()
	require.Len(t, stubs, 1)
	assert.Equal(t, "flowchart.takt", stubs[0].Name)
	assert.Contains(t, stubs[0].Attributes, attribute.String("root.id", g.ID(start)))
}

func TestEstimate_MetricsOnError(t *testing.T) {
	m := &fakeMetrics{}
	g := NewGraph("strict")
	a := g.AddAction("a", nil)

	_, err := g.Estimate(context.Background(), a, WithStrictDurations(), WithMetricsRecorder(m))
	require.Error(t, err)
	assert.ErrorIs(t, m.estimateErr, ErrMissingDuration)
}

func TestOptions_Defaults(t *testing.T) {
	cfg := newConfig(nil)

	assert.Nil(t, cfg.logger)
	assert.False(t, cfg.tracingEnabled)
	assert.False(t, cfg.strict)

	cfg = newConfig([]Option{WithTracing(true), WithTracing(false), WithMetricsRecorder(nil)})
	assert.False(t, cfg.tracingEnabled)
	assert.NotNil(t, cfg.metrics)
}
