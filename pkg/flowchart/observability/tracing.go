package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanManager opens and closes the spans of compile passes and estimates.
// NoopSpanManager is used when tracing is off.
type SpanManager interface {
	// StartCompileSpan opens a "flowchart.compile" span.
	StartCompileSpan(ctx context.Context, graph string) (context.Context, trace.Span)

	// StartEstimateSpan opens a "flowchart.takt" span for an estimate from root.
	StartEstimateSpan(ctx context.Context, graph, root string) (context.Context, trace.Span)

	// EndSpanWithError sets the span status from err and ends it.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent records an event on the span carried by ctx, if any.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager backed by the global tracer
// provider in place when each span starts.
func NewSpanManager() SpanManager {
	return otelSpanManager{}
}

func (otelSpanManager) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("flowchart").Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

func (m otelSpanManager) StartCompileSpan(ctx context.Context, graph string) (context.Context, trace.Span) {
	return m.start(ctx, "flowchart.compile", attribute.String("graph.name", graph))
}

func (m otelSpanManager) StartEstimateSpan(ctx context.Context, graph, root string) (context.Context, trace.Span) {
	return m.start(ctx, "flowchart.takt",
		attribute.String("graph.name", graph),
		attribute.String("root.id", root),
	)
}

func (otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}
