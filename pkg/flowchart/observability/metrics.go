package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records flowchart metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordCompile records a compile pass with its expansion count and error status.
	RecordCompile(ctx context.Context, graph string, expansions int, duration time.Duration, err error)

	// RecordExpansion records the expansion of one composite node.
	RecordExpansion(ctx context.Context, kind string)

	// RecordEstimate records a takt-time estimate.
	RecordEstimate(ctx context.Context, graph string, seconds float64, undated int, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	compileRuns    metric.Int64Counter
	compileLatency metric.Float64Histogram
	compileErrors  metric.Int64Counter
	expansions     metric.Int64Counter
	estimates      metric.Int64Counter
	taktSeconds    metric.Float64Histogram
	undated        metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("flowchart")

	compileRuns, err := meter.Int64Counter("flowchart.compile.runs",
		metric.WithDescription("Number of compile passes"),
	)
	if err != nil {
		return nil, err
	}

	compileLatency, err := meter.Float64Histogram("flowchart.compile.latency_ms",
		metric.WithDescription("Compile pass latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	compileErrors, err := meter.Int64Counter("flowchart.compile.errors",
		metric.WithDescription("Number of failed compile passes"),
	)
	if err != nil {
		return nil, err
	}

	expansions, err := meter.Int64Counter("flowchart.compile.expansions",
		metric.WithDescription("Number of composite nodes expanded"),
	)
	if err != nil {
		return nil, err
	}

	estimates, err := meter.Int64Counter("flowchart.takt.estimates",
		metric.WithDescription("Number of takt-time estimates"),
	)
	if err != nil {
		return nil, err
	}

	taktSeconds, err := meter.Float64Histogram("flowchart.takt.seconds",
		metric.WithDescription("Estimated takt time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	undated, err := meter.Int64Counter("flowchart.takt.undated_actions",
		metric.WithDescription("Actions aggregated without a duration"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		compileRuns:    compileRuns,
		compileLatency: compileLatency,
		compileErrors:  compileErrors,
		expansions:     expansions,
		estimates:      estimates,
		taktSeconds:    taktSeconds,
		undated:        undated,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordCompile records a compile pass.
func (m *otelMetrics) RecordCompile(ctx context.Context, graph string, expansions int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("graph", graph),
		attribute.Bool("success", err == nil),
	)
	m.compileRuns.Add(ctx, 1, attrs)
	m.compileLatency.Record(ctx, Milliseconds(duration), attrs)
	if err != nil {
		m.compileErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("graph", graph)))
	}
}

// RecordExpansion records one expanded composite.
func (m *otelMetrics) RecordExpansion(ctx context.Context, kind string) {
	m.expansions.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordEstimate records a takt-time estimate.
func (m *otelMetrics) RecordEstimate(ctx context.Context, graph string, seconds float64, undated int, err error) {
	attrs := metric.WithAttributes(
		attribute.String("graph", graph),
		attribute.Bool("success", err == nil),
	)
	m.estimates.Add(ctx, 1, attrs)
	if err != nil {
		return
	}
	m.taktSeconds.Record(ctx, seconds, metric.WithAttributes(attribute.String("graph", graph)))
	if undated > 0 {
		m.undated.Add(ctx, int64(undated), metric.WithAttributes(attribute.String("graph", graph)))
	}
}
