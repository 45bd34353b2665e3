package flowchart

import (
	"log/slog"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/observability"
)

// config holds settings shared by Compile and Estimate.
type config struct {
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
	strict         bool
	subroutines    map[string]float64
}

func defaultConfig() config {
	return config{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures Compile and Estimate.
type Option func(*config)

// WithLogger sets the structured logger. Nil disables logging (the default).
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	compiled, err := g.Compile(ctx, flowchart.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics through the global meter provider.
func WithMetrics(enabled bool) Option {
	return func(c *config) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder sets a custom metrics recorder.
func WithMetricsRecorder(r observability.MetricsRecorder) Option {
	return func(c *config) {
		if r != nil {
			c.metrics = r
		}
	}
}

// WithTracing enables OpenTelemetry spans through the global tracer provider.
func WithTracing(enabled bool) Option {
	return func(c *config) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithSpanManager sets a custom span manager and enables tracing.
func WithSpanManager(m observability.SpanManager) Option {
	return func(c *config) {
		if m != nil {
			c.spans = m
			c.tracingEnabled = true
		}
	}
}

// WithStrictDurations makes an undated action a MissingDurationError
// instead of a warning counted as zero.
func WithStrictDurations() Option {
	return func(c *config) {
		c.strict = true
	}
}

// WithSubroutineDuration supplies the duration of an opaque subroutine,
// matched by node ID first and then by label. A duration set on the node
// itself wins.
func WithSubroutineDuration(idOrLabel string, seconds float64) Option {
	return func(c *config) {
		if c.subroutines == nil {
			c.subroutines = make(map[string]float64)
		}
		c.subroutines[idOrLabel] = seconds
	}
}
