// Package observability provides structured logging, metrics and tracing
// for flowchart compilation and takt-time estimation.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
// Every Log* helper accepts a nil logger.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds the graph name to a logger.
func EnrichLogger(logger *slog.Logger, graph string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("graph", graph))
}

// LogCompileStart logs the start of a compile pass.
func LogCompileStart(logger *slog.Logger, graph string, nodeCount int) {
	if logger == nil {
		return
	}
	logger.Debug("flowchart compile starting",
		slog.String("graph", graph),
		slog.Int("nodes", nodeCount),
	)
}

// LogCompileComplete logs a successful compile pass.
func LogCompileComplete(logger *slog.Logger, graph string, durationMs float64, expansions, nodeCount int) {
	if logger == nil {
		return
	}
	logger.Info("flowchart compiled",
		slog.String("graph", graph),
		slog.Float64("duration_ms", durationMs),
		slog.Int("expansions", expansions),
		slog.Int("nodes", nodeCount),
	)
}

// LogCompileError logs a failed compile pass.
func LogCompileError(logger *slog.Logger, graph string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("flowchart compile failed",
		slog.String("graph", graph),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogExpansion logs the expansion of one composite node.
func LogExpansion(logger *slog.Logger, kind, nodeID, label string, added int) {
	if logger == nil {
		return
	}
	logger.Debug("composite expanded",
		slog.String("kind", kind),
		slog.String("node_id", nodeID),
		slog.String("label", label),
		slog.Int("nodes_added", added),
	)
}

// LogMissingDuration warns about an action aggregated as zero.
func LogMissingDuration(logger *slog.Logger, nodeID, label string) {
	if logger == nil {
		return
	}
	logger.Warn("action has no duration, counting as zero",
		slog.String("node_id", nodeID),
		slog.String("label", label),
	)
}

// LogEstimate logs a completed takt-time estimate.
func LogEstimate(logger *slog.Logger, graph string, seconds float64, undated int) {
	if logger == nil {
		return
	}
	logger.Info("takt time estimated",
		slog.String("graph", graph),
		slog.Float64("seconds", seconds),
		slog.Int("undated_actions", undated),
	)
}

// LogEstimateError logs a failed estimate.
func LogEstimateError(logger *slog.Logger, graph string, err error) {
	if logger == nil {
		return
	}
	logger.Error("takt time estimate failed",
		slog.String("graph", graph),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	elapsed := done()
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// Milliseconds converts a duration for the duration_ms log field.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
