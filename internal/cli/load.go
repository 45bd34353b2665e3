package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/definition"
	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/observability"
)

// loadFlowchart parses and builds a flowchart file with the configured
// variables. The returned logger carries the graph name.
func (c *CLI) loadFlowchart(path string) (*definition.Flowchart, *slog.Logger, error) {
	doc, err := definition.ParseFile(path)
	if err != nil {
		return nil, nil, err
	}
	fc, err := definition.Build(doc, c.settings.Vars)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Logger.Debug("loaded flowchart", "file", path, "graph", fc.Graph.Name(), "nodes", fc.Graph.Len())
	return fc, observability.EnrichLogger(c.slogger(), fc.Graph.Name()), nil
}

// withTelemetry runs fn with the exporters asked for by --trace and
// --metrics installed until fn returns.
func (c *CLI) withTelemetry(fn func() error) error {
	stop, err := c.startTelemetry()
	if err != nil {
		return err
	}
	defer stop()
	return fn()
}

// startTelemetry installs the exporters asked for by --trace and
// --metrics. The returned function flushes them.
func (c *CLI) startTelemetry() (func(), error) {
	if !c.flags.trace && !c.flags.metrics {
		return func() {}, nil
	}
	shutdown, err := setupTelemetry(c.stderr, c.flags.trace, c.flags.metrics)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			c.Logger.Warn("telemetry shutdown", "err", err)
		}
	}, nil
}
