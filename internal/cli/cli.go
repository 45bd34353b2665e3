// Package cli implements the takt command-line interface.
//
// # Commands
//
//   - compile: expand a flowchart's composites and summarize the result
//   - takt: estimate a flowchart's takt time, optionally saving a report
//   - render: draw a flowchart as DOT, SVG or PNG
//   - machine: report the takt time of every behavior of a machine
//
// # Configuration
//
// --config loads YAML, JSON or TOML files (later files win). Flags given on
// the command line override the file:
//
//	takt:
//	  strict: true
//	  subroutines: {Home: 2.5s}
//	  vars: {cycles: 3}
//	log: {level: info, format: text}
//	report: {store: takt.db}
//	render: {format: svg}
//
// # Logging
//
// Logs go to stderr through charmbracelet/log, which also backs the
// slog.Logger handed to the flowchart engine. --verbose switches to debug.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart"
	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/config"
	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/report"
)

// LogInfo is the starting log level; --verbose and log.level change it.
const LogInfo = log.InfoLevel

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	stderr   io.Writer
	settings config.Settings
	flags    globalFlags
}

type globalFlags struct {
	configs   []string
	verbose   bool
	logFormat string
	strict    bool
	store     string
	vars      []string
	trace     bool
	metrics   bool
}

// New creates a CLI logging to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:   newLogger(w, level),
		stderr:   w,
		settings: config.DefaultSettings(),
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "takt",
		Short:         "Takt estimates machine cycle times from behavior flowcharts",
		Long:          `Takt compiles behavior flowcharts (loops, parallel blocks, decisions, subroutines) into flat graphs, aggregates their action durations into takt times, and draws them with Graphviz.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadSettings(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringSliceVarP(&c.flags.configs, "config", "c", nil, "config files (yaml, json, toml); later files win")
	pf.BoolVarP(&c.flags.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.flags.logFormat, "log-format", "", "log format: text or json")
	pf.BoolVar(&c.flags.strict, "strict", false, "fail on actions without a duration")
	pf.StringVar(&c.flags.store, "store", "", "SQLite file to save takt reports to")
	pf.StringArrayVar(&c.flags.vars, "set", nil, "definition variable as name=value (repeatable)")
	pf.BoolVar(&c.flags.trace, "trace", false, "print OpenTelemetry spans to stderr")
	pf.BoolVar(&c.flags.metrics, "metrics", false, "print OpenTelemetry metrics to stderr on exit")

	root.AddCommand(c.compileCommand())
	root.AddCommand(c.taktCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.machineCommand())

	return root
}

// loadSettings merges config files, flags and defaults, then applies the
// logging settings.
func (c *CLI) loadSettings(cmd *cobra.Command) error {
	s := config.DefaultSettings()
	if len(c.flags.configs) > 0 {
		cfg, err := config.Load(c.flags.configs...)
		if err != nil {
			return err
		}
		s = cfg.Settings()
	}

	flags := cmd.Flags()
	if c.flags.verbose {
		s.LogLevel = "debug"
	}
	if flags.Changed("log-format") {
		s.LogFormat = strings.ToLower(c.flags.logFormat)
	}
	if flags.Changed("strict") {
		s.Strict = c.flags.strict
	}
	if flags.Changed("store") {
		s.StorePath = c.flags.store
	}
	vars, err := parseVars(c.flags.vars)
	if err != nil {
		return err
	}
	merged := make(map[string]any, len(s.Vars)+len(vars))
	maps.Copy(merged, s.Vars)
	maps.Copy(merged, vars)
	s.Vars = merged

	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return err
	}
	c.Logger.SetLevel(level)
	if s.LogFormat == "json" {
		c.Logger.SetFormatter(log.JSONFormatter)
	} else {
		c.Logger.SetFormatter(log.TextFormatter)
	}

	c.settings = s
	return nil
}

// slogger returns an slog.Logger backed by the CLI's charm logger.
func (c *CLI) slogger() *slog.Logger {
	return slog.New(c.Logger)
}

// options builds the engine options for the current settings. Subroutine
// durations from the config are matched by node ID or label.
func (c *CLI) options(logger *slog.Logger) []flowchart.Option {
	opts := []flowchart.Option{
		flowchart.WithLogger(logger),
		flowchart.WithTracing(c.flags.trace),
		flowchart.WithMetrics(c.flags.metrics),
	}
	if c.settings.Strict {
		opts = append(opts, flowchart.WithStrictDurations())
	}
	for name, secs := range c.settings.Subroutines {
		opts = append(opts, flowchart.WithSubroutineDuration(name, secs))
	}
	return opts
}

// openStore opens the report store, or returns nil when none is configured.
func (c *CLI) openStore() (report.Store, error) {
	if c.settings.StorePath == "" {
		return nil, nil
	}
	store, err := report.NewSQLiteStore(c.settings.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open report store: %w", err)
	}
	return store, nil
}

// parseVars parses name=value pairs. Values that read as integers,
// floats or booleans are stored as such.
func parseVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: want name=value", p)
		}
		vars[name] = parseValue(raw)
	}
	return vars, nil
}

func parseValue(raw string) any {
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
