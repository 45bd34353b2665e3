package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart"
	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/report"
)

type taktOpts struct {
	from  string
	watch bool
}

func (c *CLI) taktCommand() *cobra.Command {
	var opts taktOpts

	cmd := &cobra.Command{
		Use:   "takt FILE",
		Short: "Estimate a flowchart's takt time",
		Long: `Takt compiles a flowchart and sums its action durations. A loop counts
its body once per iteration and a parallel block counts its slowest branch.
Decisions follow their default branch.

With --store (or report.store) each result is saved and compared with the
previous one for the same flowchart. With --watch the estimate is repeated
whenever FILE changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withTelemetry(func() error {
				if opts.watch {
					return c.watchTakt(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
				}
				return c.runTakt(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "estimate from this node ID instead of the root")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-estimate when the file changes")
	return cmd
}

func (c *CLI) runTakt(ctx context.Context, w io.Writer, path string, opts taktOpts) error {
	fc, logger, err := c.loadFlowchart(path)
	if err != nil {
		return err
	}
	flowOpts := c.options(logger)

	compiled, err := fc.Graph.Compile(ctx, flowOpts...)
	if err != nil {
		return err
	}
	root := compiled.Root()
	if opts.from != "" {
		root = fc.Ref(opts.from)
		if root == flowchart.NoNode {
			return fmt.Errorf("--from: unknown node %q", opts.from)
		}
		if !compiled.Has(root) {
			return fmt.Errorf("--from: node %q is expanded by compile; pick a primitive node", opts.from)
		}
	}

	est, err := compiled.Estimate(ctx, root, flowOpts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s  %s\n", styleTitle.Render(fc.Graph.Name()), styleValue.Render(formatSeconds(est.Seconds)))
	if u := formatUndated(est.Undated); u != "" {
		fmt.Fprintf(w, "  %s\n", u)
	}

	r := &report.Report{
		Behavior: fc.Graph.Name(),
		Seconds:  est.Seconds,
		Nodes:    compiled.Len(),
		Undated:  est.Undated,
	}
	return c.saveReport(ctx, w, r)
}

// saveReport stores r when a store is configured and prints the change
// since the previous report.
func (c *CLI) saveReport(ctx context.Context, w io.Writer, r *report.Report) (err error) {
	store, err := c.openStore()
	if err != nil || store == nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	if err := store.Save(ctx, r); err != nil {
		return err
	}
	prev, ok, err := report.Previous(ctx, store, *r)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(w, "  %s %s  %s\n", styleDim.Render("previous"), formatSeconds(prev.Seconds), formatDelta(r.Seconds, prev.Seconds))
	}
	c.Logger.Debug("saved report", "id", r.ID, "store", c.settings.StorePath)
	return nil
}

// watchTakt estimates once and again on every change to path until ctx
// is cancelled. Estimate errors are logged, not returned.
func (c *CLI) watchTakt(ctx context.Context, w io.Writer, path string, opts taktOpts) error {
	fw, err := newFileWatcher(c.Logger, path)
	if err != nil {
		return err
	}

	estimate := func() {
		if err := c.runTakt(ctx, w, path, opts); err != nil {
			c.Logger.Error("takt failed", "file", path, "err", err)
		}
	}
	estimate()
	c.Logger.Info("Watching " + path)

	err = fw.Run(ctx, func(string) { estimate() })
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
