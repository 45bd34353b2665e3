package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/dot"
)

func (c *CLI) compileCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Expand a flowchart's composites into a flat graph",
		Long: `Compile expands loops, parallel blocks, decisions and inline subroutines
into primitive nodes and marker pairs. The result is printed as DOT, or
written to --output in the format given by its extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withTelemetry(func() error {
				return c.runCompile(cmd.Context(), cmd.OutOrStdout(), args[0], output)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the compiled graph to FILE (.dot, .svg, .png)")
	return cmd
}

func (c *CLI) runCompile(ctx context.Context, w io.Writer, path, output string) error {
	fc, logger, err := c.loadFlowchart(path)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	compiled, err := fc.Graph.Compile(ctx, c.options(logger)...)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Compiled %s: %d nodes to %d", fc.Graph.Name(), fc.Graph.Len(), compiled.Len()))

	if output != "" {
		if err := dot.Write(ctx, output, compiled); err != nil {
			return err
		}
		c.Logger.Info("Wrote " + output)
		return nil
	}
	text, err := dot.FromGraph(compiled)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}
