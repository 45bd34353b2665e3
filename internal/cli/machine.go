package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/definition"
	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/report"
	"github.com/Chu-son/mechanical-design-lib/pkg/machine"
)

func (c *CLI) machineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "machine FILE",
		Short: "Report the takt time of every behavior of a machine",
		Long: `Machine loads a machine definition (units, behaviors and their summary
steps), estimates every behavior and prints a table sorted by unit and
behavior. Behaviors that fail are reported after the table; the others are
still shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withTelemetry(func() error {
				return c.runMachine(cmd.Context(), cmd.OutOrStdout(), args[0])
			})
		},
	}
}

func (c *CLI) runMachine(ctx context.Context, w io.Writer, path string) error {
	doc, err := definition.ParseMachineFile(path)
	if err != nil {
		return err
	}
	m, err := machine.FromDocument(doc, c.settings.Vars)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	rows, reportErr := m.Report(ctx, c.options(c.slogger().With("machine", m.Name()))...)
	prog.done(fmt.Sprintf("Estimated %d behaviors of %s", len(rows), m.Name()))

	fmt.Fprintln(w, styleTitle.Render(m.Name()))
	fmt.Fprintln(w, rowsTable(rows))

	if err := c.saveRows(ctx, m.Name(), rows); err != nil {
		return errors.Join(reportErr, err)
	}
	return reportErr
}

func (c *CLI) saveRows(ctx context.Context, name string, rows []machine.Row) (err error) {
	store, err := c.openStore()
	if err != nil || store == nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	for _, row := range rows {
		r := &report.Report{
			Machine:  name,
			Unit:     row.Unit,
			Behavior: row.Behavior,
			Seconds:  row.Seconds,
			Undated:  row.Undated,
		}
		if err := store.Save(ctx, r); err != nil {
			return err
		}
	}
	c.Logger.Debug("saved reports", "count", len(rows), "store", c.settings.StorePath)
	return nil
}
