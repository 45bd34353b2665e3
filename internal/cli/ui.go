package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Chu-son/mechanical-design-lib/pkg/machine"
)

var (
	colorPrimary = lipgloss.Color("39")
	colorWarn    = lipgloss.Color("214")
	colorFaster  = lipgloss.Color("42")
	colorSlower  = lipgloss.Color("203")
	colorDim     = lipgloss.Color("245")

	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	styleValue  = lipgloss.NewStyle().Bold(true)
	styleWarn   = lipgloss.NewStyle().Foreground(colorWarn)
	styleFaster = lipgloss.NewStyle().Foreground(colorFaster)
	styleSlower = lipgloss.NewStyle().Foreground(colorSlower)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
)

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f s", s)
}

// formatDelta renders the change from prev to cur, green when faster.
func formatDelta(cur, prev float64) string {
	d := cur - prev
	text := fmt.Sprintf("%+.3f s", d)
	switch {
	case d < 0:
		return styleFaster.Render(text)
	case d > 0:
		return styleSlower.Render(text)
	}
	return styleDim.Render(text)
}

func formatUndated(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	return styleWarn.Render("undated: " + strings.Join(labels, ", "))
}

// rowsTable renders machine report rows as a table.
func rowsTable(rows []machine.Row) string {
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{r.Unit, r.Behavior, formatSeconds(r.Seconds), strings.Join(r.Undated, ", ")})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleDim).
		Headers("Unit", "Behavior", "Takt", "Undated").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 2 {
				return styleCell.Align(lipgloss.Right)
			}
			return styleCell
		}).
		String()
}
