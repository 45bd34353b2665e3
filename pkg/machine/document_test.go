package machine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart"
	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/definition"
)

func loadSorter(t *testing.T, vars map[string]any) *Machine {
	t.Helper()
	doc, err := definition.ParseMachineFile("testdata/sorter.yaml")
	require.NoError(t, err)
	m, err := FromDocument(doc, vars)
	require.NoError(t, err)
	return m
}

func TestFromDocument(t *testing.T) {
	m := loadSorter(t, nil)
	assert.Equal(t, "sorter", m.Name())
	require.Len(t, m.Units(), 2)

	rows, err := m.Report(context.Background(), flowchart.WithSubroutineDuration("Index", 0.8))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "conveyor", rows[0].Unit)
	assert.InDelta(t, 0.8, rows[0].Seconds, 1e-9)

	// Approach 1.2 + grip 0.3, Lift 0.5, Home 1.0
	assert.Equal(t, "pick", rows[1].Behavior)
	assert.InDelta(t, 3.0, rows[1].Seconds, 1e-9)

	assert.Equal(t, "place", rows[2].Behavior)
	assert.InDelta(t, 0.4, rows[2].Seconds, 1e-9)
}

func TestFromDocument_VarsSelectBranch(t *testing.T) {
	m := loadSorter(t, map[string]any{"feeder": "empty"})
	u, _ := m.Unit("gripper")
	pick, _ := u.Behavior("pick")

	est, err := pick.TaktTime(context.Background())
	require.NoError(t, err)
	// waits 2.0 for the feeder instead of gripping for 0.3
	assert.InDelta(t, 4.7, est.Seconds, 1e-9)
}

func TestFromDocument_InlineLabelsExpanded(t *testing.T) {
	m := loadSorter(t, nil)
	u, _ := m.Unit("gripper")
	pick, _ := u.Behavior("pick")

	compiled, err := pick.Compile(context.Background())
	require.NoError(t, err)
	var labels []string
	for _, ref := range compiled.Nodes() {
		labels = append(labels, compiled.Label(ref))
	}
	assert.Contains(t, labels, "Lift 80mm")
	assert.Contains(t, labels, "Approach", "inline summaries leave labeled connectors")
}

func TestFromDocument_Errors(t *testing.T) {
	doc, err := definition.ParseMachine([]byte(`
machine: m
units:
  - name: u
    behaviors:
      - name: b
        summaries:
          - {label: Bad, duration: soon}
          - label: Broken
            inline: true
            flowchart: {root: nowhere}
      - name: b
  - name: u
`))
	require.NoError(t, err)

	_, err = FromDocument(doc, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, `u/b: summary "Bad": duration "soon"`)
	assert.ErrorContains(t, err, `root "nowhere" is not a node`)
	assert.ErrorContains(t, err, `unit "u": behavior "b" is already defined`)
	assert.ErrorContains(t, err, `unit "u" is already defined`)
}
