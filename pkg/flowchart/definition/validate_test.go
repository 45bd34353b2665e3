package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart"
)

func TestValidate_Valid(t *testing.T) {
	doc, err := ParseFile("testdata/loop.yaml")
	require.NoError(t, err)
	assert.NoError(t, doc.Validate())
}

func TestValidate_ReportsEverything(t *testing.T) {
	doc, err := Parse([]byte(`
root: nowhere
nodes:
  - {id: a, kind: action, next: ghost}
  - {id: a, kind: action}
  - {kind: action}
  - {id: d, kind: decision, yes: a}
  - {id: l, kind: loop, duration: 2}
  - {id: p, kind: parallel}
  - {id: q, kind: parallel, branches: [a, ""]}
  - {id: c, kind: connector, next: [{to: ""}]}
  - {id: s, kind: subroutine}
  - {id: x, kind: robot}
  - {id: m, kind: parallel_start}
`))
	require.NoError(t, err)

	err = doc.Validate()
	require.Error(t, err)

	for _, want := range []string{
		`root "nowhere" is not a node`,
		`node "a": next refers to unknown node "ghost"`,
		`node "a" is already defined`,
		`node #3: missing id`,
		`node "d": decision needs both yes and no`,
		`node "l": duration is not allowed on a loop`,
		`node "l": loop needs a body`,
		`node "l": loop needs iterations`,
		`node "p": parallel needs at least one branch`,
		`node "q": empty branches entry`,
		`node "c": empty next entry`,
		`node "s": subroutine needs a body`,
		`node "x": unknown kind "robot"`,
		`node "m": unknown kind "parallel_start"`,
	} {
		assert.ErrorContains(t, err, want)
	}

	var dup *flowchart.DuplicateDefinitionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Name)
	assert.ErrorIs(t, err, flowchart.ErrDuplicateDefinition)
}

func TestValidate_MissingRoot(t *testing.T) {
	doc := &Document{Nodes: []NodeSpec{{ID: "a", Kind: "action"}}}
	assert.ErrorContains(t, doc.Validate(), "missing root")
}
