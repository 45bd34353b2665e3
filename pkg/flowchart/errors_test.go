package flowchart

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuralError_Error(t *testing.T) {
	err := &StructuralError{NodeID: "n1", Label: "Repeat", Reason: "2 dead ends"}
	assert.Equal(t, `structural error at "Repeat" (n1): 2 dead ends`, err.Error())
	assert.ErrorIs(t, err, ErrStructural)
}

func TestConfigurationError_Error(t *testing.T) {
	err := &ConfigurationError{NodeID: "n2", Label: "Both", Reason: "parallel block has no branches"}
	assert.Equal(t, `configuration error at "Both" (n2): parallel block has no branches`, err.Error())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestDuplicateDefinitionError_Error(t *testing.T) {
	err := &DuplicateDefinitionError{Kind: "unit", Name: "gripper"}
	assert.Equal(t, `unit "gripper" is already defined`, err.Error())
	assert.ErrorIs(t, err, ErrDuplicateDefinition)
}

func TestMissingDurationError_Error(t *testing.T) {
	err := &MissingDurationError{NodeID: "n3", Label: "Home", Kind: KindSubroutine}
	assert.Equal(t, `subroutine "Home" (n3) has no duration`, err.Error())
	assert.ErrorIs(t, err, ErrMissingDuration)
}

func TestErrors_AsThroughWrapping(t *testing.T) {
	g := NewGraph("errs")
	a := g.AddAction("A", nil)
	inner := configErr(g.nodes[a], "iteration count must be positive, got %d", 0)
	wrapped := fmt.Errorf("gripper/pick: %w", errors.Join(errors.New("other"), inner))

	var ce *ConfigurationError
	require.ErrorAs(t, wrapped, &ce)
	assert.Equal(t, g.ID(a), ce.NodeID)
	assert.Equal(t, "A", ce.Label)
	assert.Equal(t, "iteration count must be positive, got 0", ce.Reason)
	assert.NotErrorIs(t, wrapped, ErrStructural)
}
