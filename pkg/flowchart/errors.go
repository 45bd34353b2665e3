package flowchart

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph construction, compilation and aggregation.
var (
	// ErrStructural indicates a composite's sub-graph has no unique terminal
	// node, or a link invariant was found broken.
	ErrStructural = errors.New("structural error")

	// ErrConfiguration indicates a composite node is missing required
	// settings (branches, body, iteration count, rejoin target).
	ErrConfiguration = errors.New("configuration error")

	// ErrDuplicateDefinition indicates a name was registered twice.
	ErrDuplicateDefinition = errors.New("duplicate definition")

	// ErrMissingDuration indicates a duration was required but not available.
	ErrMissingDuration = errors.New("missing duration")

	// ErrNoRoot indicates SetRoot() was not called before Compile, Render or TaktTime.
	ErrNoRoot = errors.New("root element is not set")

	// ErrNodeNotFound indicates a handle does not refer to a live node.
	ErrNodeNotFound = errors.New("node not found")
)

// StructuralError reports a sub-graph that cannot be spliced.
type StructuralError struct {
	// NodeID is the node whose expansion failed.
	NodeID string
	// Label is the display label of that node.
	Label string
	// Reason describes what was wrong.
	Reason string
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error at %q (%s): %s", e.Label, e.NodeID, e.Reason)
}

// Unwrap returns ErrStructural for errors.Is support.
func (e *StructuralError) Unwrap() error {
	return ErrStructural
}

// ConfigurationError reports a composite node that is incompletely configured.
type ConfigurationError struct {
	NodeID string
	Label  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error at %q (%s): %s", e.Label, e.NodeID, e.Reason)
}

// Unwrap returns ErrConfiguration for errors.Is support.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// DuplicateDefinitionError reports a name registered twice in a registry.
type DuplicateDefinitionError struct {
	// Kind is what was being registered ("unit", "behavior", "node").
	Kind string
	// Name is the duplicated name.
	Name string
}

// Error implements the error interface.
func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("%s %q is already defined", e.Kind, e.Name)
}

// Unwrap returns ErrDuplicateDefinition for errors.Is support.
func (e *DuplicateDefinitionError) Unwrap() error {
	return ErrDuplicateDefinition
}

// MissingDurationError reports an opaque subroutine, or an undated action in
// strict mode, reached during aggregation.
type MissingDurationError struct {
	NodeID string
	Label  string
	Kind   Kind
}

// Error implements the error interface.
func (e *MissingDurationError) Error() string {
	return fmt.Sprintf("%s %q (%s) has no duration", e.Kind, e.Label, e.NodeID)
}

// Unwrap returns ErrMissingDuration for errors.Is support.
func (e *MissingDurationError) Unwrap() error {
	return ErrMissingDuration
}

func structuralErr(n *node, format string, args ...any) error {
	return &StructuralError{NodeID: n.id, Label: n.label, Reason: fmt.Sprintf(format, args...)}
}

func configErr(n *node, format string, args ...any) error {
	return &ConfigurationError{NodeID: n.id, Label: n.label, Reason: fmt.Sprintf(format, args...)}
}
