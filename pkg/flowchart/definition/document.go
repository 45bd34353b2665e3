package definition

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/config"
)

// Document is a flowchart definition.
//
//	name: pick
//	root: start
//	vars:
//	  stroke: 120
//	nodes:
//	  - {id: start, kind: root, label: Start, next: grip}
//	  - {id: grip, kind: action, label: "Grip", duration: 0.8s, next: lift}
//	  - {id: lift, kind: action, label: "Lift ${stroke}mm", duration: 1.2, next: end}
//	  - {id: end, kind: root, label: End}
type Document struct {
	Name  string         `yaml:"name"`
	Root  string         `yaml:"root"`
	Vars  map[string]any `yaml:"vars"`
	Nodes []NodeSpec     `yaml:"nodes"`
}

// NodeSpec describes one node. Which fields apply depends on Kind.
type NodeSpec struct {
	ID    string `yaml:"id"`
	Kind  string `yaml:"kind"`
	Label string `yaml:"label"`

	// Duration applies to actions and opaque subroutines. A number is
	// seconds; a string may also be a Go duration ("1.5s", "250ms").
	Duration Scalar `yaml:"duration"`

	Next Targets `yaml:"next"`

	Yes       string `yaml:"yes"`
	No        string `yaml:"no"`
	YesRejoin string `yaml:"yes_rejoin"`
	NoRejoin  string `yaml:"no_rejoin"`
	// Default is "yes", "no", or a condition over the document variables
	// that selects yes when true.
	Default string `yaml:"default"`

	Body       string `yaml:"body"`
	Iterations Scalar `yaml:"iterations"`

	Branches []string `yaml:"branches"`

	Inline bool `yaml:"inline"`
}

// Scalar holds a raw YAML scalar so numbers and ${var} references can be
// resolved after variables are known. Empty means unset.
type Scalar string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Scalar) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", value.Line)
	}
	if value.Tag == "!!null" {
		*s = ""
		return nil
	}
	*s = Scalar(value.Value)
	return nil
}

// Seconds expands variables in s and parses the result as seconds.
func (s Scalar) Seconds(vars map[string]any) (float64, error) {
	v, err := s.expand(vars)
	if err != nil {
		return 0, fmt.Errorf("duration: %w", err)
	}
	secs, ok := config.ParseSeconds(v)
	switch {
	case !ok:
		return 0, fmt.Errorf("duration %q is not a number of seconds or a duration", v)
	case secs < 0:
		return 0, fmt.Errorf("duration %q is negative", v)
	}
	return secs, nil
}

func (s Scalar) expand(vars map[string]any) (string, error) {
	return valueExpander.Expand(strings.TrimSpace(string(s)), vars)
}

// Target is a next-link with an optional edge label.
type Target struct {
	To    string `yaml:"to"`
	Label string `yaml:"label"`
}

// UnmarshalYAML accepts either a bare node ID or a {to, label} mapping.
func (t *Target) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*t = Target{To: value.Value}
		return nil
	}
	type plain Target
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*t = Target(p)
	return nil
}

// Targets is the next list. A single target may be written without brackets.
type Targets []Target

// UnmarshalYAML implements yaml.Unmarshaler.
func (ts *Targets) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var list []Target
		if err := value.Decode(&list); err != nil {
			return err
		}
		*ts = list
		return nil
	}
	var t Target
	if err := value.Decode(&t); err != nil {
		return err
	}
	*ts = Targets{t}
	return nil
}

// Parse decodes a flowchart document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := decodeStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("parse flowchart: %w", err)
	}
	return &doc, nil
}

// ParseFile reads and decodes a flowchart document.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flowchart: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
