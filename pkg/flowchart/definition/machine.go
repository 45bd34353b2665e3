package definition

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MachineDocument describes a machine as units of behaviors, each behavior
// a sequence of summary flowcharts.
//
//	machine: sorter
//	vars:
//	  stroke: 120
//	units:
//	  - name: gripper
//	    behaviors:
//	      - name: pick
//	        summaries:
//	          - label: Approach
//	            file: approach.yaml
//	          - label: Grip
//	            flowchart:
//	              root: start
//	              nodes: [...]
type MachineDocument struct {
	Machine string         `yaml:"machine"`
	Vars    map[string]any `yaml:"vars"`
	Units   []UnitSpec     `yaml:"units"`
}

// UnitSpec is one machine unit.
type UnitSpec struct {
	Name      string         `yaml:"name"`
	Behaviors []BehaviorSpec `yaml:"behaviors"`
}

// BehaviorSpec is one behavior of a unit.
type BehaviorSpec struct {
	Name      string        `yaml:"name"`
	Summaries []SummarySpec `yaml:"summaries"`
}

// SummarySpec is one step of a behavior. Its detail flowchart is given
// inline or in a separate file; a summary with neither must carry a
// duration and is treated as a black box.
type SummarySpec struct {
	Label     string    `yaml:"label"`
	Inline    bool      `yaml:"inline"`
	Duration  Scalar    `yaml:"duration"`
	File      string    `yaml:"file"`
	Flowchart *Document `yaml:"flowchart"`
}

// ParseMachine decodes a machine document. File references are left
// unresolved; use ParseMachineFile to load them.
func ParseMachine(data []byte) (*MachineDocument, error) {
	var doc MachineDocument
	if err := decodeStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("parse machine: %w", err)
	}
	return &doc, nil
}

// ParseMachineFile reads a machine document and loads every summary file,
// resolving relative paths against the document's directory.
func ParseMachineFile(path string) (*MachineDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read machine: %w", err)
	}
	doc, err := ParseMachine(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	var errs []error
	for ui := range doc.Units {
		for bi := range doc.Units[ui].Behaviors {
			for si := range doc.Units[ui].Behaviors[bi].Summaries {
				s := &doc.Units[ui].Behaviors[bi].Summaries[si]
				if s.File == "" {
					continue
				}
				if s.Flowchart != nil {
					errs = append(errs, fmt.Errorf("summary %q: both file and flowchart given", s.Label))
					continue
				}
				p := s.File
				if !filepath.IsAbs(p) {
					p = filepath.Join(dir, p)
				}
				fc, err := ParseFile(p)
				if err != nil {
					errs = append(errs, fmt.Errorf("summary %q: %w", s.Label, err))
					continue
				}
				s.Flowchart = fc
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return doc, nil
}
