// Package machine models a machine as units, each with named behaviors,
// and estimates the takt time of every behavior.
//
// A behavior is a sequence of summaries. Each summary is a subroutine
// whose body is a detail flowchart of timed actions; the behavior chains
// them Start -> s1 -> ... -> End in one graph:
//
//	m := machine.New("sorter")
//	gripper, _ := m.AddUnit("gripper")
//	pick, _ := gripper.AddBehavior("pick")
//	pick.AddSummary("Approach", true, func(g *flowchart.Graph) (flowchart.NodeRef, error) {
//		start := g.AddRoot("Start")
//		move := g.AddAction("Move", flowchart.Seconds(1.2))
//		end := g.AddRoot("End")
//		g.AddNext(start, move, "")
//		g.AddNext(move, end, "")
//		return start, nil
//	})
//
//	rows, err := m.Report(ctx)
package machine

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart"
	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/registry"
)

// Machine is a named set of units.
type Machine struct {
	name  string
	units *registry.Registry[string, *Unit]
}

// New creates an empty machine.
func New(name string) *Machine {
	return &Machine{name: name, units: registry.New[string, *Unit]()}
}

// Name returns the machine name.
func (m *Machine) Name() string {
	return m.name
}

// AddUnit adds a unit. A name already in use is a
// *flowchart.DuplicateDefinitionError.
func (m *Machine) AddUnit(name string) (*Unit, error) {
	u := &Unit{name: name, behaviors: registry.New[string, *Behavior]()}
	if err := register(m.units, "unit", name, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Unit returns the unit with the given name.
func (m *Machine) Unit(name string) (*Unit, bool) {
	return m.units.Get(name)
}

// Units returns the units in the order they were added.
func (m *Machine) Units() []*Unit {
	out := make([]*Unit, 0, m.units.Len())
	m.units.Range(func(_ string, u *Unit) bool {
		out = append(out, u)
		return true
	})
	return out
}

// Report estimates every behavior of every unit. Rows are sorted by unit
// and then behavior name. Errors from individual behaviors are joined and
// returned with the rows that did succeed.
func (m *Machine) Report(ctx context.Context, opts ...flowchart.Option) ([]Row, error) {
	var rows []Row
	var errs []error
	for _, u := range m.Units() {
		r, err := u.Report(ctx, opts...)
		rows = append(rows, r...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	sortRows(rows)
	return rows, errors.Join(errs...)
}

// Unit is a named set of behaviors.
type Unit struct {
	name      string
	behaviors *registry.Registry[string, *Behavior]
}

// Name returns the unit name.
func (u *Unit) Name() string {
	return u.name
}

// AddBehavior adds an empty behavior. A name already in use is a
// *flowchart.DuplicateDefinitionError.
func (u *Unit) AddBehavior(name string) (*Behavior, error) {
	b := newBehavior(u.name, name)
	if err := register(u.behaviors, "behavior", name, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Behavior returns the behavior with the given name.
func (u *Unit) Behavior(name string) (*Behavior, bool) {
	return u.behaviors.Get(name)
}

// Behaviors returns the behaviors in the order they were added.
func (u *Unit) Behaviors() []*Behavior {
	out := make([]*Behavior, 0, u.behaviors.Len())
	u.behaviors.Range(func(_ string, b *Behavior) bool {
		out = append(out, b)
		return true
	})
	return out
}

// Report estimates every behavior of the unit, sorted by behavior name.
func (u *Unit) Report(ctx context.Context, opts ...flowchart.Option) ([]Row, error) {
	var rows []Row
	var errs []error
	for _, b := range u.Behaviors() {
		est, err := b.TaktTime(ctx, opts...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rows = append(rows, Row{
			Unit:     u.name,
			Behavior: b.name,
			Seconds:  est.Seconds,
			Undated:  est.Undated,
		})
	}
	sortRows(rows)
	return rows, errors.Join(errs...)
}

// Row is one line of a takt-time report.
type Row struct {
	Unit     string
	Behavior string
	Seconds  float64
	// Undated lists actions counted as zero for lack of a duration.
	Undated []string
}

func sortRows(rows []Row) {
	slices.SortFunc(rows, func(a, b Row) int {
		return cmp.Or(cmp.Compare(a.Unit, b.Unit), cmp.Compare(a.Behavior, b.Behavior))
	})
}

func register[V any](r *registry.Registry[string, V], kind, name string, v V) error {
	if err := r.Register(name, v); err != nil {
		return &flowchart.DuplicateDefinitionError{Kind: kind, Name: name}
	}
	return nil
}
