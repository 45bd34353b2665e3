package machine

import (
	"errors"
	"fmt"
	"maps"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart"
	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart/definition"
)

// FromDocument builds a machine from its definition. vars override the
// machine's vars, which override each summary flowchart's own. Every
// problem found is returned joined.
func FromDocument(doc *definition.MachineDocument, vars map[string]any) (*Machine, error) {
	merged := make(map[string]any, len(doc.Vars)+len(vars))
	maps.Copy(merged, doc.Vars)
	maps.Copy(merged, vars)

	m := New(doc.Machine)
	var errs []error
	for _, us := range doc.Units {
		u, err := m.AddUnit(us.Name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, bs := range us.Behaviors {
			b, err := u.AddBehavior(bs.Name)
			if err != nil {
				errs = append(errs, fmt.Errorf("unit %q: %w", us.Name, err))
				continue
			}
			for _, ss := range bs.Summaries {
				if err := addSummary(b, ss, merged); err != nil {
					errs = append(errs, fmt.Errorf("%s/%s: %w", us.Name, bs.Name, err))
				}
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func addSummary(b *Behavior, ss definition.SummarySpec, vars map[string]any) error {
	var detail DetailFunc
	if ss.Flowchart != nil {
		detail = func(g *flowchart.Graph) (flowchart.NodeRef, error) {
			fc, err := definition.BuildInto(g, ss.Flowchart, vars)
			if err != nil {
				return flowchart.NoNode, err
			}
			return fc.Root, nil
		}
	}

	ref, err := b.AddSummary(ss.Label, ss.Inline, detail)
	if err != nil {
		return err
	}
	if ss.Duration != "" {
		secs, err := ss.Duration.Seconds(vars)
		if err != nil {
			return fmt.Errorf("summary %q: %w", ss.Label, err)
		}
		b.SetDuration(ref, secs)
	}
	return nil
}
