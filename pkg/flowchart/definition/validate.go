package definition

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart"
)

// fieldKinds lists the kinds each optional field may appear on.
var fieldKinds = map[string][]flowchart.Kind{
	"duration":   {flowchart.KindAction, flowchart.KindSubroutine},
	"yes":        {flowchart.KindDecision},
	"no":         {flowchart.KindDecision},
	"yes_rejoin": {flowchart.KindDecision},
	"no_rejoin":  {flowchart.KindDecision},
	"default":    {flowchart.KindDecision},
	"body":       {flowchart.KindLoop, flowchart.KindSubroutine},
	"iterations": {flowchart.KindLoop},
	"branches":   {flowchart.KindParallel},
	"inline":     {flowchart.KindSubroutine},
}

// Validate checks the document's structure: unique IDs, known kinds,
// references that resolve, and fields that fit their kind. Values that
// depend on variables are checked by Build. All problems are reported
// together.
func (d *Document) Validate() error {
	var errs []error
	add := func(id, format string, args ...any) {
		errs = append(errs, fmt.Errorf("node %q: %s", id, fmt.Sprintf(format, args...)))
	}

	ids := make(map[string]bool, len(d.Nodes))
	for i, n := range d.Nodes {
		if n.ID == "" {
			errs = append(errs, fmt.Errorf("node #%d: missing id", i+1))
			continue
		}
		if ids[n.ID] {
			errs = append(errs, &flowchart.DuplicateDefinitionError{Kind: "node", Name: n.ID})
			continue
		}
		ids[n.ID] = true
	}

	switch {
	case d.Root == "":
		errs = append(errs, errors.New("missing root"))
	case !ids[d.Root]:
		errs = append(errs, fmt.Errorf("root %q is not a node", d.Root))
	}

	for _, n := range d.Nodes {
		if n.ID == "" {
			continue
		}
		kind, ok := parseKind(n.Kind)
		if !ok {
			add(n.ID, "unknown kind %q", n.Kind)
			continue
		}

		fields := n.fields()
		for _, field := range slices.Sorted(maps.Keys(fields)) {
			if fields[field] && !slices.Contains(fieldKinds[field], kind) {
				add(n.ID, "%s is not allowed on a %s", field, kind)
			}
		}

		refs := map[string][]string{
			"yes":        {n.Yes},
			"no":         {n.No},
			"yes_rejoin": {n.YesRejoin},
			"no_rejoin":  {n.NoRejoin},
			"body":       {n.Body},
			"branches":   n.Branches,
		}
		for _, t := range n.Next {
			refs["next"] = append(refs["next"], t.To)
		}
		for _, field := range slices.Sorted(maps.Keys(refs)) {
			for _, id := range refs[field] {
				switch {
				case id == "" && (field == "branches" || field == "next"):
					add(n.ID, "empty %s entry", field)
				case id != "" && !ids[id]:
					add(n.ID, "%s refers to unknown node %q", field, id)
				}
			}
		}

		switch kind {
		case flowchart.KindDecision:
			if n.Yes == "" || n.No == "" {
				add(n.ID, "decision needs both yes and no")
			}
		case flowchart.KindLoop:
			if n.Body == "" {
				add(n.ID, "loop needs a body")
			}
			if n.Iterations == "" {
				add(n.ID, "loop needs iterations")
			}
		case flowchart.KindParallel:
			if len(n.Branches) == 0 {
				add(n.ID, "parallel needs at least one branch")
			}
		case flowchart.KindSubroutine:
			if n.Body == "" {
				add(n.ID, "subroutine needs a body")
			}
		}
	}

	return errors.Join(errs...)
}

// parseKind accepts the kinds a definition may use. Parallel start and end
// markers only come out of Compile.
func parseKind(s string) (flowchart.Kind, bool) {
	k, ok := flowchart.ParseKind(s)
	if !ok || k == flowchart.KindParallelStart || k == flowchart.KindParallelEnd {
		return 0, false
	}
	return k, true
}

func (n NodeSpec) fields() map[string]bool {
	return map[string]bool{
		"duration":   n.Duration != "",
		"yes":        n.Yes != "",
		"no":         n.No != "",
		"yes_rejoin": n.YesRejoin != "",
		"no_rejoin":  n.NoRejoin != "",
		"default":    n.Default != "",
		"body":       n.Body != "",
		"iterations": n.Iterations != "",
		"branches":   len(n.Branches) > 0,
		"inline":     n.Inline,
	}
}
