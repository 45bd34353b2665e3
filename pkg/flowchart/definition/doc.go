/*
Package definition loads flowcharts and machines from YAML documents.

# Flowcharts

A flowchart document lists nodes by ID. Links and composite payloads
refer to other nodes by those IDs:

	name: pick
	root: start
	vars:
	  cycles: 3
	nodes:
	  - {id: start, kind: root, label: Start, next: rep}
	  - {id: rep, kind: loop, label: "Repeat ${cycles}x", body: step, iterations: "${cycles}", next: end}
	  - {id: step, kind: action, label: Step, duration: 1.5s}
	  - {id: end, kind: root, label: End}

Kinds are the flowchart kind names: action, decision, loop, parallel,
subroutine, connector, root, input, loop_start, loop_end.

[Build] validates the document and returns the graph together with the
handle of each node:

	doc, err := definition.ParseFile("pick.yaml")
	fc, err := definition.Build(doc, map[string]any{"cycles": 5})
	est, err := fc.Graph.Estimate(ctx, fc.Graph.Root())

# Variables

Labels may reference variables as ${name}; unknown names are left as
written. Durations, iteration counts and decision defaults are expanded
the same way, but an unknown name there is an error. Variables passed to
Build override the document's vars.

A decision's default may be a condition:

	default: "gripper == 'vacuum' and payload < 2"

which selects the yes branch when it holds.

# Errors

Validation reports every problem at once, joined with errors.Join.
Duplicate node IDs are a [flowchart.DuplicateDefinitionError].

# Machines

[MachineDocument] groups summary flowcharts into units and behaviors.
Package machine turns it into a model with per-behavior takt times.
*/
package definition
