/*
Package flowchart models machine behaviors as flowcharts and estimates
their takt time.

# Overview

A Graph is an arena of nodes linked by labeled next-links, each mirrored
by a back-link on the target. Nodes are primitive (actions, connectors,
start/end terminals, inputs, loop and parallel markers) or composite
(loops, parallel blocks, decisions, inline subroutines). Composites hold
their bodies as separate sub-graphs that are not linked into the main flow.

The package provides three passes over a graph:
  - Compile flattens composites into primitive nodes
  - Estimate, AggregateDuration and TaktTime total the action durations
  - Render emits the graph to a Renderer for drawing

# Basic Usage

	g := flowchart.NewGraph("pick and place")
	start := g.AddRoot("Start")
	end := g.AddRoot("End")

	grip := g.AddAction("Grip", flowchart.Seconds(0.5))
	move := g.AddFrom(g.AddAction("Move", flowchart.Seconds(1)), grip, "")
	loop := g.AddLoop("Repeat", grip, 3)
	_ = move

	g.AddNext(start, loop, "")
	g.AddNext(loop, end, "")
	g.SetRoot(start)

	takt, err := g.TaktTime(ctx) // 4.5

# Compiling

Compile never modifies its receiver. It returns a new Graph in which every
loop became a LoopStart/LoopEnd pair, every parallel block a
ParallelStart/ParallelEnd pair, every decision links to its branches
directly, and every inline subroutine sits between two connectors:

	compiled, err := g.Compile(ctx)
	if err != nil {
	    var se *flowchart.StructuralError
	    if errors.As(err, &se) {
	        // a body has several dead ends and cannot be spliced
	    }
	}

Aggregating the compiled graph gives the same result as the raw one.

# Decisions

A decision reports the duration of one branch, BranchYes unless
SetDefaultBranch says otherwise. Both branches rejoin at the decision's
single next element unless SetRejoin gives explicit targets.

# Subroutines

An inline subroutine is expanded by Compile and aggregates as its body.
An opaque subroutine is a black box: its duration comes from SetDuration
or from WithSubroutineDuration, matched by node ID or label.

# Observability

Compile and Estimate accept options for structured logging, OpenTelemetry
metrics and tracing:

	compiled, err := g.Compile(ctx,
	    flowchart.WithLogger(logger),
	    flowchart.WithMetrics(true),
	    flowchart.WithTracing(true),
	)

# Thread Safety

Every single mutation updates both sides of a link under the graph lock.
Building a graph from several goroutines at once is not supported. A
compiled graph is a fresh value and can be read concurrently.
*/
package flowchart
