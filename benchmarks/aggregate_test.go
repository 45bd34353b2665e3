package benchmarks

import (
	"context"
	"math"
	"testing"

	"github.com/Chu-son/mechanical-design-lib/pkg/flowchart"
)

// BenchmarkTaktTime_Linear_100 sums a 100-action chain.
func BenchmarkTaktTime_Linear_100(b *testing.B) {
	ctx := context.Background()
	g := buildLinearGraph(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = g.TaktTime(ctx)
	}
}

// BenchmarkTaktTime_NestedRaw_10 aggregates composites without compiling.
func BenchmarkTaktTime_NestedRaw_10(b *testing.B) {
	ctx := context.Background()
	g := buildNestedGraph(10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = g.TaktTime(ctx)
	}
}

// BenchmarkTaktTime_NestedCompiled_10 aggregates the same graph after
// compilation, through marker pairs.
func BenchmarkTaktTime_NestedCompiled_10(b *testing.B) {
	ctx := context.Background()
	g, err := buildNestedGraph(10).Compile(ctx)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = g.TaktTime(ctx)
	}
}

// BenchmarkEstimate_Undated measures collecting undated actions.
func BenchmarkEstimate_Undated(b *testing.B) {
	ctx := context.Background()
	g := flowchart.NewGraph("undated")
	start := g.AddRoot("Start")
	prev := start
	for i := 0; i < 50; i++ {
		prev = g.AddFrom(g.AddAction(nodeLabel(i), nil), prev, "")
	}
	g.SetRoot(start)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = g.Estimate(ctx, start)
	}
}

// TestNestedRawAndCompiledAgree checks the benchmark inputs are valid.
func TestNestedRawAndCompiledAgree(t *testing.T) {
	ctx := context.Background()
	g := buildNestedGraph(4)
	raw, err := g.TaktTime(ctx)
	if err != nil {
		t.Fatal(err)
	}
	compiled, err := g.Compile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	flat, err := compiled.TaktTime(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(raw-flat) > 1e-9 {
		t.Fatalf("raw %v != compiled %v", raw, flat)
	}
}
