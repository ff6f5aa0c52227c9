package output

import (
	"fmt"
	"math"

	"github.com/fatih/color"
	"github.com/voxgraph/layout-engine/pkg/engine"
	"gonum.org/v1/gonum/spatial/r3"
)

// PrintLayoutReport prints a formatted summary of an engine result.
func PrintLayoutReport(command string, nodeCount, edgeCount int, res *engine.Result) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("Layout Engine - Run Report")
	bold.Println("==========================")
	if command != "" {
		fmt.Printf("Command: %q\n", command)
	}
	fmt.Printf("Graph: %d nodes, %d edges\n", nodeCount, edgeCount)

	cyan.Printf("Strategy: %s\n", res.Directive.Strategy)
	if res.Directive.HasPair() {
		fmt.Printf("  Pair: %s -> %s\n", res.Directive.SourceType, res.Directive.TargetType)
	}
	if res.Directive.Relationship != "" {
		fmt.Printf("  Relationship: %s\n", res.Directive.Relationship)
	}

	if res.Run != nil {
		if res.Run.Converged {
			green.Printf("Converged after %d iterations\n", res.Run.Iterations)
		} else {
			yellow.Printf("Not converged after %d iterations\n", res.Run.Iterations)
		}
		fmt.Printf("Moved nodes: %d\n", res.Run.Moved)
		fmt.Printf("Run ID: %s\n", res.Run.RunID)
	}

	min, max := boundingBox(res)
	fmt.Printf("Bounds: [%.1f %.1f %.1f] .. [%.1f %.1f %.1f]\n",
		min.X, min.Y, min.Z, max.X, max.Y, max.Z)
}

func boundingBox(res *engine.Result) (r3.Vec, r3.Vec) {
	min := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	if len(res.Positions) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	for _, p := range res.Positions {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		min.Z = math.Min(min.Z, p.Z)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
		max.Z = math.Max(max.Z, p.Z)
	}
	return min, max
}
