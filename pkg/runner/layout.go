// Package runner executes compiled layouts: named force and constraint
// functions iterated to convergence. It is the generic counterpart to
// the continuous physics simulator and is usable for anything compiled
// into the Force/Constraint shape.
package runner

import (
	"context"

	"github.com/voxgraph/layout-engine/pkg/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// Force computes a per-node force vector from the node set and the
// current simulation state. Results for unknown node ids are ignored.
type Force func(nodes []*model.Node, st *State) map[string]r3.Vec

// Constraint computes a per-node position correction applied after
// integration. Corrections for fixed or unknown nodes are ignored.
type Constraint func(nodes []*model.Node) map[string]r3.Vec

// NamedForce pairs a force with a name used in fault logging.
type NamedForce struct {
	Name  string
	Apply Force
}

// NamedConstraint pairs a constraint with a name used in fault logging.
type NamedConstraint struct {
	Name  string
	Apply Constraint
}

// RunConfig bounds and tunes one execution.
type RunConfig struct {
	Timestep              float64
	MaxIterations         int
	ConvergenceThreshold  float64 // kinetic energy below this means settled
	CheckConvergenceEvery int
	YieldEvery            int // cooperative suspension cadence, in iterations
	Damping               float64
	MaxSpeed              float64
	Easing                Easing
	// Yield is the cooperative suspension point invoked every YieldEvery
	// iterations after the context has been checked. Defaults to handing
	// the scheduler a chance to run other goroutines.
	Yield func(ctx context.Context)
}

// DefaultRunConfig returns the standard execution bounds.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Timestep:              0.1,
		MaxIterations:         500,
		ConvergenceThreshold:  0.01,
		CheckConvergenceEvery: 10,
		YieldEvery:            10,
		Damping:               0.9,
		MaxSpeed:              2,
		Easing:                EaseCubicInOut,
	}
}

// CompiledLayout is a set of forces and constraints ready for
// iterative execution, as opposed to a one-shot static placement.
type CompiledLayout struct {
	Name        string
	Forces      []NamedForce
	Constraints []NamedConstraint
	Config      RunConfig
}

// State is the kinematic state of one execution. It is created per run
// and discarded with it.
type State struct {
	Velocity     map[string]r3.Vec
	Acceleration map[string]r3.Vec
	Mass         map[string]float64
	Fixed        map[string]bool
	Alpha        float64
	Iteration    int
	AvgForce     float64
}

// TransitionFunc interpolates a node between the captured pre- and
// post-run snapshots. Pure: driven by the caller's own clock, it can be
// replayed any number of times with progress in [0,1].
type TransitionFunc func(n *model.Node, progress float64)

// Result reports one execution.
type Result struct {
	RunID      string
	Converged  bool
	Iterations int
	Moved      int // nodes displaced by more than the reporting threshold
	Initial    map[string]r3.Vec
	Final      map[string]r3.Vec
	Transition TransitionFunc
}
