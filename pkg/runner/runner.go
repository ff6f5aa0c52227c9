package runner

import (
	"context"
	"math"
	"math/rand"
	"runtime"

	"github.com/google/uuid"
	"github.com/voxgraph/layout-engine/pkg/logging"
	"github.com/voxgraph/layout-engine/pkg/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// movedThreshold is the displacement above which a node counts as moved
// in the result.
const movedThreshold = 0.1

// Execute runs a compiled layout against the given nodes until it
// converges, exhausts its iteration budget, or the context is
// cancelled. Exactly one execution may be active against a given node
// set at a time; running two concurrently over overlapping nodes is a
// precondition violation with undefined results.
//
// Every YieldEvery iterations the runner checks the context and then
// suspends cooperatively so an interactive host is never starved.
// Cancellation returns the positions reached so far with
// Converged=false and the context's error.
//
// A force or constraint that panics is logged and skipped for that
// iteration only; the remaining forces still run. Iteration exhaustion
// is not an error: it is reported as a normal non-converged result.
func Execute(ctx context.Context, layout CompiledLayout, nodes []*model.Node) (*Result, error) {
	cfg := normalize(layout.Config)

	st := newState(nodes)
	byID := make(map[string]*model.Node, len(nodes))
	for _, n := range nodes {
		if _, exists := byID[n.ID]; !exists {
			byID[n.ID] = n
		}
		// Nodes fresh from a query land at the origin; scatter them so
		// repulsive forces have a gradient to work with.
		if n.Position == (r3.Vec{}) && !n.Fixed {
			n.Position = r3.Vec{
				X: rand.Float64()*10 - 5,
				Y: rand.Float64()*10 - 5,
				Z: rand.Float64()*10 - 5,
			}
		}
	}

	result := &Result{
		RunID:   uuid.NewString(),
		Initial: snapshot(nodes),
	}
	runCtx := logging.WithRunID(ctx, result.RunID)
	logging.DebugContext(runCtx, "executing compiled layout",
		"layout", layout.Name, "nodes", len(nodes),
		"forces", len(layout.Forces), "constraints", len(layout.Constraints))

	var runErr error
	energies := make([]float64, len(nodes))

loop:
	for it := 1; it <= cfg.MaxIterations; it++ {
		st.Iteration = it
		for id := range st.Acceleration {
			st.Acceleration[id] = r3.Vec{}
		}

		magnitudes := 0.0
		for _, nf := range layout.Forces {
			vectors := guardForce(runCtx, nf, nodes, st)
			for id, f := range vectors {
				mass, known := st.Mass[id]
				if !known {
					continue
				}
				st.Acceleration[id] = r3.Add(st.Acceleration[id], r3.Scale(1/mass, f))
				magnitudes += r3.Norm(f)
			}
		}
		if len(nodes) > 0 {
			st.AvgForce = magnitudes / float64(len(nodes))
		}

		for i, n := range nodes {
			energies[i] = 0
			if n.Fixed {
				continue
			}
			v := r3.Add(st.Velocity[n.ID], r3.Scale(cfg.Timestep*st.Alpha, st.Acceleration[n.ID]))
			v = r3.Scale(cfg.Damping, v)
			if speed := r3.Norm(v); speed > cfg.MaxSpeed {
				v = r3.Scale(cfg.MaxSpeed/speed, v)
			}
			st.Velocity[n.ID] = v
			n.Position = r3.Add(n.Position, r3.Scale(cfg.Timestep, v))
			energies[i] = 0.5 * st.Mass[n.ID] * r3.Norm2(v)
		}

		for _, nc := range layout.Constraints {
			corrections := guardConstraint(runCtx, nc, nodes)
			for id, corr := range corrections {
				n, known := byID[id]
				if !known || n.Fixed {
					continue
				}
				n.Position = r3.Add(n.Position, corr)
			}
		}

		if it%cfg.CheckConvergenceEvery == 0 {
			if floats.Sum(energies) < cfg.ConvergenceThreshold {
				result.Converged = true
				result.Iterations = it
				break loop
			}
		}

		if it%cfg.YieldEvery == 0 {
			if err := ctx.Err(); err != nil {
				logging.InfoContext(runCtx, "layout run cancelled", "iteration", it)
				runErr = err
				result.Iterations = it
				break loop
			}
			if cfg.Yield != nil {
				cfg.Yield(ctx)
			} else {
				runtime.Gosched()
			}
		}

		result.Iterations = it
	}

	result.Final = snapshot(nodes)
	for id, before := range result.Initial {
		if r3.Norm(r3.Sub(result.Final[id], before)) > movedThreshold {
			result.Moved++
		}
	}
	result.Transition = NewTransition(result.Initial, result.Final, cfg.Easing)

	logging.DebugContext(runCtx, "layout run finished",
		"converged", result.Converged, "iterations", result.Iterations, "moved", result.Moved)
	return result, runErr
}

// NewTransition builds a pure interpolation function between two
// position snapshots. Nodes absent from either snapshot are left
// untouched.
func NewTransition(initial, final map[string]r3.Vec, easing Easing) TransitionFunc {
	return func(n *model.Node, progress float64) {
		from, okFrom := initial[n.ID]
		to, okTo := final[n.ID]
		if !okFrom || !okTo || n.Fixed {
			return
		}
		t := easing.At(math.Min(math.Max(progress, 0), 1))
		n.Position = r3.Add(from, r3.Scale(t, r3.Sub(to, from)))
	}
}

func newState(nodes []*model.Node) *State {
	st := &State{
		Velocity:     make(map[string]r3.Vec, len(nodes)),
		Acceleration: make(map[string]r3.Vec, len(nodes)),
		Mass:         make(map[string]float64, len(nodes)),
		Fixed:        make(map[string]bool, len(nodes)),
		Alpha:        1,
	}
	for _, n := range nodes {
		mass := n.Mass
		if mass <= 0 {
			mass = 1
		}
		st.Velocity[n.ID] = r3.Vec{}
		st.Acceleration[n.ID] = r3.Vec{}
		st.Mass[n.ID] = mass
		st.Fixed[n.ID] = n.Fixed
	}
	return st
}

func snapshot(nodes []*model.Node) map[string]r3.Vec {
	snap := make(map[string]r3.Vec, len(nodes))
	for _, n := range nodes {
		snap[n.ID] = n.Position
	}
	return snap
}

// guardForce applies one force, converting a panic into a logged skip
// so a faulty force cannot abort the others in the same iteration.
func guardForce(ctx context.Context, nf NamedForce, nodes []*model.Node, st *State) (vectors map[string]r3.Vec) {
	defer func() {
		if r := recover(); r != nil {
			logging.WarnContext(ctx, "force evaluation failed, skipping for this iteration",
				"force", nf.Name, "iteration", st.Iteration, "error", r)
			vectors = nil
		}
	}()
	return nf.Apply(nodes, st)
}

func guardConstraint(ctx context.Context, nc NamedConstraint, nodes []*model.Node) (corrections map[string]r3.Vec) {
	defer func() {
		if r := recover(); r != nil {
			logging.WarnContext(ctx, "constraint evaluation failed, skipping for this iteration",
				"constraint", nc.Name, "error", r)
			corrections = nil
		}
	}()
	return nc.Apply(nodes)
}

func normalize(cfg RunConfig) RunConfig {
	def := DefaultRunConfig()
	if cfg.Timestep <= 0 {
		cfg.Timestep = def.Timestep
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.ConvergenceThreshold <= 0 {
		cfg.ConvergenceThreshold = def.ConvergenceThreshold
	}
	if cfg.CheckConvergenceEvery <= 0 {
		cfg.CheckConvergenceEvery = def.CheckConvergenceEvery
	}
	if cfg.YieldEvery <= 0 {
		cfg.YieldEvery = def.YieldEvery
	}
	if cfg.Damping <= 0 {
		cfg.Damping = def.Damping
	}
	if cfg.MaxSpeed <= 0 {
		cfg.MaxSpeed = def.MaxSpeed
	}
	return cfg
}
