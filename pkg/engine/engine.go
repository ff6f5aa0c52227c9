// Package engine orchestrates the layout pipeline: intent resolution,
// strategy dispatch, simulation execution and event publishing. It is
// the single entry point consumed by the cmd and web layers.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/voxgraph/layout-engine/pkg/drift"
	"github.com/voxgraph/layout-engine/pkg/intent"
	"github.com/voxgraph/layout-engine/pkg/logging"
	"github.com/voxgraph/layout-engine/pkg/model"
	"github.com/voxgraph/layout-engine/pkg/pubsub"
	"github.com/voxgraph/layout-engine/pkg/runner"
	"github.com/voxgraph/layout-engine/pkg/static"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options configures an engine.
type Options struct {
	// Publisher receives lifecycle events; nil disables publishing.
	Publisher pubsub.Publisher
	// Run overrides the execution bounds for physics directives.
	Run runner.RunConfig
	// Drift tunes the anti-overlap corrector.
	Drift drift.Config
}

// Engine applies layout commands to graph snapshots. A mutex serializes
// runs: only one Apply may be active per engine, because simulations
// mutate node positions in place with no internal locking. The drift
// corrector shares the same mutex, so its frame loop and Apply never
// touch positions concurrently.
type Engine struct {
	mu        sync.Mutex
	publisher pubsub.Publisher
	runCfg    runner.RunConfig
	drifter   *drift.Corrector
}

// Result is what the renderer needs: a full position map, an optional
// transition function to animate toward it, and the simulation report
// when a physics run produced it.
type Result struct {
	Directive  intent.Directive
	Positions  map[string]r3.Vec
	Transition runner.TransitionFunc
	Run        *runner.Result // nil for static placements
}

// New creates an engine.
func New(opts Options) *Engine {
	e := &Engine{
		publisher: opts.Publisher,
		runCfg:    opts.Run,
		drifter:   drift.New(opts.Drift),
	}
	e.drifter.OnStabilized(func() {
		if e.publisher == nil {
			return
		}
		_ = e.publisher.Publish(pubsub.TopicLayoutStatus, "drift_stabilized", pubsub.LayoutStatus{
			State: "drift_stabilized",
		})
	})
	return e
}

// StartDriftLoop drives the drift corrector at the given interval until
// ctx is cancelled. Each tick takes the engine mutex, so correction
// frames interleave with Apply calls instead of racing them.
func (e *Engine) StartDriftLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.mu.Lock()
				e.drifter.Update()
				e.mu.Unlock()
			}
		}
	}()
}

// DriftStats returns a snapshot of the drift corrector state.
func (e *Engine) DriftStats() drift.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drifter.Stats()
}

// Apply resolves the command against the snapshot's schema and runs the
// selected strategy. Static strategies return immediately with a
// position map and an eased transition from the current positions;
// the physics strategy executes a compiled force set through the
// simulation runner, honoring ctx cancellation at every yield point.
//
// Node positions in the snapshot are updated in place. The returned
// map always covers every input node id.
func (e *Engine) Apply(ctx context.Context, g *model.Graph, schema *model.Schema, command string) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if schema == nil {
		schema = g.DeriveSchema()
	}

	d := intent.Resolve(command, schema)
	logging.Info("layout directive resolved",
		"strategy", d.Strategy, "source", d.SourceType, "target", d.TargetType,
		"relationship", d.Relationship)
	e.publishStatus("resolving", d, "")

	if d.Strategy == intent.StrategyPhysics {
		return e.applyPhysics(ctx, g, d)
	}
	return e.applyStatic(g, d)
}

func (e *Engine) applyStatic(g *model.Graph, d intent.Directive) (*Result, error) {
	e.publishStatus("placing", d, "")

	before := g.PositionSnapshot()
	positions := static.Place(g.Nodes, g.Edges, d)
	for _, n := range g.Nodes {
		if n.Fixed {
			positions[n.ID] = n.Position
			continue
		}
		n.Position = positions[n.ID]
	}

	res := &Result{
		Directive:  d,
		Positions:  positions,
		Transition: runner.NewTransition(before, positions, runner.EaseCubicInOut),
	}
	e.drifter.SetNodes(g.Nodes)
	e.publishPositions("", positions, true)
	e.publishStatus("done", d, "")
	return res, nil
}

func (e *Engine) applyPhysics(ctx context.Context, g *model.Graph, d intent.Directive) (*Result, error) {
	e.publishStatus("simulating", d, "")

	layout := e.compile(g, d)
	run, err := runner.Execute(ctx, layout, g.Nodes)

	res := &Result{
		Directive:  d,
		Positions:  run.Final,
		Transition: run.Transition,
		Run:        run,
	}
	e.drifter.SetNodes(g.Nodes)
	e.publishPositions(run.RunID, run.Final, run.Converged)
	if err != nil {
		e.publishStatus("error", d, err.Error())
		return res, err
	}
	e.publishStatus("done", d, "")
	return res, nil
}

// compile assembles the standard force set for a physics directive:
// springs along the snapshot's edges, pairwise charge repulsion, and a
// weak centering pull, scaled by the directive's strength.
func (e *Engine) compile(g *model.Graph, d intent.Directive) runner.CompiledLayout {
	edges := g.Edges
	if d.Relationship != "" {
		edges = nil
		for _, edge := range g.Edges {
			if edge.Type == d.Relationship {
				edges = append(edges, edge)
			}
		}
	}

	strength := d.Strength
	if strength <= 0 {
		strength = 1
	}
	restLength := d.Separation
	if restLength <= 0 {
		restLength = 5
	}

	cfg := e.runCfg
	return runner.CompiledLayout{
		Name: "physics",
		Forces: []runner.NamedForce{
			runner.Spring(edges, 0.1*strength, restLength),
			runner.Charge(50*strength, 10),
			runner.Centering(0.01),
		},
		Config: cfg,
	}
}

func (e *Engine) publishStatus(state string, d intent.Directive, message string) {
	if e.publisher == nil {
		return
	}
	_ = e.publisher.Publish(pubsub.TopicLayoutStatus, state, pubsub.LayoutStatus{
		State:    state,
		Strategy: string(d.Strategy),
		Message:  message,
	})
}

func (e *Engine) publishPositions(runID string, positions map[string]r3.Vec, converged bool) {
	if e.publisher == nil {
		return
	}
	frame := pubsub.PositionFrame{
		RunID:     runID,
		Positions: make(map[string][3]float64, len(positions)),
		Converged: converged,
	}
	for id, p := range positions {
		frame.Positions[id] = [3]float64{p.X, p.Y, p.Z}
	}
	_ = e.publisher.Publish(pubsub.TopicPositions, "frame", frame)
}
