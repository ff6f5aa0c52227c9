// Package physics implements the continuous spring/repulsion
// simulation. The simulator is the lowest-level physics primitive: it
// knows nothing about node types or command text, only positions,
// forces and its own run lifecycle.
package physics

import (
	"math"

	"github.com/voxgraph/layout-engine/pkg/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// State is the simulator lifecycle: idle until the first update,
// running while alpha is above the floor, stable afterwards. A stable
// simulator ignores updates until it is re-armed.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStable
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStable:
		return "stable"
	}
	return "unknown"
}

// Bounds are optional axis-aligned position limits. Nodes crossing a
// limit are reflected with half their velocity.
type Bounds struct {
	Min, Max r3.Vec
}

// Config holds the simulation parameters.
type Config struct {
	SpringStrength  float64 // per-edge spring constant
	RestLength      float64 // spring rest length
	ChargeStrength  float64 // all-pairs repulsion numerator
	MaxForce        float64 // repulsion clamp
	Damping         float64 // velocity multiplier per iteration
	MaxSpeed        float64 // velocity magnitude clamp
	InnerIterations int     // iterations per Update call
	AlphaDecay      float64 // multiplicative cooling per iteration
	AlphaMin        float64 // stability floor
	ReheatAlpha     float64 // alpha after re-arming a stable simulator
	Bounds          *Bounds // optional boundary reflection
}

// DefaultConfig returns parameters tuned for graphs up to the low
// thousands of nodes. The all-pairs repulsion is O(n²) per iteration;
// that ceiling is a documented performance limit of this simulator.
func DefaultConfig() Config {
	return Config{
		SpringStrength:  0.1,
		RestLength:      5,
		ChargeStrength:  50,
		MaxForce:        10,
		Damping:         0.9,
		MaxSpeed:        2,
		InnerIterations: 3,
		AlphaDecay:      0.999,
		AlphaMin:        0.001,
		ReheatAlpha:     0.3,
	}
}

// Stats is a read-only view of the simulator state, exposed for
// callers and tests.
type Stats struct {
	Alpha      float64
	Iterations int
	AvgForce   float64
	Running    bool
	Stable     bool
}

type kinematics struct {
	velocity r3.Vec
	force    r3.Vec
	mass     float64
}

// Simulator runs the spring/repulsion physics over a graph snapshot.
// It is driven once per rendered frame by the host and never schedules
// itself; skipping calls is safe.
type Simulator struct {
	cfg   Config
	nodes []*model.Node
	edges []*model.Edge
	byID  map[string]*model.Node
	kin   map[string]*kinematics

	state      State
	alpha      float64
	iterations int
	avgForce   float64
}

// New creates a simulator with the given config. Zero or out-of-range
// values for Damping, MaxSpeed, InnerIterations, AlphaDecay, AlphaMin,
// ReheatAlpha and MaxForce are replaced with defaults. SpringStrength,
// RestLength and ChargeStrength are taken as given, so a zero
// ChargeStrength disables repulsion entirely.
func New(cfg Config) *Simulator {
	def := DefaultConfig()
	if cfg.Damping <= 0 {
		cfg.Damping = def.Damping
	}
	if cfg.MaxSpeed <= 0 {
		cfg.MaxSpeed = def.MaxSpeed
	}
	if cfg.InnerIterations <= 0 {
		cfg.InnerIterations = def.InnerIterations
	}
	if cfg.AlphaDecay <= 0 || cfg.AlphaDecay >= 1 {
		cfg.AlphaDecay = def.AlphaDecay
	}
	if cfg.AlphaMin <= 0 {
		cfg.AlphaMin = def.AlphaMin
	}
	if cfg.ReheatAlpha <= 0 {
		cfg.ReheatAlpha = def.ReheatAlpha
	}
	if cfg.MaxForce <= 0 {
		cfg.MaxForce = def.MaxForce
	}
	return &Simulator{
		cfg:   cfg,
		alpha: 1,
		state: StateIdle,
		kin:   make(map[string]*kinematics),
	}
}

// SetGraph replaces the simulated graph and resets the simulator to
// idle with full alpha. Edges referencing unknown ids are ignored
// during force evaluation.
func (s *Simulator) SetGraph(nodes []*model.Node, edges []*model.Edge) {
	s.nodes = nodes
	s.edges = edges
	s.byID = make(map[string]*model.Node, len(nodes))
	s.kin = make(map[string]*kinematics, len(nodes))
	for _, n := range nodes {
		if _, exists := s.byID[n.ID]; exists {
			continue
		}
		s.byID[n.ID] = n
		mass := n.Mass
		if mass <= 0 {
			mass = 1
		}
		s.kin[n.ID] = &kinematics{mass: mass}
	}
	s.state = StateIdle
	s.alpha = 1
	s.iterations = 0
	s.avgForce = 0
}

// SetNodePosition moves a node and re-arms a stable simulator so the
// surrounding layout can settle around the new position. Unknown ids
// are ignored.
func (s *Simulator) SetNodePosition(id string, pos r3.Vec) {
	n, ok := s.byID[id]
	if !ok {
		return
	}
	n.Position = pos
	s.kin[id].velocity = r3.Vec{}
	if s.state == StateStable {
		s.state = StateRunning
		s.alpha = s.cfg.ReheatAlpha
	}
}

// Update advances the simulation by a small fixed number of inner
// iterations. It is a no-op while stable or empty; the first call on
// an idle simulator starts the run.
func (s *Simulator) Update(dt float64) {
	if s.state == StateStable || len(s.nodes) == 0 || dt <= 0 {
		return
	}
	s.state = StateRunning

	for i := 0; i < s.cfg.InnerIterations; i++ {
		s.step(dt)
		s.alpha *= s.cfg.AlphaDecay
		if s.alpha < s.cfg.AlphaMin {
			s.state = StateStable
			break
		}
	}
}

// Stats returns a read-only snapshot of the simulator state.
func (s *Simulator) Stats() Stats {
	return Stats{
		Alpha:      s.alpha,
		Iterations: s.iterations,
		AvgForce:   s.avgForce,
		Running:    s.state == StateRunning,
		Stable:     s.state == StateStable,
	}
}

// State returns the current lifecycle state.
func (s *Simulator) State() State {
	return s.state
}

const minDistance = 1e-3

// step runs one force evaluation and integration pass.
func (s *Simulator) step(dt float64) {
	for _, k := range s.kin {
		k.force = r3.Vec{}
	}

	// Spring forces along each edge, applied oppositely at both ends.
	for _, e := range s.edges {
		src, okSrc := s.byID[e.Source]
		tgt, okTgt := s.byID[e.Target]
		if !okSrc || !okTgt || src == tgt {
			continue
		}
		delta := r3.Sub(tgt.Position, src.Position)
		dist := math.Max(r3.Norm(delta), minDistance)
		f := r3.Scale(s.cfg.SpringStrength*(dist-s.cfg.RestLength)/dist, delta)
		s.kin[e.Source].force = r3.Add(s.kin[e.Source].force, f)
		s.kin[e.Target].force = r3.Sub(s.kin[e.Target].force, f)
	}

	// All-pairs repulsion, clamped to the configured maximum.
	if s.cfg.ChargeStrength > 0 {
		for i := 0; i < len(s.nodes); i++ {
			for j := i + 1; j < len(s.nodes); j++ {
				a, b := s.nodes[i], s.nodes[j]
				delta := r3.Sub(b.Position, a.Position)
				dist := math.Max(r3.Norm(delta), minDistance)
				mag := math.Min(s.cfg.ChargeStrength/(dist*dist), s.cfg.MaxForce)
				push := r3.Scale(mag/dist, delta)
				s.kin[a.ID].force = r3.Sub(s.kin[a.ID].force, push)
				s.kin[b.ID].force = r3.Add(s.kin[b.ID].force, push)
			}
		}
	}

	// Integrate velocity and position; fixed nodes never move.
	magnitudes := make([]float64, 0, len(s.nodes))
	for _, n := range s.nodes {
		k := s.kin[n.ID]
		magnitudes = append(magnitudes, r3.Norm(k.force))
		if n.Fixed {
			continue
		}
		k.velocity = r3.Add(k.velocity, r3.Scale(dt*s.alpha/k.mass, k.force))
		k.velocity = r3.Scale(s.cfg.Damping, k.velocity)
		if speed := r3.Norm(k.velocity); speed > s.cfg.MaxSpeed {
			k.velocity = r3.Scale(s.cfg.MaxSpeed/speed, k.velocity)
		}
		n.Position = r3.Add(n.Position, r3.Scale(dt, k.velocity))
		if s.cfg.Bounds != nil {
			s.reflect(n, k)
		}
	}

	if len(magnitudes) > 0 {
		s.avgForce = floats.Sum(magnitudes) / float64(len(magnitudes))
	}
	s.iterations++
}

// reflect clamps a node to the boundary box, inverting the crossing
// velocity component at half magnitude.
func (s *Simulator) reflect(n *model.Node, k *kinematics) {
	b := s.cfg.Bounds
	if n.Position.X < b.Min.X {
		n.Position.X = b.Min.X
		k.velocity.X *= -0.5
	} else if n.Position.X > b.Max.X {
		n.Position.X = b.Max.X
		k.velocity.X *= -0.5
	}
	if n.Position.Y < b.Min.Y {
		n.Position.Y = b.Min.Y
		k.velocity.Y *= -0.5
	} else if n.Position.Y > b.Max.Y {
		n.Position.Y = b.Max.Y
		k.velocity.Y *= -0.5
	}
	if n.Position.Z < b.Min.Z {
		n.Position.Z = b.Min.Z
		k.velocity.Z *= -0.5
	} else if n.Position.Z > b.Max.Z {
		n.Position.Z = b.Max.Z
		k.velocity.Z *= -0.5
	}
}
