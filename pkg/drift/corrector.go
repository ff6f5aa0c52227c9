// Package drift implements the always-on anti-overlap corrector. It is
// an overlay, not a primary layout strategy: low-amplitude nudging that
// resolves accidental overlaps while any other strategy owns the
// overall shape. It may run in the same frame as the physics simulator;
// last-write-wins on positions is an accepted visual tolerance.
package drift

import (
	"math"
	"math/rand"

	"github.com/voxgraph/layout-engine/pkg/logging"
	"github.com/voxgraph/layout-engine/pkg/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config tunes the corrector.
type Config struct {
	MinDistance       float64 // overlap threshold between node centers
	Strength          float64 // repulsion impulse scale
	MaxSpeed          float64 // velocity magnitude clamp
	Damping           float64 // velocity multiplier per call
	UpdateInterval    int     // pair scan runs every Nth Update call
	MaxChecksPerFrame int     // pairs examined per scan
	StabilityFrames   int     // quiet calls before auto-disable
	MovementThreshold float64 // total movement counted as quiet
	SpreadPasses      int     // InstantSpread pass cap
}

// DefaultConfig returns parameters suitable for interactive frame
// rates. MaxChecksPerFrame bounds per-frame cost at the price of slower
// overlap discovery on large graphs; that trade-off is deliberate.
func DefaultConfig() Config {
	return Config{
		MinDistance:       3,
		Strength:          0.5,
		MaxSpeed:          1,
		Damping:           0.85,
		UpdateInterval:    3,
		MaxChecksPerFrame: 200,
		StabilityFrames:   60,
		MovementThreshold: 0.01,
		SpreadPasses:      20,
	}
}

// Stats is a read-only view of the corrector state.
type Stats struct {
	Enabled      bool
	QuietFrames  int
	LastMovement float64
	Calls        int
}

// Corrector nudges overlapping nodes apart. Driven once per rendered
// frame by the host; each call does bounded work and skipping calls is
// safe.
type Corrector struct {
	cfg   Config
	nodes []*model.Node
	vel   map[string]r3.Vec

	enabled      bool
	calls        int
	quietFrames  int
	lastMovement float64
	pairI, pairJ int // rotating pair-scan cursor
	onStabilized func()
	rng          *rand.Rand
}

// New creates an enabled corrector with the given config. Zero-valued
// fields are replaced with defaults.
func New(cfg Config) *Corrector {
	def := DefaultConfig()
	if cfg.MinDistance <= 0 {
		cfg.MinDistance = def.MinDistance
	}
	if cfg.Strength <= 0 {
		cfg.Strength = def.Strength
	}
	if cfg.MaxSpeed <= 0 {
		cfg.MaxSpeed = def.MaxSpeed
	}
	if cfg.Damping <= 0 || cfg.Damping >= 1 {
		cfg.Damping = def.Damping
	}
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = def.UpdateInterval
	}
	if cfg.MaxChecksPerFrame <= 0 {
		cfg.MaxChecksPerFrame = def.MaxChecksPerFrame
	}
	if cfg.StabilityFrames <= 0 {
		cfg.StabilityFrames = def.StabilityFrames
	}
	if cfg.MovementThreshold <= 0 {
		cfg.MovementThreshold = def.MovementThreshold
	}
	if cfg.SpreadPasses <= 0 {
		cfg.SpreadPasses = def.SpreadPasses
	}
	return &Corrector{
		cfg:     cfg,
		enabled: true,
		vel:     make(map[string]r3.Vec),
		pairJ:   1,
		rng:     rand.New(rand.NewSource(rand.Int63())),
	}
}

// SetNodes replaces the corrected node set, clearing velocities and the
// scan cursor. A fresh node set re-enables a corrector that had
// auto-disabled, since the new layout may overlap.
func (c *Corrector) SetNodes(nodes []*model.Node) {
	c.nodes = nodes
	c.vel = make(map[string]r3.Vec, len(nodes))
	c.pairI, c.pairJ = 0, 1
	c.quietFrames = 0
	c.lastMovement = 0
	c.enabled = true
}

// OnStabilized registers a callback fired once when the corrector
// auto-disables after a stretch of quiet frames.
func (c *Corrector) OnStabilized(fn func()) {
	c.onStabilized = fn
}

// Enabled reports whether the corrector is currently active.
func (c *Corrector) Enabled() bool {
	return c.enabled
}

// Stats returns a read-only snapshot of the corrector state.
func (c *Corrector) Stats() Stats {
	return Stats{
		Enabled:      c.enabled,
		QuietFrames:  c.quietFrames,
		LastMovement: c.lastMovement,
		Calls:        c.calls,
	}
}

// Update advances the corrector by one frame. The pair scan runs only
// every UpdateInterval-th call and examines at most MaxChecksPerFrame
// pairs from a rotating cursor; damping and position integration happen
// on every call so residual velocity always decays toward rest.
func (c *Corrector) Update() {
	if !c.enabled || len(c.nodes) == 0 {
		return
	}
	c.calls++

	if c.calls%c.cfg.UpdateInterval == 0 && len(c.nodes) >= 2 {
		c.scanPairs()
	}

	movement := 0.0
	for _, n := range c.nodes {
		v := c.vel[n.ID]
		if speed := r3.Norm(v); speed > c.cfg.MaxSpeed {
			v = r3.Scale(c.cfg.MaxSpeed/speed, v)
		}
		if !n.Fixed {
			n.Position = r3.Add(n.Position, v)
			movement += r3.Norm(v)
		}
		c.vel[n.ID] = r3.Scale(c.cfg.Damping, v)
	}
	c.lastMovement = movement

	if movement < c.cfg.MovementThreshold {
		c.quietFrames++
		if c.quietFrames >= c.cfg.StabilityFrames {
			c.enabled = false
			logging.Debug("drift corrector stabilized", "calls", c.calls)
			if c.onStabilized != nil {
				c.onStabilized()
			}
		}
	} else {
		c.quietFrames = 0
	}
}

// scanPairs walks up to MaxChecksPerFrame node pairs starting at the
// rotating cursor and adds opposing impulses to pairs closer than
// MinDistance.
func (c *Corrector) scanPairs() {
	n := len(c.nodes)
	budget := min(c.cfg.MaxChecksPerFrame, n*(n-1)/2)
	for checked := 0; checked < budget; checked++ {
		a, b := c.nodes[c.pairI], c.nodes[c.pairJ]
		c.advanceCursor(n)

		delta := r3.Sub(b.Position, a.Position)
		dist := r3.Norm(delta)
		if dist < c.cfg.MinDistance {
			scale := c.cfg.Strength * (c.cfg.MinDistance - dist) / c.cfg.MinDistance
			dir := separationAxis(delta, dist, c.pairI+c.pairJ)
			c.vel[a.ID] = r3.Sub(c.vel[a.ID], r3.Scale(scale, dir))
			c.vel[b.ID] = r3.Add(c.vel[b.ID], r3.Scale(scale, dir))
		}
	}
}

func (c *Corrector) advanceCursor(n int) {
	c.pairJ++
	if c.pairJ >= n {
		c.pairI++
		if c.pairI >= n-1 {
			c.pairI = 0
		}
		c.pairJ = c.pairI + 1
	}
}

// Nudge re-enables the corrector and kicks every free node with a small
// random impulse. Used after fresh query results land stacked at the
// origin.
func (c *Corrector) Nudge() {
	c.enabled = true
	c.quietFrames = 0
	for _, n := range c.nodes {
		if n.Fixed {
			continue
		}
		c.vel[n.ID] = r3.Vec{
			X: c.rng.Float64() - 0.5,
			Y: (c.rng.Float64() - 0.5) * 0.4,
			Z: c.rng.Float64() - 0.5,
		}
	}
}

// InstantSpread resolves all overlaps at once instead of incrementally:
// each pass finds every pair closer than MinDistance and pushes both
// nodes half the overlap apart, repeating until no overlap remains or
// the pass cap is hit. Coincident nodes separate along a deterministic
// axis derived from their pair index.
func (c *Corrector) InstantSpread() {
	for pass := 0; pass < c.cfg.SpreadPasses; pass++ {
		overlaps := 0
		for i := 0; i < len(c.nodes); i++ {
			for j := i + 1; j < len(c.nodes); j++ {
				a, b := c.nodes[i], c.nodes[j]
				delta := r3.Sub(b.Position, a.Position)
				dist := r3.Norm(delta)
				if dist >= c.cfg.MinDistance {
					continue
				}
				overlaps++
				overlap := c.cfg.MinDistance - dist
				dir := separationAxis(delta, dist, i+j)
				switch {
				case a.Fixed && b.Fixed:
					// Both pinned: nothing to do.
				case a.Fixed:
					b.Position = r3.Add(b.Position, r3.Scale(overlap, dir))
				case b.Fixed:
					a.Position = r3.Sub(a.Position, r3.Scale(overlap, dir))
				default:
					a.Position = r3.Sub(a.Position, r3.Scale(overlap/2, dir))
					b.Position = r3.Add(b.Position, r3.Scale(overlap/2, dir))
				}
			}
		}
		if overlaps == 0 {
			return
		}
	}
	logging.Debug("instant spread hit pass cap", "passes", c.cfg.SpreadPasses)
}

// separationAxis returns the unit vector along which two nodes are
// pushed apart. Coincident nodes get a stable axis in the XZ plane so
// the split is repeatable.
func separationAxis(delta r3.Vec, dist float64, seed int) r3.Vec {
	if dist > 1e-6 {
		return r3.Scale(1/dist, delta)
	}
	angle := float64(seed) * 2.399963 // golden angle keeps axes well spread
	return r3.Vec{X: math.Cos(angle), Z: math.Sin(angle)}
}
