package runner

import (
	"math"

	"github.com/voxgraph/layout-engine/pkg/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// Spring builds an attractive/repulsive spring force along the given
// edges. Edges referencing nodes outside the executed set are ignored
// at evaluation time.
func Spring(edges []*model.Edge, strength, restLength float64) NamedForce {
	return NamedForce{
		Name: "spring",
		Apply: func(nodes []*model.Node, st *State) map[string]r3.Vec {
			byID := indexNodes(nodes)
			forces := make(map[string]r3.Vec)
			for _, e := range edges {
				src, okSrc := byID[e.Source]
				tgt, okTgt := byID[e.Target]
				if !okSrc || !okTgt || src == tgt {
					continue
				}
				delta := r3.Sub(tgt.Position, src.Position)
				dist := math.Max(r3.Norm(delta), 1e-3)
				f := r3.Scale(strength*(dist-restLength)/dist, delta)
				forces[e.Source] = r3.Add(forces[e.Source], f)
				forces[e.Target] = r3.Sub(forces[e.Target], f)
			}
			return forces
		},
	}
}

// Charge builds an all-pairs repulsion force with magnitude
// strength/d², clamped to maxForce. O(n²) per iteration; fine up to the
// low thousands of nodes.
func Charge(strength, maxForce float64) NamedForce {
	return NamedForce{
		Name: "charge",
		Apply: func(nodes []*model.Node, st *State) map[string]r3.Vec {
			forces := make(map[string]r3.Vec, len(nodes))
			for i := 0; i < len(nodes); i++ {
				for j := i + 1; j < len(nodes); j++ {
					a, b := nodes[i], nodes[j]
					delta := r3.Sub(b.Position, a.Position)
					dist := math.Max(r3.Norm(delta), 1e-3)
					mag := math.Min(strength/(dist*dist), maxForce)
					push := r3.Scale(mag/dist, delta)
					forces[a.ID] = r3.Sub(forces[a.ID], push)
					forces[b.ID] = r3.Add(forces[b.ID], push)
				}
			}
			return forces
		},
	}
}

// Centering builds a weak force pulling every node toward the origin,
// keeping disconnected components from drifting out of view.
func Centering(strength float64) NamedForce {
	return NamedForce{
		Name: "centering",
		Apply: func(nodes []*model.Node, st *State) map[string]r3.Vec {
			forces := make(map[string]r3.Vec, len(nodes))
			for _, n := range nodes {
				forces[n.ID] = r3.Scale(-strength, n.Position)
			}
			return forces
		},
	}
}

// ClampBox builds a constraint that pushes nodes back inside an
// axis-aligned box.
func ClampBox(min, max r3.Vec) NamedConstraint {
	return NamedConstraint{
		Name: "clamp-box",
		Apply: func(nodes []*model.Node) map[string]r3.Vec {
			corrections := make(map[string]r3.Vec)
			for _, n := range nodes {
				var corr r3.Vec
				corr.X = clampAxis(n.Position.X, min.X, max.X)
				corr.Y = clampAxis(n.Position.Y, min.Y, max.Y)
				corr.Z = clampAxis(n.Position.Z, min.Z, max.Z)
				if corr != (r3.Vec{}) {
					corrections[n.ID] = corr
				}
			}
			return corrections
		},
	}
}

func clampAxis(v, lo, hi float64) float64 {
	if v < lo {
		return lo - v
	}
	if v > hi {
		return hi - v
	}
	return 0
}

func indexNodes(nodes []*model.Node) map[string]*model.Node {
	byID := make(map[string]*model.Node, len(nodes))
	for _, n := range nodes {
		if _, exists := byID[n.ID]; !exists {
			byID[n.ID] = n
		}
	}
	return byID
}
