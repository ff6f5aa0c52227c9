package graph

import (
	"github.com/voxgraph/layout-engine/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
)

// Index is an adjacency view over a graph snapshot, backed by a gonum
// directed graph. Edges referencing unknown node ids are silently
// dropped during construction.
type Index struct {
	dg    *simple.DirectedGraph
	ids   map[string]int64
	names map[int64]string
	order []string // node ids in snapshot order
}

// NewIndex builds an index over the given nodes and edges.
func NewIndex(nodes []*model.Node, edges []*model.Edge) *Index {
	ix := &Index{
		dg:    simple.NewDirectedGraph(),
		ids:   make(map[string]int64, len(nodes)),
		names: make(map[int64]string, len(nodes)),
	}

	var nextID int64
	for _, n := range nodes {
		if _, exists := ix.ids[n.ID]; exists {
			continue
		}
		ix.ids[n.ID] = nextID
		ix.names[nextID] = n.ID
		ix.order = append(ix.order, n.ID)
		ix.dg.AddNode(simple.Node(nextID))
		nextID++
	}

	for _, e := range edges {
		from, okFrom := ix.ids[e.Source]
		to, okTo := ix.ids[e.Target]
		if !okFrom || !okTo || from == to {
			continue
		}
		if !ix.dg.HasEdgeFromTo(from, to) {
			ix.dg.SetEdge(ix.dg.NewEdge(ix.dg.Node(from), ix.dg.Node(to)))
		}
	}

	return ix
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int {
	return len(ix.order)
}

// Roots returns the ids of all zero-indegree nodes, in snapshot order.
// A graph where every node sits on a cycle has no roots.
func (ix *Index) Roots() []string {
	var roots []string
	for _, id := range ix.order {
		if ix.dg.To(ix.ids[id]).Len() == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Successors returns the ids of nodes directly reachable from id, in
// snapshot order.
func (ix *Index) Successors(id string) []string {
	gid, ok := ix.ids[id]
	if !ok {
		return nil
	}
	reachable := make(map[int64]bool)
	it := ix.dg.From(gid)
	for it.Next() {
		reachable[it.Node().ID()] = true
	}
	var out []string
	for _, nid := range ix.order {
		if reachable[ix.ids[nid]] {
			out = append(out, nid)
		}
	}
	return out
}

// Levels assigns a BFS level to every node, starting from all roots at
// level 0. Nodes trapped in cycles (unreachable from any root) default
// to level 0. The traversal is capped at twice the node count so a
// malformed adjacency can never loop forever. Returns the level map and
// the maximum assigned level.
func (ix *Index) Levels() (map[string]int, int) {
	levels := make(map[string]int, len(ix.order))

	queue := ix.Roots()
	for _, id := range queue {
		levels[id] = 0
	}

	maxLevel := 0
	visits := 0
	budget := 2 * len(ix.order)
	for len(queue) > 0 && visits < budget {
		current := queue[0]
		queue = queue[1:]
		visits++

		for _, next := range ix.Successors(current) {
			if _, seen := levels[next]; seen {
				continue
			}
			levels[next] = levels[current] + 1
			if levels[next] > maxLevel {
				maxLevel = levels[next]
			}
			queue = append(queue, next)
		}
	}

	// Cycle-trapped nodes were never reached; they sit at level 0.
	for _, id := range ix.order {
		if _, seen := levels[id]; !seen {
			levels[id] = 0
		}
	}

	return levels, maxLevel
}
