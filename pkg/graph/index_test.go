package graph

import (
	"testing"

	"github.com/voxgraph/layout-engine/pkg/model"
)

func chainGraph() ([]*model.Node, []*model.Edge) {
	nodes := []*model.Node{
		{ID: "a", Type: "T"},
		{ID: "b", Type: "T"},
		{ID: "c", Type: "T"},
		{ID: "d", Type: "T"},
	}
	edges := []*model.Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
		{Source: "a", Target: "d"},
	}
	return nodes, edges
}

func TestIndex_RootsAndLevels(t *testing.T) {
	ix := NewIndex(chainGraph())

	roots := ix.Roots()
	if len(roots) != 1 || roots[0] != "a" {
		t.Fatalf("Expected single root a, got %v", roots)
	}

	levels, maxLevel := ix.Levels()
	want := map[string]int{"a": 0, "b": 1, "c": 2, "d": 1}
	for id, level := range want {
		if levels[id] != level {
			t.Errorf("Level of %s = %d, want %d", id, levels[id], level)
		}
	}
	if maxLevel != 2 {
		t.Errorf("Max level = %d, want 2", maxLevel)
	}
}

func TestIndex_SuccessorsInSnapshotOrder(t *testing.T) {
	ix := NewIndex(chainGraph())

	succ := ix.Successors("a")
	if len(succ) != 2 || succ[0] != "b" || succ[1] != "d" {
		t.Errorf("Successors(a) = %v, want [b d]", succ)
	}
	if got := ix.Successors("nope"); got != nil {
		t.Errorf("Successors of unknown id = %v, want nil", got)
	}
}

func TestIndex_CycleHasNoRootsAndTerminates(t *testing.T) {
	nodes := []*model.Node{
		{ID: "a", Type: "T"},
		{ID: "b", Type: "T"},
		{ID: "c", Type: "T"},
	}
	edges := []*model.Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
		{Source: "c", Target: "a"},
	}
	ix := NewIndex(nodes, edges)

	if roots := ix.Roots(); len(roots) != 0 {
		t.Errorf("Cycle should have no roots, got %v", roots)
	}

	// Levels must terminate and park every trapped node at level 0.
	levels, maxLevel := ix.Levels()
	if maxLevel != 0 {
		t.Errorf("Max level = %d, want 0", maxLevel)
	}
	for _, id := range []string{"a", "b", "c"} {
		if levels[id] != 0 {
			t.Errorf("Cycle node %s at level %d, want 0", id, levels[id])
		}
	}
}

func TestIndex_CyclicNodes(t *testing.T) {
	nodes := []*model.Node{
		{ID: "a", Type: "T"},
		{ID: "b", Type: "T"},
		{ID: "c", Type: "T"},
		{ID: "d", Type: "T"},
	}
	// a<->b form a cycle, c->d is acyclic.
	edges := []*model.Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "a"},
		{Source: "c", Target: "d"},
	}
	ix := NewIndex(nodes, edges)

	cyclic := ix.CyclicNodes()
	if !cyclic["a"] || !cyclic["b"] {
		t.Errorf("Expected a and b to be cyclic, got %v", cyclic)
	}
	if cyclic["c"] || cyclic["d"] {
		t.Errorf("c and d must not be cyclic, got %v", cyclic)
	}
}

func TestIndex_DropsUnknownEndpointsAndSelfLoops(t *testing.T) {
	nodes := []*model.Node{
		{ID: "a", Type: "T"},
		{ID: "b", Type: "T"},
	}
	edges := []*model.Edge{
		{Source: "a", Target: "ghost"},
		{Source: "ghost", Target: "b"},
		{Source: "a", Target: "a"},
	}
	ix := NewIndex(nodes, edges)

	if ix.Len() != 2 {
		t.Errorf("Len = %d, want 2", ix.Len())
	}
	if succ := ix.Successors("a"); len(succ) != 0 {
		t.Errorf("Successors(a) = %v, want none", succ)
	}
	// Both nodes keep zero indegree once the bad edges are dropped.
	if roots := ix.Roots(); len(roots) != 2 {
		t.Errorf("Roots = %v, want both nodes", roots)
	}
}
