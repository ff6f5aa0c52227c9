package graph

// CyclicNodes returns the set of node ids that participate in a cycle,
// found via Tarjan's strongly connected components algorithm. Used to
// report cyclic regions before hierarchical placement; the placement
// itself tolerates cycles without this information.
func (ix *Index) CyclicNodes() map[string]bool {
	t := &tarjanState{
		ix:      ix,
		onStack: make(map[int64]bool),
		indices: make(map[int64]int),
		lowLink: make(map[int64]int),
	}

	for _, id := range ix.order {
		gid := ix.ids[id]
		if _, visited := t.indices[gid]; !visited {
			t.strongConnect(gid)
		}
	}

	cyclic := make(map[string]bool)
	for _, scc := range t.sccs {
		if len(scc) < 2 {
			continue
		}
		for _, gid := range scc {
			cyclic[ix.names[gid]] = true
		}
	}
	return cyclic
}

type tarjanState struct {
	ix      *Index
	index   int
	stack   []int64
	onStack map[int64]bool
	indices map[int64]int
	lowLink map[int64]int
	sccs    [][]int64
}

func (t *tarjanState) strongConnect(gid int64) {
	t.indices[gid] = t.index
	t.lowLink[gid] = t.index
	t.index++

	t.stack = append(t.stack, gid)
	t.onStack[gid] = true

	it := t.ix.dg.From(gid)
	for it.Next() {
		next := it.Node().ID()
		if _, visited := t.indices[next]; !visited {
			t.strongConnect(next)
			t.lowLink[gid] = min(t.lowLink[gid], t.lowLink[next])
		} else if t.onStack[next] {
			t.lowLink[gid] = min(t.lowLink[gid], t.indices[next])
		}
	}

	if t.lowLink[gid] == t.indices[gid] {
		var scc []int64
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == gid {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}
