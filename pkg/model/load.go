package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// snapshotFile is the on-disk shape of a graph snapshot, optionally
// carrying an explicit schema.
type snapshotFile struct {
	Nodes  []*Node `json:"nodes"`
	Edges  []*Edge `json:"edges"`
	Schema *Schema `json:"schema,omitempty"`
}

// LoadSnapshot reads a graph snapshot from a JSON file. The schema is
// optional; callers fall back to DeriveSchema when it is absent.
func LoadSnapshot(path string) (*Graph, *Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}

	g := &Graph{Nodes: file.Nodes, Edges: file.Edges}
	if g.Nodes == nil {
		g.Nodes = make([]*Node, 0)
	}
	if g.Edges == nil {
		g.Edges = make([]*Edge, 0)
	}
	return g, file.Schema, nil
}
