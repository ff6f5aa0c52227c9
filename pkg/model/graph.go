package model

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Graph is a snapshot of a typed property graph as supplied by the caller.
// It serves as the common data model for every layout strategy; the layout
// core treats it as read-only except for node positions.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make([]*Node, 0),
		Edges: make([]*Edge, 0),
	}
}

// Node represents a vertex in the property graph.
// Position is the only mutable field; kinematic state (velocity,
// acceleration) is owned by whichever simulation is currently active
// and never stored on the node itself.
type Node struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"` // e.g., "Person", "Company"
	Label    string  `json:"label,omitempty"`
	Position r3.Vec  `json:"position"`
	Mass     float64 `json:"mass,omitempty"`
	Fixed    bool    `json:"fixed,omitempty"` // pinned nodes are never moved
}

// Edge represents a directed, typed connection between two nodes.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"` // e.g., "WorksAt", "Owns"
}

// Schema describes the node and relationship types known to the graph
// store. It is consumed only by intent resolution.
type Schema struct {
	NodeTypes         []string `json:"nodeTypes"`
	RelationshipTypes []string `json:"relationshipTypes"`
}

// AddNode appends a node to the graph. Insertion order is preserved;
// layout strategies rely on stable ordering for determinism.
func (g *Graph) AddNode(node *Node) {
	g.Nodes = append(g.Nodes, node)
}

// AddEdge appends an edge to the graph.
func (g *Graph) AddEdge(edge *Edge) {
	g.Edges = append(g.Edges, edge)
}

// NodeByID builds an id -> node lookup. Nodes with duplicate ids keep
// the first occurrence.
func (g *Graph) NodeByID() map[string]*Node {
	byID := make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, exists := byID[n.ID]; !exists {
			byID[n.ID] = n
		}
	}
	return byID
}

// NodesOfType returns all nodes with the given type, in graph order.
func (g *Graph) NodesOfType(nodeType string) []*Node {
	var nodes []*Node
	for _, n := range g.Nodes {
		if n.Type == nodeType {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// DeriveSchema builds a schema from the distinct node and edge types
// present in the graph, in order of first appearance. Used when the
// caller supplies no explicit schema.
func (g *Graph) DeriveSchema() *Schema {
	schema := &Schema{}
	seenNodes := make(map[string]bool)
	for _, n := range g.Nodes {
		if n.Type != "" && !seenNodes[n.Type] {
			seenNodes[n.Type] = true
			schema.NodeTypes = append(schema.NodeTypes, n.Type)
		}
	}
	seenRels := make(map[string]bool)
	for _, e := range g.Edges {
		if e.Type != "" && !seenRels[e.Type] {
			seenRels[e.Type] = true
			schema.RelationshipTypes = append(schema.RelationshipTypes, e.Type)
		}
	}
	return schema
}

// PositionSnapshot captures the current position of every node.
// Snapshot pairs are taken before and after a simulation run to build
// transition functions.
func (g *Graph) PositionSnapshot() map[string]r3.Vec {
	snapshot := make(map[string]r3.Vec, len(g.Nodes))
	for _, n := range g.Nodes {
		snapshot[n.ID] = n.Position
	}
	return snapshot
}
