package pathgraph

import (
	"slices"

	"github.com/garyellow/campus-navigator/internal/campus"
)

// Path is an ordered walk through the graph. It always has at least one node
// and exactly len(Nodes)-1 edges.
type Path struct {
	Nodes []campus.Location
	Edges []campus.Edge
	Cost  float64
}

// Len returns the number of nodes.
func (p Path) Len() int {
	return len(p.Nodes)
}

// Origin returns the first node.
func (p Path) Origin() campus.Location {
	if len(p.Nodes) == 0 {
		return campus.Location{}
	}
	return p.Nodes[0]
}

// Destination returns the last node.
func (p Path) Destination() campus.Location {
	if len(p.Nodes) == 0 {
		return campus.Location{}
	}
	return p.Nodes[len(p.Nodes)-1]
}

// IDs lists the node IDs in order.
func (p Path) IDs() []string {
	ids := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Clone returns a copy that shares no slices with p.
func (p Path) Clone() Path {
	return Path{Nodes: slices.Clone(p.Nodes), Edges: slices.Clone(p.Edges), Cost: p.Cost}
}
