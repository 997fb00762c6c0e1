// Package pathgraph holds the immutable campus graph and answers
// shortest-path queries over it.
package pathgraph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/garyellow/campus-navigator/internal/campus"
)

// arc is an outgoing edge with its target resolved to a node index.
type arc struct {
	to   int
	edge campus.Edge
}

// Graph is a read-only weighted directed graph. Safe for concurrent use.
type Graph struct {
	nodes []campus.Location
	index map[string]int
	adj   [][]arc
	edges int
}

// New builds a graph. It rejects duplicate locations, edges whose endpoints
// are unknown and edges whose weight is not strictly positive.
// Adjacency lists are sorted by neighbour ID so expansion order is stable.
func New(locations []campus.Location, edges []campus.Edge) (*Graph, error) {
	g := &Graph{
		nodes: slices.Clone(locations),
		index: make(map[string]int, len(locations)),
	}
	slices.SortFunc(g.nodes, func(a, b campus.Location) int { return strings.Compare(a.ID, b.ID) })

	for i, loc := range g.nodes {
		if loc.ID == "" {
			return nil, fmt.Errorf("pathgraph: location %d has an empty id", i)
		}
		if _, dup := g.index[loc.ID]; dup {
			return nil, fmt.Errorf("pathgraph: duplicate location %q", loc.ID)
		}
		g.index[loc.ID] = i
	}

	g.adj = make([][]arc, len(g.nodes))
	for _, e := range edges {
		from, ok := g.index[e.From]
		if !ok {
			return nil, fmt.Errorf("pathgraph: edge source %q is not a location", e.From)
		}
		to, ok := g.index[e.To]
		if !ok {
			return nil, fmt.Errorf("pathgraph: edge target %q is not a location", e.To)
		}
		if !(e.Weight > 0) {
			return nil, fmt.Errorf("pathgraph: edge %s -> %s has non-positive weight %v", e.From, e.To, e.Weight)
		}
		g.adj[from] = append(g.adj[from], arc{to: to, edge: e})
		g.edges++
	}

	// Parallel edges keep load order behind the neighbour ID.
	for i := range g.adj {
		slices.SortStableFunc(g.adj[i], func(a, b arc) int {
			return strings.Compare(g.nodes[a.to].ID, g.nodes[b.to].ID)
		})
	}

	return g, nil
}

// FromCatalog builds a graph from a loaded catalog.
func FromCatalog(c *campus.Catalog) (*Graph, error) {
	return New(c.Locations(), c.Edges())
}

// Location returns the node with the given ID.
func (g *Graph) Location(id string) (campus.Location, bool) {
	i, ok := g.index[id]
	if !ok {
		return campus.Location{}, false
	}
	return g.nodes[i], true
}

// Size reports the number of nodes and directed edges.
func (g *Graph) Size() (nodes, edges int) {
	return len(g.nodes), g.edges
}
