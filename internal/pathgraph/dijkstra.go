package pathgraph

import (
	"container/heap"
	"context"
	"math"

	"github.com/garyellow/campus-navigator/internal/campus"
	domerrors "github.com/garyellow/campus-navigator/internal/errors"
)

// ShortestPath returns the cheapest path from origin to destination.
//
// Ties are deterministic: the queue orders by (cost, discovery sequence),
// neighbours are expanded in ID order and only a strictly cheaper relaxation
// replaces a tentative distance, so among equal-cost paths the one discovered
// first wins.
//
// Errors: ErrLocationNotFound for unknown endpoints, ErrNoPathExists when the
// destination is unreachable or ctx ends first (the ctx error is wrapped).
func (g *Graph) ShortestPath(ctx context.Context, origin, destination string) (Path, error) {
	src, ok := g.index[origin]
	if !ok {
		return Path{}, domerrors.LocationNotFound(origin)
	}
	dst, ok := g.index[destination]
	if !ok {
		return Path{}, domerrors.LocationNotFound(destination)
	}
	if src == dst {
		return Path{Nodes: []campus.Location{g.nodes[src]}}, nil
	}

	n := len(g.nodes)
	dist := make([]float64, n)
	prev := make([]int, n)
	via := make([]campus.Edge, n)
	settled := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}

	var seq uint64
	pq := &frontier{}
	dist[src] = 0
	heap.Push(pq, entry{node: src, cost: 0, seq: seq})

	for pq.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return Path{}, domerrors.NoPathExists(origin, destination, err)
		}

		cur := heap.Pop(pq).(entry)
		if settled[cur.node] {
			continue
		}
		settled[cur.node] = true
		if cur.node == dst {
			return g.reconstruct(prev, via, src, dst, dist[dst]), nil
		}

		for _, a := range g.adj[cur.node] {
			if settled[a.to] {
				continue
			}
			next := cur.cost + a.edge.Weight
			if next < dist[a.to] {
				dist[a.to] = next
				prev[a.to] = cur.node
				via[a.to] = a.edge
				seq++
				heap.Push(pq, entry{node: a.to, cost: next, seq: seq})
			}
		}
	}

	return Path{}, domerrors.NoPathExists(origin, destination, nil)
}

func (g *Graph) reconstruct(prev []int, via []campus.Edge, src, dst int, cost float64) Path {
	var hops int
	for v := dst; v != src; v = prev[v] {
		hops++
	}
	p := Path{
		Nodes: make([]campus.Location, hops+1),
		Edges: make([]campus.Edge, hops),
		Cost:  cost,
	}
	v := dst
	for i := hops; i > 0; i-- {
		p.Nodes[i] = g.nodes[v]
		p.Edges[i-1] = via[v]
		v = prev[v]
	}
	p.Nodes[0] = g.nodes[src]
	return p
}

type entry struct {
	node int
	cost float64
	seq  uint64
}

// frontier is a min-heap of entries ordered by (cost, seq).
type frontier []entry

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(entry)) }

func (f *frontier) Pop() any {
	old := *f
	last := old[len(old)-1]
	*f = old[:len(old)-1]
	return last
}
