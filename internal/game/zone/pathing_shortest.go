package zone

import (
	"container/heap"
	"context"
	"math"

	"gopkg.in/yaml.v3"
)

// ShortestPathing runs A* over the zone link graph. Edge cost is the link
// weight, or the distance between zone centers for unweighted links.
type ShortestPathing struct{}

func newShortestPathing(*yaml.Node) (PathingProvider, error) {
	return ShortestPathing{}, nil
}

// CreateZonePath implements PathingProvider.
func (ShortestPathing) CreateZonePath(ctx context.Context, req PathRequest) ([]Zone, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g := newGraph(req)
	names := g.astar(g.homeA, g.homeB, g.heuristicScale())
	if names == nil {
		return nil, ErrNoPath
	}
	return g.zones(names), nil
}

// heuristicScale keeps the center-distance heuristic admissible when
// explicit weights are cheaper than the geometry.
func (g *graph) heuristicScale() float64 {
	scale := 1.0
	for from, edges := range g.adj {
		for _, e := range edges {
			d := CenterDistance(g.nodes[from], g.nodes[e.to])
			if d == 0 {
				continue
			}
			scale = math.Min(scale, e.weight/d)
		}
	}
	return scale
}

// pathNode represents a node in the A* search.
type pathNode struct {
	name   string
	parent *pathNode
	gCost  float64 // Actual cost from start
	fCost  float64 // gCost + heuristic
	index  int     // heap index
}

func (g *graph) astar(start, target string, scale float64) []string {
	goal := g.nodes[target]
	h := func(name string) float64 {
		return CenterDistance(g.nodes[name], goal) * scale
	}

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &pathNode{name: start, fCost: h(start)})

	closed := make(map[string]struct{}, len(g.nodes))
	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if current.name == target {
			return current.names()
		}
		if _, done := closed[current.name]; done {
			continue
		}
		closed[current.name] = struct{}{}

		// Через чужой дом не ходим.
		if current.name != start && g.isHome(current.name) {
			continue
		}

		for _, e := range g.adj[current.name] {
			if _, done := closed[e.to]; done {
				continue
			}
			gCost := current.gCost + e.weight
			heap.Push(open, &pathNode{
				name:   e.to,
				parent: current,
				gCost:  gCost,
				fCost:  gCost + h(e.to),
			})
		}
	}
	return nil
}

func (n *pathNode) names() []string {
	var out []string
	for cur := n; cur != nil; cur = cur.parent {
		out = append(out, cur.name)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// nodeHeap implements container/heap for the A* open list (min-heap by fCost).
type nodeHeap []*pathNode

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].fCost < h[j].fCost }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x any)        { n := x.(*pathNode); n.index = len(*h); *h = append(*h, n) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil // GC
	node.index = -1
	*h = old[:n-1]
	return node
}
