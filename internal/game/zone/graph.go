package zone

// edge is a directed half of an undirected zone link.
type edge struct {
	to     string
	weight float64
}

// graph is the link graph over a path request: both homes plus interior
// flags. Links are undirected; a direct home-to-home link is dropped since a
// path must cross at least one flag.
type graph struct {
	nodes map[string]Zone
	adj   map[string][]edge
	homeA string
	homeB string
}

func newGraph(req PathRequest) *graph {
	g := &graph{
		nodes: make(map[string]Zone),
		adj:   make(map[string][]edge),
		homeA: req.HomeA.Name,
		homeB: req.HomeB.Name,
	}
	g.nodes[req.HomeA.Name] = req.HomeA
	g.nodes[req.HomeB.Name] = req.HomeB
	for _, z := range interior(req.Pool, req.HomeA, req.HomeB) {
		g.nodes[z.Name] = z
	}

	// Ссылки домов берутся из пула: в запросе может быть любой кусок зоны.
	linked := make(map[[2]string]struct{})
	for _, z := range req.Pool {
		if _, ok := g.nodes[z.Name]; !ok {
			continue
		}
		for _, l := range z.Links {
			to, ok := g.nodes[l.To]
			if !ok || l.To == z.Name {
				continue
			}
			if g.isHome(z.Name) && g.isHome(l.To) {
				continue
			}
			key := [2]string{min(z.Name, l.To), max(z.Name, l.To)}
			if _, dup := linked[key]; dup {
				continue
			}
			linked[key] = struct{}{}

			w := l.Weight
			if w == 0 {
				w = CenterDistance(z, to)
			}
			g.adj[z.Name] = append(g.adj[z.Name], edge{to: l.To, weight: w})
			g.adj[l.To] = append(g.adj[l.To], edge{to: z.Name, weight: w})
		}
	}
	return g
}

func (g *graph) isHome(name string) bool { return name == g.homeA || name == g.homeB }

// hopsTo returns BFS hop counts from every node to target. The other home is
// never traversed.
func (g *graph) hopsTo(target string) map[string]int {
	dist := map[string]int{target: 0}
	queue := []string{target}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.adj[cur] {
			if _, seen := dist[e.to]; seen {
				continue
			}
			dist[e.to] = dist[cur] + 1
			if g.isHome(e.to) {
				continue
			}
			queue = append(queue, e.to)
		}
	}
	return dist
}

func (g *graph) zones(names []string) []Zone {
	out := make([]Zone, len(names))
	for i, n := range names {
		out[i] = g.nodes[n]
	}
	return out
}
