package zone

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/frontline/internal/config"
)

// Random walk defaults.
const (
	DefaultMinFlags = 2
	DefaultMaxFlags = 5
	DefaultAttempts = 100
)

// RandomOptions configures RandomPathing.
type RandomOptions struct {
	MinFlags int    `yaml:"min_flags"`
	MaxFlags int    `yaml:"max_flags"`
	Attempts int    `yaml:"attempts"`
	Seed     uint64 `yaml:"seed"`
}

// RandomPathing walks from home A toward home B picking random linked flags.
// The walk only steps to flags from which home B is still reachable within
// the remaining flag budget.
type RandomPathing struct {
	opts RandomOptions

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomPathing creates a random walker. Zero options take the defaults;
// a zero seed picks a random one.
func NewRandomPathing(opts RandomOptions) (*RandomPathing, error) {
	if opts.MinFlags == 0 {
		opts.MinFlags = DefaultMinFlags
	}
	if opts.MaxFlags == 0 {
		opts.MaxFlags = max(DefaultMaxFlags, opts.MinFlags)
	}
	if opts.Attempts == 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.MinFlags < 1 || opts.MaxFlags < opts.MinFlags || opts.Attempts < 1 {
		return nil, errors.New("need 1 <= min_flags <= max_flags and attempts >= 1")
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &RandomPathing{
		opts: opts,
		rnd:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

func newRandomPathing(options *yaml.Node) (PathingProvider, error) {
	var opts RandomOptions
	if err := config.DecodeNode(options, &opts); err != nil {
		return nil, err
	}
	return NewRandomPathing(opts)
}

// CreateZonePath implements PathingProvider.
func (p *RandomPathing) CreateZonePath(ctx context.Context, req PathRequest) ([]Zone, error) {
	g := newGraph(req)
	hops := g.hopsTo(g.homeB)
	if _, ok := hops[g.homeA]; !ok {
		return nil, ErrNoPath
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for range p.opts.Attempts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target := p.opts.MinFlags + p.rnd.IntN(p.opts.MaxFlags-p.opts.MinFlags+1)
		if names := p.walk(g, hops, target); names != nil {
			return g.zones(names), nil
		}
	}
	return nil, ErrNoPath
}

// walk tries to build one path with exactly target flags.
func (p *RandomPathing) walk(g *graph, hops map[string]int, target int) []string {
	path := []string{g.homeA}
	visited := map[string]bool{g.homeA: true}
	cur := g.homeA

	for flags := 0; ; {
		left := target - flags
		if left == 0 {
			if g.linked(cur, g.homeB) {
				return append(path, g.homeB)
			}
			return nil
		}

		var candidates []string
		for _, e := range g.adj[cur] {
			if visited[e.to] || g.isHome(e.to) {
				continue
			}
			// После шага нужно ещё hops-1 флагов до дома B.
			if h, ok := hops[e.to]; ok && h <= left {
				candidates = append(candidates, e.to)
			}
		}
		if len(candidates) == 0 {
			return nil
		}

		cur = candidates[p.rnd.IntN(len(candidates))]
		visited[cur] = true
		path = append(path, cur)
		flags++
	}
}

func (g *graph) linked(from, to string) bool {
	for _, e := range g.adj[from] {
		if e.to == to {
			return true
		}
	}
	return false
}
