package zone

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pathing errors.
var (
	ErrUnknownPathing = errors.New("unknown pathing provider")
	ErrHomeNotFound   = errors.New("home zone not found")
	ErrZoneNotFound   = errors.New("zone not found in pool")
	ErrNoPath         = errors.New("no path between homes")
	ErrPathTooShort   = errors.New("path has no zones between the homes")
	ErrPathEndpoints  = errors.New("path does not start and end at the homes")
)

// MinPathLength is home A, at least one flag, home B.
const MinPathLength = 3

// PathRequest is the input of a pathing provider.
type PathRequest struct {
	Pool  []Zone
	HomeA Zone
	HomeB Zone
}

// PathingProvider orders a zone pool into a chain from HomeA to HomeB.
// The result holds one representative zone per position; same-named pieces
// in the pool are grouped by the caller.
type PathingProvider interface {
	CreateZonePath(ctx context.Context, req PathRequest) ([]Zone, error)
}

// PathingFactory builds a provider from its sub-configuration.
type PathingFactory func(options *yaml.Node) (PathingProvider, error)

// PathingRegistry maps pathing type names to factories.
type PathingRegistry struct {
	factories map[string]PathingFactory
}

// NewPathingRegistry returns a registry with "fixed", "shortest" and "random".
func NewPathingRegistry() *PathingRegistry {
	r := &PathingRegistry{factories: make(map[string]PathingFactory)}
	r.Register("fixed", newFixedPathing)
	r.Register("shortest", newShortestPathing)
	r.Register("random", newRandomPathing)
	return r
}

// Register binds name to f.
func (r *PathingRegistry) Register(name string, f PathingFactory) {
	r.factories[strings.ToLower(name)] = f
}

// Names returns the registered type names, sorted.
func (r *PathingRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds the pathing provider registered as name.
func (r *PathingRegistry) New(name string, options *yaml.Node) (PathingProvider, error) {
	f, ok := r.factories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownPathing, name, strings.Join(r.Names(), ", "))
	}
	p, err := f(options)
	if err != nil {
		return nil, fmt.Errorf("pathing %q: %w", name, err)
	}
	return p, nil
}

// ValidatePath checks that path runs from homeA to homeB through at least
// one other zone and visits no zone twice.
func ValidatePath(path []Zone, homeA, homeB Zone) error {
	if len(path) < MinPathLength {
		return fmt.Errorf("%w: got %d entries", ErrPathTooShort, len(path))
	}
	if path[0].Name != homeA.Name || path[len(path)-1].Name != homeB.Name {
		return fmt.Errorf("%w: %q..%q, want %q..%q",
			ErrPathEndpoints, path[0].Name, path[len(path)-1].Name, homeA.Name, homeB.Name)
	}
	seen := make(map[string]struct{}, len(path))
	for _, z := range path {
		if _, dup := seen[z.Name]; dup {
			return fmt.Errorf("%w: %q appears twice", ErrPathEndpoints, z.Name)
		}
		seen[z.Name] = struct{}{}
	}
	return nil
}

// Unique returns the first piece of every zone name, in pool order.
func Unique(pool []Zone) []Zone {
	seen := make(map[string]struct{}, len(pool))
	out := make([]Zone, 0, len(pool))
	for _, z := range pool {
		if _, ok := seen[z.Name]; ok {
			continue
		}
		seen[z.Name] = struct{}{}
		out = append(out, z)
	}
	return out
}

// FindHomes picks the two team homes from the pool. A home whose faction hint
// matches the team faction wins; otherwise the remaining homes are taken in
// pool order.
func FindHomes(pool []Zone, factionA, factionB string) (Zone, Zone, error) {
	var homes []Zone
	for _, z := range Unique(pool) {
		if z.IsHome() {
			homes = append(homes, z)
		}
	}
	if len(homes) < 2 {
		return Zone{}, Zone{}, fmt.Errorf("%w: need 2 homes, pool has %d", ErrHomeNotFound, len(homes))
	}

	taken := make([]bool, len(homes))
	pick := func(faction string) int {
		if faction == "" {
			return -1
		}
		for i, h := range homes {
			if !taken[i] && strings.EqualFold(h.Faction, faction) {
				taken[i] = true
				return i
			}
		}
		return -1
	}
	fallback := func() int {
		for i := range homes {
			if !taken[i] {
				taken[i] = true
				return i
			}
		}
		return -1
	}

	a, b := pick(factionA), pick(factionB)
	if a < 0 {
		a = fallback()
	}
	if b < 0 {
		b = fallback()
	}
	return homes[a], homes[b], nil
}

// interior returns the pool zones a path may pass through: flags only.
func interior(pool []Zone, homeA, homeB Zone) []Zone {
	var out []Zone
	for _, z := range Unique(pool) {
		if z.Name == homeA.Name || z.Name == homeB.Name {
			continue
		}
		if z.Type != TypeFlag {
			continue
		}
		out = append(out, z)
	}
	return out
}
