package zone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/frontline/internal/config"
)

// Pool errors.
var (
	ErrUnknownProvider = errors.New("unknown zone provider")
	ErrEmptyPool       = errors.New("zone pool is empty")
)

// Provider enumerates candidate zones for a match.
type Provider interface {
	Zones(ctx context.Context) ([]Zone, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) ([]Zone, error)

// Zones calls f.
func (f ProviderFunc) Zones(ctx context.Context) ([]Zone, error) { return f(ctx) }

// ProviderSpec is one entry of a pool list. It is written either as a bare
// type name or as a mapping with a "type" key plus provider options.
type ProviderSpec struct {
	Type    string
	Options yaml.Node
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *ProviderSpec) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		s.Type = n.Value
	case yaml.MappingNode:
		var head struct {
			Type string `yaml:"type"`
		}
		if err := n.Decode(&head); err != nil {
			return err
		}
		s.Type = head.Type
		s.Options = *n
	default:
		return fmt.Errorf("line %d: provider must be a name or a mapping", n.Line)
	}
	s.Type = strings.ToLower(strings.TrimSpace(s.Type))
	if s.Type == "" {
		return fmt.Errorf("line %d: provider type is empty", n.Line)
	}
	return nil
}

// key identifies the entry by type and options, ignoring the "type" key
// itself, so "config" and {type: config} are the same entry.
func (s ProviderSpec) key() string {
	if s.Options.Kind != yaml.MappingNode {
		return s.Type
	}
	opts := &yaml.Node{Kind: yaml.MappingNode}
	for i := 0; i+1 < len(s.Options.Content); i += 2 {
		if s.Options.Content[i].Value == "type" {
			continue
		}
		opts.Content = append(opts.Content, s.Options.Content[i], s.Options.Content[i+1])
	}
	if len(opts.Content) == 0 {
		return s.Type
	}
	out, err := yaml.Marshal(opts)
	if err != nil {
		return s.Type + "\x00" + fmt.Sprint(s.Options.Line)
	}
	return s.Type + "\x00" + string(out)
}

// Source carries what built-in providers read zones from.
type Source struct {
	// LayoutZones are the zones declared inline in the layout file.
	LayoutZones []config.Zone
	// BaseDir resolves relative zone file paths.
	BaseDir string
}

// ProviderFactory builds a provider from its pool entry.
type ProviderFactory func(spec ProviderSpec, src Source) (Provider, error)

// ProviderRegistry maps provider type names to factories.
type ProviderRegistry struct {
	factories map[string]ProviderFactory
}

// NewProviderRegistry returns a registry with the built-in "config" and
// "file" providers.
func NewProviderRegistry() *ProviderRegistry {
	r := &ProviderRegistry{factories: make(map[string]ProviderFactory)}
	r.Register("config", newConfigProvider)
	r.Register("file", newFileProvider)
	return r
}

// Register binds name to f, replacing any earlier binding.
func (r *ProviderRegistry) Register(name string, f ProviderFactory) {
	r.factories[strings.ToLower(name)] = f
}

// Names returns the registered type names, sorted.
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds the provider for spec.
func (r *ProviderRegistry) New(spec ProviderSpec, src Source) (Provider, error) {
	f, ok := r.factories[spec.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownProvider, spec.Type, strings.Join(r.Names(), ", "))
	}
	p, err := f(spec, src)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", spec.Type, err)
	}
	return p, nil
}

// ResolvePool collapses duplicate entries, the same type with the same
// options (first entry wins), builds
// every provider up front, then runs them concurrently and concatenates
// their zones in entry order.
//
// A provider producing no zones is logged and skipped. An empty entry list,
// an unknown type or an empty result is an error. ResolvePool does not touch
// game state and may run off the game loop.
func ResolvePool(ctx context.Context, r *ProviderRegistry, specs []ProviderSpec, src Source) ([]Zone, error) {
	unique := make([]ProviderSpec, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		k := s.key()
		if _, dup := seen[k]; dup {
			slog.Debug("duplicate zone provider collapsed", "type", s.Type)
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, s)
	}
	if len(unique) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", ErrEmptyPool)
	}

	providers := make([]Provider, len(unique))
	for i, s := range unique {
		p, err := r.New(s, src)
		if err != nil {
			return nil, err
		}
		providers[i] = p
	}

	results := make([][]Zone, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		g.Go(func() error {
			zones, err := p.Zones(gctx)
			if err != nil {
				return fmt.Errorf("provider %q: %w", unique[i].Type, err)
			}
			results[i] = zones
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pool []Zone
	for i, zones := range results {
		if len(zones) == 0 {
			slog.Warn("zone provider produced no zones", "type", unique[i].Type)
			continue
		}
		pool = append(pool, zones...)
	}
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	return pool, nil
}

// filterOptions are accepted by every built-in provider.
type filterOptions struct {
	Types        []string `yaml:"types"`
	ExcludeTypes []string `yaml:"exclude_types"`
}

func (f filterOptions) apply(zones []Zone) []Zone {
	if len(f.Types) == 0 && len(f.ExcludeTypes) == 0 {
		return zones
	}
	out := zones[:0:0]
	for _, z := range zones {
		if len(f.Types) > 0 && !containsFold(f.Types, z.Type) {
			continue
		}
		if containsFold(f.ExcludeTypes, z.Type) {
			continue
		}
		out = append(out, z)
	}
	return out
}

func containsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(v string) bool { return strings.EqualFold(v, s) })
}

func newConfigProvider(spec ProviderSpec, src Source) (Provider, error) {
	var opts filterOptions
	if err := config.DecodeNode(&spec.Options, &opts); err != nil {
		return nil, err
	}
	defs := src.LayoutZones
	return ProviderFunc(func(context.Context) ([]Zone, error) {
		zones, err := FromConfigs(defs)
		if err != nil {
			return nil, err
		}
		return opts.apply(zones), nil
	}), nil
}

type fileOptions struct {
	Path         string   `yaml:"path"`
	Types        []string `yaml:"types"`
	ExcludeTypes []string `yaml:"exclude_types"`
}

func newFileProvider(spec ProviderSpec, src Source) (Provider, error) {
	var opts fileOptions
	if err := config.DecodeNode(&spec.Options, &opts); err != nil {
		return nil, err
	}
	if opts.Path == "" {
		return nil, errors.New("path is required")
	}
	path := opts.Path
	if !filepath.IsAbs(path) && src.BaseDir != "" {
		path = filepath.Join(src.BaseDir, path)
	}
	return ProviderFunc(func(ctx context.Context) ([]Zone, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		defs, err := config.LoadZones(path)
		if err != nil {
			return nil, err
		}
		zones, err := FromConfigs(defs)
		if err != nil {
			return nil, err
		}
		return filterOptions{Types: opts.Types, ExcludeTypes: opts.ExcludeTypes}.apply(zones), nil
	}), nil
}
