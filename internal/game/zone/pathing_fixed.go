package zone

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/frontline/internal/config"
)

type fixedOptions struct {
	Zones []string `yaml:"zones"`
}

// FixedPathing returns an explicit list of zone names between the homes.
type FixedPathing struct {
	names []string
}

// NewFixedPathing creates a fixed path over names.
func NewFixedPathing(names ...string) *FixedPathing {
	return &FixedPathing{names: names}
}

func newFixedPathing(options *yaml.Node) (PathingProvider, error) {
	var opts fixedOptions
	if err := config.DecodeNode(options, &opts); err != nil {
		return nil, err
	}
	if len(opts.Zones) == 0 {
		return nil, errors.New("zones list is required")
	}
	return NewFixedPathing(opts.Zones...), nil
}

// CreateZonePath implements PathingProvider.
func (p *FixedPathing) CreateZonePath(ctx context.Context, req PathRequest) ([]Zone, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byName := make(map[string]Zone)
	for _, z := range Unique(req.Pool) {
		byName[z.Name] = z
	}

	path := make([]Zone, 0, len(p.names)+2)
	path = append(path, req.HomeA)
	for _, name := range p.names {
		z, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrZoneNotFound, name)
		}
		path = append(path, z)
	}
	path = append(path, req.HomeB)
	return path, nil
}
