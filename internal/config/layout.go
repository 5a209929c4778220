package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoPhases is returned for a layout that declares no phases.
var ErrNoPhases = errors.New("layout has no phases")

// Layout describes one match: its teams, the zones it may use and the
// ordered phase list.
type Layout struct {
	Name     string     `yaml:"name"`
	Teams    []TeamInfo `yaml:"teams"`
	Factions []Faction  `yaml:"factions"`
	Zones    []Zone     `yaml:"zones"`
	Phases   []Phase    `yaml:"phases"`
}

// TeamInfo is one side of the match as written in the layout file.
type TeamInfo struct {
	Faction string `yaml:"faction"`
	Role    string `yaml:"role"`
	Name    string `yaml:"name"`
}

// Faction is a faction definition.
type Faction struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	ShortName string `yaml:"short_name"`
	Color     string `yaml:"color"`
}

// Zone is one piece of zone geometry. Pieces sharing a name form one cluster.
type Zone struct {
	Name    string     `yaml:"name"`
	Type    string     `yaml:"type"`
	Shape   string     `yaml:"shape"`
	Nodes   [][2]int32 `yaml:"nodes"`
	MinZ    int32      `yaml:"min_z"`
	MaxZ    int32      `yaml:"max_z"`
	Radius  int32      `yaml:"radius"`
	Faction string     `yaml:"faction"`
	Links   []ZoneLink `yaml:"links"`
}

// ZoneLink connects two zones for pathing. Weight 0 means "use the distance
// between zone centers".
type ZoneLink struct {
	To     string  `yaml:"to"`
	Weight float64 `yaml:"weight"`
}

// Phase is one entry of the phase list.
type Phase struct {
	Type     string        `yaml:"type"`
	Name     string        `yaml:"name"`
	Duration time.Duration `yaml:"duration"`
	Teams    []PhaseTeam   `yaml:"teams"`

	// Config is decoded by the phase factory registered for Type.
	Config yaml.Node `yaml:"config"`
}

// PhaseTeam holds per-team display settings of a phase.
type PhaseTeam struct {
	Team     string `yaml:"team"`
	Name     string `yaml:"name"`
	Grounded bool   `yaml:"grounded"`
}

// DisplayName returns the phase name, falling back to its type.
func (p Phase) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Type
}

// DecodeConfig decodes the phase sub-configuration into v.
// An absent section leaves v untouched.
func (p Phase) DecodeConfig(v any) error {
	return DecodeNode(&p.Config, v)
}

// DecodeNode decodes a raw YAML section into v. A zero node is a no-op.
func DecodeNode(n *yaml.Node, v any) error {
	if n == nil || n.Kind == 0 {
		return nil
	}
	if err := n.Decode(v); err != nil {
		return fmt.Errorf("decoding section at line %d: %w", n.Line, err)
	}
	return nil
}

// LoadLayout loads a layout file. Unlike server config a layout file is
// required: a match cannot be played on defaults.
func LoadLayout(path string) (Layout, error) {
	var l Layout

	data, err := os.ReadFile(path)
	if err != nil {
		return l, fmt.Errorf("reading layout %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return l, fmt.Errorf("parsing layout %s: %w", path, err)
	}
	if len(l.Phases) == 0 {
		return l, fmt.Errorf("layout %s: %w", path, ErrNoPhases)
	}

	return l, nil
}

// zoneFile is the document format of a standalone zone file.
type zoneFile struct {
	Zones []Zone `yaml:"zones"`
}

// LoadZones reads zone definitions from a standalone YAML file.
func LoadZones(path string) ([]Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zones %s: %w", path, err)
	}

	var f zoneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing zones %s: %w", path, err)
	}

	return f.Zones, nil
}
