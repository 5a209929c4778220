// Package zone holds match zones: their geometry, the live triggers and
// clusters built over them, and the providers that assemble a zone pool and
// order it into a path between the two team homes.
package zone

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/udisondev/frontline/internal/config"
	"github.com/udisondev/frontline/internal/model"
)

// Zone type tags.
const (
	TypeHome     = "home"
	TypeFlag     = "flag"
	TypeAntiCamp = "anticamp"
	TypeLobby    = "lobby"
)

// Shape is the geometry kind of a zone piece.
type Shape string

const (
	ShapeNPoly    Shape = "npoly"
	ShapeCuboid   Shape = "cuboid"
	ShapeCylinder Shape = "cylinder"
)

// ErrInvalidZone is returned for zone definitions that cannot be built.
var ErrInvalidZone = errors.New("invalid zone")

// Link is a traversable edge to another zone, by name.
type Link struct {
	To     string
	Weight float64
}

// Zone is one named piece of geometry. It is read-only once built.
type Zone struct {
	Name    string
	Type    string
	Shape   Shape
	MinZ    int32
	MaxZ    int32
	NodesX  []int32
	NodesY  []int32
	Radius  int32
	Faction string
	Links   []Link
}

// FromConfig builds a Zone from its layout definition.
// Zero min_z and max_z mean the zone is unbounded vertically.
func FromConfig(c config.Zone) (Zone, error) {
	z := Zone{
		Name:    strings.TrimSpace(c.Name),
		Type:    strings.ToLower(strings.TrimSpace(c.Type)),
		Shape:   Shape(strings.ToLower(c.Shape)),
		MinZ:    c.MinZ,
		MaxZ:    c.MaxZ,
		Radius:  c.Radius,
		Faction: c.Faction,
	}
	if z.Name == "" {
		return Zone{}, fmt.Errorf("%w: empty name", ErrInvalidZone)
	}
	if z.Type == "" {
		z.Type = TypeFlag
	}
	if z.Shape == "" {
		z.Shape = ShapeNPoly
	}
	if z.MinZ == 0 && z.MaxZ == 0 {
		z.MinZ, z.MaxZ = math.MinInt32, math.MaxInt32
	}
	if z.MinZ > z.MaxZ {
		return Zone{}, fmt.Errorf("%w: %q min_z above max_z", ErrInvalidZone, z.Name)
	}

	z.NodesX = make([]int32, len(c.Nodes))
	z.NodesY = make([]int32, len(c.Nodes))
	for i, n := range c.Nodes {
		z.NodesX[i], z.NodesY[i] = n[0], n[1]
	}

	switch z.Shape {
	case ShapeNPoly:
		if len(c.Nodes) < 3 {
			return Zone{}, fmt.Errorf("%w: %q polygon needs 3 nodes, got %d", ErrInvalidZone, z.Name, len(c.Nodes))
		}
	case ShapeCuboid:
		if len(c.Nodes) < 2 {
			return Zone{}, fmt.Errorf("%w: %q cuboid needs 2 nodes, got %d", ErrInvalidZone, z.Name, len(c.Nodes))
		}
	case ShapeCylinder:
		if len(c.Nodes) != 1 || z.Radius <= 0 {
			return Zone{}, fmt.Errorf("%w: %q cylinder needs one center node and a radius", ErrInvalidZone, z.Name)
		}
	default:
		return Zone{}, fmt.Errorf("%w: %q unknown shape %q", ErrInvalidZone, z.Name, c.Shape)
	}

	for _, l := range c.Links {
		if l.To == "" || l.Weight < 0 {
			return Zone{}, fmt.Errorf("%w: %q bad link %+v", ErrInvalidZone, z.Name, l)
		}
		z.Links = append(z.Links, Link{To: l.To, Weight: l.Weight})
	}

	return z, nil
}

// FromConfigs builds every zone in order, failing on the first bad entry.
func FromConfigs(cs []config.Zone) ([]Zone, error) {
	zones := make([]Zone, 0, len(cs))
	for _, c := range cs {
		z, err := FromConfig(c)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// IsHome reports whether the zone is a team home.
func (z Zone) IsHome() bool { return z.Type == TypeHome }

// ContainsLocation checks whether loc is inside the zone.
func (z Zone) ContainsLocation(loc model.Location) bool {
	return z.Contains(loc.X, loc.Y, loc.Z)
}

// Contains checks if point (x, y, zCoord) is inside the zone geometry.
func (z Zone) Contains(x, y, zCoord int32) bool {
	if zCoord < z.MinZ || zCoord > z.MaxZ {
		return false
	}
	if len(z.NodesX) == 0 {
		return false
	}

	switch z.Shape {
	case ShapeCuboid:
		return z.containsCuboid(x, y)
	case ShapeCylinder:
		return z.containsCylinder(x, y)
	default:
		return z.containsNPoly(x, y)
	}
}

func (z Zone) bounds() (minX, minY, maxX, maxY int32) {
	minX, maxX = z.NodesX[0], z.NodesX[0]
	minY, maxY = z.NodesY[0], z.NodesY[0]
	for i := 1; i < len(z.NodesX); i++ {
		minX = min(minX, z.NodesX[i])
		maxX = max(maxX, z.NodesX[i])
		minY = min(minY, z.NodesY[i])
		maxY = max(maxY, z.NodesY[i])
	}
	return minX, minY, maxX, maxY
}

// containsCuboid проверяет попадание в AABB.
func (z Zone) containsCuboid(x, y int32) bool {
	if len(z.NodesX) < 2 {
		return false
	}
	minX, minY, maxX, maxY := z.bounds()
	return x >= minX && x <= maxX && y >= minY && y <= maxY
}

// containsCylinder проверяет попадание точки в круг (center + radius).
func (z Zone) containsCylinder(x, y int32) bool {
	if z.Radius <= 0 {
		return false
	}
	dx := int64(x) - int64(z.NodesX[0])
	dy := int64(y) - int64(z.NodesY[0])
	r := int64(z.Radius)
	return dx*dx+dy*dy <= r*r
}

// containsNPoly проверяет попадание точки в полигон алгоритмом ray casting.
func (z Zone) containsNPoly(x, y int32) bool {
	n := len(z.NodesX)
	count := 0
	j := n - 1

	for i := range n {
		if (z.NodesY[i] > y) != (z.NodesY[j] > y) {
			slope := (int64(x)-int64(z.NodesX[i]))*(int64(z.NodesY[j])-int64(z.NodesY[i])) -
				(int64(z.NodesX[j])-int64(z.NodesX[i]))*(int64(y)-int64(z.NodesY[i]))

			if slope == 0 {
				// Точка лежит на границе полигона.
				return true
			}

			if (slope < 0) != (int64(z.NodesY[j])-int64(z.NodesY[i]) < 0) {
				count++
			}
		}
		j = i
	}

	return count%2 == 1
}

// Center returns the middle of the zone in the XY plane: the bounding box
// center for polygons and cuboids, the center node for cylinders.
func (z Zone) Center() (x, y float64) {
	if len(z.NodesX) == 0 {
		return 0, 0
	}
	if z.Shape == ShapeCylinder {
		return float64(z.NodesX[0]), float64(z.NodesY[0])
	}
	minX, minY, maxX, maxY := z.bounds()
	return (float64(minX) + float64(maxX)) / 2, (float64(minY) + float64(maxY)) / 2
}

// CenterDistance is the XY distance between two zone centers.
func CenterDistance(a, b Zone) float64 {
	ax, ay := a.Center()
	bx, by := b.Center()
	return math.Hypot(ax-bx, ay-by)
}
