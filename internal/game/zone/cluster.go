package zone

import (
	"errors"
	"fmt"

	"github.com/udisondev/frontline/internal/event"
	"github.com/udisondev/frontline/internal/model"
)

// ErrEmptyCluster is returned when a cluster is built from no zones.
var ErrEmptyCluster = errors.New("cluster has no zones")

// Cluster is the live instance of one named zone: every same-named piece
// wrapped in its own Trigger, plus the ordered set of players inside any
// of them.
type Cluster struct {
	name     string
	zones    []Zone
	triggers []*Trigger

	// Порядок входа сохраняется.
	players []*model.Player
	index   map[uint64]int

	onEnter event.Signal[*model.Player]
	onExit  event.Signal[*model.Player]

	disposed bool
}

// NewCluster creates triggers for zones and wraps them. Every zone must carry
// the same name.
func NewCluster(zones []Zone) (*Cluster, error) {
	if len(zones) == 0 {
		return nil, ErrEmptyCluster
	}
	name := zones[0].Name
	c := &Cluster{
		name:     name,
		zones:    make([]Zone, 0, len(zones)),
		triggers: make([]*Trigger, 0, len(zones)),
		index:    make(map[uint64]int),
	}
	for _, z := range zones {
		if z.Name != name {
			return nil, fmt.Errorf("%w: cluster %q got piece %q", ErrInvalidZone, name, z.Name)
		}
		c.zones = append(c.zones, z)
		c.triggers = append(c.triggers, NewTrigger(z))
	}
	return c, nil
}

// Name returns the shared zone name.
func (c *Cluster) Name() string { return c.name }

// Type returns the type tag of the first piece.
func (c *Cluster) Type() string { return c.zones[0].Type }

// Faction returns the faction hint of the first piece.
func (c *Cluster) Faction() string { return c.zones[0].Faction }

// Zones returns the pieces of the cluster.
func (c *Cluster) Zones() []Zone { return c.zones }

// Contains reports whether loc is inside any piece.
func (c *Cluster) Contains(loc model.Location) bool {
	for _, z := range c.zones {
		if z.ContainsLocation(loc) {
			return true
		}
	}
	return false
}

// OnEnter subscribes fn to players entering the cluster.
func (c *Cluster) OnEnter(fn func(*model.Player)) (unsubscribe func()) {
	return c.onEnter.Add(fn)
}

// OnExit subscribes fn to players leaving the cluster.
func (c *Cluster) OnExit(fn func(*model.Player)) (unsubscribe func()) {
	return c.onExit.Add(fn)
}

// Revalidate re-checks p against every trigger and fires enter or exit when
// the player's membership changed. Returns whether p is inside.
func (c *Cluster) Revalidate(p *model.Player) bool {
	if c.disposed {
		return false
	}
	inside := false
	for _, t := range c.triggers {
		if t.Revalidate(p) {
			inside = true
		}
	}

	_, tracked := c.index[p.ID()]
	switch {
	case inside && !tracked:
		c.add(p)
		c.onEnter.Emit(p)
	case !inside && tracked:
		c.remove(p.ID())
		c.onExit.Emit(p)
	}
	return inside
}

// Remove forgets p (disconnect, death) and fires exit if it was inside.
func (c *Cluster) Remove(p *model.Player) {
	if c.disposed {
		return
	}
	for _, t := range c.triggers {
		t.Remove(p)
	}
	if _, tracked := c.index[p.ID()]; tracked {
		c.remove(p.ID())
		c.onExit.Emit(p)
	}
}

func (c *Cluster) add(p *model.Player) {
	c.index[p.ID()] = len(c.players)
	c.players = append(c.players, p)
}

func (c *Cluster) remove(id uint64) {
	i := c.index[id]
	c.players = append(c.players[:i], c.players[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.players); j++ {
		c.index[c.players[j].ID()] = j
	}
}

// Players returns the players inside, in entry order.
func (c *Cluster) Players() []*model.Player {
	out := make([]*model.Player, len(c.players))
	copy(out, c.players)
	return out
}

// Has reports whether p is inside.
func (c *Cluster) Has(p *model.Player) bool {
	_, ok := c.index[p.ID()]
	return ok
}

// Count returns the number of players inside.
func (c *Cluster) Count() int { return len(c.players) }

// Dispose destroys every trigger and drops subscribers without firing exit
// events. Safe on a partially built cluster and safe to call twice.
func (c *Cluster) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	for _, t := range c.triggers {
		if t != nil {
			t.Destroy()
		}
	}
	c.players = nil
	clear(c.index)
	c.onEnter.Clear()
	c.onExit.Clear()
}

// IsDisposed reports whether Dispose was called.
func (c *Cluster) IsDisposed() bool { return c.disposed }

// GroupByName splits zones into same-named groups, keeping first-seen order.
func GroupByName(zones []Zone) map[string][]Zone {
	out := make(map[string][]Zone)
	for _, z := range zones {
		out[z.Name] = append(out[z.Name], z)
	}
	return out
}
