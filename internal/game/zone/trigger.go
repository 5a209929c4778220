package zone

import "github.com/udisondev/frontline/internal/model"

// Trigger is the live spatial object backing one zone piece. It tracks which
// players are inside. Triggers are owned by a Cluster and only touched from
// the game loop.
type Trigger struct {
	zone      Zone
	inside    map[uint64]*model.Player
	destroyed bool
}

// NewTrigger creates a trigger over z.
func NewTrigger(z Zone) *Trigger {
	return &Trigger{zone: z, inside: make(map[uint64]*model.Player)}
}

// Zone returns the geometry the trigger covers.
func (t *Trigger) Zone() Zone { return t.zone }

// Revalidate checks p against the geometry and updates tracking.
// It returns whether p is inside after the check. A destroyed trigger
// contains nobody.
func (t *Trigger) Revalidate(p *model.Player) bool {
	if t.destroyed {
		return false
	}
	if t.zone.ContainsLocation(p.Location()) {
		t.inside[p.ID()] = p
		return true
	}
	delete(t.inside, p.ID())
	return false
}

// Remove stops tracking p. Returns whether p was tracked.
func (t *Trigger) Remove(p *model.Player) bool {
	if t.destroyed {
		return false
	}
	if _, ok := t.inside[p.ID()]; !ok {
		return false
	}
	delete(t.inside, p.ID())
	return true
}

// Has reports whether the player with id is tracked as inside.
func (t *Trigger) Has(id uint64) bool {
	_, ok := t.inside[id]
	return ok
}

// Count returns the number of players inside.
func (t *Trigger) Count() int { return len(t.inside) }

// Destroy releases the trigger. Safe to call more than once.
func (t *Trigger) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	clear(t.inside)
}

// IsDestroyed reports whether Destroy was called.
func (t *Trigger) IsDestroyed() bool { return t.destroyed }
