package world

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/udisondev/frontline/internal/model"
)

// Group is an in-game player group (a team's backing object).
type Group struct {
	ID      uint64
	Name    string
	members map[uint64]*model.Player
}

// Groups is the in-memory group service used by the team registries.
// Thread-safe: protected by mu.
type Groups struct {
	mu     sync.RWMutex
	ids    *IDGenerator
	groups map[uint64]*Group
}

// NewGroups creates an empty group service.
func NewGroups(ids *IDGenerator) *Groups {
	return &Groups{
		ids:    ids,
		groups: make(map[uint64]*Group, 4),
	}
}

// CreateGroup implements team.GroupService.
func (g *Groups) CreateGroup(_ context.Context, name string) (uint64, error) {
	id := g.ids.NextGroupID()
	g.mu.Lock()
	g.groups[id] = &Group{ID: id, Name: name, members: make(map[uint64]*model.Player)}
	g.mu.Unlock()

	slog.Debug("group created", "group", id, "name", name)
	return id, nil
}

// DestroyGroup implements team.GroupService. Members are kicked.
func (g *Groups) DestroyGroup(_ context.Context, id uint64) error {
	g.mu.Lock()
	grp, ok := g.groups[id]
	if ok {
		delete(g.groups, id)
	}
	g.mu.Unlock()

	if !ok {
		return fmt.Errorf("group %d not found", id)
	}
	for _, p := range grp.members {
		if p.GroupID() == id {
			p.SetGroupID(0)
		}
	}
	slog.Debug("group destroyed", "group", id, "kicked", len(grp.members))
	return nil
}

// Join moves p into group id, leaving any previous group.
func (g *Groups) Join(p *model.Player, id uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	grp, ok := g.groups[id]
	if !ok {
		return fmt.Errorf("group %d not found", id)
	}
	if prev, ok := g.groups[p.GroupID()]; ok {
		delete(prev.members, p.ID())
	}
	grp.members[p.ID()] = p
	p.SetGroupID(id)
	return nil
}

// Leave removes p from its group.
func (g *Groups) Leave(p *model.Player) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if grp, ok := g.groups[p.GroupID()]; ok {
		delete(grp.members, p.ID())
	}
	p.SetGroupID(0)
}

// Exists reports whether a group is alive.
func (g *Groups) Exists(id uint64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.groups[id]
	return ok
}

// Count returns the number of live groups.
func (g *Groups) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.groups)
}

// MemberCount returns the number of players in a group.
func (g *Groups) MemberCount(id uint64) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if grp, ok := g.groups[id]; ok {
		return len(grp.members)
	}
	return 0
}
