package model

import (
	"sync"
	"sync/atomic"
)

// Player is an online participant of a layout.
// Location and group are updated by the movement and team systems from
// their own goroutines, so both are guarded.
type Player struct {
	id   uint64
	name string

	mu  sync.RWMutex
	loc Location

	// groupID is the in-game group the player currently belongs to (0 = none).
	groupID atomic.Uint64
}

// NewPlayer creates a player at the given location without a group.
func NewPlayer(id uint64, name string, loc Location) *Player {
	return &Player{id: id, name: name, loc: loc}
}

// ID returns the unique player id.
func (p *Player) ID() uint64 { return p.id }

// Name returns the display name.
func (p *Player) Name() string { return p.name }

// Location returns the current position.
func (p *Player) Location() Location {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loc
}

// SetLocation moves the player. Zone revalidation is the caller's job.
func (p *Player) SetLocation(loc Location) {
	p.mu.Lock()
	p.loc = loc
	p.mu.Unlock()
}

// GroupID returns the in-game group id (0 if not in a group).
func (p *Player) GroupID() uint64 { return p.groupID.Load() }

// SetGroupID assigns the player to a group.
func (p *Player) SetGroupID(id uint64) { p.groupID.Store(id) }
