package world

import (
	"slices"
	"sync"

	"github.com/udisondev/frontline/internal/model"
)

// Players tracks online players. Implements layout.PlayerSource.
// Thread-safe: protected by mu.
type Players struct {
	mu      sync.RWMutex
	players map[uint64]*model.Player
}

// NewPlayers creates an empty online-player registry.
func NewPlayers() *Players {
	return &Players{players: make(map[uint64]*model.Player, 64)}
}

// Add registers an online player.
func (w *Players) Add(p *model.Player) {
	w.mu.Lock()
	w.players[p.ID()] = p
	w.mu.Unlock()
}

// Remove unregisters a player.
func (w *Players) Remove(id uint64) {
	w.mu.Lock()
	delete(w.players, id)
	w.mu.Unlock()
}

// Get returns a player by id, or nil.
func (w *Players) Get(id uint64) *model.Player {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.players[id]
}

// OnlinePlayers returns a snapshot ordered by id.
func (w *Players) OnlinePlayers() []*model.Player {
	w.mu.RLock()
	out := make([]*model.Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	w.mu.RUnlock()

	slices.SortFunc(out, func(a, b *model.Player) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return out
}

// Count returns the number of online players.
func (w *Players) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.players)
}
