// Package team resolves the teams taking part in a layout: their factions,
// in-game groups and attacker/defender roles.
package team

import (
	"strconv"
	"strings"
)

// Faction is the static identity a team plays as.
type Faction struct {
	ID        string
	Name      string
	ShortName string
	Color     string
}

// Team is one side of a layout. Teams are created once per match by a
// Registry and are immutable afterwards, except for declared opponents.
type Team struct {
	id        int
	faction   *Faction
	groupID   uint64
	role      Role
	opponents []*Team
}

// NoTeam is the sentinel for "nobody". It never takes part in a contest.
var NoTeam = &Team{faction: &Faction{ID: "none", Name: "No Team", ShortName: "-"}}

// New creates a team. Used by registries; groupID must be non-zero.
func New(id int, faction *Faction, groupID uint64, role Role) *Team {
	return &Team{id: id, faction: faction, groupID: groupID, role: role}
}

// ID returns the small numeric id (1-based, 0 for NoTeam).
func (t *Team) ID() int { return t.id }

// Faction returns the faction the team plays as.
func (t *Team) Faction() *Faction { return t.faction }

// GroupID returns the in-game group backing the team.
func (t *Team) GroupID() uint64 { return t.groupID }

// Role returns the attacker/defender role.
func (t *Team) Role() Role { return t.role }

// IsValid reports whether t is a real team (not nil, not NoTeam).
func (t *Team) IsValid() bool {
	return t != nil && t.groupID != 0
}

// Equal reports whether both teams are backed by the same group.
func (t *Team) Equal(other *Team) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.groupID == other.groupID
}

// Opponents returns the declared enemies of t.
func (t *Team) Opponents() []*Team {
	out := make([]*Team, len(t.opponents))
	copy(out, t.opponents)
	return out
}

// IsOpponent reports whether other was declared an enemy of t.
func (t *Team) IsOpponent(other *Team) bool {
	for _, o := range t.opponents {
		if o.Equal(other) {
			return true
		}
	}
	return false
}

// DeclareEnemies makes a and b opponents of each other. Repeated calls are no-ops.
func DeclareEnemies(a, b *Team) {
	if !a.IsValid() || !b.IsValid() || a.Equal(b) {
		return
	}
	if !a.IsOpponent(b) {
		a.opponents = append(a.opponents, b)
	}
	if !b.IsOpponent(a) {
		b.opponents = append(b.opponents, a)
	}
}

// String returns a log-friendly name.
func (t *Team) String() string {
	if !t.IsValid() {
		return "none"
	}
	return t.faction.ShortName + "#" + strconv.Itoa(t.id)
}

// matches implements the FindTeam search rules for one team.
func (t *Team) matches(search string) bool {
	if id, err := strconv.Atoi(search); err == nil {
		return id == t.id
	}
	if r, err := ParseRole(search); err == nil && (r == RoleAttacker || r == RoleDefender) {
		return t.role == r
	}
	f := t.faction
	return strings.EqualFold(f.ID, search) ||
		strings.EqualFold(f.Name, search) ||
		strings.EqualFold(f.ShortName, search)
}
