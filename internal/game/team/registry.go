package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
)

// Registry resolves the teams of one layout.
type Registry interface {
	// AllTeams returns the teams in a stable order for the whole match.
	AllTeams() []*Team
	// FindTeam accepts a faction id/name, numeric team id or a role keyword
	// ("attacker", "defender"). Returns NoTeam when nothing matches.
	FindTeam(search string) *Team
	// TeamFor maps an in-game group to its team (NoTeam if none).
	TeamFor(groupID uint64) *Team
	// Initialize resolves factions, assigns roles and (re)creates groups.
	Initialize(ctx context.Context) error
	AdminGroupID() uint64
	// HasBothTeams reports whether one team attacks and the other defends.
	HasBothTeams() bool
}

// FactionStore looks up factions by id.
type FactionStore interface {
	Faction(ctx context.Context, id string) (*Faction, error)
}

// GroupService manages in-game groups. DestroyGroup kicks every member.
type GroupService interface {
	CreateGroup(ctx context.Context, name string) (uint64, error)
	DestroyGroup(ctx context.Context, id uint64) error
}

// ErrFactionNotFound is returned by FactionStore implementations.
var ErrFactionNotFound = errors.New("faction not found")

// StaticFactions is a FactionStore over a fixed set, keyed case-insensitively.
type StaticFactions map[string]*Faction

// NewStaticFactions indexes factions by id.
func NewStaticFactions(factions ...*Faction) StaticFactions {
	s := make(StaticFactions, len(factions))
	for _, f := range factions {
		s[strings.ToLower(f.ID)] = f
	}
	return s
}

// Faction implements FactionStore.
func (s StaticFactions) Faction(_ context.Context, id string) (*Faction, error) {
	if f, ok := s[strings.ToLower(id)]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrFactionNotFound, id)
}

// Info is the configured description of one side.
type Info struct {
	Faction string
	Role    string
	Name    string // group display name override
}

// TwoSidedRegistry manages exactly two opposing teams.
// Thread-safe: protected by mu.
type TwoSidedRegistry struct {
	infos    [2]Info
	factions FactionStore
	groups   GroupService
	coin     func() bool

	mu         sync.RWMutex
	teams      []*Team
	adminGroup uint64
	owned      []uint64 // groups created by the last Initialize
	hasBoth    bool
}

func defaultCoin() bool { return rand.IntN(2) == 0 }

// Option configures a TwoSidedRegistry.
type Option func(*TwoSidedRegistry)

// WithCoin overrides the fair coin used for random+random role assignment.
func WithCoin(coin func() bool) Option {
	return func(r *TwoSidedRegistry) { r.coin = coin }
}

// NewTwoSidedRegistry validates that exactly two team infos are configured.
func NewTwoSidedRegistry(infos []Info, factions FactionStore, groups GroupService, opts ...Option) (*TwoSidedRegistry, error) {
	if len(infos) != 2 {
		return nil, fmt.Errorf("%w: two-sided layout needs 2 teams, got %d", ErrTeamCount, len(infos))
	}
	r := &TwoSidedRegistry{
		infos:    [2]Info{infos[0], infos[1]},
		factions: factions,
		groups:   groups,
		coin:     defaultCoin,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Initialize implements Registry.
func (r *TwoSidedRegistry) Initialize(ctx context.Context) error {
	roleA, err := ParseRole(r.infos[0].Role)
	if err != nil {
		return fmt.Errorf("team 1: %w", err)
	}
	roleB, err := ParseRole(r.infos[1].Role)
	if err != nil {
		return fmt.Errorf("team 2: %w", err)
	}
	roleA, roleB, err = ResolveRoles(roleA, roleB, r.coin)
	if err != nil {
		return err
	}

	var factions [2]*Faction
	for i, info := range r.infos {
		f, err := r.factions.Faction(ctx, info.Faction)
		if err != nil {
			return fmt.Errorf("team %d: resolving faction: %w", i+1, err)
		}
		factions[i] = f
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	groups, admin, err := r.recreateGroups(ctx, factions)
	if err != nil {
		return err
	}

	a := New(1, factions[0], groups[0], roleA)
	b := New(2, factions[1], groups[1], roleB)
	DeclareEnemies(a, b)

	r.mu.Lock()
	r.teams = []*Team{a, b}
	r.adminGroup = admin
	r.hasBoth = roleA != RoleNone
	r.mu.Unlock()

	slog.Info("teams initialized",
		"team1", a.String(), "role1", roleA,
		"team2", b.String(), "role2", roleB)
	return nil
}

// recreateGroups destroys groups from a previous initialization and creates
// two play groups plus one admin group.
func (r *TwoSidedRegistry) recreateGroups(ctx context.Context, factions [2]*Faction) ([2]uint64, uint64, error) {
	var ids [2]uint64

	r.mu.Lock()
	prior := r.owned
	r.owned = nil
	r.mu.Unlock()

	r.destroyGroups(ctx, prior)

	created := make([]uint64, 0, 3)
	for i, f := range factions {
		name := r.infos[i].Name
		if name == "" {
			name = f.Name
		}
		id, err := r.groups.CreateGroup(ctx, name)
		if err != nil {
			r.destroyGroups(ctx, created)
			return ids, 0, fmt.Errorf("creating group for team %d: %w", i+1, err)
		}
		ids[i] = id
		created = append(created, id)
	}
	admin, err := r.groups.CreateGroup(ctx, "Admins")
	if err != nil {
		r.destroyGroups(ctx, created)
		return ids, 0, fmt.Errorf("creating admin group: %w", err)
	}
	created = append(created, admin)

	r.mu.Lock()
	r.owned = created
	r.mu.Unlock()
	return ids, admin, nil
}

// destroyGroups removes groups this registry created. Teardown runs even
// when ctx is already canceled.
func (r *TwoSidedRegistry) destroyGroups(ctx context.Context, ids []uint64) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range ids {
		if err := r.groups.DestroyGroup(ctx, id); err != nil {
			// Группа могла быть удалена извне.
			slog.Warn("destroying team group", "group", id, "err", err)
		}
	}
}

// AllTeams implements Registry.
func (r *TwoSidedRegistry) AllTeams() []*Team {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Team, len(r.teams))
	copy(out, r.teams)
	return out
}

// FindTeam implements Registry.
func (r *TwoSidedRegistry) FindTeam(search string) *Team {
	search = strings.TrimSpace(search)
	if search == "" {
		return NoTeam
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.teams {
		if t.matches(search) {
			return t
		}
	}
	return NoTeam
}

// TeamFor implements Registry.
func (r *TwoSidedRegistry) TeamFor(groupID uint64) *Team {
	if groupID == 0 {
		return NoTeam
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.teams {
		if t.groupID == groupID {
			return t
		}
	}
	return NoTeam
}

// AdminGroupID implements Registry.
func (r *TwoSidedRegistry) AdminGroupID() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adminGroup
}

// HasBothTeams implements Registry.
func (r *TwoSidedRegistry) HasBothTeams() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasBoth
}

// NoTeamsRegistry is used by layouts without teams (free-for-all, staging).
type NoTeamsRegistry struct {
	groups GroupService

	mu    sync.RWMutex
	admin uint64
}

// NewNoTeamsRegistry creates a registry with no play teams. groups may be nil.
func NewNoTeamsRegistry(groups GroupService) *NoTeamsRegistry {
	return &NoTeamsRegistry{groups: groups}
}

// Initialize creates the admin group when a GroupService is available.
func (r *NoTeamsRegistry) Initialize(ctx context.Context) error {
	if r.groups == nil {
		return nil
	}
	id, err := r.groups.CreateGroup(ctx, "Admins")
	if err != nil {
		return fmt.Errorf("creating admin group: %w", err)
	}
	r.mu.Lock()
	r.admin = id
	r.mu.Unlock()
	return nil
}

func (r *NoTeamsRegistry) AllTeams() []*Team     { return nil }
func (r *NoTeamsRegistry) FindTeam(string) *Team { return NoTeam }
func (r *NoTeamsRegistry) TeamFor(uint64) *Team  { return NoTeam }
func (r *NoTeamsRegistry) HasBothTeams() bool    { return false }

// AdminGroupID implements Registry.
func (r *NoTeamsRegistry) AdminGroupID() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.admin
}
