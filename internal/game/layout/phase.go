package layout

import (
	"context"
	"sync/atomic"

	"github.com/udisondev/frontline/internal/config"
	"github.com/udisondev/frontline/internal/game/team"
	"github.com/udisondev/frontline/internal/model"
)

// Kind is the closed set of phase kinds.
type Kind int

const (
	KindNull Kind = iota
	KindPreparation
	KindRotation
	KindLeaderboard
	KindWinnerPopup
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindPreparation:
		return "preparation"
	case KindRotation:
		return "rotation"
	case KindLeaderboard:
		return "leaderboard"
	case KindWinnerPopup:
		return "winner_popup"
	default:
		return "unknown"
	}
}

// Phase is one bounded stage of a match.
//
// InitializePhase prepares without making anything visible and may run off
// the game loop. BeginPhase and EndPhase run on the game loop; EndPhase is
// idempotent and safe on a phase that never began.
type Phase interface {
	Name() string
	Kind() Kind
	Config() config.Phase
	InitializePhase(ctx context.Context) error
	BeginPhase(ctx context.Context) error
	EndPhase(ctx context.Context) error
	IsActive() bool
}

// PlayerTracker is implemented by phases that react to player movement.
type PlayerTracker interface {
	RevalidatePlayer(p *model.Player)
	RemovePlayer(p *model.Player)
}

// base holds what every phase shares.
type base struct {
	layout *Layout
	cfg    config.Phase
	kind   Kind
	active atomic.Bool

	teamSettings map[uint64]config.PhaseTeam
}

func (b *base) init(l *Layout, cfg config.Phase, kind Kind) {
	b.layout, b.cfg, b.kind = l, cfg, kind
}

// Name returns the configured name or the phase type.
func (b *base) Name() string { return b.cfg.DisplayName() }

// Kind returns the phase kind.
func (b *base) Kind() Kind { return b.kind }

// Config returns the phase configuration.
func (b *base) Config() config.Phase { return b.cfg }

// IsActive reports whether the phase is between begin and end.
func (b *base) IsActive() bool { return b.active.Load() }

// Layout returns the owning layout.
func (b *base) Layout() *Layout { return b.layout }

// resolveTeams maps per-team settings to initialized teams. Entries naming
// no known team are logged and ignored.
func (b *base) resolveTeams() {
	b.teamSettings = make(map[uint64]config.PhaseTeam, len(b.cfg.Teams))
	for _, s := range b.cfg.Teams {
		t := b.layout.deps.Teams.FindTeam(s.Team)
		if !t.IsValid() {
			b.layout.log.Warn("phase team setting matches no team", "phase", b.Name(), "team", s.Team)
			continue
		}
		b.teamSettings[t.GroupID()] = s
	}
}

// TeamName returns the team-specific display name, or the phase name.
func (b *base) TeamName(t *team.Team) string {
	if s, ok := b.teamSettings[t.GroupID()]; ok && t.IsValid() && s.Name != "" {
		return s.Name
	}
	return b.Name()
}

// IsGrounded reports whether players of t are held in place during the phase.
func (b *base) IsGrounded(t *team.Team) bool {
	if !t.IsValid() {
		return false
	}
	return b.teamSettings[t.GroupID()].Grounded
}

// hasTeamNames reports whether any team has its own display name.
func (b *base) hasTeamNames() bool {
	for _, s := range b.teamSettings {
		if s.Name != "" {
			return true
		}
	}
	return false
}

// playersByTitle splits players by their team-specific display name,
// keeping first-seen order of the names.
func (b *base) playersByTitle(players []*model.Player) ([]string, map[string][]*model.Player) {
	byTitle := make(map[string][]*model.Player)
	var order []string
	for _, pl := range players {
		title := b.TeamName(b.layout.deps.Teams.TeamFor(pl.GroupID()))
		if _, seen := byTitle[title]; !seen {
			order = append(order, title)
		}
		byTitle[title] = append(byTitle[title], pl)
	}
	return order, byTitle
}
