// Package flag binds a zone cluster to a contest and republishes what
// happens on it as match events.
package flag

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/udisondev/frontline/internal/event"
	"github.com/udisondev/frontline/internal/game/contest"
	"github.com/udisondev/frontline/internal/game/team"
	"github.com/udisondev/frontline/internal/game/zone"
	"github.com/udisondev/frontline/internal/model"
)

// TeamResolver maps a player's group to a team.
type TeamResolver interface {
	TeamFor(groupID uint64) *team.Team
}

// Decider tells whether a player on a flag is actively attacking or
// defending it. Players that are neither are not counted for presence.
type Decider interface {
	IsAttacking(p *model.Player, f *Flag) bool
	IsDefending(p *model.Player, f *Flag) bool
}

// Option configures a Flag.
type Option func(*Flag)

// WithDecider installs an attack/defense decider.
func WithDecider(d Decider) Option {
	return func(f *Flag) { f.decider = d }
}

// Flag is one capturable objective. All methods run on the game loop.
type Flag struct {
	index   int
	cluster *zone.Cluster
	contest *contest.Contest
	bus     event.Publisher
	teams   TeamResolver
	decider Decider

	pastOwners    []*team.Team
	previousOwner *team.Team
	contested     bool

	unsubscribe []func()
	disposed    bool
}

// New binds cluster to a fresh contest built from cfg. The flag owns the
// cluster from here on and destroys it on Dispose.
func New(index int, cluster *zone.Cluster, cfg contest.Config, bus event.Publisher, teams TeamResolver, opts ...Option) (*Flag, error) {
	c, err := contest.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("flag %q: %w", cluster.Name(), err)
	}
	f := &Flag{
		index:         index,
		cluster:       cluster,
		contest:       c,
		bus:           bus,
		teams:         teams,
		previousOwner: team.NoTeam,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.decider == nil {
		slog.Debug("no attack/defense decider, counting every player", "flag", cluster.Name())
	}

	f.unsubscribe = append(f.unsubscribe,
		cluster.OnEnter(f.onEnter),
		cluster.OnExit(f.onExit),
		c.OnPointsChanged(f.onPoints),
		c.OnWon(f.onWon),
		c.OnRestarted(f.onRestarted),
	)
	return f, nil
}

// Index is the flag's position in the path, counting from 0 after home A.
func (f *Flag) Index() int { return f.index }

// Name returns the zone name.
func (f *Flag) Name() string { return f.cluster.Name() }

// Cluster returns the underlying zone cluster.
func (f *Flag) Cluster() *zone.Cluster { return f.cluster }

// Contest returns the contest state.
func (f *Flag) Contest() *contest.Contest { return f.contest }

// Owner is the contest leader if the contest is won, else NoTeam.
func (f *Flag) Owner() *team.Team {
	if f.contest.IsWon() {
		return f.contest.Leader()
	}
	return team.NoTeam
}

// IsContested reports whether more than one team is present.
func (f *Flag) IsContested() bool { return f.contested }

// PastOwners returns every team that has captured the flag, in capture order.
func (f *Flag) PastOwners() []*team.Team {
	return slices.Clone(f.pastOwners)
}

// HasBeenOwnedBy reports whether t ever captured the flag.
func (f *Flag) HasBeenOwnedBy(t *team.Team) bool {
	return slices.ContainsFunc(f.pastOwners, t.Equal)
}

// PresentTeams returns the distinct teams with at least one counted player
// inside, in the order their first player entered.
func (f *Flag) PresentTeams() []*team.Team {
	var out []*team.Team
	for _, p := range f.cluster.Players() {
		if !f.counts(p) {
			continue
		}
		t := f.teams.TeamFor(p.GroupID())
		if !t.IsValid() || slices.ContainsFunc(out, t.Equal) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// PlayersOf returns the players of t inside the flag.
func (f *Flag) PlayersOf(t *team.Team) []*model.Player {
	var out []*model.Player
	for _, p := range f.cluster.Players() {
		if f.teams.TeamFor(p.GroupID()).Equal(t) {
			out = append(out, p)
		}
	}
	return out
}

func (f *Flag) counts(p *model.Player) bool {
	if f.decider == nil {
		return true
	}
	return f.decider.IsAttacking(p, f) || f.decider.IsDefending(p, f)
}

// Tick runs one contest recomputation over the current presence.
func (f *Flag) Tick() {
	if f.disposed {
		return
	}
	present := f.PresentTeams()
	f.setContested(len(present) > 1)
	f.contest.Tick(present)
}

// Revalidate recomputes the contested state without moving points. Call it
// after the decider's answers change.
func (f *Flag) Revalidate() {
	if f.disposed {
		return
	}
	f.setContested(len(f.PresentTeams()) > 1)
}

func (f *Flag) setContested(v bool) {
	if f.contested == v {
		return
	}
	f.contested = v
	f.bus.Publish(ContestedChanged{Flag: f, Contested: v})
}

func (f *Flag) onEnter(p *model.Player) {
	f.bus.Publish(PlayerEntered{Flag: f, Player: p, Team: f.teams.TeamFor(p.GroupID())})
	f.Revalidate()
}

func (f *Flag) onExit(p *model.Player) {
	f.bus.Publish(PlayerExited{Flag: f, Player: p, Team: f.teams.TeamFor(p.GroupID())})
	f.Revalidate()
}

func (f *Flag) onPoints(c contest.PointsChange) {
	f.bus.Publish(PointsChanged{Flag: f, Leader: c.Leader, Points: c.Points, Delta: c.Delta})
}

func (f *Flag) onWon(t *team.Team) {
	first := !f.HasBeenOwnedBy(t)
	if first {
		f.pastOwners = append(f.pastOwners, t)
	}
	f.previousOwner = t
	slog.Info("flag captured", "flag", f.Name(), "team", t.String(), "first", first)
	f.bus.Publish(Captured{Flag: f, Team: t, FirstCapture: first})
}

func (f *Flag) onRestarted(t *team.Team) {
	prev := f.previousOwner
	f.previousOwner = team.NoTeam
	slog.Info("flag neutralized", "flag", f.Name(), "team", t.String(), "previous_owner", prev.String())
	f.bus.Publish(Neutralized{Flag: f, Team: t, PreviousOwner: prev})
}

// Dispose unsubscribes from the cluster and the contest and destroys the
// cluster's triggers. Safe to call twice.
func (f *Flag) Dispose() {
	if f.disposed {
		return
	}
	f.disposed = true
	for _, u := range f.unsubscribe {
		u()
	}
	f.unsubscribe = nil
	f.contest.Close()
	f.cluster.Dispose()
}

// IsDisposed reports whether Dispose was called.
func (f *Flag) IsDisposed() bool { return f.disposed }

// String implements fmt.Stringer.
func (f *Flag) String() string {
	return fmt.Sprintf("%s#%d", f.Name(), f.index)
}
