// Package scoring turns flag captures into ticket losses and decides the
// winner of a rotation.
package scoring

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/udisondev/frontline/internal/event"
	"github.com/udisondev/frontline/internal/game/flag"
	"github.com/udisondev/frontline/internal/game/team"
)

// Default ticket tunables.
const (
	DefaultTickets     = 300
	DefaultCaptureCost = 50
	DefaultRetakeCost  = 25
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid ticket config")

// Config holds the ticket tunables.
type Config struct {
	Tickets int `yaml:"tickets"`
	// CaptureCost is taken from the opponents of a team capturing a flag for
	// the first time.
	CaptureCost int `yaml:"capture_cost"`
	// RetakeCost is taken when a team captures a flag it owned before.
	RetakeCost     int `yaml:"retake_cost"`
	NeutralizeCost int `yaml:"neutralize_cost"`
}

// DefaultConfig returns the default ticket tunables.
func DefaultConfig() Config {
	return Config{
		Tickets:     DefaultTickets,
		CaptureCost: DefaultCaptureCost,
		RetakeCost:  DefaultRetakeCost,
	}
}

// Validate checks the tunables.
func (c Config) Validate() error {
	if c.Tickets <= 0 {
		return fmt.Errorf("%w: tickets %d must be positive", ErrInvalidConfig, c.Tickets)
	}
	if c.CaptureCost < 0 || c.RetakeCost < 0 || c.NeutralizeCost < 0 {
		return fmt.Errorf("%w: costs must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Standing is one team's ticket count.
type Standing struct {
	Team    *team.Team
	Tickets int
}

// Tickets keeps ticket counts for a set of teams and decides the winner:
// the last team with tickets left, or the first to own every flag.
// It runs on the game loop.
type Tickets struct {
	cfg     Config
	teams   []*team.Team
	tickets map[uint64]int
	flags   func() []*flag.Flag

	winner    *team.Team
	onDecided event.Signal[*team.Team]
	unsub     []func()
}

// NewTickets starts every team at cfg.Tickets. flags returns the flags that
// count for the all-flags win; nil disables that rule.
func NewTickets(cfg Config, teams []*team.Team, flags func() []*flag.Flag) (*Tickets, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Tickets{
		cfg:     cfg,
		teams:   teams,
		tickets: make(map[uint64]int, len(teams)),
		flags:   flags,
		winner:  team.NoTeam,
	}
	for _, tm := range teams {
		t.tickets[tm.GroupID()] = cfg.Tickets
	}
	return t, nil
}

// Attach subscribes to capture and neutralize events on bus.
func (t *Tickets) Attach(bus *event.Bus) {
	t.unsub = append(t.unsub,
		event.Subscribe(bus, t.HandleCaptured),
		event.Subscribe(bus, t.HandleNeutralized),
	)
}

// Close unsubscribes from the bus and drops OnDecided subscribers.
func (t *Tickets) Close() {
	for _, u := range t.unsub {
		u()
	}
	t.unsub = nil
	t.onDecided.Clear()
}

// OnDecided subscribes to the winner decision. It fires at most once.
func (t *Tickets) OnDecided(fn func(winner *team.Team)) (unsubscribe func()) {
	return t.onDecided.Add(fn)
}

// HandleCaptured charges the capturing team's opponents.
func (t *Tickets) HandleCaptured(ev flag.Captured) {
	if t.Decided() {
		return
	}
	cost := t.cfg.RetakeCost
	if ev.FirstCapture {
		cost = t.cfg.CaptureCost
	}
	t.chargeOpponents(ev.Team, cost)
	if t.Decided() {
		return
	}
	if t.ownsAll(ev.Team) {
		slog.Info("team owns every flag", "team", ev.Team.String())
		t.decide(ev.Team)
	}
}

// HandleNeutralized charges the opponents of the dislodging team.
func (t *Tickets) HandleNeutralized(ev flag.Neutralized) {
	if t.Decided() || t.cfg.NeutralizeCost == 0 {
		return
	}
	t.chargeOpponents(ev.Team, t.cfg.NeutralizeCost)
}

func (t *Tickets) chargeOpponents(by *team.Team, cost int) {
	if cost == 0 || !by.IsValid() {
		return
	}
	for _, tm := range t.teams {
		if tm.Equal(by) {
			continue
		}
		left := max(0, t.tickets[tm.GroupID()]-cost)
		t.tickets[tm.GroupID()] = left
		slog.Debug("tickets lost", "team", tm.String(), "cost", cost, "left", left)
		if left == 0 {
			t.decide(t.lastStanding())
			return
		}
	}
}

// lastStanding returns the only team with tickets left, or NoTeam.
func (t *Tickets) lastStanding() *team.Team {
	winner := team.NoTeam
	for _, tm := range t.teams {
		if t.tickets[tm.GroupID()] == 0 {
			continue
		}
		if winner.IsValid() {
			return team.NoTeam
		}
		winner = tm
	}
	return winner
}

func (t *Tickets) ownsAll(tm *team.Team) bool {
	if t.flags == nil {
		return false
	}
	flags := t.flags()
	if len(flags) == 0 {
		return false
	}
	for _, f := range flags {
		if !f.Owner().Equal(tm) {
			return false
		}
	}
	return true
}

func (t *Tickets) decide(winner *team.Team) {
	if !winner.IsValid() {
		return
	}
	t.winner = winner
	slog.Info("rotation decided", "winner", winner.String())
	t.onDecided.Emit(winner)
	t.onDecided.Clear()
}

// Decided reports whether a winner is known.
func (t *Tickets) Decided() bool { return t.winner.IsValid() }

// Winner returns the winner or NoTeam.
func (t *Tickets) Winner() *team.Team { return t.winner }

// TicketsOf returns tm's tickets.
func (t *Tickets) TicketsOf(tm *team.Team) int {
	return t.tickets[tm.GroupID()]
}

// Standings returns ticket counts in team order.
func (t *Tickets) Standings() []Standing {
	out := make([]Standing, len(t.teams))
	for i, tm := range t.teams {
		out[i] = Standing{Team: tm, Tickets: t.tickets[tm.GroupID()]}
	}
	return out
}

// FlagLeader returns the team owning the most flags, or NoTeam on a tie.
func FlagLeader(flags []*flag.Flag, teams []*team.Team) *team.Team {
	best, bestCount, tie := team.NoTeam, 0, false
	for _, tm := range teams {
		n := 0
		for _, f := range flags {
			if f.Owner().Equal(tm) {
				n++
			}
		}
		switch {
		case n > bestCount:
			best, bestCount, tie = tm, n, false
		case n == bestCount && n > 0:
			tie = true
		}
	}
	if tie {
		return team.NoTeam
	}
	return best
}
