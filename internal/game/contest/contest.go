// Package contest implements the per-zone capture state machine: presence of
// a single team moves a bounded point value toward that team, and ownership
// changes only at the bounds.
package contest

import (
	"errors"
	"fmt"

	"github.com/udisondev/frontline/internal/event"
	"github.com/udisondev/frontline/internal/game/team"
)

// Default contest tunables.
const (
	DefaultCapacity      = 64
	DefaultPointsPerTick = 1
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid contest config")

// Config holds the contest tunables.
type Config struct {
	Capacity      int `yaml:"capacity"`        // points needed to capture
	PointsPerTick int `yaml:"points_per_tick"` // movement per uncontested tick
	// PostCapturePoints is the point value right after a capture.
	PostCapturePoints int `yaml:"post_capture_points"`
	// DecayWhenContested drains points toward 0 while more than one team is present.
	DecayWhenContested bool `yaml:"decay_when_contested"`
}

// DefaultConfig returns the default tunables: 64 points, 1 point per tick,
// full point value kept after a capture, stalemate when contested.
func DefaultConfig() Config {
	return Config{
		Capacity:          DefaultCapacity,
		PointsPerTick:     DefaultPointsPerTick,
		PostCapturePoints: DefaultCapacity,
	}
}

// Validate checks the tunables.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity %d must be positive", ErrInvalidConfig, c.Capacity)
	}
	if c.PointsPerTick <= 0 {
		return fmt.Errorf("%w: points_per_tick %d must be positive", ErrInvalidConfig, c.PointsPerTick)
	}
	if c.PostCapturePoints < 0 || c.PostCapturePoints > c.Capacity {
		return fmt.Errorf("%w: post_capture_points %d outside [0, %d]", ErrInvalidConfig, c.PostCapturePoints, c.Capacity)
	}
	return nil
}

// PointsChange is raised whenever the point value or the leader changes.
type PointsChange struct {
	Leader *team.Team
	Points int
	Delta  int
}

// Contest is a single-leader capture contest. It is not safe for concurrent
// use; all calls happen on the game loop.
type Contest struct {
	cfg Config

	owner  *team.Team
	leader *team.Team
	points int

	onPoints    event.Signal[PointsChange]
	onWon       event.Signal[*team.Team]
	onRestarted event.Signal[*team.Team]
}

// New creates a contest with NoTeam as owner and leader.
func New(cfg Config) (*Contest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Contest{
		cfg:    cfg,
		owner:  team.NoTeam,
		leader: team.NoTeam,
	}, nil
}

// Owner returns the last team to capture, or NoTeam.
func (c *Contest) Owner() *team.Team { return c.owner }

// Leader returns the team the point value currently favors.
func (c *Contest) Leader() *team.Team { return c.leader }

// Points returns the current point value in [0, Capacity].
func (c *Contest) Points() int { return c.points }

// Capacity returns the capture threshold.
func (c *Contest) Capacity() int { return c.cfg.Capacity }

// Config returns the tunables.
func (c *Contest) Config() Config { return c.cfg }

// IsWon reports whether the contest is in the captured state.
func (c *Contest) IsWon() bool { return c.owner.IsValid() }

// OnPointsChanged subscribes to point/leader changes.
func (c *Contest) OnPointsChanged(fn func(PointsChange)) (unsubscribe func()) {
	return c.onPoints.Add(fn)
}

// OnWon subscribes to captures.
func (c *Contest) OnWon(fn func(winner *team.Team)) (unsubscribe func()) {
	return c.onWon.Add(fn)
}

// OnRestarted subscribes to neutralizations. The argument is the team that
// drove the point value to zero.
func (c *Contest) OnRestarted(fn func(dislodger *team.Team)) (unsubscribe func()) {
	return c.onRestarted.Add(fn)
}

// Tick advances the contest by one step. present holds the distinct teams
// with at least one counted player inside the zone; NoTeam entries are ignored.
func (c *Contest) Tick(present []*team.Team) {
	var single, challenger *team.Team
	count := 0
	for _, t := range present {
		if !t.IsValid() {
			continue
		}
		if challenger == nil && !t.Equal(c.owner) {
			challenger = t
		}
		if single != nil && single.Equal(t) {
			continue
		}
		single = t
		count++
	}

	switch {
	case count == 0:
		return
	case count > 1:
		if !c.cfg.DecayWhenContested || c.points == 0 {
			return
		}
		c.setPoints(c.leader, c.points-c.cfg.PointsPerTick)
		if c.points == 0 && c.owner.IsValid() {
			// Захваченная точка истощилась под спором: нейтрализуем.
			c.owner = team.NoTeam
			c.onRestarted.Emit(challenger)
		}
		return
	}

	step := c.cfg.PointsPerTick

	if !c.leader.IsValid() {
		c.setPoints(single, c.points+step)
		c.checkWon()
		return
	}

	if c.leader.Equal(single) {
		c.setPoints(c.leader, c.points+step)
		c.checkWon()
		return
	}

	// Другая команда: сначала сбиваем очки лидера до нуля.
	c.setPoints(c.leader, c.points-step)
	if c.points > 0 {
		return
	}

	if c.owner.IsValid() && !c.owner.Equal(single) {
		c.owner = team.NoTeam
		c.onRestarted.Emit(single)
	}
	c.setPoints(single, 0)
}

// checkWon fires OnWon when the leader reached capacity and does not own the point yet.
func (c *Contest) checkWon() {
	if c.points < c.cfg.Capacity || c.owner.Equal(c.leader) {
		return
	}
	c.owner = c.leader
	c.setPoints(c.leader, c.cfg.PostCapturePoints)
	c.onWon.Emit(c.owner)
}

// setPoints clamps to [0, capacity] and emits a change if anything moved.
func (c *Contest) setPoints(leader *team.Team, points int) {
	points = max(0, min(points, c.cfg.Capacity))
	if points == c.points && leader.Equal(c.leader) {
		return
	}
	delta := points - c.points
	c.points = points
	c.leader = leader
	c.onPoints.Emit(PointsChange{Leader: leader, Points: points, Delta: delta})
}

// Close drops every subscriber.
func (c *Contest) Close() {
	c.onPoints.Clear()
	c.onWon.Clear()
	c.onRestarted.Clear()
}
