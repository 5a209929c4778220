package contest

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/frontline/internal/game/team"
)

var (
	teamA = team.New(1, &team.Faction{ID: "a", ShortName: "A"}, 100, team.RoleAttacker)
	teamB = team.New(2, &team.Faction{ID: "b", ShortName: "B"}, 200, team.RoleDefender)
)

type recorder struct {
	changes   []PointsChange
	won       []*team.Team
	restarted []*team.Team
}

func newTestContest(t *testing.T, cfg Config) (*Contest, *recorder) {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	rec := &recorder{}
	c.OnPointsChanged(func(pc PointsChange) { rec.changes = append(rec.changes, pc) })
	c.OnWon(func(w *team.Team) { rec.won = append(rec.won, w) })
	c.OnRestarted(func(d *team.Team) { rec.restarted = append(rec.restarted, d) })
	return c, rec
}

func tickN(c *Contest, n int, present ...*team.Team) {
	for range n {
		c.Tick(present)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"zero capacity", Config{Capacity: 0, PointsPerTick: 1}, true},
		{"zero step", Config{Capacity: 10, PointsPerTick: 0}, true},
		{"baseline above capacity", Config{Capacity: 10, PointsPerTick: 1, PostCapturePoints: 11}, true},
		{"negative baseline", Config{Capacity: 10, PointsPerTick: 1, PostCapturePoints: -1}, true},
		{"zero baseline", Config{Capacity: 10, PointsPerTick: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestContest_InitialState(t *testing.T) {
	t.Parallel()
	c, _ := newTestContest(t, DefaultConfig())

	assert.Same(t, team.NoTeam, c.Owner())
	assert.Same(t, team.NoTeam, c.Leader())
	assert.Equal(t, 0, c.Points())
	assert.Equal(t, DefaultCapacity, c.Capacity())
	assert.False(t, c.IsWon())
}

func TestContest_CaptureFiresOnce(t *testing.T) {
	t.Parallel()
	c, rec := newTestContest(t, DefaultConfig())

	tickN(c, DefaultCapacity-1, teamA)
	assert.Empty(t, rec.won)
	assert.Equal(t, DefaultCapacity-1, c.Points())
	assert.Same(t, teamA, c.Leader())

	tickN(c, 1, teamA)
	require.Len(t, rec.won, 1)
	assert.Same(t, teamA, rec.won[0])
	assert.Same(t, teamA, c.Owner())
	assert.True(t, c.IsWon())

	// Holding the point afterwards never re-fires.
	tickN(c, 100, teamA)
	assert.Len(t, rec.won, 1)
	assert.Equal(t, DefaultCapacity, c.Points())
}

func TestContest_PointsChangedPerTick(t *testing.T) {
	t.Parallel()
	c, rec := newTestContest(t, DefaultConfig())

	tickN(c, 3, teamA)

	require.Len(t, rec.changes, 3)
	for i, ch := range rec.changes {
		assert.Equal(t, i+1, ch.Points)
		assert.Equal(t, 1, ch.Delta)
		assert.Same(t, teamA, ch.Leader)
	}
}

func TestContest_Stalemate(t *testing.T) {
	t.Parallel()
	c, rec := newTestContest(t, DefaultConfig())

	tickN(c, 10, teamA)
	before := len(rec.changes)

	tickN(c, 20, teamA, teamB)
	assert.Len(t, rec.changes, before, "no delta while both teams are present")
	assert.Equal(t, 10, c.Points())

	tickN(c, 5)
	assert.Len(t, rec.changes, before, "empty zone does not move points")
}

func TestContest_DecayWhenContested(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.DecayWhenContested = true
	c, rec := newTestContest(t, cfg)

	tickN(c, 5, teamA)
	tickN(c, 10, teamA, teamB)

	assert.Equal(t, 0, c.Points())
	assert.Same(t, teamA, c.Leader(), "decay keeps the leader")
	assert.Empty(t, rec.restarted)
}

func TestContest_DecayWhenContestedNeutralizesOwner(t *testing.T) {
	t.Parallel()
	cfg := Config{Capacity: 4, PointsPerTick: 1, PostCapturePoints: 4, DecayWhenContested: true}
	c, rec := newTestContest(t, cfg)

	tickN(c, 4, teamA)
	require.Same(t, teamA, c.Owner())
	require.True(t, c.IsWon())

	tickN(c, 3, teamA, teamB)
	assert.Same(t, teamA, c.Owner(), "ownership holds while points remain")
	assert.Empty(t, rec.restarted)

	tickN(c, 7, teamA, teamB)
	assert.Equal(t, 0, c.Points())
	assert.Same(t, team.NoTeam, c.Owner())
	assert.False(t, c.IsWon())
	require.Len(t, rec.restarted, 1)
	assert.Same(t, teamB, rec.restarted[0])

	// The former owner has to capture again from zero.
	tickN(c, 3, teamA)
	assert.False(t, c.IsWon())
	tickN(c, 1, teamA)
	assert.Same(t, teamA, c.Owner())
	assert.Len(t, rec.won, 2)
}

func TestContest_NeutralizeBeforeRecapture(t *testing.T) {
	t.Parallel()
	c, rec := newTestContest(t, DefaultConfig())

	tickN(c, DefaultCapacity, teamA)
	require.Same(t, teamA, c.Owner())

	// B pushes A's points down; ownership holds while points > 0.
	tickN(c, DefaultCapacity-1, teamB)
	assert.Same(t, teamA, c.Owner())
	assert.Same(t, teamA, c.Leader())
	assert.Equal(t, 1, c.Points())
	assert.Empty(t, rec.restarted)

	tickN(c, 1, teamB)
	require.Len(t, rec.restarted, 1)
	assert.Same(t, teamB, rec.restarted[0])
	assert.Same(t, team.NoTeam, c.Owner())
	assert.Same(t, teamB, c.Leader())
	assert.Equal(t, 0, c.Points())

	tickN(c, DefaultCapacity, teamB)
	require.Len(t, rec.won, 2)
	assert.Same(t, teamB, rec.won[1])
	assert.Same(t, teamB, c.Owner())
}

func TestContest_OwnerReturnsBeforeNeutralize(t *testing.T) {
	t.Parallel()
	c, rec := newTestContest(t, DefaultConfig())

	tickN(c, DefaultCapacity, teamA)
	tickN(c, 30, teamB)
	tickN(c, 30, teamA)

	assert.Same(t, teamA, c.Owner())
	assert.Equal(t, DefaultCapacity-30+30, c.Points())
	assert.Len(t, rec.won, 1, "owner restoring its own point is not a capture")
	assert.Empty(t, rec.restarted)
}

func TestContest_LeaderFlipWithoutOwner(t *testing.T) {
	t.Parallel()
	c, rec := newTestContest(t, DefaultConfig())

	tickN(c, 10, teamA)
	tickN(c, 10, teamB)
	assert.Same(t, teamB, c.Leader())
	assert.Equal(t, 0, c.Points())
	assert.Empty(t, rec.restarted, "nothing to neutralize before first capture")

	tickN(c, 4, teamB)
	assert.Equal(t, 4, c.Points())
}

func TestContest_PostCaptureBaseline(t *testing.T) {
	t.Parallel()
	cfg := Config{Capacity: 10, PointsPerTick: 2, PostCapturePoints: 4}
	c, rec := newTestContest(t, cfg)

	tickN(c, 5, teamA)
	require.Len(t, rec.won, 1)
	assert.Equal(t, 4, c.Points())

	// Ramping back up to capacity does not recapture.
	tickN(c, 10, teamA)
	assert.Equal(t, 10, c.Points())
	assert.Len(t, rec.won, 1)
}

func TestContest_ZeroBaselineNeutralizesOnFirstEnemyTick(t *testing.T) {
	t.Parallel()
	cfg := Config{Capacity: 4, PointsPerTick: 1, PostCapturePoints: 0}
	c, rec := newTestContest(t, cfg)

	tickN(c, 4, teamA)
	require.Same(t, teamA, c.Owner())

	tickN(c, 1, teamB)
	require.Len(t, rec.restarted, 1)
	assert.Same(t, team.NoTeam, c.Owner())
	assert.Same(t, teamB, c.Leader())
}

func TestContest_IgnoresNoTeamAndDuplicates(t *testing.T) {
	t.Parallel()
	c, _ := newTestContest(t, DefaultConfig())

	tickN(c, 3, team.NoTeam, teamA, teamA, nil)
	assert.Equal(t, 3, c.Points())
	assert.Same(t, teamA, c.Leader())

	tickN(c, 3, team.NoTeam)
	assert.Equal(t, 3, c.Points())
}

func TestContest_BoundsInvariant(t *testing.T) {
	t.Parallel()
	configs := []Config{
		DefaultConfig(),
		{Capacity: 7, PointsPerTick: 3, PostCapturePoints: 2},
		{Capacity: 5, PointsPerTick: 5, PostCapturePoints: 5, DecayWhenContested: true},
	}
	options := [][]*team.Team{{}, {teamA}, {teamB}, {teamA, teamB}, {team.NoTeam}}

	for i, cfg := range configs {
		rng := rand.New(rand.NewPCG(uint64(i), 42))
		c, rec := newTestContest(t, cfg)
		for range 5000 {
			c.Tick(options[rng.IntN(len(options))])
			require.GreaterOrEqual(t, c.Points(), 0)
			require.LessOrEqual(t, c.Points(), cfg.Capacity)
		}
		// Captures and neutralizations alternate per owner change.
		assert.LessOrEqual(t, len(rec.restarted), len(rec.won))
	}
}

func TestContest_UnsubscribeAndClose(t *testing.T) {
	t.Parallel()
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	calls := 0
	unsub := c.OnPointsChanged(func(PointsChange) { calls++ })
	c.Tick([]*team.Team{teamA})
	unsub()
	c.Tick([]*team.Team{teamA})
	assert.Equal(t, 1, calls)

	won := 0
	c.OnWon(func(*team.Team) { won++ })
	c.Close()
	tickN(c, DefaultCapacity, teamA)
	assert.Equal(t, 0, won)
}
