package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/frontline/internal/game/team"
	"github.com/udisondev/frontline/internal/model"
	"github.com/udisondev/frontline/internal/world"
)

// Тестовые фракции.
var (
	FactionUSA = &team.Faction{ID: "usa", Name: "United States", ShortName: "USA", Color: "#3a5fcd"}
	FactionRUS = &team.Faction{ID: "rus", Name: "Russia", ShortName: "RUS", Color: "#cd3a3a"}
)

// Factions возвращает хранилище с FactionUSA и FactionRUS.
func Factions() team.StaticFactions {
	return team.NewStaticFactions(FactionUSA, FactionRUS)
}

// Match: мир с двумя инициализированными командами: USA атакует, RUS обороняет.
type Match struct {
	IDs      *world.IDGenerator
	Groups   *world.Groups
	Players  *world.Players
	Registry *team.TwoSidedRegistry
	TeamA    *team.Team
	TeamB    *team.Team
}

// NewMatch создаёт Match. Registry уже инициализирован.
func NewMatch(tb testing.TB) *Match {
	tb.Helper()
	m := NewWorld()

	reg, err := team.NewTwoSidedRegistry([]team.Info{
		{Faction: "usa", Role: "attacker"},
		{Faction: "rus", Role: "defender"},
	}, Factions(), m.Groups)
	require.NoError(tb, err)
	require.NoError(tb, reg.Initialize(context.Background()))

	m.Registry = reg
	teams := reg.AllTeams()
	require.Len(tb, teams, 2)
	m.TeamA, m.TeamB = teams[0], teams[1]
	return m
}

// NewWorld создаёт Match без команд: Registry, TeamA и TeamB пусты.
func NewWorld() *Match {
	ids := world.NewIDGenerator()
	return &Match{
		IDs:     ids,
		Groups:  world.NewGroups(ids),
		Players: world.NewPlayers(),
	}
}

// Spawn создаёт игрока команды t в точке (x, y, 0) и добавляет его в мир.
// t == nil или NoTeam: игрок без группы.
func (m *Match) Spawn(tb testing.TB, t *team.Team, x, y int32) *model.Player {
	tb.Helper()
	p := model.NewPlayer(m.IDs.NextPlayerID(), "player", model.NewLocation(x, y, 0))
	if t.IsValid() {
		require.NoError(tb, m.Groups.Join(p, t.GroupID()))
	}
	m.Players.Add(p)
	return p
}
