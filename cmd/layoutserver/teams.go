package main

import (
	"fmt"

	"github.com/udisondev/frontline/internal/config"
	"github.com/udisondev/frontline/internal/game/team"
)

// buildTeams picks the registry for the layout's team list: none for a
// team-less layout, two-sided otherwise.
func buildTeams(cfg config.Layout, groups team.GroupService) (team.Registry, error) {
	factions := make([]*team.Faction, 0, len(cfg.Factions))
	for _, f := range cfg.Factions {
		factions = append(factions, &team.Faction{
			ID:        f.ID,
			Name:      f.Name,
			ShortName: f.ShortName,
			Color:     f.Color,
		})
	}

	switch len(cfg.Teams) {
	case 0:
		return team.NewNoTeamsRegistry(groups), nil
	default:
		infos := make([]team.Info, len(cfg.Teams))
		for i, t := range cfg.Teams {
			infos[i] = team.Info{Faction: t.Faction, Role: t.Role, Name: t.Name}
		}
		r, err := team.NewTwoSidedRegistry(infos, team.NewStaticFactions(factions...), groups)
		if err != nil {
			return nil, fmt.Errorf("layout %q: %w", cfg.Name, err)
		}
		return r, nil
	}
}
