package flag

import (
	"github.com/udisondev/frontline/internal/game/team"
	"github.com/udisondev/frontline/internal/model"
)

// PointsChanged is published when a flag's contest points or leader change.
type PointsChanged struct {
	Flag   *Flag
	Leader *team.Team
	Points int
	Delta  int
}

// PlayerEntered is published when a player steps into a flag.
type PlayerEntered struct {
	Flag   *Flag
	Player *model.Player
	Team   *team.Team
}

// PlayerExited is published when a player leaves a flag.
type PlayerExited struct {
	Flag   *Flag
	Player *model.Player
	Team   *team.Team
}

// Captured is published when a team captures a flag. FirstCapture is true
// the first time this team ever owned the flag.
type Captured struct {
	Flag         *Flag
	Team         *team.Team
	FirstCapture bool
}

// Neutralized is published when Team pushes PreviousOwner out of a flag.
type Neutralized struct {
	Flag          *Flag
	Team          *team.Team
	PreviousOwner *team.Team
}

// ContestedChanged is published when more than one team starts or stops
// being present on a flag.
type ContestedChanged struct {
	Flag      *Flag
	Contested bool
}
