package layout

import "github.com/udisondev/frontline/internal/game/team"

// PhaseBegan is published after a phase began.
type PhaseBegan struct {
	Layout *Layout
	Phase  Phase
	Index  int
}

// PhaseEnded is published after a phase ended.
type PhaseEnded struct {
	Layout *Layout
	Phase  Phase
	Index  int
}

// LayoutEnded is published once the last phase ended. Winner is NoTeam when
// no phase recorded one.
type LayoutEnded struct {
	Layout *Layout
	Winner *team.Team
}

// TeamGrounded is published when a phase with a grounded setting for Team
// begins (Grounded true) and again when it ends (Grounded false). The
// movement system holds the team's players in place in between.
type TeamGrounded struct {
	Layout   *Layout
	Phase    Phase
	Team     *team.Team
	Grounded bool
}
