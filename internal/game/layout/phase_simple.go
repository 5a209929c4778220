package layout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/udisondev/frontline/internal/config"
	"github.com/udisondev/frontline/internal/game/scoring"
	"github.com/udisondev/frontline/internal/game/team"
	"github.com/udisondev/frontline/internal/gameloop"
	"github.com/udisondev/frontline/internal/ui"
)

// Default phase durations.
const (
	DefaultPreparationDuration = time.Minute
	DefaultLeaderboardDuration = 30 * time.Second
	DefaultWinnerPopupDuration = 10 * time.Second
)

// after fires fn once, d from now, on the game loop.
func after(s gameloop.Scheduler, d time.Duration, fn func()) gameloop.Ticker {
	var t gameloop.Ticker
	t = s.Every(d, func() {
		t.Dispose()
		fn()
	})
	return t
}

func disposeTicker(t *gameloop.Ticker) {
	if *t != nil {
		(*t).Dispose()
		*t = nil
	}
}

// NullPhase fills a slot in the sequence and does nothing.
type NullPhase struct {
	base
}

// NewNullPhase implements Factory.
func NewNullPhase(l *Layout, cfg config.Phase) (Phase, error) {
	p := &NullPhase{}
	p.init(l, cfg, KindNull)
	return p, nil
}

func (p *NullPhase) InitializePhase(context.Context) error { return nil }
func (p *NullPhase) BeginPhase(context.Context) error      { return nil }
func (p *NullPhase) EndPhase(context.Context) error        { return nil }

// LeaderboardPhase shows the standings for a while, then advances.
type LeaderboardPhase struct {
	base
	timer gameloop.Ticker
}

// NewLeaderboardPhase implements Factory.
func NewLeaderboardPhase(l *Layout, cfg config.Phase) (Phase, error) {
	p := &LeaderboardPhase{}
	if cfg.Duration < 0 {
		return nil, fmt.Errorf("negative duration %s", cfg.Duration)
	}
	if cfg.Duration == 0 {
		cfg.Duration = DefaultLeaderboardDuration
	}
	p.init(l, cfg, KindLeaderboard)
	return p, nil
}

// InitializePhase implements Phase.
func (p *LeaderboardPhase) InitializePhase(context.Context) error {
	p.resolveTeams()
	return nil
}

// BeginPhase implements Phase.
func (p *LeaderboardPhase) BeginPhase(context.Context) error {
	if p.IsActive() {
		return ErrPhaseState
	}
	p.active.Store(true)

	body := "No results"
	if standings, ok := Lookup[[]scoring.Standing](p.layout.data, KeyTickets); ok {
		body = formatStandings(p.layout.deps.Format, standings)
	}
	p.layout.deps.Broadcaster.Toast(p.layout.deps.Players.OnlinePlayers(), ui.Toast{
		Title:    p.Name(),
		Body:     body,
		Duration: p.cfg.Duration,
	})

	p.timer = after(p.layout.deps.Scheduler, p.cfg.Duration, func() {
		p.layout.RequestAdvance(p)
	})
	return nil
}

// EndPhase implements Phase.
func (p *LeaderboardPhase) EndPhase(context.Context) error {
	disposeTicker(&p.timer)
	p.active.Store(false)
	return nil
}

// WinnerPopupPhase announces the winner stored in the data bag.
type WinnerPopupPhase struct {
	base
	timer gameloop.Ticker
}

// NewWinnerPopupPhase implements Factory.
func NewWinnerPopupPhase(l *Layout, cfg config.Phase) (Phase, error) {
	p := &WinnerPopupPhase{}
	if cfg.Duration < 0 {
		return nil, fmt.Errorf("negative duration %s", cfg.Duration)
	}
	if cfg.Duration == 0 {
		cfg.Duration = DefaultWinnerPopupDuration
	}
	p.init(l, cfg, KindWinnerPopup)
	return p, nil
}

// InitializePhase implements Phase.
func (p *WinnerPopupPhase) InitializePhase(context.Context) error {
	p.resolveTeams()
	return nil
}

// BeginPhase implements Phase. Without a winner in the data bag it logs and
// advances at once instead of hanging the match.
func (p *WinnerPopupPhase) BeginPhase(context.Context) error {
	if p.IsActive() {
		return ErrPhaseState
	}
	p.active.Store(true)

	winner, ok := Lookup[*team.Team](p.layout.data, KeyWinner)
	if !ok {
		p.layout.log.Error("winner popup skipped", "phase", p.Name(), "error", fmt.Errorf("%w: %s", ErrMissingData, KeyWinner))
		p.layout.RequestAdvance(p)
		return nil
	}

	title := "Draw"
	if winner.IsValid() {
		title = winner.Faction().Name + " wins"
	}
	body := ""
	if standings, ok := Lookup[[]scoring.Standing](p.layout.data, KeyTickets); ok {
		body = formatStandings(p.layout.deps.Format, standings)
	}

	// Команды с собственным названием фазы получают своё окно.
	players := p.layout.deps.Players.OnlinePlayers()
	if p.hasTeamNames() {
		order, byTitle := p.playersByTitle(players)
		for _, name := range order {
			p.layout.deps.Broadcaster.Toast(byTitle[name], ui.Toast{Title: name + ": " + title, Body: body, Duration: p.cfg.Duration})
		}
	} else {
		p.layout.deps.Broadcaster.Toast(players, ui.Toast{Title: title, Body: body, Duration: p.cfg.Duration})
	}

	p.timer = after(p.layout.deps.Scheduler, p.cfg.Duration, func() {
		p.layout.RequestAdvance(p)
	})
	return nil
}

// EndPhase implements Phase.
func (p *WinnerPopupPhase) EndPhase(context.Context) error {
	disposeTicker(&p.timer)
	if p.active.Swap(false) {
		p.layout.deps.Broadcaster.Clear(p.layout.deps.Players.OnlinePlayers())
	}
	return nil
}

// formatStandings renders "USA 1,200 | RUS 950".
func formatStandings(f *ui.Formatter, standings []scoring.Standing) string {
	parts := make([]string, 0, len(standings))
	for _, s := range standings {
		parts = append(parts, s.Team.Faction().ShortName+" "+f.Number(s.Tickets))
	}
	return strings.Join(parts, " | ")
}
