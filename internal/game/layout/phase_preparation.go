package layout

import (
	"context"
	"fmt"
	"time"

	"github.com/udisondev/frontline/internal/config"
	"github.com/udisondev/frontline/internal/gameloop"
)

// countdownStep is the staging display refresh interval.
const countdownStep = time.Second

// PreparationPhase is the staging countdown. It broadcasts the remaining
// time every second and advances itself at zero.
type PreparationPhase struct {
	base
	remaining time.Duration
	ticker    gameloop.Ticker
}

// NewPreparationPhase implements Factory.
func NewPreparationPhase(l *Layout, cfg config.Phase) (Phase, error) {
	if cfg.Duration < 0 {
		return nil, fmt.Errorf("negative duration %s", cfg.Duration)
	}
	if cfg.Duration == 0 {
		cfg.Duration = DefaultPreparationDuration
	}
	p := &PreparationPhase{}
	p.init(l, cfg, KindPreparation)
	return p, nil
}

// InitializePhase implements Phase.
func (p *PreparationPhase) InitializePhase(context.Context) error {
	p.resolveTeams()
	return nil
}

// Remaining returns the countdown value.
func (p *PreparationPhase) Remaining() time.Duration { return p.remaining }

// BeginPhase implements Phase.
func (p *PreparationPhase) BeginPhase(context.Context) error {
	if p.IsActive() {
		return ErrPhaseState
	}
	p.active.Store(true)
	p.remaining = p.cfg.Duration
	p.broadcast()

	p.ticker = p.layout.deps.Scheduler.Every(countdownStep, p.tick)
	return nil
}

func (p *PreparationPhase) tick() {
	if !p.IsActive() {
		return
	}
	p.remaining = max(0, p.remaining-countdownStep)
	p.broadcast()
	if p.remaining == 0 {
		disposeTicker(&p.ticker)
		p.layout.RequestAdvance(p)
	}
}

func (p *PreparationPhase) broadcast() {
	players := p.layout.deps.Players.OnlinePlayers()
	if !p.hasTeamNames() {
		p.layout.deps.Broadcaster.Staging(players, p.Name(), p.remaining)
		return
	}

	order, byTitle := p.playersByTitle(players)
	for _, title := range order {
		p.layout.deps.Broadcaster.Staging(byTitle[title], title, p.remaining)
	}
}

// EndPhase implements Phase.
func (p *PreparationPhase) EndPhase(context.Context) error {
	disposeTicker(&p.ticker)
	if p.active.Swap(false) {
		p.layout.deps.Broadcaster.Clear(p.layout.deps.Players.OnlinePlayers())
	}
	return nil
}
