// Package layout sequences one match through its phases and owns the
// match-scoped data bag.
package layout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/udisondev/frontline/internal/config"
	"github.com/udisondev/frontline/internal/event"
	"github.com/udisondev/frontline/internal/game/flag"
	"github.com/udisondev/frontline/internal/game/team"
	"github.com/udisondev/frontline/internal/game/zone"
	"github.com/udisondev/frontline/internal/gameloop"
	"github.com/udisondev/frontline/internal/model"
	"github.com/udisondev/frontline/internal/ui"
)

const tracerName = "github.com/udisondev/frontline/internal/game/layout"

// PlayerSource lists the players phases broadcast to.
type PlayerSource interface {
	OnlinePlayers() []*model.Player
}

type noPlayers struct{}

func (noPlayers) OnlinePlayers() []*model.Player { return nil }

// Deps are the collaborators a layout and its phases use. Only Scheduler is
// required; New fills the rest with working defaults.
type Deps struct {
	Bus         *event.Bus
	Exec        gameloop.Executor
	Scheduler   gameloop.Scheduler
	Broadcaster ui.Broadcaster
	Players     PlayerSource
	Teams       team.Registry
	Zones       zone.Source
	Providers   *zone.ProviderRegistry
	Pathing     *zone.PathingRegistry
	Decider     flag.Decider
	Format      *ui.Formatter
	Tracer      trace.Tracer
	Logger      *slog.Logger
}

func (d *Deps) fill() error {
	if d.Scheduler == nil {
		return errors.New("layout: scheduler is required")
	}
	if d.Bus == nil {
		d.Bus = event.NewBus()
	}
	if d.Exec == nil {
		d.Exec = gameloop.Inline{}
	}
	if d.Broadcaster == nil {
		d.Broadcaster = ui.NewLogBroadcaster(d.Logger)
	}
	if d.Players == nil {
		d.Players = noPlayers{}
	}
	if d.Teams == nil {
		d.Teams = team.NewNoTeamsRegistry(nil)
	}
	if d.Providers == nil {
		d.Providers = zone.NewProviderRegistry()
	}
	if d.Pathing == nil {
		d.Pathing = zone.NewPathingRegistry()
	}
	if d.Format == nil {
		d.Format = ui.NewFormatter("en")
	}
	if d.Tracer == nil {
		d.Tracer = otel.Tracer(tracerName)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return nil
}

// Layout is one match: an ordered phase list run strictly forward.
type Layout struct {
	name   string
	deps   Deps
	log    *slog.Logger
	phases []Phase
	data   *DataBag

	mu      sync.Mutex
	current Phase
	advance chan struct{}
}

// New builds every phase of cfg through reg. Any unknown phase type aborts
// with a ConfigurationError.
func New(cfg config.Layout, reg *PhaseRegistry, deps Deps) (*Layout, error) {
	if err := deps.fill(); err != nil {
		return nil, err
	}
	if len(cfg.Phases) == 0 {
		return nil, config.ErrNoPhases
	}
	if reg == nil {
		reg = NewPhaseRegistry()
	}

	l := &Layout{
		name:    cfg.Name,
		deps:    deps,
		log:     deps.Logger.With("layout", cfg.Name),
		data:    NewDataBag(),
		advance: make(chan struct{}, 1),
	}
	for _, pc := range cfg.Phases {
		p, err := reg.New(l, pc)
		if err != nil {
			l.log.Error("building phase failed", "phase", pc.DisplayName(), "error", err)
			return nil, err
		}
		l.phases = append(l.phases, p)
	}
	return l, nil
}

// Name returns the layout name.
func (l *Layout) Name() string { return l.name }

// Phases returns the phase list.
func (l *Layout) Phases() []Phase { return l.phases }

// Data returns the shared data bag. Touch it from the game loop only.
func (l *Layout) Data() *DataBag { return l.data }

// Deps returns the layout collaborators.
func (l *Layout) Deps() Deps { return l.deps }

// Current returns the running phase, or nil.
func (l *Layout) Current() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *Layout) setCurrent(p Phase) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = p
	select {
	case <-l.advance:
	default:
	}
}

// RequestAdvance asks the sequencer to end p and begin the next phase.
// Requests from a phase that is not current are ignored. Never blocks.
func (l *Layout) RequestAdvance(p Phase) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil || l.current != p {
		return
	}
	select {
	case l.advance <- struct{}{}:
	default:
	}
}

// RevalidatePlayer forwards a player move to the current phase.
// Call it on the game loop.
func (l *Layout) RevalidatePlayer(p *model.Player) {
	if t, ok := l.Current().(PlayerTracker); ok {
		t.RevalidatePlayer(p)
	}
}

// RemovePlayer forwards a disconnect or death to the current phase.
// Call it on the game loop.
func (l *Layout) RemovePlayer(p *model.Player) {
	if t, ok := l.Current().(PlayerTracker); ok {
		t.RemovePlayer(p)
	}
}

// Run plays the match: initializes teams and every phase, then begins,
// awaits and ends each phase in order. It blocks until the last phase ended
// or ctx is canceled and must not be called on the game loop.
//
// A phase whose BeginPhase fails is logged and skipped. Initialization
// failures abort the match before any phase begins.
func (l *Layout) Run(ctx context.Context) error {
	ctx, span := l.deps.Tracer.Start(ctx, "layout.run",
		trace.WithAttributes(attribute.String("layout.name", l.name)))
	defer span.End()

	if err := l.initialize(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "initialize")
		return err
	}

	for i, p := range l.phases {
		if err := ctx.Err(); err != nil {
			l.teardown(ctx, i)
			return err
		}
		if p.Kind() == KindNull {
			l.log.Debug("skipping null phase", "index", i)
			continue
		}
		if err := l.runPhase(ctx, i, p); err != nil {
			l.teardown(ctx, i+1)
			return err
		}
	}
	l.setCurrent(nil)

	return l.deps.Exec.Call(context.WithoutCancel(ctx), func() error {
		winner, ok := Lookup[*team.Team](l.data, KeyWinner)
		if !ok {
			winner = team.NoTeam
		}
		l.log.Info("layout ended", "winner", winner.String())
		l.deps.Bus.Publish(LayoutEnded{Layout: l, Winner: winner})
		return nil
	})
}

func (l *Layout) initialize(ctx context.Context) error {
	ctx, span := l.deps.Tracer.Start(ctx, "layout.initialize")
	defer span.End()

	if err := l.deps.Teams.Initialize(ctx); err != nil {
		l.log.Error("initializing teams failed", "error", err)
		return fmt.Errorf("initializing teams: %w", err)
	}

	for i, p := range l.phases {
		if err := p.InitializePhase(ctx); err != nil {
			if ctx.Err() == nil {
				l.log.Error("initializing phase failed", "phase", p.Name(), "index", i, "error", err)
			}
			l.teardown(ctx, 0)
			return fmt.Errorf("initializing phase %q: %w", p.Name(), err)
		}
	}
	l.log.Info("layout initialized", "phases", len(l.phases))
	return nil
}

// runPhase begins p, waits for its advance request and ends it. It returns
// only ctx errors.
func (l *Layout) runPhase(ctx context.Context, i int, p Phase) error {
	ctx, span := l.deps.Tracer.Start(ctx, "layout.phase",
		trace.WithAttributes(
			attribute.String("phase.name", p.Name()),
			attribute.String("phase.kind", p.Kind().String()),
			attribute.Int("phase.index", i),
		))
	defer span.End()

	l.setCurrent(p)
	err := l.deps.Exec.Call(ctx, func() error {
		if err := p.BeginPhase(ctx); err != nil {
			return err
		}
		l.log.Info("phase began", "phase", p.Name(), "kind", p.Kind().String(), "index", i)
		l.deps.Bus.Publish(PhaseBegan{Layout: l, Phase: p, Index: i})
		l.ground(p, true)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		l.end(ctx, i, p, false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.log.Error("phase failed to begin, skipping", "phase", p.Name(), "index", i, "error", err)
		return nil
	}

	select {
	case <-l.advance:
	case <-ctx.Done():
	}

	l.end(ctx, i, p, true)
	return ctx.Err()
}

// end runs EndPhase on the loop even when ctx is already canceled.
func (l *Layout) end(ctx context.Context, i int, p Phase, publish bool) {
	err := l.deps.Exec.Call(context.WithoutCancel(ctx), func() error {
		if err := p.EndPhase(ctx); err != nil {
			return err
		}
		if publish {
			l.ground(p, false)
			l.log.Info("phase ended", "phase", p.Name(), "index", i)
			l.deps.Bus.Publish(PhaseEnded{Layout: l, Phase: p, Index: i})
		}
		return nil
	})
	if err != nil {
		l.log.Debug("ending phase failed", "phase", p.Name(), "error", err)
	}
}

// ground publishes TeamGrounded for every team p holds in place.
func (l *Layout) ground(p Phase, grounded bool) {
	g, ok := p.(interface{ IsGrounded(*team.Team) bool })
	if !ok {
		return
	}
	for _, t := range l.deps.Teams.AllTeams() {
		if g.IsGrounded(t) {
			l.deps.Bus.Publish(TeamGrounded{Layout: l, Phase: p, Team: t, Grounded: grounded})
		}
	}
}

// teardown ends phases from index from on, releasing whatever they prepared.
func (l *Layout) teardown(ctx context.Context, from int) {
	for i := from; i < len(l.phases); i++ {
		l.end(ctx, i, l.phases[i], false)
	}
	l.setCurrent(nil)
}
