package layout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/frontline/internal/config"
	"github.com/udisondev/frontline/internal/game/contest"
	"github.com/udisondev/frontline/internal/game/flag"
	"github.com/udisondev/frontline/internal/game/scoring"
	"github.com/udisondev/frontline/internal/game/team"
	"github.com/udisondev/frontline/internal/game/zone"
	"github.com/udisondev/frontline/internal/gameloop"
	"github.com/udisondev/frontline/internal/model"
)

// Rotation defaults.
const (
	DefaultTickInterval = time.Second
	DefaultPathing      = "shortest"
)

type rotationState int

const (
	rotationUninitialized rotationState = iota
	rotationInitialized
	rotationActive
	rotationEnded
)

// RotationConfig is the rotation phase sub-configuration.
type RotationConfig struct {
	Pool           []zone.ProviderSpec `yaml:"pool"`
	Pathing        string              `yaml:"pathing"`
	PathingOptions yaml.Node           `yaml:"pathing_options"`
	TickInterval   time.Duration       `yaml:"tick_interval"`
	Contest        contest.Config      `yaml:"-"`
	Tickets        *scoring.Config     `yaml:"-"`
}

// rotationYAML keeps optional sections as pointers so defaults can depend
// on what was set.
type rotationYAML struct {
	Pool           []zone.ProviderSpec `yaml:"pool"`
	Pathing        string              `yaml:"pathing"`
	PathingOptions yaml.Node           `yaml:"pathing_options"`
	TickInterval   time.Duration       `yaml:"tick_interval"`
	Contest        *struct {
		Capacity           *int  `yaml:"capacity"`
		PointsPerTick      *int  `yaml:"points_per_tick"`
		PostCapturePoints  *int  `yaml:"post_capture_points"`
		DecayWhenContested *bool `yaml:"decay_when_contested"`
	} `yaml:"contest"`
	Tickets *yaml.Node `yaml:"tickets"`
}

// ParseRotationConfig decodes and defaults a rotation sub-configuration.
// The post-capture baseline defaults to the capacity.
func ParseRotationConfig(cfg config.Phase) (RotationConfig, error) {
	var raw rotationYAML
	if err := cfg.DecodeConfig(&raw); err != nil {
		return RotationConfig{}, err
	}

	rc := RotationConfig{
		Pool:           raw.Pool,
		Pathing:        raw.Pathing,
		PathingOptions: raw.PathingOptions,
		TickInterval:   raw.TickInterval,
		Contest:        contest.DefaultConfig(),
	}
	if len(rc.Pool) == 0 {
		rc.Pool = []zone.ProviderSpec{{Type: "config"}}
	}
	if rc.Pathing == "" {
		rc.Pathing = DefaultPathing
	}
	if rc.TickInterval == 0 {
		rc.TickInterval = DefaultTickInterval
	}
	if rc.TickInterval < 0 {
		return RotationConfig{}, fmt.Errorf("negative tick_interval %s", rc.TickInterval)
	}

	if c := raw.Contest; c != nil {
		if c.Capacity != nil {
			rc.Contest.Capacity = *c.Capacity
			rc.Contest.PostCapturePoints = *c.Capacity
		}
		if c.PointsPerTick != nil {
			rc.Contest.PointsPerTick = *c.PointsPerTick
		}
		if c.PostCapturePoints != nil {
			rc.Contest.PostCapturePoints = *c.PostCapturePoints
		}
		if c.DecayWhenContested != nil {
			rc.Contest.DecayWhenContested = *c.DecayWhenContested
		}
	}
	if err := rc.Contest.Validate(); err != nil {
		return RotationConfig{}, err
	}

	if raw.Tickets != nil {
		t := scoring.DefaultConfig()
		if err := config.DecodeNode(raw.Tickets, &t); err != nil {
			return RotationConfig{}, err
		}
		if err := t.Validate(); err != nil {
			return RotationConfig{}, err
		}
		rc.Tickets = &t
	}
	return rc, nil
}

// RotationPhase is the objective phase: it resolves a zone path, turns it
// into live clusters and flags, and drives their contests.
//
// Lifecycle: uninitialized, initialized (path computed, nothing live),
// active (clusters and flags exist), ended. A rotation phase cannot be
// begun twice.
type RotationPhase struct {
	base
	rc    RotationConfig
	state rotationState

	pool  []zone.Zone
	path  []zone.Zone
	teamA *team.Team
	teamB *team.Team

	starting *zone.Cluster
	ending   *zone.Cluster
	flags    []*flag.Flag
	tickets  *scoring.Tickets

	ticker   gameloop.Ticker
	deadline gameloop.Ticker
	finished bool
}

// NewRotationPhase implements Factory.
func NewRotationPhase(l *Layout, cfg config.Phase) (Phase, error) {
	if cfg.Duration < 0 {
		return nil, fmt.Errorf("negative duration %s", cfg.Duration)
	}
	rc, err := ParseRotationConfig(cfg)
	if err != nil {
		return nil, err
	}
	p := &RotationPhase{rc: rc, teamA: team.NoTeam, teamB: team.NoTeam}
	p.init(l, cfg, KindRotation)
	return p, nil
}

// RotationConfig returns the decoded sub-configuration.
func (p *RotationPhase) RotationConfig() RotationConfig { return p.rc }

// Path returns the resolved path, home A first and home B last.
func (p *RotationPhase) Path() []zone.Zone { return slices.Clone(p.path) }

// TeamA returns the team starting at the first home.
func (p *RotationPhase) TeamA() *team.Team { return p.teamA }

// TeamB returns the team starting at the last home.
func (p *RotationPhase) TeamB() *team.Team { return p.teamB }

// StartingTeam returns team A's home cluster while active.
func (p *RotationPhase) StartingTeam() *zone.Cluster { return p.starting }

// EndingTeam returns team B's home cluster while active.
func (p *RotationPhase) EndingTeam() *zone.Cluster { return p.ending }

// ActiveZones returns the flags between the homes, in path order.
func (p *RotationPhase) ActiveZones() []*flag.Flag { return slices.Clone(p.flags) }

// Tickets returns the ticket tracker, nil when tickets are not configured.
func (p *RotationPhase) Tickets() *scoring.Tickets { return p.tickets }

// InitializePhase resolves the zone pool and the path. It touches no live
// objects and may run off the game loop. Every failure other than
// cancellation is a ConfigurationError.
func (p *RotationPhase) InitializePhase(ctx context.Context) error {
	if p.state != rotationUninitialized {
		return fmt.Errorf("%w: rotation %q initialized twice", ErrPhaseState, p.Name())
	}
	p.resolveTeams()

	ctx, span := p.layout.deps.Tracer.Start(ctx, "rotation.create_path",
		trace.WithAttributes(
			attribute.String("phase.name", p.Name()),
			attribute.String("pathing", p.rc.Pathing),
		))
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return configError(p.Name(), err)
	}

	teams := p.layout.deps.Teams.AllTeams()
	if len(teams) >= 2 {
		p.teamA, p.teamB = teams[0], teams[1]
	}

	pathing, err := p.layout.deps.Pathing.New(p.rc.Pathing, &p.rc.PathingOptions)
	if err != nil {
		return fail(err)
	}

	pool, err := zone.ResolvePool(ctx, p.layout.deps.Providers, p.rc.Pool, p.layout.deps.Zones)
	if err != nil {
		return fail(err)
	}

	homeA, homeB, err := zone.FindHomes(pool, factionID(p.teamA), factionID(p.teamB))
	if err != nil {
		return fail(err)
	}

	path, err := pathing.CreateZonePath(ctx, zone.PathRequest{Pool: pool, HomeA: homeA, HomeB: homeB})
	if err != nil {
		return fail(err)
	}
	if err := zone.ValidatePath(path, homeA, homeB); err != nil {
		return fail(err)
	}

	p.pool, p.path = pool, path
	p.state = rotationInitialized
	span.SetAttributes(attribute.Int("path.length", len(path)))
	p.layout.log.Info("zone path created", "phase", p.Name(), "path", zoneNames(path))
	return nil
}

func factionID(t *team.Team) string {
	if !t.IsValid() || t.Faction() == nil {
		return ""
	}
	return t.Faction().ID
}

func zoneNames(zones []zone.Zone) []string {
	out := make([]string, len(zones))
	for i, z := range zones {
		out[i] = z.Name
	}
	return out
}

// BeginPhase builds one cluster per path entry and a flag for every interior
// entry, then starts the contest ticker. On cancellation or failure every
// object created so far is disposed.
func (p *RotationPhase) BeginPhase(ctx context.Context) error {
	switch p.state {
	case rotationInitialized:
	case rotationUninitialized:
		return fmt.Errorf("%w: rotation %q begun before initialization", ErrPhaseState, p.Name())
	default:
		return fmt.Errorf("%w: rotation %q cannot be begun again", ErrPhaseState, p.Name())
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.build(ctx); err != nil {
		p.dispose()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return configError(p.Name(), err)
	}

	if p.rc.Tickets != nil {
		t, err := scoring.NewTickets(*p.rc.Tickets, p.layout.deps.Teams.AllTeams(), p.ActiveZones)
		if err != nil {
			p.dispose()
			return configError(p.Name(), err)
		}
		t.Attach(p.layout.deps.Bus)
		t.OnDecided(p.finish)
		p.tickets = t
	}

	for _, pl := range p.layout.deps.Players.OnlinePlayers() {
		p.RevalidatePlayer(pl)
	}

	// Результат предыдущей ротации не должен пережить новую.
	p.layout.data.Delete(KeyWinner)
	p.layout.data.Delete(KeyTickets)

	p.state = rotationActive
	p.active.Store(true)
	p.ticker = p.layout.deps.Scheduler.Every(p.rc.TickInterval, p.tick)
	if p.cfg.Duration > 0 {
		p.deadline = after(p.layout.deps.Scheduler, p.cfg.Duration, func() {
			p.layout.log.Info("rotation time is up", "phase", p.Name())
			p.finish(scoring.FlagLeader(p.flags, p.layout.deps.Teams.AllTeams()))
		})
	}
	p.layout.log.Info("rotation began", "phase", p.Name(), "flags", len(p.flags))
	return nil
}

func (p *RotationPhase) build(ctx context.Context) error {
	pieces := zone.GroupByName(p.pool)
	last := len(p.path) - 1

	var opts []flag.Option
	if p.layout.deps.Decider != nil {
		opts = append(opts, flag.WithDecider(p.layout.deps.Decider))
	}

	for i, z := range p.path {
		if err := ctx.Err(); err != nil {
			return err
		}
		group := pieces[z.Name]
		if len(group) == 0 {
			group = []zone.Zone{z}
		}
		c, err := zone.NewCluster(group)
		if err != nil {
			return err
		}

		switch i {
		case 0:
			p.starting = c
		case last:
			p.ending = c
		default:
			f, err := flag.New(i-1, c, p.rc.Contest, p.layout.deps.Bus, p.layout.deps.Teams, opts...)
			if err != nil {
				c.Dispose()
				return err
			}
			p.flags = append(p.flags, f)
		}
	}

	if len(p.flags) == 0 {
		return errors.New("no flags between the homes")
	}
	return nil
}

// tick runs one contest recomputation on every flag.
func (p *RotationPhase) tick() {
	if !p.IsActive() {
		return
	}
	for _, f := range p.flags {
		f.Tick()
	}
}

// finish records the winner and asks the layout to move on. Only the first
// call counts.
func (p *RotationPhase) finish(winner *team.Team) {
	if p.finished || !p.IsActive() {
		return
	}
	p.finished = true
	if winner == nil {
		winner = team.NoTeam
	}
	p.layout.data.Set(KeyWinner, winner)
	if p.tickets != nil {
		p.layout.data.Set(KeyTickets, p.tickets.Standings())
	}
	p.layout.log.Info("rotation finished", "phase", p.Name(), "winner", winner.String())
	p.layout.RequestAdvance(p)
}

// RevalidatePlayer re-checks p against every live cluster.
func (p *RotationPhase) RevalidatePlayer(pl *model.Player) {
	for _, c := range p.clusters() {
		c.Revalidate(pl)
	}
}

// RemovePlayer drops p from every live cluster.
func (p *RotationPhase) RemovePlayer(pl *model.Player) {
	for _, c := range p.clusters() {
		c.Remove(pl)
	}
}

func (p *RotationPhase) clusters() []*zone.Cluster {
	out := make([]*zone.Cluster, 0, len(p.flags)+2)
	if p.starting != nil {
		out = append(out, p.starting)
	}
	for _, f := range p.flags {
		out = append(out, f.Cluster())
	}
	if p.ending != nil {
		out = append(out, p.ending)
	}
	return out
}

// EndPhase stops the tickers and disposes every cluster and flag. Safe to
// call twice and on a phase that never began.
func (p *RotationPhase) EndPhase(context.Context) error {
	p.dispose()
	p.active.Store(false)
	p.state = rotationEnded
	return nil
}

func (p *RotationPhase) dispose() {
	disposeTicker(&p.ticker)
	disposeTicker(&p.deadline)
	if p.tickets != nil {
		p.tickets.Close()
		p.tickets = nil
	}
	for _, f := range p.flags {
		f.Dispose()
	}
	p.flags = nil
	if p.starting != nil {
		p.starting.Dispose()
		p.starting = nil
	}
	if p.ending != nil {
		p.ending.Dispose()
		p.ending = nil
	}
}
