package layout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/frontline/internal/config"
	"github.com/udisondev/frontline/internal/event"
	"github.com/udisondev/frontline/internal/game/zone"
	"github.com/udisondev/frontline/internal/gameloop"
	"github.com/udisondev/frontline/internal/model"
	"github.com/udisondev/frontline/internal/testutil"
)

type fixture struct {
	match  *testutil.Match
	sched  *testutil.ManualScheduler
	bus    *event.Bus
	rec    *testutil.EventRecorder
	ui     *testutil.RecordingBroadcaster
	layout *Layout
}

// parseLayout decodes a layout document. Without zones it gets the line map
// BaseA, Alpha, Bravo, BaseB.
func parseLayout(t *testing.T, doc string) config.Layout {
	t.Helper()
	var cfg config.Layout
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))
	if cfg.Zones == nil {
		cfg.Zones = testutil.LineZones("Alpha", "Bravo")
	}
	return cfg
}

func newFixture(t *testing.T, doc string, exec gameloop.Executor) *fixture {
	t.Helper()
	cfg := parseLayout(t, doc)
	m := testutil.NewMatch(t)
	bus := event.NewBus()
	fx := &fixture{
		match: m,
		sched: testutil.NewManualScheduler(),
		bus:   bus,
		rec:   testutil.RecordEvents(bus),
		ui:    &testutil.RecordingBroadcaster{},
	}

	l, err := New(cfg, nil, Deps{
		Bus:         bus,
		Exec:        exec,
		Scheduler:   fx.sched,
		Broadcaster: fx.ui,
		Players:     m.Players,
		Teams:       m.Registry,
		Zones:       zone.Source{LayoutZones: cfg.Zones},
	})
	require.NoError(t, err)
	fx.layout = l
	return fx
}

// begin initializes and begins phase i directly, bypassing Run.
func (fx *fixture) begin(t *testing.T, i int) Phase {
	t.Helper()
	p := fx.layout.Phases()[i]
	require.NoError(t, p.InitializePhase(context.Background()))
	fx.layout.setCurrent(p)
	require.NoError(t, p.BeginPhase(context.Background()))
	t.Cleanup(func() { _ = p.EndPhase(context.Background()) })
	return p
}

// advanceRequested reports and consumes a pending advance request.
func (fx *fixture) advanceRequested() bool {
	select {
	case <-fx.layout.advance:
		return true
	default:
		return false
	}
}

func (fx *fixture) seconds(n int) {
	fx.sched.Step(time.Second, n)
}

// moveTo places p inside zone i of the line map and revalidates it.
func (fx *fixture) moveTo(p *model.Player, i int) {
	x, y := testutil.LinePoint(i)
	p.SetLocation(model.NewLocation(x, y, 0))
	fx.layout.RevalidatePlayer(p)
}

func (fx *fixture) moveAway(p *model.Player) {
	p.SetLocation(model.NewLocation(-10000, -10000, 0))
	fx.layout.RevalidatePlayer(p)
}
