package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/frontline/internal/config"
	"github.com/udisondev/frontline/internal/db"
	"github.com/udisondev/frontline/internal/event"
	"github.com/udisondev/frontline/internal/game/contest"
	"github.com/udisondev/frontline/internal/game/flag"
	"github.com/udisondev/frontline/internal/game/layout"
	"github.com/udisondev/frontline/internal/game/scoring"
	"github.com/udisondev/frontline/internal/game/team"
	"github.com/udisondev/frontline/internal/game/zone"
	"github.com/udisondev/frontline/internal/testutil"
)

type memStore struct {
	mu       sync.Mutex
	nextID   int64
	calls    []string
	matches  map[int64]string
	phases   map[int64][]db.PhaseRow
	flags    map[int64][]db.FlagEvent
	results  map[int64]db.MatchResult
	failNext error
}

func newMemStore() *memStore {
	return &memStore{
		matches: make(map[int64]string),
		phases:  make(map[int64][]db.PhaseRow),
		flags:   make(map[int64][]db.FlagEvent),
		results: make(map[int64]db.MatchResult),
	}
}

func (s *memStore) CreateMatch(_ context.Context, name string, _ time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return 0, err
	}
	s.nextID++
	s.matches[s.nextID] = name
	s.calls = append(s.calls, "create")
	return s.nextID, nil
}

func (s *memStore) BeginPhase(_ context.Context, id int64, p db.PhaseRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases[id] = append(s.phases[id], p)
	s.calls = append(s.calls, "begin")
	return nil
}

func (s *memStore) EndPhase(context.Context, int64, int, time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "end")
	return nil
}

func (s *memStore) AddFlagEvent(_ context.Context, id int64, ev db.FlagEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[id] = append(s.flags[id], ev)
	s.calls = append(s.calls, ev.Kind)
	return nil
}

func (s *memStore) FinishMatch(_ context.Context, id int64, res db.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[id] = res
	s.calls = append(s.calls, "finish")
	return nil
}

func (s *memStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *memStore) Result(id int64) (db.MatchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.results[id]
	return res, ok
}

func newLayout(t *testing.T) *layout.Layout {
	t.Helper()
	l, err := layout.New(config.Layout{
		Name:   "line",
		Phases: []config.Phase{{Type: "preparation", Name: "Staging"}},
	}, nil, layout.Deps{Scheduler: testutil.NewManualScheduler()})
	require.NoError(t, err)
	return l
}

func newFlag(t *testing.T) *flag.Flag {
	t.Helper()
	zones := testutil.MustZones(t, testutil.LineZones("Alpha"))
	c, err := zone.NewCluster(zones[1:2])
	require.NoError(t, err)
	f, err := flag.New(0, c, contest.DefaultConfig(), event.NewBus(), team.NewNoTeamsRegistry(nil))
	require.NoError(t, err)
	t.Cleanup(f.Dispose)
	return f
}

func startRecorder(t *testing.T, r *Recorder) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return done
}

func TestRecorder_RecordsMatch(t *testing.T) {
	store := newMemStore()
	bus := event.NewBus()
	r := NewRecorder(store)
	r.Attach(bus)
	startRecorder(t, r)

	m := testutil.NewMatch(t)
	l := newLayout(t)
	f := newFlag(t)
	l.Data().Set(layout.KeyTickets, []scoring.Standing{
		{Team: m.TeamA, Tickets: 250},
		{Team: m.TeamB, Tickets: 100},
	})

	bus.Publish(layout.PhaseBegan{Layout: l, Phase: l.Phases()[0], Index: 0})
	bus.Publish(flag.Captured{Flag: f, Team: m.TeamA, FirstCapture: true})
	bus.Publish(flag.Neutralized{Flag: f, Team: m.TeamB, PreviousOwner: m.TeamA})
	bus.Publish(layout.PhaseEnded{Layout: l, Phase: l.Phases()[0], Index: 0})
	bus.Publish(layout.LayoutEnded{Layout: l, Winner: m.TeamA})

	require.Eventually(t, func() bool {
		_, ok := store.Result(1)
		return ok
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"create", "begin", db.FlagCaptured, db.FlagNeutralized, "end", "finish"}, store.Calls())

	res, _ := store.Result(1)
	assert.Equal(t, "usa", res.Winner)
	assert.Equal(t, []db.Standing{{Team: "usa", Tickets: 250}, {Team: "rus", Tickets: 100}}, res.Standings)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, "line", store.matches[1])
	require.Len(t, store.phases[1], 1)
	assert.Equal(t, "Staging", store.phases[1][0].Name)
	assert.Equal(t, "preparation", store.phases[1][0].Kind)
	require.Len(t, store.flags[1], 2)
	assert.Equal(t, "Alpha", store.flags[1][0].Flag)
	assert.Equal(t, "usa", store.flags[1][0].Team)
	assert.True(t, store.flags[1][0].FirstCapture)
}

func TestRecorder_DrawHasNoWinner(t *testing.T) {
	store := newMemStore()
	bus := event.NewBus()
	r := NewRecorder(store)
	r.Attach(bus)
	startRecorder(t, r)

	l := newLayout(t)
	bus.Publish(layout.LayoutEnded{Layout: l, Winner: team.NoTeam})

	require.Eventually(t, func() bool {
		_, ok := store.Result(1)
		return ok
	}, time.Second, 5*time.Millisecond)
	res, _ := store.Result(1)
	assert.Empty(t, res.Winner)
	assert.Empty(t, res.Standings)
}

func TestRecorder_FlagEventWithoutMatchSkipped(t *testing.T) {
	store := newMemStore()
	bus := event.NewBus()
	r := NewRecorder(store)
	r.Attach(bus)

	bus.Publish(flag.Captured{Flag: newFlag(t), Team: team.NoTeam})
	r.Close()
	require.ErrorIs(t, r.Run(context.Background()), ErrClosed)
	assert.Empty(t, store.Calls())
}

func TestRecorder_FullQueueDrops(t *testing.T) {
	store := newMemStore()
	bus := event.NewBus()
	r := NewRecorder(store, WithQueueSize(1))
	r.Attach(bus)

	l := newLayout(t)
	for i := range 3 {
		bus.Publish(layout.PhaseBegan{Layout: l, Phase: l.Phases()[0], Index: i})
	}
	assert.Equal(t, int64(2), r.Dropped())
}

func TestRecorder_CloseFlushesQueue(t *testing.T) {
	store := newMemStore()
	bus := event.NewBus()
	r := NewRecorder(store)
	r.Attach(bus)

	l := newLayout(t)
	bus.Publish(layout.PhaseBegan{Layout: l, Phase: l.Phases()[0], Index: 0})
	r.Close()
	r.Close()

	// После Close новые события не принимаются.
	bus.Publish(layout.PhaseEnded{Layout: l, Phase: l.Phases()[0], Index: 0})

	require.ErrorIs(t, r.Run(context.Background()), ErrClosed)
	assert.Equal(t, []string{"create", "begin"}, store.Calls())
}

func TestRecorder_CreateFailureDoesNotStopWorker(t *testing.T) {
	store := newMemStore()
	store.failNext = errors.New("connection refused")
	bus := event.NewBus()
	r := NewRecorder(store)
	r.Attach(bus)

	l := newLayout(t)
	bus.Publish(layout.PhaseBegan{Layout: l, Phase: l.Phases()[0], Index: 0})
	bus.Publish(layout.PhaseEnded{Layout: l, Phase: l.Phases()[0], Index: 0})
	r.Close()

	require.ErrorIs(t, r.Run(context.Background()), ErrClosed)
	assert.Equal(t, []string{"create", "end"}, store.Calls())
}
