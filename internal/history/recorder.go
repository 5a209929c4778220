// Package history writes match history to a Store without blocking the game
// loop: bus handlers only enqueue, a worker goroutine does the I/O.
package history

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/udisondev/frontline/internal/db"
	"github.com/udisondev/frontline/internal/event"
	"github.com/udisondev/frontline/internal/game/flag"
	"github.com/udisondev/frontline/internal/game/layout"
	"github.com/udisondev/frontline/internal/game/scoring"
	"github.com/udisondev/frontline/internal/game/team"
)

// Recorder defaults.
const (
	DefaultQueueSize    = 256
	DefaultFlushTimeout = 5 * time.Second
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("recorder closed")

// Store is where match history goes. *db.MatchRepository implements it.
type Store interface {
	CreateMatch(ctx context.Context, layout string, startedAt time.Time) (int64, error)
	BeginPhase(ctx context.Context, matchID int64, p db.PhaseRow) error
	EndPhase(ctx context.Context, matchID int64, index int, endedAt time.Time) error
	AddFlagEvent(ctx context.Context, matchID int64, ev db.FlagEvent) error
	FinishMatch(ctx context.Context, matchID int64, res db.MatchResult) error
}

var _ Store = (*db.MatchRepository)(nil)

// entry is one queued write. apply runs on the worker with the match id of
// its layout.
type entry struct {
	layout *layout.Layout
	at     time.Time
	final  bool
	apply  func(ctx context.Context, s Store, matchID int64) error
}

// Recorder turns layout and flag events into history rows.
type Recorder struct {
	store Store
	log   *slog.Logger
	now   func() time.Time

	queue        chan entry
	flushTimeout time.Duration
	unsub        []func()
	closed       chan struct{}
	closing      atomic.Bool
	dropped      atomic.Int64

	// только воркер
	matches map[*layout.Layout]int64
	latest  *layout.Layout
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithQueueSize sets the buffer between the game loop and the worker.
func WithQueueSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan entry, n)
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Recorder) { r.log = log }
}

// WithFlushTimeout bounds how long Run keeps writing queued entries after
// its context is canceled.
func WithFlushTimeout(d time.Duration) Option {
	return func(r *Recorder) { r.flushTimeout = d }
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:        store,
		log:          slog.Default(),
		now:          time.Now,
		queue:        make(chan entry, DefaultQueueSize),
		flushTimeout: DefaultFlushTimeout,
		closed:       make(chan struct{}),
		matches:      make(map[*layout.Layout]int64),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("component", "history")
	return r
}

// Attach subscribes to bus.
func (r *Recorder) Attach(bus *event.Bus) {
	r.unsub = append(r.unsub,
		event.Subscribe(bus, r.onPhaseBegan),
		event.Subscribe(bus, r.onPhaseEnded),
		event.Subscribe(bus, r.onCaptured),
		event.Subscribe(bus, r.onNeutralized),
		event.Subscribe(bus, r.onLayoutEnded),
	)
}

// Close unsubscribes and makes Run flush and return. Safe to call twice.
func (r *Recorder) Close() {
	if !r.closing.CompareAndSwap(false, true) {
		return
	}
	for _, u := range r.unsub {
		u()
	}
	r.unsub = nil
	close(r.closed)
}

// Dropped returns the number of entries lost to a full queue.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// enqueue never blocks: a full queue drops the entry.
func (r *Recorder) enqueue(e entry) {
	if r.closing.Load() {
		return
	}
	select {
	case r.queue <- e:
	default:
		n := r.dropped.Add(1)
		r.log.Warn("history queue full, entry dropped", "dropped", n)
	}
}

func (r *Recorder) onPhaseBegan(ev layout.PhaseBegan) {
	row := db.PhaseRow{
		Index:   ev.Index,
		Name:    ev.Phase.Name(),
		Kind:    ev.Phase.Kind().String(),
		BeganAt: r.now(),
	}
	r.enqueue(entry{layout: ev.Layout, at: row.BeganAt, apply: func(ctx context.Context, s Store, id int64) error {
		return s.BeginPhase(ctx, id, row)
	}})
}

func (r *Recorder) onPhaseEnded(ev layout.PhaseEnded) {
	at, index := r.now(), ev.Index
	r.enqueue(entry{layout: ev.Layout, at: at, apply: func(ctx context.Context, s Store, id int64) error {
		return s.EndPhase(ctx, id, index, at)
	}})
}

func (r *Recorder) onCaptured(ev flag.Captured) {
	r.flagEvent(db.FlagEvent{
		Flag:         ev.Flag.Name(),
		FlagIndex:    ev.Flag.Index(),
		Kind:         db.FlagCaptured,
		Team:         teamID(ev.Team),
		FirstCapture: ev.FirstCapture,
	})
}

func (r *Recorder) onNeutralized(ev flag.Neutralized) {
	r.flagEvent(db.FlagEvent{
		Flag:      ev.Flag.Name(),
		FlagIndex: ev.Flag.Index(),
		Kind:      db.FlagNeutralized,
		Team:      teamID(ev.Team),
	})
}

// flagEvent goes to the latest open match: flags do not know their layout.
func (r *Recorder) flagEvent(fe db.FlagEvent) {
	fe.OccurredAt = r.now()
	r.enqueue(entry{at: fe.OccurredAt, apply: func(ctx context.Context, s Store, id int64) error {
		return s.AddFlagEvent(ctx, id, fe)
	}})
}

func (r *Recorder) onLayoutEnded(ev layout.LayoutEnded) {
	res := db.MatchResult{EndedAt: r.now()}
	if ev.Winner.IsValid() {
		res.Winner = teamID(ev.Winner)
	}
	// Data bag читаем здесь, на игровом цикле.
	if standings, ok := layout.Lookup[[]scoring.Standing](ev.Layout.Data(), layout.KeyTickets); ok {
		for _, s := range standings {
			res.Standings = append(res.Standings, db.Standing{Team: teamID(s.Team), Tickets: s.Tickets})
		}
	}
	r.enqueue(entry{layout: ev.Layout, at: res.EndedAt, final: true, apply: func(ctx context.Context, s Store, id int64) error {
		return s.FinishMatch(ctx, id, res)
	}})
}

func teamID(t *team.Team) string {
	if t == nil || t.Faction() == nil {
		return ""
	}
	return t.Faction().ID
}

// Run writes queued entries until ctx is canceled or Close is called, then
// flushes what is left within the flush timeout. Write errors are logged and
// do not stop the worker.
func (r *Recorder) Run(ctx context.Context) error {
	r.log.Info("history recorder started")
	for {
		select {
		case e := <-r.queue:
			r.write(ctx, e)
		case <-ctx.Done():
			r.flush(ctx)
			return ctx.Err()
		case <-r.closed:
			r.flush(ctx)
			return ErrClosed
		}
	}
}

func (r *Recorder) flush(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.flushTimeout)
	defer cancel()
	for {
		select {
		case e := <-r.queue:
			r.write(ctx, e)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, e entry) {
	l := e.layout
	if l == nil {
		if l = r.latest; l == nil {
			r.log.Debug("history entry without a running match skipped")
			return
		}
	}

	id, ok := r.matches[l]
	if !ok {
		var err error
		id, err = r.store.CreateMatch(ctx, l.Name(), e.at)
		if err != nil {
			r.log.Error("creating match record failed", "layout", l.Name(), "error", err)
			return
		}
		r.matches[l] = id
		r.latest = l
	}

	if err := e.apply(ctx, r.store, id); err != nil {
		r.log.Error("writing history failed", "layout", l.Name(), "match", id, "error", err)
	}
	if e.final {
		delete(r.matches, l)
		if r.latest == l {
			r.latest = nil
		}
	}
}
