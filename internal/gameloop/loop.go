// Package gameloop implements the single game thread: a task queue drained by
// one goroutine. All zone, contest and phase state is mutated from tasks run
// here; off-thread work posts its completion back through Post or Call.
package gameloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueSize is the task channel capacity used by New when size <= 0.
const DefaultQueueSize = 1024

// ErrStopped is returned when a task is posted to a loop that is no longer running.
var ErrStopped = errors.New("game loop stopped")

// Executor runs fn on the game thread and waits for its result.
type Executor interface {
	Call(ctx context.Context, fn func() error) error
}

// Loop is a single-consumer task queue.
type Loop struct {
	tasks   chan func()
	done    chan struct{}
	once    sync.Once
	running atomic.Bool
}

// New creates a loop with the given queue capacity.
func New(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Loop{
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

// Run drains the queue until ctx is canceled. Blocks.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("game loop already running")
	}
	defer l.once.Do(func() { close(l.done) })

	slog.Info("game loop started", "queue", cap(l.tasks))

	for {
		select {
		case <-ctx.Done():
			slog.Info("game loop stopping")
			return ctx.Err()
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("game loop task panicked", "panic", r)
		}
	}()
	fn()
}

// Post enqueues fn. Blocks while the queue is full; returns ErrStopped once
// the loop has exited.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Call runs fn on the loop and waits for it. Must not be called from a task
// running on the loop itself: the queue would deadlock.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if err := l.Post(func() { result <- fn() }); err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Every schedules fn on the loop at a fixed interval.
func (l *Loop) Every(interval time.Duration, fn func()) Ticker {
	t := &loopTicker{
		ticker: time.NewTicker(interval),
		stop:   make(chan struct{}),
	}
	go t.run(l, fn)
	return t
}

// Inline is an Executor that runs fn on the caller's goroutine. Used where
// the caller already is the game thread (tests, tools).
type Inline struct{}

// Call runs fn immediately.
func (Inline) Call(_ context.Context, fn func() error) error { return fn() }
