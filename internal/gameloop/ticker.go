package gameloop

import (
	"sync"
	"time"
)

// Ticker is a disposable periodic task. Dispose is idempotent and safe to
// call from inside the tick callback.
type Ticker interface {
	Dispose()
}

// Scheduler creates tickers whose callbacks run on the game thread.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Ticker
}

type loopTicker struct {
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once

	mu       sync.Mutex
	disposed bool
}

func (t *loopTicker) run(l *Loop, fn func()) {
	defer t.ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-l.done:
			return
		case <-t.ticker.C:
			err := l.Post(func() {
				// Тик мог прийти в очередь уже после Dispose.
				if t.isDisposed() {
					return
				}
				fn()
			})
			if err != nil {
				return
			}
		}
	}
}

func (t *loopTicker) isDisposed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disposed
}

// Dispose stops the ticker. Ticks already queued are dropped.
func (t *loopTicker) Dispose() {
	t.once.Do(func() {
		t.mu.Lock()
		t.disposed = true
		t.mu.Unlock()
		close(t.stop)
	})
}
