package testutil

import (
	"sync"
	"time"

	"github.com/udisondev/frontline/internal/gameloop"
)

// ManualScheduler: gameloop.Scheduler, тики которого срабатывают только по Advance.
type ManualScheduler struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

type manualTicker struct {
	interval time.Duration
	elapsed  time.Duration
	fn       func()
	disposed bool
}

func (t *manualTicker) Dispose() { t.disposed = true }

// NewManualScheduler создаёт пустой планировщик.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Every implements gameloop.Scheduler.
func (s *ManualScheduler) Every(interval time.Duration, fn func()) gameloop.Ticker {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTicker{interval: interval, fn: fn}
	s.tickers = append(s.tickers, t)
	return t
}

// Advance сдвигает время на d и вызывает все накопившиеся тики по порядку создания.
// Тикеры, созданные во время Advance, начинают отсчёт со следующего вызова.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	tickers := append([]*manualTicker(nil), s.tickers...)
	s.mu.Unlock()

	for _, t := range tickers {
		if t.disposed || t.interval <= 0 {
			continue
		}
		t.elapsed += d
		for t.elapsed >= t.interval && !t.disposed {
			t.elapsed -= t.interval
			t.fn()
		}
	}
}

// Step вызывает Advance n раз с шагом d.
func (s *ManualScheduler) Step(d time.Duration, n int) {
	for range n {
		s.Advance(d)
	}
}

// Active возвращает число неостановленных тикеров.
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tickers {
		if !t.disposed {
			n++
		}
	}
	return n
}
