package testutil

import (
	"sync"
	"time"

	"github.com/udisondev/frontline/internal/model"
	"github.com/udisondev/frontline/internal/ui"
)

// StagingCall: один вызов Staging.
type StagingCall struct {
	Players   []*model.Player
	Title     string
	Remaining time.Duration
}

// ToastCall: один вызов Toast.
type ToastCall struct {
	Players []*model.Player
	Toast   ui.Toast
}

// RecordingBroadcaster запоминает все вызовы ui.Broadcaster.
type RecordingBroadcaster struct {
	mu      sync.Mutex
	staging []StagingCall
	toasts  []ToastCall
	clears  int
}

var _ ui.Broadcaster = (*RecordingBroadcaster)(nil)

// Staging implements ui.Broadcaster.
func (b *RecordingBroadcaster) Staging(players []*model.Player, title string, remaining time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.staging = append(b.staging, StagingCall{Players: players, Title: title, Remaining: remaining})
}

// Toast implements ui.Broadcaster.
func (b *RecordingBroadcaster) Toast(players []*model.Player, t ui.Toast) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.toasts = append(b.toasts, ToastCall{Players: players, Toast: t})
}

// Clear implements ui.Broadcaster.
func (b *RecordingBroadcaster) Clear([]*model.Player) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clears++
}

// StagingCalls возвращает копию вызовов Staging.
func (b *RecordingBroadcaster) StagingCalls() []StagingCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]StagingCall(nil), b.staging...)
}

// Toasts возвращает копию вызовов Toast.
func (b *RecordingBroadcaster) Toasts() []ToastCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ToastCall(nil), b.toasts...)
}

// Clears возвращает число вызовов Clear.
func (b *RecordingBroadcaster) Clears() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clears
}
