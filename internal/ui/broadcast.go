// Package ui defines the display contracts the match core drives and a
// slog-backed implementation for headless servers.
package ui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/frontline/internal/model"
)

// Toast is a short popup shown to a set of players.
type Toast struct {
	Title    string
	Body     string
	Duration time.Duration
}

// Broadcaster shows already-decided content to players. Nothing in the
// match core depends on what it does with it.
type Broadcaster interface {
	// Staging shows the staging countdown. An empty player list is a no-op.
	Staging(players []*model.Player, title string, remaining time.Duration)
	// Toast shows a popup.
	Toast(players []*model.Player, t Toast)
	// Clear removes staging and toast displays.
	Clear(players []*model.Player)
}

// LogBroadcaster writes every broadcast to a logger.
type LogBroadcaster struct {
	log *slog.Logger
}

// NewLogBroadcaster creates a broadcaster over log; nil means slog.Default().
func NewLogBroadcaster(log *slog.Logger) *LogBroadcaster {
	if log == nil {
		log = slog.Default()
	}
	return &LogBroadcaster{log: log.With("component", "ui")}
}

// Staging implements Broadcaster.
func (b *LogBroadcaster) Staging(players []*model.Player, title string, remaining time.Duration) {
	if len(players) == 0 {
		return
	}
	b.log.Debug("staging", "title", title, "remaining", remaining, "players", len(players))
}

// Toast implements Broadcaster.
func (b *LogBroadcaster) Toast(players []*model.Player, t Toast) {
	if len(players) == 0 {
		return
	}
	b.log.Info("toast", "title", t.Title, "body", t.Body, "duration", t.Duration, "players", len(players))
}

// Clear implements Broadcaster.
func (b *LogBroadcaster) Clear(players []*model.Player) {
	if len(players) == 0 {
		return
	}
	b.log.Debug("clear display", "players", len(players))
}

// FormatCountdown renders a remaining duration as m:ss.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
