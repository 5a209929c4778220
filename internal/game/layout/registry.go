package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/udisondev/frontline/internal/config"
)

// Factory builds a phase from its configuration.
type Factory func(l *Layout, cfg config.Phase) (Phase, error)

// PhaseRegistry maps phase type names to factories.
type PhaseRegistry struct {
	factories map[string]Factory
}

// NewPhaseRegistry returns a registry with every built-in phase.
func NewPhaseRegistry() *PhaseRegistry {
	r := &PhaseRegistry{factories: make(map[string]Factory)}
	r.Register("null", NewNullPhase)
	r.Register("preparation", NewPreparationPhase)
	r.Register("staging", NewPreparationPhase)
	r.Register("rotation", NewRotationPhase)
	r.Register("flags", NewRotationPhase)
	r.Register("leaderboard", NewLeaderboardPhase)
	r.Register("winner_popup", NewWinnerPopupPhase)
	r.Register("winner", NewWinnerPopupPhase)
	return r
}

// Register binds name to f.
func (r *PhaseRegistry) Register(name string, f Factory) {
	r.factories[strings.ToLower(name)] = f
}

// Names returns the registered names, sorted.
func (r *PhaseRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds the phase for cfg. Unknown types and factory failures are
// configuration errors.
func (r *PhaseRegistry) New(l *Layout, cfg config.Phase) (Phase, error) {
	f, ok := r.factories[strings.ToLower(strings.TrimSpace(cfg.Type))]
	if !ok {
		return nil, configError(cfg.DisplayName(),
			fmt.Errorf("%w: %q (known: %s)", ErrUnknownPhase, cfg.Type, strings.Join(r.Names(), ", ")))
	}
	p, err := f(l, cfg)
	if err != nil {
		if IsConfigurationError(err) {
			return nil, err
		}
		return nil, configError(cfg.DisplayName(), err)
	}
	return p, nil
}
