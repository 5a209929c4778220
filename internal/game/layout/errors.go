package layout

import (
	"errors"
	"fmt"
)

// Layout errors.
var (
	ErrUnknownPhase = errors.New("unknown phase type")
	ErrPhaseState   = errors.New("phase lifecycle violated")
	ErrMissingData  = errors.New("required data bag key missing")
)

// ConfigurationError is a fatal, non-retryable error caused by the layout
// configuration of one phase.
type ConfigurationError struct {
	Phase string
	Err   error
}

// Error implements error.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("phase %q configuration: %v", e.Phase, e.Err)
}

// Unwrap returns the cause.
func (e *ConfigurationError) Unwrap() error { return e.Err }

func configError(phase string, err error) error {
	return &ConfigurationError{Phase: phase, Err: err}
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
