package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/frontline/internal/config"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	tests := []config.TracingConfig{
		{},
		{Enabled: false, Endpoint: "localhost:4318"},
		{Enabled: true},
	}
	for _, cfg := range tests {
		shutdown, err := Setup(context.Background(), cfg)
		require.NoError(t, err)
		require.NotNil(t, shutdown)
		assert.NoError(t, shutdown(context.Background()))
	}
}

func TestSetup_Enabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracingConfig{
		Enabled:     true,
		Endpoint:    "127.0.0.1:4318",
		Insecure:    true,
		ServiceName: "frontline-test",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Экспортёр ленивый: без спанов shutdown не ходит в сеть.
	_ = shutdown(ctx)
}
