package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldsAreStructured(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(zap.NewNop()) })

	Warn("token rejected", map[string]any{
		"kind":  "expired",
		"error": errors.New("boom"),
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "token rejected", entries[0].Message)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "expired", ctx["kind"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestNilFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(zap.NewNop()) })

	Info("shutdown signal received", nil)
	Debug("dropped", nil)

	require.Equal(t, 1, logs.Len())
	assert.Empty(t, logs.All()[0].Context)
}
