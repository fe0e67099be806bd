package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", ""} {
		l, err := New(mode, "debug")
		require.NoError(t, err, "mode %q", mode)
		assert.NotNil(t, l.SugaredLogger)
	}
	_, err := New("dev", "loud")
	assert.Error(t, err)
}

func TestRedaction(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.Info("connect", "postgres_dsn", "postgres://u:p@h/db", "manual_id", "MAN-1")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["postgres_dsn"])
	assert.Equal(t, "MAN-1", fields["manual_id"])
}

func TestWith_CarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).With("component", "store", "api_token", "abc")
	l.Warn("search degraded")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "store", fields["component"])
	assert.Equal(t, "[REDACTED]", fields["api_token"])
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Debug("x")
	l.Error("y", "k", "v")
}
