package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestToZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, toZapLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, toZapLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, toZapLevel("bogus"))
}

func TestZapLoggerWritesKeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Info("bounds loaded", "tiles", 42, "path", "data/wrs2_bounds.json")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "bounds loaded", entries[0].Message)
	assert.Equal(t, int64(42), entries[0].ContextMap()["tiles"])
	assert.Equal(t, "data/wrs2_bounds.json", entries[0].ContextMap()["path"])
}

func TestFromContext(t *testing.T) {
	assert.IsType(t, &noOpLogger{}, FromContext(context.Background()))

	l := NewFromZap(zap.NewNop())
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestWithAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewFromZap(zap.New(core)).With("request_id", "abc")

	l.Info("request", "status", 200)
	l.Debug("dropped")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0].ContextMap()["request_id"])
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
}
