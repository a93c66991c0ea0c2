package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorAddsErrField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core))

	Error("fetch failed", errors.New("boom"), "id", "work")

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "fetch failed", entries[0].Message)
	assert.Equal(t, "boom", ctx["err"])
	assert.Equal(t, "work", ctx["id"])
}

func TestInfoAndDebugLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Use(zap.New(core))

	Debug("hidden")
	Info("shown", "k", 1)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "shown", logs.All()[0].Message)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}
