package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestTestObserved_NamedWith(t *testing.T) {
	t.Parallel()

	lggr, logs := TestObserved(t, zapcore.DebugLevel)

	child := lggr.Named("runner").With("world", "development")
	child.Infow("combination finished", "status", "passed")

	assert.Equal(t, "runner", child.Name())

	entries := logs.FilterMessage("combination finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "development", entries[0].ContextMap()["world"])
	assert.Equal(t, "passed", entries[0].ContextMap()["status"])
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cfg, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	t.Parallel()

	lggr := Nop()
	lggr.Errorw("ignored", "k", "v")
	assert.Empty(t, lggr.Name())
}
