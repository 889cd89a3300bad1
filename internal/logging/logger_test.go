package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, enabled map[string]bool) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	Replace(zap.New(core), enabled)
	t.Cleanup(func() { Replace(zap.NewNop(), nil) })
	return logs
}

func TestCategoryLoggerNamesEntries(t *testing.T) {
	logs := observe(t, nil)

	Coordinator("planning robot %d", 2)
	SearchDebug("step %d", 4)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "coordinator", entries[0].LoggerName)
	assert.Equal(t, "planning robot 2", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "search", entries[1].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestDisabledCategoryIsSilent(t *testing.T) {
	logs := observe(t, map[string]bool{"solver": false, "search": true})

	SolverDebug("hidden")
	Search("shown")

	assert.False(t, IsCategoryEnabled(CategorySolver))
	assert.True(t, IsCategoryEnabled(CategorySearch))
	assert.True(t, IsCategoryEnabled(CategoryBench), "unlisted categories stay enabled")
	require.Len(t, logs.All(), 1)
	assert.Equal(t, "shown", logs.All()[0].Message)
}

func TestInitializeRejectsUnknownSettings(t *testing.T) {
	t.Cleanup(func() { Replace(zap.NewNop(), nil) })

	assert.Error(t, Initialize(Config{Level: "loud"}))
	assert.Error(t, Initialize(Config{Format: "xml"}))
	assert.NoError(t, Initialize(Config{Level: "debug", Format: "json"}))
}

func TestTimerReturnsElapsed(t *testing.T) {
	logs := observe(t, nil)

	elapsed := StartTimer(CategoryBench, "run").Stop()

	assert.GreaterOrEqual(t, int64(elapsed), int64(0))
	require.Len(t, logs.All(), 1)
	assert.Contains(t, logs.All()[0].Message, "run completed in")
}

func TestTimerStopWithInfo(t *testing.T) {
	logs := observe(t, nil)

	StartTimer(CategoryCoordinator, "sequential planning").StopWithInfo()

	require.Len(t, logs.All(), 1)
	assert.Equal(t, zapcore.InfoLevel, logs.All()[0].Level)
	assert.Equal(t, "coordinator", logs.All()[0].LoggerName)
}
