package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, off ...Category) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	InitializeWithLogger(zap.New(core), off...)
	t.Cleanup(func() {
		SetRunID("")
		CloseAll()
	})
	return logs
}

func TestGetNamesLoggerByCategory(t *testing.T) {
	logs := observe(t)

	Get(CategoryScan).Info("scanned %d files", 3)
	GraphWarn("collision on %s", "a")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "scan", entries[0].LoggerName)
	assert.Equal(t, "scanned 3 files", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "graph", entries[1].LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestDisabledCategoryIsSilent(t *testing.T) {
	logs := observe(t, CategoryWatch)

	Watch("this should not be logged")
	Boot("this should be logged")

	assert.False(t, IsCategoryEnabled(CategoryWatch))
	assert.True(t, IsCategoryEnabled(CategoryBoot))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "boot", logs.All()[0].LoggerName)
}

func TestRunIDIsAttached(t *testing.T) {
	logs := observe(t)
	id := NewRunID()
	SetRunID(id)

	Store("saved")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, id, logs.All()[0].ContextMap()["run"])
	assert.Equal(t, id, RunID())
}

func TestWithAddsFields(t *testing.T) {
	logs := observe(t)

	Get(CategoryResolve).With("entry", "a").Debug("resolved")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "a", logs.All()[0].ContextMap()["entry"])
}

func TestInitializeWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ctxgraph.log")
	require.NoError(t, Initialize(Config{Level: "debug", Format: "json", File: path}))
	t.Cleanup(CloseAll)

	ScanDebug("walking %s", "knowledge")
	CloseAll()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "walking knowledge"))
	assert.True(t, strings.Contains(string(data), `"logger":"scan"`))
}

func TestInitializeRejectsBadSettings(t *testing.T) {
	assert.Error(t, Initialize(Config{Level: "loud"}))
	assert.Error(t, Initialize(Config{Format: "xml"}))
}

func TestUninitializedIsNoop(t *testing.T) {
	CloseAll()
	assert.NotPanics(t, func() {
		Boot("nothing")
		StartTimer(CategoryBoot, "noop").Stop()
	})
}

func TestTimerThreshold(t *testing.T) {
	logs := observe(t)

	StartTimer(CategoryBoot, "fast").StopWithThreshold(0)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Contains(t, logs.All()[0].Message, "fast took")
}
