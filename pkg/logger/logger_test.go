package logger

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observe installs an observed logger at the given level for the duration of the test.
func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	core, recorded := observer.New(level)
	prev := SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })
	return recorded
}

func TestDebugLogging(t *testing.T) {
	recorded := observe(t, zapcore.DebugLevel)

	Debug("test debug message", "key", "value")

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.DebugLevel, logs[0].Level)
	assert.Equal(t, "test debug message", logs[0].Message)
	require.Len(t, logs[0].Context, 1)
	assert.Equal(t, "key", logs[0].Context[0].Key)
	assert.Equal(t, "value", logs[0].Context[0].String)
}

func TestLogLevels(t *testing.T) {
	recorded := observe(t, zapcore.WarnLevel)

	Debug("dropped")
	Info("dropped")
	Warn("kept warn", "ef", 64)
	Error("kept error", "error", "boom")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs[1].Level)
	assert.Equal(t, int64(64), logs[0].ContextMap()["ef"])
}

func TestWithMethod(t *testing.T) {
	recorded := observe(t, zapcore.InfoLevel)

	child := With("algorithm", "hnsw")
	child.Infow("fit done", "points", 1000)

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "hnsw", fields["algorithm"])
	assert.Equal(t, int64(1000), fields["points"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
		"verbose": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestInitLoggerFile(t *testing.T) {
	prev := defaultLogger
	t.Cleanup(func() { SetLogger(prev) })

	path := filepath.Join(t.TempDir(), "annbench.log")
	require.NoError(t, InitLogger(DebugLevel, path))

	Info("written to file", "k", 1)
	_ = Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), `"level":"INFO"`)
}

func TestInitLoggerBadPath(t *testing.T) {
	prev := defaultLogger
	t.Cleanup(func() { SetLogger(prev) })

	err := InitLogger(InfoLevel, filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.Error(t, err)
}

func TestConcurrentLogging(t *testing.T) {
	recorded := observe(t, zapcore.InfoLevel)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			Info("concurrent", "worker", i)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, recorded.Len())
}
