package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"invalid": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run("Level_"+in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}

func TestGetInitializesDefault(t *testing.T) {
	logger = nil
	assert.NotNil(t, Get())
}

func TestInitWithWriter_JSONRecords(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug")
	t.Cleanup(func() { Init("info") })

	Debug("dataset recorded", "dataset", "stock_df", "rows", 100)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "dataset recorded", record["msg"])
	assert.Equal(t, "stock_df", record["dataset"])
	assert.Equal(t, "stockaudit", record["service"])
}

func TestInitWithWriter_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn")
	t.Cleanup(func() { Init("info") })

	Info("dropped")
	Debug("dropped")
	assert.Zero(t, buf.Len())

	Warn("kept")
	Error("kept too")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info")
	t.Cleanup(func() { Init("info") })

	With("stage", "merge").Info("stage finished")
	assert.Contains(t, buf.String(), `"stage":"merge"`)
}
