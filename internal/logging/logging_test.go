package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("profiled", "columns", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "profiled", entry["msg"])
	assert.Equal(t, "datascrub", entry["app"])
	assert.Equal(t, float64(3), entry["columns"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "warn", Output: &buf})
	require.NoError(t, err)
	l.Info("skipped")
	l.Warn("slow request", "elapsed_ms", 1200)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "elapsed_ms=1200")
	assert.NotContains(t, buf.String(), "skipped")

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestInitSetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	_, err := Init(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)
	slog.Debug("via default")
	assert.Contains(t, buf.String(), "via default")
}
