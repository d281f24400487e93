package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf, "json")
	SetLevel(level)
	t.Cleanup(func() {
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestInfoWritesKeyValues(t *testing.T) {
	buf := captureOutput(t, LevelInfo)

	Info("dataset loaded", "dataset", "festivals", "count", 3, "cached", true)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "info", line["level"])
	require.Equal(t, "dataset loaded", line["message"])
	require.Equal(t, "festivals", line["dataset"])
	require.EqualValues(t, 3, line["count"])
	require.Equal(t, true, line["cached"])
}

func TestErrorPrependsErr(t *testing.T) {
	buf := captureOutput(t, LevelInfo)

	Error("fetch failed", errors.New("boom"), "url", "http://example.com")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "error", line["level"])
	require.Equal(t, "boom", line["err"])
	require.Equal(t, "http://example.com", line["url"])
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t, LevelWarn)

	Debug("hidden")
	Info("hidden too")
	Warn("shown", "odd")

	out := strings.TrimSpace(buf.String())
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.Equal(t, 1, strings.Count(out, "\n")+1)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, LevelWarn, ParseLevel("warning"))
	require.Equal(t, LevelError, ParseLevel(" error "))
	require.Equal(t, LevelInfo, ParseLevel("nonsense"))
}
