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
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestComponent_TagsRecords(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newHandler(&buf, "json", "info", false))

	Component(l, "crm").Info("lead forwarded", "id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "crm", entry["component"])
	assert.Equal(t, "abc", entry["id"])
}

func TestNewHandler_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newHandler(&buf, "text", "warn", false))

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
