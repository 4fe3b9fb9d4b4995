package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Configure("debug", "json", &buf)
	log.Debug("hello", "component", "test")

	out := buf.String()
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"), "expected JSON output, got %q", out)
	assert.Contains(t, out, `"msg":"hello"`)

	var filtered bytes.Buffer
	Configure("error", "text", &filtered)
	Info("dropped")
	assert.Empty(t, filtered.String())
}
