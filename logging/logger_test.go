package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = NoOpLogger{}
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("info"))
	assert.Equal(t, LogLevelInfo, ParseLevel("bogus"))
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestNewLogger_LevelFiltersAndJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: LogLevelWarn, Format: "json", Output: &buf})

	l.Info("dropped")
	l.Warn("kept", "tenant_id", "acme")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "acme", entry["tenant_id"])
}

func TestLogAssembly(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: LogLevelInfo, Format: "json", Output: &buf})

	LogAssembly(l, "acme", "support", 3, 5*time.Millisecond, nil)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "team assembled", entry["msg"])
	assert.Equal(t, float64(3), entry["members"])

	buf.Reset()
	LogAssembly(l, "acme", "support", 0, time.Millisecond, errors.New("boom"))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "team assembly failed", entry["msg"])
	assert.Equal(t, "boom", entry["error"])
}
