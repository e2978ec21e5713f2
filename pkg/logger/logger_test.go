package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Fields(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(Config{Level: "debug"}, &buf)
	require.NoError(t, err)

	log.With("flow_id", "abc").Info("flow started", "chain", "btc", "dangling")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "flow started", entry["message"])
	assert.Equal(t, "abc", entry["flow_id"])
	assert.Equal(t, "btc", entry["chain"])
	assert.NotContains(t, entry, "dangling")
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(Config{Level: "warn"}, &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad level", Config{Level: "loud"}},
		{"bad size", Config{Level: "info", FileMaxSize: "ten"}},
		{"file without name", Config{Level: "info", FileOutput: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestParseMaxSize(t *testing.T) {
	for in, want := range map[string]int{"": 10, "5MB": 5, "20": 20, "7mb": 7} {
		got, err := parseMaxSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
