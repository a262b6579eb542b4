package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Infow("info", map[string]any{"k": 2})
	l.Warnf("warn")
	l.Errorf("error")
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.InfoLevel, "explorer")
	l.Debugw("hidden", nil)
	l.Infow("subset solved", map[string]any{"subset": "1_2", "gap": 0.01})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "explorer", rec["component"])
	assert.Equal(t, "1_2", rec["subset"])
	assert.Equal(t, "subset solved", rec["message"])
}

func TestConfigureFile(t *testing.T) {
	t.Setenv("APP_ENV", "")
	path := filepath.Join(t.TempDir(), "podplan.log")
	closeFn, err := Configure(Config{Level: "warn", File: path})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = Configure(Config{})
	})

	l := New("aggregate")
	l.Infof("dropped")
	l.Warnf("kept %d", 1)
	require.NoError(t, closeFn())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "kept 1")
	assert.NotContains(t, string(raw), "dropped")
}

func TestConfigureBadLevel(t *testing.T) {
	_, err := Configure(Config{Level: "loud"})
	assert.Error(t, err)
}
