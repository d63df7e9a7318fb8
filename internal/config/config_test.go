package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aionic/internal/rhythm"
	"github.com/roach88/aionic/internal/score"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cycle, err := cfg.Cycle()
	require.NoError(t, err)
	assert.Equal(t, 4*time.Second, cycle.Total())

	st, err := cfg.Strategy()
	require.NoError(t, err)
	assert.Equal(t, score.StrategyBreath, st.Name())

	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
	assert.Equal(t, time.Minute, cfg.Window())
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval())
	assert.True(t, cfg.Storage.Consent)
}

func TestLoad_CUE(t *testing.T) {
	path := writeFile(t, "aionic.cue", `
rhythm: preset: "box"
scoring: {
	strategy:   "length"
	saturation: 250
}
draft: debounce_ms: 800
storage: consent: false
log: level: "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, rhythm.PresetBox, cfg.Rhythm.Preset)
	assert.Equal(t, "length", cfg.Scoring.Strategy)
	assert.Equal(t, 250, cfg.Scoring.Saturation)
	assert.Equal(t, 800*time.Millisecond, cfg.Debounce())
	assert.False(t, cfg.Storage.Consent)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched fields keep defaults.
	assert.Equal(t, rhythm.CoherenceStep, cfg.Rhythm.Step)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 60, cfg.Session.WindowS)

	cycle, err := cfg.Cycle()
	require.NoError(t, err)
	assert.Equal(t, 17*time.Second, cycle.Total())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "aionic.yaml", `
rhythm:
  phases:
    - name: in
      duration_ms: 1500
    - name: out
      duration_ms: 2500
  step: 0.1
session:
  prefix: anna
log:
  format: json
  file: /tmp/aionic.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	cycle, err := cfg.Cycle()
	require.NoError(t, err)
	assert.Equal(t, 4*time.Second, cycle.Total())
	assert.Equal(t, "in", cycle.PhaseAt(time.Second).Name)
	assert.Equal(t, 0.1, cfg.Rhythm.Step)
	assert.Equal(t, "anna", cfg.Session.Prefix)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/aionic.log", cfg.Log.File)
}

func TestLoad_EmptyYAMLIsDefault(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"unknown field", "a.yaml", "colour: blue\n"},
		{"unknown nested field", "a.yaml", "draft:\n  debounce: 10\n"},
		{"bad preset", "a.cue", `rhythm: preset: "triangle"`},
		{"bad strategy", "a.yaml", "scoring:\n  strategy: vibes\n"},
		{"negative debounce", "a.yaml", "draft:\n  debounce_ms: -5\n"},
		{"zero phase", "a.yaml", "rhythm:\n  phases:\n    - name: in\n      duration_ms: 0\n"},
		{"wrong type", "a.yaml", "storage:\n  consent: maybe\n"},
		{"bad level", "a.cue", `log: level: "loud"`},
		{"floor above ceiling", "a.yaml", "rhythm:\n  floor: 0.8\n  ceiling: 0.6\n"},
		{"cue syntax", "a.cue", `rhythm: {`},
		{"yaml syntax", "a.yaml", "rhythm: [\n"},
		{"extension", "a.toml", `x = 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.file, []byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFromEnv(t *testing.T) {
	path := writeFile(t, "env.yaml", "scoring:\n  saturation: 100\n")
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvDB, "/data/journal.db")

	cfg, err := FromEnv("")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Scoring.Saturation)
	assert.Equal(t, "/data/journal.db", cfg.Storage.Path)
}

func TestFromEnv_ExplicitPathWins(t *testing.T) {
	t.Setenv(EnvConfig, "/does/not/exist.yaml")
	t.Setenv(EnvDB, "")
	path := writeFile(t, "flag.yaml", "session:\n  window_s: 30\n")

	cfg, err := FromEnv(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Window())
}

func TestFromEnv_NothingSet(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvDB, "")
	t.Setenv("XDG_DATA_HOME", "/xdg")

	cfg, err := FromEnv("")
	require.NoError(t, err)
	assert.Equal(t, "/xdg/aionic/aionic.db", cfg.Storage.Path)
}
