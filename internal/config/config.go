// Package config loads aionic configuration from CUE or YAML files.
//
// Files are validated against an embedded CUE schema and merged over
// Default. Environment variables name the file (AIONIC_CONFIG) and override
// the database path (AIONIC_DB).
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/aionic/internal/rhythm"
	"github.com/roach88/aionic/internal/score"
)

//go:embed schema.cue
var schemaCUE string

// Environment variables read by FromEnv.
const (
	EnvConfig = "AIONIC_CONFIG"
	EnvDB     = "AIONIC_DB"
)

// ErrInvalid is returned for configuration that fails validation.
var ErrInvalid = errors.New("config: invalid")

// Config is the complete application configuration.
type Config struct {
	Rhythm  Rhythm  `json:"rhythm"`
	Scoring Scoring `json:"scoring"`
	Draft   Draft   `json:"draft"`
	Session Session `json:"session"`
	Storage Storage `json:"storage"`
	Log     Log     `json:"log"`
}

// Phase is one configured breathing phase.
type Phase struct {
	Name       string `json:"name"`
	DurationMS int    `json:"duration_ms"`
}

// Rhythm configures the breathing cycle and coherence growth. Phases, when
// set, replace the preset.
type Rhythm struct {
	Preset  string  `json:"preset"`
	Phases  []Phase `json:"phases,omitempty"`
	Step    float64 `json:"step"`
	Floor   float64 `json:"floor"`
	Ceiling float64 `json:"ceiling"`
	TickMS  int     `json:"tick_ms"`
}

type Scoring struct {
	Strategy   string `json:"strategy"`
	Saturation int    `json:"saturation"`
}

type Draft struct {
	DebounceMS int `json:"debounce_ms"`
}

type Session struct {
	WindowS int    `json:"window_s"`
	Prefix  string `json:"prefix"`
}

// Storage configures the durable store. Consent false keeps every entry in
// memory for the life of the process.
type Storage struct {
	Path    string `json:"path"`
	Consent bool   `json:"consent"`
}

// Log configures the process logger. An empty File logs to stderr.
type Log struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Rhythm: Rhythm{
			Preset:  rhythm.PresetPair,
			Step:    rhythm.CoherenceStep,
			Floor:   rhythm.CoherenceFloor,
			Ceiling: rhythm.CoherenceCeiling,
			TickMS:  int(rhythm.DefaultInterval / time.Millisecond),
		},
		Scoring: Scoring{
			Strategy:   score.StrategyBreath,
			Saturation: score.LengthSaturation,
		},
		Draft:   Draft{DebounceMS: 500},
		Session: Session{WindowS: 60, Prefix: "jane"},
		Storage: Storage{Path: DefaultDBPath(), Consent: true},
		Log: Log{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// DefaultDBPath returns $XDG_DATA_HOME/aionic/aionic.db, falling back to
// ~/.local/share and then the working directory.
func DefaultDBPath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "aionic", "aionic.db")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "aionic", "aionic.db")
	}
	return filepath.Join(".aionic", "aionic.db")
}

// Load reads path and merges it over Default. The format follows the
// extension: .cue, .yaml or .yml.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates data and merges it over Default. name selects the format
// by extension and is used in error messages.
func Parse(name string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	var v cue.Value
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".cue":
		v = ctx.CompileBytes(data, cue.Filename(name))
	case ".yaml", ".yml":
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
		v = ctx.Encode(raw)
	default:
		return Config{}, fmt.Errorf("%w: %s: unsupported extension %q", ErrInvalid, name, ext)
	}
	if err := v.Err(); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}

	js, err := v.MarshalJSON()
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}
	cfg := Default()
	if err := json.Unmarshal(js, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv loads the file named by path, or by AIONIC_CONFIG when path is
// empty, or Default when neither is set. AIONIC_DB then overrides the
// database path.
func FromEnv(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return Config{}, err
		}
	}
	if db := os.Getenv(EnvDB); db != "" {
		cfg.Storage.Path = db
	}
	return cfg, nil
}

// Validate checks constraints that span fields.
func (c Config) Validate() error {
	if c.Rhythm.Floor > c.Rhythm.Ceiling {
		return fmt.Errorf("%w: rhythm floor %v above ceiling %v", ErrInvalid, c.Rhythm.Floor, c.Rhythm.Ceiling)
	}
	if _, err := c.Cycle(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.Strategy(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Cycle builds the configured breathing cycle.
func (c Config) Cycle() (rhythm.Cycle, error) {
	if len(c.Rhythm.Phases) == 0 {
		return rhythm.Preset(c.Rhythm.Preset)
	}
	phases := make([]rhythm.Phase, len(c.Rhythm.Phases))
	for i, p := range c.Rhythm.Phases {
		phases[i] = rhythm.Phase{Name: p.Name, Duration: time.Duration(p.DurationMS) * time.Millisecond}
	}
	return rhythm.NewCycle(phases...)
}

// GeneratorOptions returns the coherence step and bounds.
func (c Config) GeneratorOptions() []rhythm.Option {
	return []rhythm.Option{
		rhythm.WithStep(c.Rhythm.Step),
		rhythm.WithBounds(c.Rhythm.Floor, c.Rhythm.Ceiling),
	}
}

// Strategy returns the configured scoring strategy.
func (c Config) Strategy() (score.Strategy, error) {
	return score.Lookup(c.Scoring.Strategy, c.Scoring.Saturation)
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.Rhythm.TickMS) * time.Millisecond
}

func (c Config) Debounce() time.Duration {
	return time.Duration(c.Draft.DebounceMS) * time.Millisecond
}

func (c Config) Window() time.Duration {
	return time.Duration(c.Session.WindowS) * time.Second
}
