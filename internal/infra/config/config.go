// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "config/pomobox.yaml"

// Config represents the application configuration.
type Config struct {
	Timer     TimerConfig               `yaml:"timer"`
	Session   SessionConfig             `yaml:"session"`
	UI        UIConfig                  `yaml:"ui"`
	Settings  SettingsConfig            `yaml:"settings"`
	Log       LogConfig                 `yaml:"log"`
	Notifiers map[string]NotifierConfig `yaml:"notifiers"`
	Hooks     HooksConfig               `yaml:"hooks"`
}

// TimerConfig represents the default countdown configuration.
type TimerConfig struct {
	WorkSeconds    int64 `yaml:"work_seconds" default:"1800" validate:"gte=1"`
	BreakSeconds   int64 `yaml:"break_seconds" default:"300" validate:"gte=1"`
	Iterations     int   `yaml:"iterations" default:"4" validate:"gte=1,lte=255"`
	TickIntervalMs int   `yaml:"tick_interval_ms" default:"1000" validate:"gte=1,lte=60000"`
	TickBuffer     int   `yaml:"tick_buffer" default:"16" validate:"gte=1"`
	CommandBuffer  int   `yaml:"command_buffer" default:"16" validate:"gte=1"`
}

// SessionConfig represents how the session advances between phases.
type SessionConfig struct {
	PauseAfterPhaseChange bool  `yaml:"pause_after_phase_change"`
	SkipFinalBreak        bool  `yaml:"skip_final_break"`
	WorkStepSeconds       int64 `yaml:"work_step_seconds" default:"900" validate:"gte=1"`
	BreakStepSeconds      int64 `yaml:"break_step_seconds" default:"60" validate:"gte=1"`
	IterationStep         int   `yaml:"iteration_step" default:"1" validate:"gte=1,lte=255"`
}

// UIConfig represents display configuration.
type UIConfig struct {
	HideWorkCountdown bool `yaml:"hide_work_countdown"`
}

// SettingsConfig represents persisted user settings.
type SettingsConfig struct {
	Persist *bool  `yaml:"persist" default:"true"`
	Path    string `yaml:"path"` // empty means the user config directory
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"` // empty means the user cache directory
}

// NotifierConfig represents a notifier's configuration.
type NotifierConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started" validate:"dive,required"`
	OnStopped []string `yaml:"on_stopped" validate:"dive,required"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var cfg Config
	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}
	return finish(&cfg)
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
// When mustExist is false a missing file yields the defaults.
func Load(path string, mustExist bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !mustExist && errors.Is(err, os.ErrNotExist) {
			return Default()
		}
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}

	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	// Set defaults using creasty/defaults
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() error {
	if v := os.Getenv("POMOBOX_WORK_SECONDS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrap(err, "invalid POMOBOX_WORK_SECONDS")
		}
		c.Timer.WorkSeconds = n
	}
	if v := os.Getenv("POMOBOX_BREAK_SECONDS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrap(err, "invalid POMOBOX_BREAK_SECONDS")
		}
		c.Timer.BreakSeconds = n
	}
	if v := os.Getenv("POMOBOX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "invalid POMOBOX_ITERATIONS")
		}
		c.Timer.Iterations = n
	}
	if v := os.Getenv("POMOBOX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	return nil
}

// TickInterval returns the duration of one countdown second.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Timer.TickIntervalMs) * time.Millisecond
}

// PersistSettings reports whether user settings changes are saved.
func (c *Config) PersistSettings() bool {
	return c.Settings.Persist == nil || *c.Settings.Persist
}

// IsNotifierEnabled checks if a notifier is enabled.
func (c *Config) IsNotifierEnabled(name string) bool {
	if n, ok := c.Notifiers[name]; ok {
		return n.Enabled
	}
	return false
}

// EnabledNotifiers returns the settings of every enabled notifier by name.
func (c *Config) EnabledNotifiers() map[string]map[string]any {
	enabled := make(map[string]map[string]any)
	for name, n := range c.Notifiers {
		if n.Enabled {
			enabled[name] = n.Settings
		}
	}
	return enabled
}
