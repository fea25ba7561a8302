// Package settings persists user-adjusted timer settings as YAML under the
// user config directory.
package settings

import (
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const (
	appName          = "pomobox"
	settingsFileName = "settings.yaml"
)

// Settings are the values a user can change while the program runs.
type Settings struct {
	WorkSeconds           int64 `yaml:"work_seconds"`
	BreakSeconds          int64 `yaml:"break_seconds"`
	Iterations            uint8 `yaml:"iterations"`
	HideWorkCountdown     bool  `yaml:"hide_work_countdown"`
	PauseAfterPhaseChange bool  `yaml:"pause_after_phase_change"`
}

// yamlSettings is the on-disk form. Pointers tell "absent" from "zero".
type yamlSettings struct {
	WorkSeconds           *int64 `yaml:"work_seconds,omitempty"`
	BreakSeconds          *int64 `yaml:"break_seconds,omitempty"`
	Iterations            *int   `yaml:"iterations,omitempty"`
	HideWorkCountdown     *bool  `yaml:"hide_work_countdown,omitempty"`
	PauseAfterPhaseChange *bool  `yaml:"pause_after_phase_change,omitempty"`
}

// Store reads and writes the settings file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store backed by path, or by the default location under
// the user config directory when path is empty.
func NewStore(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return &Store{path: path}, nil
}

// DefaultPath returns <user config dir>/pomobox/settings.yaml.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve user config dir")
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns base with every valid value from the settings file applied.
// A missing file is not an error.
func (s *Store) Load(base Settings) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fileData, err := s.read()
	if err != nil {
		return base, err
	}
	apply(&base, fileData)
	return base, nil
}

// Save writes all settings.
func (s *Store) Save(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	iterations := int(settings.Iterations)
	return s.write(yamlSettings{
		WorkSeconds:           &settings.WorkSeconds,
		BreakSeconds:          &settings.BreakSeconds,
		Iterations:            &iterations,
		HideWorkCountdown:     &settings.HideWorkCountdown,
		PauseAfterPhaseChange: &settings.PauseAfterPhaseChange,
	})
}

// SaveTimer updates the timer values and keeps everything else in the file.
func (s *Store) SaveTimer(workSeconds, breakSeconds int64, iterations uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fileData, err := s.read()
	if err != nil {
		return err
	}
	count := int(iterations)
	fileData.WorkSeconds = &workSeconds
	fileData.BreakSeconds = &breakSeconds
	fileData.Iterations = &count
	return s.write(fileData)
}

func (s *Store) read() (yamlSettings, error) {
	var fileData yamlSettings

	rawData, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileData, nil
		}
		return fileData, errors.Wrap(err, "read settings file")
	}

	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return fileData, errors.Wrap(err, "parse settings yaml")
	}
	return fileData, nil
}

func (s *Store) write(fileData yamlSettings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return errors.Wrap(err, "marshal settings yaml")
	}

	// Replace atomically.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, serialized, 0o644); err != nil {
		return errors.Wrap(err, "write settings file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "replace settings file")
	}
	return nil
}

func apply(settings *Settings, fileData yamlSettings) {
	if fileData.WorkSeconds != nil && *fileData.WorkSeconds > 0 {
		settings.WorkSeconds = *fileData.WorkSeconds
	}
	if fileData.BreakSeconds != nil && *fileData.BreakSeconds > 0 {
		settings.BreakSeconds = *fileData.BreakSeconds
	}
	if fileData.Iterations != nil && *fileData.Iterations >= 1 && *fileData.Iterations <= math.MaxUint8 {
		settings.Iterations = uint8(*fileData.Iterations)
	}
	if fileData.HideWorkCountdown != nil {
		settings.HideWorkCountdown = *fileData.HideWorkCountdown
	}
	if fileData.PauseAfterPhaseChange != nil {
		settings.PauseAfterPhaseChange = *fileData.PauseAfterPhaseChange
	}
}
