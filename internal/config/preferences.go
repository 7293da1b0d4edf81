package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"studytracker/internal/model"
)

const preferencesFileName = "preferences.yaml"

// Preferences are the operator choices that outlive a timer session.
type Preferences struct {
	WorkDurationMinutes  int
	BreakDurationMinutes int
	SoundEnabled         bool
}

type yamlPreferences struct {
	WorkDurationMinutes  int   `yaml:"work_duration_minutes"`
	BreakDurationMinutes int   `yaml:"break_duration_minutes"`
	SoundEnabled         *bool `yaml:"sound_enabled,omitempty"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		WorkDurationMinutes:  model.DefaultWorkDurationMinutes,
		BreakDurationMinutes: model.DefaultBreakDurationMinutes,
		SoundEnabled:         true,
	}
}

// LoadPreferences reads preferences from a YAML file.
// If the file does not exist, default preferences are returned.
func LoadPreferences(path string) (Preferences, error) {
	prefs := DefaultPreferences()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("read preferences file: %w", err)
	}

	var fileData yamlPreferences
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return prefs, fmt.Errorf("parse preferences yaml: %w", err)
	}

	applyYamlPreferences(&prefs, fileData)
	return prefs, nil
}

// SavePreferences writes preferences to a YAML file.
func SavePreferences(path string, prefs Preferences) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}

	sound := prefs.SoundEnabled
	serialized, err := yaml.Marshal(yamlPreferences{
		WorkDurationMinutes:  prefs.WorkDurationMinutes,
		BreakDurationMinutes: prefs.BreakDurationMinutes,
		SoundEnabled:         &sound,
	})
	if err != nil {
		return fmt.Errorf("marshal preferences yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write preferences file: %w", err)
	}
	return nil
}

func applyYamlPreferences(prefs *Preferences, fileData yamlPreferences) {
	if model.ValidDuration(model.PhaseWork, fileData.WorkDurationMinutes) {
		prefs.WorkDurationMinutes = fileData.WorkDurationMinutes
	}
	if model.ValidDuration(model.PhaseBreak, fileData.BreakDurationMinutes) {
		prefs.BreakDurationMinutes = fileData.BreakDurationMinutes
	}
	if fileData.SoundEnabled != nil {
		prefs.SoundEnabled = *fileData.SoundEnabled
	}
}
