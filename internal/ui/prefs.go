package ui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UIPreferences stores persisted app preferences.
type UIPreferences struct {
	LastScreen string  `json:"last_screen"`
	MapSpan    float64 `json:"map_span,omitempty"`
}

func defaultUIPreferences() UIPreferences {
	return UIPreferences{LastScreen: "search"}
}

func prefsPath(configDir string) (string, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home dir: %w", err)
		}
		configDir = filepath.Join(home, ".wikiexplorer")
	}
	return filepath.Join(configDir, "ui_prefs.json"), nil
}

func loadUIPreferences(configDir string) UIPreferences {
	path, err := prefsPath(configDir)
	if err != nil {
		return defaultUIPreferences()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return defaultUIPreferences()
	}

	prefs := defaultUIPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		return defaultUIPreferences()
	}
	return prefs
}

func saveUIPreferences(configDir string, prefs UIPreferences) error {
	path, err := prefsPath(configDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create prefs dir: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	return nil
}
