package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

// Config holds CLI configuration.
type Config struct {
	ConfigDir   string
	DBPath      string
	LogPath     string
	Version     string
	ShowVersion bool
	Settings    Settings
}

// ParseFlags parses command-line flags and returns configuration. Values come
// from flags, then the environment, then config.yaml, then defaults.
func ParseFlags(version string, args []string) (*Config, error) {
	// Load .env files first so env-based settings work with flag parsing.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	config := &Config{Version: version}

	fs := flag.NewFlagSet("wikiexplorer", flag.ContinueOnError)
	var lang, loc, logLevel string
	fs.StringVar(&config.DBPath, "db", "", "Path to SQLite history database (default: <config-dir>/history.db)")
	fs.StringVar(&config.ConfigDir, "config-dir", "", "Config directory (default: ~/.wikiexplorer)")
	fs.StringVar(&lang, "lang", "", "Wikipedia language code, e.g. en or de (or set "+languageEnv+")")
	fs.StringVar(&loc, "location", "", "Location mode ip|fixed|off|restricted, or a lat,lon pair (or set "+locationEnv+")")
	fs.StringVar(&logLevel, "log-level", "", "Log level debug|info|warn|error (or set "+logLevelEnv+")")
	fs.BoolVar(&config.ShowVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if config.ShowVersion {
		return config, nil
	}

	if config.ConfigDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		config.ConfigDir = filepath.Join(home, ".wikiexplorer")
	}
	if err := os.MkdirAll(config.ConfigDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if config.DBPath == "" {
		config.DBPath = filepath.Join(config.ConfigDir, "history.db")
	}
	config.LogPath = filepath.Join(config.ConfigDir, "wikiexplorer.log")

	fileSettings, exists, err := loadSettings(config.ConfigDir)
	if err != nil {
		return nil, err
	}
	if !exists && shouldRunOnboarding() {
		fileSettings, err = runOnboarding(config.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("failed to run onboarding: %w", err)
		}
	}

	settings := mergeSettings(defaultSettings(), fileSettings)
	settings.applyEnvOverrides(os.Getenv)
	if lang != "" {
		settings.API.Language = lang
	}
	if loc != "" {
		settings.applyLocationValue(loc)
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	config.Settings = settings

	return config, nil
}

// shouldRunOnboarding reports whether a user is at the terminal to answer
// setup questions.
func shouldRunOnboarding() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
