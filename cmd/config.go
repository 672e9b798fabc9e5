package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"wikiexplorer/internal/location"
	"wikiexplorer/internal/model"
	"wikiexplorer/internal/session"
	"wikiexplorer/internal/wiki"
)

const (
	configFileName = "config.yaml"

	userAgentEnv = "WIKIEXPLORER_USER_AGENT"
	languageEnv  = "WIKIEXPLORER_LANG"
	logLevelEnv  = "WIKIEXPLORER_LOG_LEVEL"
	locationEnv  = "WIKIEXPLORER_LOCATION"
)

// Location modes.
const (
	LocationIP         = "ip"
	LocationFixed      = "fixed"
	LocationOff        = "off"
	LocationRestricted = "restricted"
)

// Settings is the persisted configuration in config.yaml.
type Settings struct {
	API      APISettings      `yaml:"api"`
	Search   SearchSettings   `yaml:"search"`
	Nearby   NearbySettings   `yaml:"nearby"`
	Location LocationSettings `yaml:"location"`
	LogLevel string           `yaml:"logLevel"`
}

// APISettings configures the Wikipedia client.
type APISettings struct {
	BaseURL   string        `yaml:"baseUrl,omitempty"`
	Language  string        `yaml:"language"`
	Contact   string        `yaml:"contact,omitempty"`
	UserAgent string        `yaml:"userAgent,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cacheSize"`
	CacheTTL  time.Duration `yaml:"cacheTtl"`
}

// SearchSettings tunes the search pipeline.
type SearchSettings struct {
	Debounce time.Duration `yaml:"debounce"`
	Limit    int           `yaml:"limit"`
}

// NearbySettings tunes nearby fetches.
type NearbySettings struct {
	Radius        int     `yaml:"radius"`
	Limit         int     `yaml:"limit"`
	MoveThreshold float64 `yaml:"moveThreshold"`
}

// LocationSettings selects where the current position comes from.
type LocationSettings struct {
	Mode       string        `yaml:"mode"`
	Lat        *float64      `yaml:"lat,omitempty"`
	Lon        *float64      `yaml:"lon,omitempty"`
	Timeout    time.Duration `yaml:"timeout"`
	IPEndpoint string        `yaml:"ipEndpoint,omitempty"`
}

func defaultSettings() Settings {
	return Settings{
		API: APISettings{
			Language:  "en",
			Timeout:   wiki.DefaultTimeout,
			CacheSize: 64,
			CacheTTL:  5 * time.Minute,
		},
		Search: SearchSettings{
			Debounce: session.DefaultDebounce,
			Limit:    session.DefaultSearchLimit,
		},
		Nearby: NearbySettings{
			Radius:        session.DefaultNearbyRadius,
			Limit:         session.DefaultNearbyLimit,
			MoveThreshold: session.DefaultMoveThreshold,
		},
		Location: LocationSettings{
			Mode:       LocationIP,
			Timeout:    location.DefaultTimeout,
			IPEndpoint: location.DefaultIPEndpoint,
		},
		LogLevel: "info",
	}
}

func configPath(configDir string) string {
	return filepath.Join(configDir, configFileName)
}

// loadSettings reads config.yaml. ok is false when the file does not exist.
func loadSettings(configDir string) (Settings, bool, error) {
	raw, err := os.ReadFile(configPath(configDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, false, nil
		}
		return Settings{}, false, fmt.Errorf("failed to read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Settings{}, true, fmt.Errorf("failed to parse %s: %w", configPath(configDir), err)
	}
	return s, true, nil
}

func saveSettings(configDir string, s Settings) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configPath(configDir), raw, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// mergeSettings overlays the non-zero fields of override onto base.
func mergeSettings(base, override Settings) Settings {
	if override.API.BaseURL != "" {
		base.API.BaseURL = override.API.BaseURL
	}
	if override.API.Language != "" {
		base.API.Language = override.API.Language
	}
	if override.API.Contact != "" {
		base.API.Contact = override.API.Contact
	}
	if override.API.UserAgent != "" {
		base.API.UserAgent = override.API.UserAgent
	}
	if override.API.Timeout > 0 {
		base.API.Timeout = override.API.Timeout
	}
	if override.API.CacheSize != 0 {
		base.API.CacheSize = override.API.CacheSize
	}
	if override.API.CacheTTL > 0 {
		base.API.CacheTTL = override.API.CacheTTL
	}

	if override.Search.Debounce > 0 {
		base.Search.Debounce = override.Search.Debounce
	}
	if override.Search.Limit > 0 {
		base.Search.Limit = override.Search.Limit
	}

	if override.Nearby.Radius > 0 {
		base.Nearby.Radius = override.Nearby.Radius
	}
	if override.Nearby.Limit > 0 {
		base.Nearby.Limit = override.Nearby.Limit
	}
	if override.Nearby.MoveThreshold > 0 {
		base.Nearby.MoveThreshold = override.Nearby.MoveThreshold
	}

	if override.Location.Mode != "" {
		base.Location.Mode = override.Location.Mode
	}
	if override.Location.Lat != nil || override.Location.Lon != nil {
		base.Location.Lat = override.Location.Lat
		base.Location.Lon = override.Location.Lon
	}
	if override.Location.Timeout > 0 {
		base.Location.Timeout = override.Location.Timeout
	}
	if override.Location.IPEndpoint != "" {
		base.Location.IPEndpoint = override.Location.IPEndpoint
	}

	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	return base
}

func (s *Settings) applyEnvOverrides(getenv func(string) string) {
	if v := getenv(userAgentEnv); v != "" {
		s.API.UserAgent = v
	}
	if v := getenv(languageEnv); v != "" {
		s.API.Language = v
	}
	if v := getenv(logLevelEnv); v != "" {
		s.LogLevel = v
	}
	if v := getenv(locationEnv); v != "" {
		s.applyLocationValue(v)
	}
}

// applyLocationValue accepts a mode name or a "lat,lon" pair, which selects
// the fixed mode.
func (s *Settings) applyLocationValue(v string) {
	if lat, lon, ok := parseLatLon(v); ok {
		s.Location.Mode = LocationFixed
		s.Location.Lat = &lat
		s.Location.Lon = &lon
		return
	}
	s.Location.Mode = strings.ToLower(strings.TrimSpace(v))
}

func parseLatLon(v string) (float64, float64, bool) {
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// validate rejects settings the app cannot start with.
func (s Settings) validate() error {
	switch s.Location.Mode {
	case LocationIP, LocationOff, LocationRestricted:
	case LocationFixed:
		if s.Location.Lat == nil || s.Location.Lon == nil {
			return errors.New("fixed location mode needs location.lat and location.lon")
		}
		lat, lon := *s.Location.Lat, *s.Location.Lon
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return fmt.Errorf("invalid fixed location %v,%v", lat, lon)
		}
	default:
		return fmt.Errorf("unknown location mode %q (want ip, fixed, off or restricted)", s.Location.Mode)
	}
	if s.Nearby.Radius > 10000 {
		return fmt.Errorf("nearby radius %d exceeds the 10000 m geosearch limit", s.Nearby.Radius)
	}
	return nil
}

// BaseURL is the wiki host to query.
func (s Settings) BaseURL() string {
	if s.API.BaseURL != "" {
		return strings.TrimRight(s.API.BaseURL, "/")
	}
	return wiki.BaseURLForLanguage(s.API.Language)
}

// UserAgent is the User-Agent sent with every request.
func (s Settings) UserAgent(version string) string {
	if s.API.UserAgent != "" {
		return s.API.UserAgent
	}
	ua := "wikiexplorer/" + version
	if s.API.Contact != "" {
		ua += " (" + s.API.Contact + ")"
	}
	return ua
}

// LocationSource builds the position source for the configured mode.
func (s Settings) LocationSource(userAgent string, logger *slog.Logger) location.Source {
	switch s.Location.Mode {
	case LocationFixed:
		var g model.Geo
		if s.Location.Lat != nil && s.Location.Lon != nil {
			g = model.Geo{Lat: *s.Location.Lat, Lon: *s.Location.Lon}
		}
		return location.StaticSource{Geo: g}
	case LocationOff:
		return location.DisabledSource{Status: location.AuthorizationDenied}
	case LocationRestricted:
		return location.DisabledSource{Status: location.AuthorizationRestricted}
	default:
		return location.NewIPSource(s.Location.IPEndpoint, userAgent, logger)
	}
}
