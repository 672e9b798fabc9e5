package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"wikiexplorer/cmd"
	"wikiexplorer/internal/db"
	"wikiexplorer/internal/location"
	"wikiexplorer/internal/logging"
	"wikiexplorer/internal/session"
	"wikiexplorer/internal/ui"
	"wikiexplorer/internal/wiki"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	// Parse CLI flags
	config, err := cmd.ParseFlags(version, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if config.ShowVersion {
		fmt.Println("wikiexplorer", version)
		return
	}
	settings := config.Settings

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(config.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := logging.New(settings.LogLevel, logFile)

	// Open database
	database, err := db.Open(config.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	userAgent := settings.UserAgent(version)
	client := wiki.NewClient(wiki.Options{
		BaseURL:   settings.BaseURL(),
		UserAgent: userAgent,
		Timeout:   settings.API.Timeout,
		CacheSize: settings.API.CacheSize,
		CacheTTL:  settings.API.CacheTTL,
		Logger:    logger.With("component", "wiki"),
	})

	resolver := location.NewResolver(
		settings.LocationSource(userAgent, logger.With("component", "location")),
		location.WithTimeout(settings.Location.Timeout),
		location.WithLogger(logger.With("component", "location")),
	)

	historyStore := db.NewHistoryStore(database)
	searchSession := session.NewSearchSession(client, historyStore,
		session.WithDebounce(settings.Search.Debounce),
		session.WithSearchLimit(settings.Search.Limit),
		session.WithSearchLogger(logger.With("component", "search")),
	)
	defer searchSession.Close()

	nearbySession := session.NewNearbySession(client, resolver,
		session.WithNearbyDefaults(settings.Nearby.Radius, settings.Nearby.Limit),
		session.WithMoveThreshold(settings.Nearby.MoveThreshold),
		session.WithNearbyLogger(logger.With("component", "nearby")),
	)
	defer nearbySession.Close()

	logger.Info("starting", "version", version, "wiki", settings.BaseURL(), "location", settings.Location.Mode)

	app := ui.New(ui.Options{
		Search:       searchSession,
		Nearby:       nearbySession,
		Previewer:    client,
		History:      historyStore,
		TermCaps:     ui.DetectTerminalCapabilities(),
		ConfigDir:    config.ConfigDir,
		Logger:       logger.With("component", "ui"),
		NearbyRadius: settings.Nearby.Radius,
		NearbyLimit:  settings.Nearby.Limit,
	})

	// Create and run Bubble Tea app
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("app exited with error", "err", err)
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}
