package ui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wikiexplorer/internal/logging"
	"wikiexplorer/internal/model"
	"wikiexplorer/internal/session"
)

// Options configures the root model.
type Options struct {
	Search    SearchController
	Nearby    NearbyController
	Previewer Previewer
	History   HistoryLister
	TermCaps  TerminalCapabilities
	ConfigDir string
	Logger    *slog.Logger

	NearbyRadius int
	NearbyLimit  int
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	searchSession SearchController
	nearbySession NearbyController
	previewer     Previewer
	termCaps      TerminalCapabilities
	screen        model.Screen

	searchSignal <-chan struct{}
	nearbySignal <-chan struct{}
	unsubscribe  []func()

	width  int
	height int

	error       string
	info        string
	showingHelp bool

	search  *SearchModel
	nearby  *NearbyModel
	preview *PreviewModel

	keys      KeyMap
	prefs     UIPreferences
	configDir string
	log       *slog.Logger
}

// New creates the root model and subscribes it to both sessions.
func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.NearbyRadius <= 0 {
		opts.NearbyRadius = session.DefaultNearbyRadius
	}
	if opts.NearbyLimit <= 0 {
		opts.NearbyLimit = session.DefaultNearbyLimit
	}

	ctx, cancel := context.WithCancel(context.Background())
	prefs := loadUIPreferences(opts.ConfigDir)

	searchNotify, searchSignal := session.Signal[session.SearchState]()
	nearbyNotify, nearbySignal := session.Signal[session.NearbyState]()

	m := Model{
		ctx:           ctx,
		cancel:        cancel,
		searchSession: opts.Search,
		nearbySession: opts.Nearby,
		previewer:     opts.Previewer,
		termCaps:      opts.TermCaps,
		screen:        model.ParseScreen(prefs.LastScreen),
		searchSignal:  searchSignal,
		nearbySignal:  nearbySignal,
		search:        NewSearchModel(opts.Search),
		nearby:        NewNearbyModel(opts.Nearby, opts.NearbyRadius, opts.NearbyLimit, prefs.MapSpan),
		keys:          DefaultKeyMap(),
		prefs:         prefs,
		configDir:     opts.ConfigDir,
		log:           opts.Logger,
	}
	if opts.History != nil {
		m.search.SetHistory(opts.History)
	}
	m.unsubscribe = []func(){
		opts.Search.Subscribe(searchNotify),
		opts.Nearby.Subscribe(nearbyNotify),
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	if m.screen == model.ScreenNearby {
		m.nearby.Start()
	}
	return tea.Batch(
		waitForSignal(m.searchSignal, model.SearchChangedMsg{}),
		waitForSignal(m.nearbySignal, model.NearbyChangedMsg{}),
		textinput.Blink,
	)
}

// waitForSignal blocks until ch fires and then delivers msg.
func waitForSignal(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msg
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case model.SearchChangedMsg:
		cmd := m.search.SetState(m.searchSession.State())
		return m, tea.Batch(cmd, waitForSignal(m.searchSignal, model.SearchChangedMsg{}))

	case model.NearbyChangedMsg:
		cmd := m.nearby.SetState(m.nearbySession.State())
		return m, tea.Batch(cmd, waitForSignal(m.nearbySignal, model.NearbyChangedMsg{}))

	case openPreviewMsg:
		m.preview = NewPreviewModel(m.ctx, m.previewer, m.termCaps, msg.article)
		return m, m.preview.Init()

	case previewClosedMsg:
		m.preview = nil
		return m, nil

	case summaryLoadedMsg, thumbnailLoadedMsg:
		if m.preview != nil {
			return m, m.preview.Update(msg)
		}
		return m, nil

	case spinner.TickMsg:
		cmds := []tea.Cmd{m.search.Update(msg), m.nearby.Update(msg)}
		if m.preview != nil {
			cmds = append(cmds, m.preview.Update(msg))
		}
		return m, tea.Batch(cmds...)

	case model.ArticleOpenedMsg:
		m.info = "Opened " + msg.Title + " in your browser"
		return m, nil

	case model.ErrorMsg:
		m.error = msg.Err.Error()
		m.log.Warn("ui error", "err", msg.Err)
		return m, nil
	}

	return m, m.search.Update(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		cmd := m.quit()
		return m, cmd
	}

	inputFocused := m.screen == model.ScreenSearch && m.preview == nil && m.search.Mode() == model.ModeInsert
	if inputFocused {
		return m, m.search.Update(msg)
	}

	if key.Matches(msg, m.keys.Help) {
		m.showingHelp = !m.showingHelp
		return m, nil
	}
	if m.showingHelp {
		if msg.String() == "esc" {
			m.showingHelp = false
		}
		return m, nil
	}

	m.error = ""
	m.info = ""

	if m.preview != nil {
		return m, m.preview.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		cmd := m.quit()
		return m, cmd
	case key.Matches(msg, m.keys.NextTab):
		m.switchScreen()
		return m, nil
	}

	if m.screen == model.ScreenNearby {
		return m, m.nearby.Update(msg)
	}
	return m, m.search.Update(msg)
}

func (m *Model) switchScreen() {
	if m.screen == model.ScreenSearch {
		m.screen = model.ScreenNearby
		m.nearby.Start()
	} else {
		m.screen = model.ScreenSearch
	}
	m.persistPrefs()
}

func (m *Model) persistPrefs() {
	m.prefs.LastScreen = m.screen.String()
	m.prefs.MapSpan = m.nearby.Span()
	if err := saveUIPreferences(m.configDir, m.prefs); err != nil {
		m.log.Warn("failed to save ui preferences", "err", err)
	}
}

// quit stops listening to the sessions and ends the program.
func (m *Model) quit() tea.Cmd {
	m.persistPrefs()
	for _, unsub := range m.unsubscribe {
		unsub()
	}
	m.cancel()
	return tea.Quit
}

// View renders the model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.showingHelp {
		return RenderFullHelp(m.width, m.height)
	}

	breadcrumbParts := []string{tabName(m.screen)}
	if m.preview != nil {
		breadcrumbParts = append(breadcrumbParts, m.preview.article.Title)
	}

	header := renderHeader(breadcrumbParts, m.width)
	tabs := renderTabs(m.screen, m.width)
	mode := model.ModeNav
	if m.screen == model.ScreenSearch {
		mode = m.search.Mode()
	}
	footer := RenderHelp(m.screen, mode, m.preview != nil, m.width)

	var banners []string
	if m.error != "" {
		banners = append(banners, ErrorStyle.Width(m.width).Render("Error: "+m.error))
	}
	if m.info != "" {
		banners = append(banners, SuccessStyle.Width(m.width).Render(m.info))
	}

	// header + footer take two lines each, tabs two more
	contentHeight := m.height - 6 - len(banners)

	var content string
	switch {
	case m.preview != nil:
		content = m.preview.View(m.width, contentHeight)
	case m.screen == model.ScreenNearby:
		content = m.nearby.View(m.width, contentHeight)
	default:
		content = m.search.View(m.width, contentHeight)
	}

	// Ensure content fills the available height to anchor footer at bottom
	content = lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	parts := append([]string{header, tabs}, banners...)
	parts = append(parts, content, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func tabName(screen model.Screen) string {
	if screen == model.ScreenNearby {
		return "Nearby"
	}
	return "Search"
}

func renderTabs(screen model.Screen, width int) string {
	tabs := []model.Screen{model.ScreenSearch, model.ScreenNearby}

	var tabStrings []string
	for _, tab := range tabs {
		tabStyle := lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(ColorMuted)

		if screen == tab {
			tabStyle = tabStyle.
				Foreground(ColorText).
				Bold(true).
				Underline(true)
		}

		tabStrings = append(tabStrings, tabStyle.Render(tabName(tab)))
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabStrings...)
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		Render(tabBar)
}

func renderHeader(breadcrumbParts []string, width int) string {
	title := HeaderStyle.Render("wikiexplorer")

	var breadcrumb string
	if len(breadcrumbParts) > 0 {
		separator := BreadcrumbStyle.Render(" › ")
		parts := make([]string, len(breadcrumbParts))
		for i, part := range breadcrumbParts {
			if i == len(breadcrumbParts)-1 {
				parts[i] = BreadcrumbActiveStyle.Render(part)
			} else {
				parts[i] = BreadcrumbStyle.Render(part)
			}
		}
		breadcrumb = separator + strings.Join(parts, separator)
	}

	left := "  " + title + breadcrumb

	right := BreadcrumbStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))

	headerContent := left + strings.Repeat(" ", padding) + right
	return TitleStyle.Width(width).Render(headerContent)
}
