package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wikiexplorer/internal/db"
	"wikiexplorer/internal/model"
	"wikiexplorer/internal/session"
	"wikiexplorer/internal/util"
)

// SearchController is the part of a search session the search screen drives.
type SearchController interface {
	State() session.SearchState
	SetQuery(q string)
	CommitSearch()
	RetrySearch()
	SelectRecent(term string)
	RemoveRecent(indices []int)
	ClearRecents()
	Subscribe(fn func(session.SearchState)) func()
}

// HistoryLister exposes when each recent term was last searched.
type HistoryLister interface {
	Entries() ([]db.HistoryEntry, error)
}

// SearchModel is the search tab: a query field above results or recent searches.
type SearchModel struct {
	session   SearchController
	input     textinput.Model
	spinner   spinner.Model
	keys      KeyMap
	inputKeys InputKeyMap
	state     session.SearchState
	list      listCursor
	focused   bool
	spinning  bool

	history    HistoryLister
	searchedAt map[string]time.Time
	now        func() time.Time
}

// NewSearchModel creates the search screen with the query field focused.
func NewSearchModel(s SearchController) *SearchModel {
	input := textinput.New()
	input.Placeholder = "Search Wikipedia..."
	input.Prompt = "/ "
	input.CharLimit = 200
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	state := s.State()
	input.SetValue(state.Query)

	return &SearchModel{
		session:   s,
		input:     input,
		spinner:   sp,
		keys:      DefaultKeyMap(),
		inputKeys: DefaultInputKeyMap(),
		state:     state,
		focused:   true,
		now:       time.Now,
	}
}

// SetHistory attaches timestamps for the recent searches list.
func (m *SearchModel) SetHistory(h HistoryLister) {
	m.history = h
	m.refreshSearchedAt()
}

func (m *SearchModel) refreshSearchedAt() {
	if m.history == nil {
		return
	}
	entries, err := m.history.Entries()
	if err != nil {
		return
	}
	m.searchedAt = make(map[string]time.Time, len(entries))
	for _, e := range entries {
		m.searchedAt[e.Term] = e.SearchedAt
	}
}

// Mode reports whether the query field has focus.
func (m *SearchModel) Mode() model.Mode {
	if m.focused {
		return model.ModeInsert
	}
	return model.ModeNav
}

// Focus gives the query field keyboard focus.
func (m *SearchModel) Focus() tea.Cmd {
	m.focused = true
	return m.input.Focus()
}

func (m *SearchModel) blur() {
	m.focused = false
	m.input.Blur()
}

func (m *SearchModel) showingRecents() bool {
	return strings.TrimSpace(m.state.Query) == ""
}

func (m *SearchModel) rowCount() int {
	switch {
	case m.showingRecents():
		return len(m.state.RecentSearches)
	case m.state.Mode == session.SearchResults:
		return len(m.state.Results)
	default:
		return 0
	}
}

// SetState applies a new session snapshot.
func (m *SearchModel) SetState(st session.SearchState) tea.Cmd {
	recentsChanged := !slices.Equal(m.state.RecentSearches, st.RecentSearches)
	m.state = st
	if recentsChanged {
		m.refreshSearchedAt()
	}
	if !m.focused && m.input.Value() != st.Query {
		m.input.SetValue(st.Query)
	}
	m.list.Clamp(m.rowCount())

	if st.Mode == session.SearchSearching && !m.spinning {
		m.spinning = true
		return m.spinner.Tick
	}
	return nil
}

// Update handles messages.
func (m *SearchModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.state.Mode != session.SearchSearching {
			m.spinning = false
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		if m.focused {
			return m.handleInputKey(msg)
		}
		return m.handleNavKey(msg)
	}

	if m.focused {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}
	return nil
}

func (m *SearchModel) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.inputKeys.Submit):
		m.session.CommitSearch()
		m.blur()
		m.list.JumpToTop()
		return nil
	case key.Matches(msg, m.inputKeys.Cancel), key.Matches(msg, m.inputKeys.Down):
		m.blur()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != m.state.Query {
		m.state.Query = q
		m.session.SetQuery(q)
	}
	return cmd
}

func (m *SearchModel) handleNavKey(msg tea.KeyMsg) tea.Cmd {
	n := m.rowCount()
	if m.list.HandleKey(msg, m.keys, n) {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		return m.Focus()

	case key.Matches(msg, m.keys.Select):
		if n == 0 {
			return nil
		}
		if m.showingRecents() {
			term := m.state.RecentSearches[m.list.cursor]
			m.input.SetValue(term)
			m.state.Query = term
			m.session.SelectRecent(term)
			m.list.JumpToTop()
			return nil
		}
		article := m.state.Results[m.list.cursor]
		m.session.CommitSearch()
		return func() tea.Msg { return openPreviewMsg{article: article} }

	case key.Matches(msg, m.keys.Open):
		if m.showingRecents() || n == 0 {
			return nil
		}
		m.session.CommitSearch()
		return openArticleCmd(m.state.Results[m.list.cursor])

	case key.Matches(msg, m.keys.Delete):
		if m.showingRecents() && n > 0 {
			m.session.RemoveRecent([]int{m.list.cursor})
		}
		return nil

	case key.Matches(msg, m.keys.ClearAll):
		if m.showingRecents() && n > 0 {
			m.session.ClearRecents()
		}
		return nil

	case key.Matches(msg, m.keys.Retry):
		if m.state.Mode == session.SearchError && m.state.Err.ShouldShowRetry() {
			m.session.RetrySearch()
		}
		return nil

	case key.Matches(msg, m.keys.Back):
		if !m.showingRecents() {
			m.input.SetValue("")
			m.state.Query = ""
			m.session.SetQuery("")
		}
		return nil
	}
	return nil
}

// View renders the search screen.
func (m *SearchModel) View(width, height int) string {
	fieldStyle := BorderStyle
	if m.focused {
		fieldStyle = ActiveBorderStyle
	}
	m.input.Width = max(10, width-8)
	field := fieldStyle.Width(max(10, width-2)).Render(m.input.View())

	bodyHeight := max(1, height-lipgloss.Height(field))

	var body string
	switch {
	case m.showingRecents():
		body = m.renderRecents(width, bodyHeight)
	case m.state.Mode == session.SearchSearching:
		body = EmptyStateStyle.Width(width).Height(bodyHeight).
			Render(m.spinner.View() + fmt.Sprintf(" Searching for %q...", strings.TrimSpace(m.state.Query)))
	case m.state.Mode == session.SearchError:
		body = renderErrorPanel(m.state.Err, width, bodyHeight)
	default:
		body = m.renderResults(width, bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, field, body)
}

func (m *SearchModel) renderRecents(width, height int) string {
	if len(m.state.RecentSearches) == 0 {
		return EmptyStateStyle.Width(width).Height(height).Render(
			"No recent searches.\nStart typing to search Wikipedia.")
	}

	header := LabelStyle.Padding(0, 1).Render("Recent searches")
	m.list.viewportHeight = max(1, height-2)

	var rows []string
	start, end := m.list.Visible(len(m.state.RecentSearches))
	for i := start; i < end; i++ {
		style := NormalRowStyle
		if i == m.list.cursor && !m.focused {
			style = SelectedRowStyle
		}
		term := m.state.RecentSearches[i]
		var when string
		if t, ok := m.searchedAt[term]; ok {
			when = util.FormatSearchedAt(t, m.now())
		}
		titleWidth := max(1, width-lipgloss.Width(when)-6)
		label := util.TruncateString(term, titleWidth)
		gap := max(1, width-4-lipgloss.Width(label)-lipgloss.Width(when))
		rows = append(rows, style.Width(width).Render("  "+label+strings.Repeat(" ", gap)+MutedStyle.Render(when)))
	}

	status := StatusBarStyle.Render(util.FormatCount(len(m.state.RecentSearches), "recent search"))
	return fillHeight(lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(rows, "\n")), status, height)
}

func (m *SearchModel) renderResults(width, height int) string {
	m.list.viewportHeight = max(1, height-1)

	var rows []string
	start, end := m.list.Visible(len(m.state.Results))
	for i := start; i < end; i++ {
		a := m.state.Results[i]
		style := NormalRowStyle
		if i == m.list.cursor && !m.focused {
			style = SelectedRowStyle
		}
		line := util.TruncateString(a.Title, width-4)
		if a.Geo != nil {
			coord := "  " + util.FormatCoord(a.Geo.Lat, a.Geo.Lon)
			if lipgloss.Width(line)+lipgloss.Width(coord) < width-2 {
				line += coord
			}
		}
		rows = append(rows, style.Width(width).Render("  "+line))
	}

	rowPos := ""
	if len(m.state.Results) > 0 {
		rowPos = fmt.Sprintf("  ·  row %d/%d", m.list.cursor+1, len(m.state.Results))
	}
	status := StatusBarStyle.Render(util.FormatCount(len(m.state.Results), "article") + rowPos)
	return fillHeight(strings.Join(rows, "\n"), status, height)
}

// fillHeight pins status to the bottom of a block height lines tall.
func fillHeight(content, status string, height int) string {
	spacerHeight := max(0, height-lipgloss.Height(content)-lipgloss.Height(status))
	spacer := lipgloss.NewStyle().Height(spacerHeight).Render("")
	return lipgloss.JoinVertical(lipgloss.Left, content, spacer, status)
}

// renderErrorPanel shows an error with its recovery suggestion.
func renderErrorPanel(e model.Error, width, height int) string {
	lines := []string{
		ErrorStyle.Render(e.Icon() + "  " + e.Description()),
	}
	if s := e.RecoverySuggestion(); s != "" {
		lines = append(lines, MutedStyle.Padding(0, 1).Render(s))
	}
	if e.ShouldShowRetry() {
		lines = append(lines, "", " "+helpKey("r", "try again"))
	}

	panel := PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel)
}
