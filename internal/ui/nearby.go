package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wikiexplorer/internal/geo"
	"wikiexplorer/internal/model"
	"wikiexplorer/internal/session"
	"wikiexplorer/internal/util"
)

const panFraction = 0.25

// NearbyController is the part of a nearby session the nearby screen drives.
type NearbyController interface {
	State() session.NearbyState
	FetchNearby()
	FetchNearbyAt(center model.Geo, radiusMeters, limit int)
	Retry()
	SetMapCenter(center model.Geo)
	Subscribe(fn func(session.NearbyState)) func()
}

// NearbyModel is the nearby tab: a map of geotagged articles beside a list.
type NearbyModel struct {
	session   NearbyController
	spinner   spinner.Model
	keys      KeyMap
	state     session.NearbyState
	list      listCursor
	maxRadius int
	limit     int
	span      float64

	view    model.Region
	hasView bool
	fitted  *model.Region

	started  bool
	spinning bool
}

// NewNearbyModel creates the nearby screen. Fetches around the map use at most
// maxRadius meters and limit results. span is the initial map span in degrees.
func NewNearbyModel(s NearbyController, maxRadius, limit int, span float64) *NearbyModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	if span <= 0 {
		span = defaultMapSpan
	}
	return &NearbyModel{
		session:   s,
		spinner:   sp,
		keys:      DefaultKeyMap(),
		state:     s.State(),
		maxRadius: maxRadius,
		limit:     limit,
		span:      span,
	}
}

// Start runs the first location fetch. Later calls do nothing.
func (m *NearbyModel) Start() {
	if m.started {
		return
	}
	m.started = true
	m.session.FetchNearby()
}

// Span is the current map span in degrees, for persisting.
func (m *NearbyModel) Span() float64 {
	if m.hasView {
		return m.view.LatDelta
	}
	return m.span
}

func (m *NearbyModel) articles() []model.Article {
	if m.state.Articles.State != model.LoadLoaded {
		return nil
	}
	return m.state.Articles.Value
}

// SetState applies a new session snapshot and keeps the viewport in step.
func (m *NearbyModel) SetState(st session.NearbyState) tea.Cmd {
	m.state = st

	switch {
	case st.Region != nil && (m.fitted == nil || *st.Region != *m.fitted):
		m.view = *st.Region
		fitted := *st.Region
		m.fitted = &fitted
		m.hasView = true
	case st.MapCenter != nil && !m.hasView:
		m.view = model.Region{Center: *st.MapCenter, LatDelta: m.span, LonDelta: m.span}
		m.hasView = true
	case st.MapCenter != nil && *st.MapCenter != m.view.Center:
		m.view.Center = *st.MapCenter
	}

	m.list.Clamp(len(m.articles()))

	if st.Articles.State == model.LoadLoading && !m.spinning {
		m.spinning = true
		return m.spinner.Tick
	}
	return nil
}

// Update handles messages.
func (m *NearbyModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.state.Articles.State != model.LoadLoading {
			m.spinning = false
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return nil
}

func (m *NearbyModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	articles := m.articles()
	if m.list.HandleKey(msg, m.keys, len(articles)) {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.PanUp):
		m.pan(panFraction, 0)
	case key.Matches(msg, m.keys.PanDown):
		m.pan(-panFraction, 0)
	case key.Matches(msg, m.keys.PanLeft):
		m.pan(0, -panFraction)
	case key.Matches(msg, m.keys.PanRight):
		m.pan(0, panFraction)

	case key.Matches(msg, m.keys.ZoomIn):
		if m.hasView {
			m.view = zoomRegion(m.view, 0.5)
		}
	case key.Matches(msg, m.keys.ZoomOut):
		if m.hasView {
			m.view = zoomRegion(m.view, 2)
		}

	case key.Matches(msg, m.keys.SearchArea):
		if m.state.ShowSearchButton && m.state.MapCenter != nil {
			m.session.FetchNearbyAt(*m.state.MapCenter, radiusForView(m.view, m.maxRadius), m.limit)
		}

	case key.Matches(msg, m.keys.Locate):
		m.session.FetchNearby()

	case key.Matches(msg, m.keys.Retry):
		if m.state.Articles.State == model.LoadFailed && m.state.Articles.Err.ShouldShowRetry() {
			m.session.Retry()
		}

	case key.Matches(msg, m.keys.Select):
		if len(articles) > 0 {
			article := articles[m.list.cursor]
			return func() tea.Msg { return openPreviewMsg{article: article} }
		}

	case key.Matches(msg, m.keys.Open):
		if len(articles) > 0 {
			return openArticleCmd(articles[m.list.cursor])
		}
	}
	return nil
}

func (m *NearbyModel) pan(latFraction, lonFraction float64) {
	if !m.hasView {
		return
	}
	m.view.Center = geo.Pan(m.view.Center, m.view, latFraction, lonFraction)
	m.session.SetMapCenter(m.view.Center)
}

// reference is the point distances in the list are measured from.
func (m *NearbyModel) reference() *model.Geo {
	if m.state.LastFetchedCenter != nil {
		return m.state.LastFetchedCenter
	}
	return m.state.MapCenter
}

// View renders the nearby screen.
func (m *NearbyModel) View(width, height int) string {
	st := m.state.Articles
	if st.State == model.LoadFailed && st.Err.RequiresFullScreen() {
		return renderErrorPanel(st.Err, width, height)
	}
	if !m.hasView {
		if st.State == model.LoadFailed {
			return renderErrorPanel(st.Err, width, height)
		}
		return EmptyStateStyle.Width(width).Height(height).
			Render(m.spinner.View() + " Finding your location...")
	}

	mapWidth, listWidth := width, width
	mapHeight, listHeight := height/2, height-height/2
	sideBySide := width >= 80
	if sideBySide {
		mapWidth = width * 3 / 5
		listWidth = width - mapWidth - 1
		mapHeight, listHeight = height, height
	}

	var selectedID int64
	if articles := m.articles(); len(articles) > 0 {
		selectedID = articles[m.list.cursor].ID
	}

	mapPane := m.renderMapPane(selectedID, mapWidth, mapHeight)
	listPane := m.renderList(listWidth, listHeight)

	if sideBySide {
		return lipgloss.JoinHorizontal(lipgloss.Top, mapPane, " ", listPane)
	}
	return lipgloss.JoinVertical(lipgloss.Left, mapPane, listPane)
}

func (m *NearbyModel) renderMapPane(selectedID int64, width, height int) string {
	var button string
	if m.state.ShowSearchButton {
		button = ButtonStyle.Render("s  Search this area")
	}
	pins := session.ArticlesWithGeo(m.articles())
	mapView := renderMap(m.view, pins, selectedID, width, height-lipgloss.Height(button))
	if button == "" {
		return mapView
	}
	return lipgloss.JoinVertical(lipgloss.Center, button, mapView)
}

func (m *NearbyModel) renderList(width, height int) string {
	st := m.state.Articles
	switch st.State {
	case model.LoadIdle:
		return EmptyStateStyle.Width(width).Height(height).Render("Press  c  to find articles near you.")
	case model.LoadLoading:
		return EmptyStateStyle.Width(width).Height(height).Render(m.spinner.View() + " Loading nearby articles...")
	case model.LoadFailed:
		return renderErrorPanel(st.Err, width, height)
	}

	articles := st.Value
	m.list.viewportHeight = max(1, height-1)
	ref := m.reference()

	var rows []string
	start, end := m.list.Visible(len(articles))
	for i := start; i < end; i++ {
		a := articles[i]
		style := NormalRowStyle
		if i == m.list.cursor {
			style = SelectedRowStyle
		}
		dist := "—"
		if ref != nil && a.Geo != nil {
			dist = util.FormatDistance(geo.DistanceMeters(*ref, *a.Geo))
		}
		titleWidth := max(4, width-lipgloss.Width(dist)-4)
		title := util.TruncateString(a.Title, titleWidth)
		pad := max(1, width-lipgloss.Width(title)-lipgloss.Width(dist)-3)
		rows = append(rows, style.Width(width).Render(" "+title+strings.Repeat(" ", pad)+dist))
	}

	rowPos := ""
	if len(articles) > 0 {
		rowPos = fmt.Sprintf("  ·  row %d/%d", m.list.cursor+1, len(articles))
	}
	status := StatusBarStyle.Render(util.FormatCount(len(articles), "article") + rowPos)
	return fillHeight(strings.Join(rows, "\n"), status, height)
}
