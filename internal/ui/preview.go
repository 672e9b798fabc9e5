package ui

import (
	"context"
	"image"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wikiexplorer/internal/model"
	"wikiexplorer/internal/util"
)

// Previewer loads the extra details shown for a single article.
type Previewer interface {
	Summary(ctx context.Context, pageID int64) (string, error)
	Thumbnail(ctx context.Context, thumbnailURL string) (image.Image, error)
}

type summaryLoadedMsg struct {
	id   int64
	text string
	err  error
}

type thumbnailLoadedMsg struct {
	id  int64
	img image.Image
	err error
}

// previewClosedMsg is sent when the preview should be dismissed.
type previewClosedMsg struct{}

// openPreviewMsg asks the root model to show an article.
type openPreviewMsg struct {
	article model.Article
}

// PreviewModel shows an article summary and thumbnail.
type PreviewModel struct {
	ctx       context.Context
	previewer Previewer
	caps      TerminalCapabilities
	article   model.Article
	spinner   spinner.Model
	keys      KeyMap

	summary        string
	summaryErr     *model.Error
	summaryLoading bool
	thumbnail      image.Image
}

// NewPreviewModel creates a preview for article. A nil previewer shows only
// what the article itself carries.
func NewPreviewModel(ctx context.Context, previewer Previewer, caps TerminalCapabilities, article model.Article) *PreviewModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &PreviewModel{
		ctx:            ctx,
		previewer:      previewer,
		caps:           caps,
		article:        article,
		spinner:        sp,
		keys:           DefaultKeyMap(),
		summaryLoading: previewer != nil,
	}
}

// Init starts loading the summary and thumbnail.
func (m *PreviewModel) Init() tea.Cmd {
	if m.previewer == nil {
		return nil
	}
	cmds := []tea.Cmd{m.spinner.Tick, loadSummaryCmd(m.ctx, m.previewer, m.article.ID)}
	if m.article.ThumbnailURL != "" {
		cmds = append(cmds, loadThumbnailCmd(m.ctx, m.previewer, m.article))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m *PreviewModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case summaryLoadedMsg:
		if msg.id != m.article.ID {
			return nil
		}
		m.summaryLoading = false
		if msg.err != nil {
			kind := model.Classify(msg.err)
			m.summaryErr = &kind
			return nil
		}
		m.summary = msg.text
		return nil

	case thumbnailLoadedMsg:
		if msg.id == m.article.ID && msg.err == nil {
			m.thumbnail = msg.img
		}
		return nil

	case spinner.TickMsg:
		if !m.summaryLoading {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return func() tea.Msg { return previewClosedMsg{} }
		case key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.Select):
			return openArticleCmd(m.article)
		case key.Matches(msg, m.keys.Retry):
			if m.summaryErr != nil && m.summaryErr.ShouldShowRetry() {
				m.summaryErr = nil
				m.summaryLoading = true
				return tea.Batch(m.spinner.Tick, loadSummaryCmd(m.ctx, m.previewer, m.article.ID))
			}
		}
	}
	return nil
}

// View renders the preview.
func (m *PreviewModel) View(width, height int) string {
	textWidth := max(20, width-6)

	var meta []string
	if u, ok := m.article.ResolvedURL(); ok {
		meta = append(meta, MutedStyle.Render(util.TruncateString(u.String(), textWidth)))
	}
	if m.article.Geo != nil {
		meta = append(meta, MutedStyle.Render(util.FormatCoord(m.article.Geo.Lat, m.article.Geo.Lon)))
	}

	sections := []string{
		LabelStyle.Render(m.article.Title),
		strings.Join(meta, "\n"),
	}

	if m.thumbnail != nil {
		w, h := thumbnailBox(m.thumbnail.Bounds(), min(textWidth, 40), max(4, height/3))
		if art := RenderThumbnail(m.thumbnail, m.caps, w, h); art != "" {
			sections = append(sections, art)
		}
	}

	body := lipgloss.NewStyle().Width(textWidth).Foreground(ColorText)
	switch {
	case m.summaryLoading:
		sections = append(sections, m.spinner.View()+" Loading summary...")
	case m.summaryErr != nil:
		line := m.summaryErr.Icon() + " " + m.summaryErr.Description()
		if m.summaryErr.ShouldShowRetry() {
			line += "  " + helpKey("r", "retry")
		}
		sections = append(sections, ErrorStyle.Render(line))
	case m.summary != "":
		sections = append(sections, body.Render(m.summary))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(width).
		Height(height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func loadSummaryCmd(ctx context.Context, p Previewer, id int64) tea.Cmd {
	return func() tea.Msg {
		text, err := p.Summary(ctx, id)
		return summaryLoadedMsg{id: id, text: text, err: err}
	}
}

func loadThumbnailCmd(ctx context.Context, p Previewer, article model.Article) tea.Cmd {
	return func() tea.Msg {
		img, err := p.Thumbnail(ctx, article.ThumbnailURL)
		return thumbnailLoadedMsg{id: article.ID, img: img, err: err}
	}
}
