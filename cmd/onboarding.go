package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type onboardingStep int

const (
	stepLocation onboardingStep = iota
	stepHome
	stepContact
	stepDone
)

type locationOption struct {
	mode  string
	label string
	hint  string
}

var locationOptions = []locationOption{
	{LocationIP, "Approximate location from my IP address", "Looks up your network location with ip-api.com."},
	{LocationFixed, "A fixed home coordinate", "Nearby always starts from a place you choose."},
	{LocationOff, "Don't use my location", "Nearby only searches areas you pan to."},
}

type onboardingModel struct {
	step     onboardingStep
	choice   int
	home     textinput.Model
	contact  textinput.Model
	settings Settings
	status   string
	warning  string
	width    int
	height   int
}

var (
	obColorMuted  = lipgloss.Color("#7E8C80")
	obColorText   = lipgloss.Color("#D6E0D3")
	obColorAccent = lipgloss.Color("#8FA082")
	obColorDanger = lipgloss.Color("#f38ba8")

	obTitleStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obHeaderStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabsStyle = lipgloss.NewStyle().
			Padding(0, 2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabInactive = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 2)

	obTabActive = lipgloss.NewStyle().
			Foreground(obColorText).
			Bold(true).
			Underline(true).
			Padding(0, 2)

	obPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(obColorMuted).
			Padding(1, 2)

	obInputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(obColorAccent).
			Padding(0, 1)

	obLabelStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obMutedStyle = lipgloss.NewStyle().
			Foreground(obColorMuted)

	obOptionStyle = lipgloss.NewStyle().
			Foreground(obColorText)

	obOptionSelected = lipgloss.NewStyle().
				Foreground(obColorAccent).
				Bold(true)

	obWarnStyle = lipgloss.NewStyle().
			Foreground(obColorDanger)

	obFooterStyle = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(obColorMuted)
)

func newOnboardingInput(placeholder, prompt string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 120
	in.Prompt = prompt
	in.TextStyle = lipgloss.NewStyle().Foreground(obColorText)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(obColorMuted)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(obColorText).Background(obColorAccent)
	return in
}

func newOnboardingModel() onboardingModel {
	return onboardingModel{
		step:     stepLocation,
		home:     newOnboardingInput("37.7749, -122.4194", "home> "),
		contact:  newOnboardingInput("you@example.com (optional)", "contact> "),
		settings: Settings{Location: LocationSettings{Mode: LocationIP}},
	}
}

func (m onboardingModel) Init() tea.Cmd { return nil }

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.cancel()
		}
		switch m.step {
		case stepLocation:
			return m.updateLocation(msg)
		case stepHome:
			return m.updateHome(msg)
		case stepContact:
			return m.updateContact(msg)
		}
	}
	return m, nil
}

func (m onboardingModel) updateLocation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.choice > 0 {
			m.choice--
		}
		return m, nil
	case "down", "j":
		if m.choice < len(locationOptions)-1 {
			m.choice++
		}
		return m, nil
	case "enter":
		m.settings.Location.Mode = locationOptions[m.choice].mode
		if m.settings.Location.Mode == LocationFixed {
			m.step = stepHome
			cmd := m.home.Focus()
			return m, cmd
		}
		m.step = stepContact
		cmd := m.contact.Focus()
		return m, cmd
	case "q":
		return m.cancel()
	}
	// Swallow any other keys silently
	return m, nil
}

func (m onboardingModel) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		lat, lon, ok := parseLatLon(m.home.Value())
		if !ok || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			m.warning = "Enter latitude and longitude separated by a comma."
			return m, nil
		}
		m.warning = ""
		m.settings.Location.Lat = &lat
		m.settings.Location.Lon = &lon
		m.home.Blur()
		m.step = stepContact
		cmd := m.contact.Focus()
		return m, cmd
	case "esc":
		m.warning = ""
		m.home.Blur()
		m.step = stepLocation
		return m, nil
	}
	var cmd tea.Cmd
	m.home, cmd = m.home.Update(msg)
	return m, cmd
}

func (m onboardingModel) updateContact(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.settings.API.Contact = strings.TrimSpace(m.contact.Value())
		m.status = "Settings saved."
		m.step = stepDone
		return m, tea.Quit
	case "esc":
		m.status = "Settings saved without a contact."
		m.step = stepDone
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.contact, cmd = m.contact.Update(msg)
	return m, cmd
}

func (m onboardingModel) cancel() (tea.Model, tea.Cmd) {
	m.settings = Settings{Location: LocationSettings{Mode: LocationOff}}
	m.status = "Setup canceled. Location disabled."
	m.step = stepDone
	return m, tea.Quit
}

func (m onboardingModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 28
	}

	header := m.renderHeader(width)
	tabs := m.renderTabs(width)
	footer := m.renderFooter(width)

	contentHeight := max(8, height-6)
	content := m.renderContent(width, contentHeight)
	ui := lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, footer)

	return lipgloss.NewStyle().
		Foreground(obColorText).
		Width(width).
		Height(height).
		Render(ui)
}

func (m onboardingModel) renderHeader(width int) string {
	left := "  " + obTitleStyle.Render("wikiexplorer") + " " + obMutedStyle.Render("› Setup")
	right := obMutedStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "
	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return obHeaderStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m onboardingModel) renderTabs(width int) string {
	tab := func(label string, active bool) string {
		if active {
			return obTabActive.Render(label)
		}
		return obTabInactive.Render(label)
	}
	return obTabsStyle.Width(width).Render(lipgloss.JoinHorizontal(
		lipgloss.Left,
		"  ",
		tab("Location", m.step == stepLocation || m.step == stepHome),
		tab("Contact", m.step == stepContact),
	))
}

func (m onboardingModel) renderFooter(width int) string {
	switch m.step {
	case stepLocation:
		return obFooterStyle.Width(width).Render("↑↓/jk to navigate  enter to confirm  q cancel")
	case stepHome:
		return obFooterStyle.Width(width).Render("enter save  esc back")
	case stepContact:
		return obFooterStyle.Width(width).Render("enter save  esc skip")
	default:
		return obFooterStyle.Width(width).Render("Setup complete")
	}
}

func (m onboardingModel) renderContent(width, height int) string {
	cardWidth := min(92, width-6)
	if cardWidth < 40 {
		cardWidth = width - 2
	}

	var body string
	switch m.step {
	case stepLocation:
		lines := []string{obLabelStyle.Render("Where should Nearby start?"), ""}
		for i, opt := range locationOptions {
			if i == m.choice {
				lines = append(lines, "  "+obOptionSelected.Render("→ "+opt.label))
			} else {
				lines = append(lines, "    "+obOptionStyle.Render(opt.label))
			}
		}
		lines = append(lines,
			"",
			obMutedStyle.Render(locationOptions[m.choice].hint),
			obMutedStyle.Render("You can change this later in ~/.wikiexplorer/config.yaml"),
		)
		body = lipgloss.JoinVertical(lipgloss.Left, lines...)
	case stepHome:
		input := obInputStyle.Width(max(30, cardWidth-14)).Render(m.home.View())
		lines := []string{
			obLabelStyle.Render("Home coordinate"),
			"",
			obMutedStyle.Render("Latitude and longitude in decimal degrees."),
			input,
		}
		if m.warning != "" {
			lines = append(lines, obWarnStyle.Render(m.warning))
		}
		body = lipgloss.JoinVertical(lipgloss.Left, lines...)
	case stepContact:
		input := obInputStyle.Width(max(30, cardWidth-14)).Render(m.contact.View())
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			obLabelStyle.Render("Contact for the Wikipedia API"),
			"",
			obMutedStyle.Render("Wikimedia asks API clients to send a way to reach them"),
			obMutedStyle.Render("in the User-Agent header. An email or URL works."),
			"",
			input,
			"",
			obMutedStyle.Render("Press Enter to save, Esc to skip."),
		)
	default:
		msg := obMutedStyle.Render(m.status)
		if strings.Contains(strings.ToLower(m.status), "disabled") {
			msg = obWarnStyle.Render(m.status)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, obLabelStyle.Render("Setup Complete"), "", msg)
	}

	card := obPanelStyle.Width(cardWidth).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, card)
}

func runOnboarding(configDir string) (Settings, error) {
	prog := tea.NewProgram(newOnboardingModel(), tea.WithAltScreen())
	finalModel, err := prog.Run()
	if err != nil {
		return Settings{}, fmt.Errorf("onboarding tui failed: %w", err)
	}
	m, ok := finalModel.(onboardingModel)
	if !ok {
		return Settings{}, fmt.Errorf("unexpected onboarding model type")
	}
	settings := mergeSettings(defaultSettings(), m.settings)
	if err := saveSettings(configDir, settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}
