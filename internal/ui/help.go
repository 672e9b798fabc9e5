package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"wikiexplorer/internal/model"
)

// RenderHelp renders context-sensitive help footer.
func RenderHelp(screen model.Screen, mode model.Mode, previewing bool, width int) string {
	if previewing {
		return renderPreviewHelp(width)
	}
	if mode == model.ModeInsert {
		return renderInputHelp(width)
	}

	switch screen {
	case model.ScreenNearby:
		return renderNearbyHelp(width)
	default:
		return renderSearchHelp(width)
	}
}

func renderSearchHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("/", "search"),
		helpKey("enter", "open"),
		helpKey("o", "browser"),
		helpKey("d/D", "delete/clear recent"),
		helpKey("tab", "nearby"),
		helpKey("?", "help"),
	}
	return renderHelpLine(keys, width)
}

func renderNearbyHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("HJKL", "pan"),
		helpKey("+/-", "zoom"),
		helpKey("s", "search area"),
		helpKey("c", "my location"),
		helpKey("enter", "open"),
		helpKey("tab", "search"),
	}
	return renderHelpLine(keys, width)
}

func renderInputHelp(width int) string {
	keys := []string{
		helpKey("enter", "search"),
		helpKey("esc/↓", "results"),
		helpKey("ctrl+c", "quit"),
	}
	return renderHelpLine(keys, width)
}

func renderPreviewHelp(width int) string {
	keys := []string{
		helpKey("h/esc", "back"),
		helpKey("o/enter", "open in browser"),
		helpKey("r", "retry"),
	}
	return renderHelpLine(keys, width)
}

func helpKey(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return FooterStyle.Width(width).Render(line)
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(width, height int) string {
	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-6).
		Padding(1, 2)

	sections := []string{
		titleSection("Navigation"),
		helpSection([]helpItem{
			{"j / ↓", "Move down"},
			{"k / ↑", "Move up"},
			{"g / G", "Jump to top / bottom"},
			{"ctrl+d / ctrl+u", "Half page down / up"},
			{"l / → / enter", "Open article preview"},
			{"h / ← / esc", "Go back"},
			{"o", "Open article in browser"},
			{"tab", "Switch between Search and Nearby"},
			{"q", "Quit"},
			{"?", "Toggle help"},
		}),
		titleSection("Search"),
		helpSection([]helpItem{
			{"/ or i", "Edit the query"},
			{"enter", "Save the query to recent searches"},
			{"esc / ↓", "Leave the query field"},
			{"d", "Remove the selected recent search"},
			{"D", "Clear all recent searches"},
			{"r", "Retry a failed search"},
		}),
		titleSection("Nearby"),
		helpSection([]helpItem{
			{"H J K L", "Pan the map"},
			{"+ / -", "Zoom in / out"},
			{"s", "Search the visible area"},
			{"c", "Search around your location"},
			{"r", "Retry a failed fetch"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Width(width).Render("Help"),
		helpText,
		FooterStyle.Width(width).Render(HelpKeyStyle.Render("esc")+" "+HelpDescStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func titleSection(title string) string {
	return LabelStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  "+HelpKeyStyle.Render(item.key)+" - "+HelpDescStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}
