package ui

import (
	"fmt"
	"os/exec"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"

	"wikiexplorer/internal/model"
)

// browserCommand returns the program and arguments that open url in the
// default browser on goos.
func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

// openArticleCmd hands the article URL to the system browser. Articles with
// no usable URL are ignored.
func openArticleCmd(article model.Article) tea.Cmd {
	u, ok := article.ResolvedURL()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		name, args := browserCommand(runtime.GOOS, u.String())
		if err := exec.Command(name, args...).Start(); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to open %s: %w", article.Title, err)}
		}
		return model.ArticleOpenedMsg{Title: article.Title}
	}
}
