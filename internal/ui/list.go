package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// listCursor tracks the selected row and scroll offset of a list with n rows.
type listCursor struct {
	cursor         int
	offset         int
	viewportHeight int
}

func (l *listCursor) height() int {
	if l.viewportHeight <= 0 {
		return 10
	}
	return l.viewportHeight
}

// MoveDown moves the cursor down.
func (l *listCursor) MoveDown(n int) {
	if l.cursor < n-1 {
		l.cursor++
		if l.cursor >= l.offset+l.height() {
			l.offset++
		}
	}
}

// MoveUp moves the cursor up.
func (l *listCursor) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
		if l.cursor < l.offset {
			l.offset--
		}
	}
}

// JumpToTop jumps to the first item.
func (l *listCursor) JumpToTop() {
	l.cursor = 0
	l.offset = 0
}

// JumpToBottom jumps to the last item.
func (l *listCursor) JumpToBottom(n int) {
	if n == 0 {
		return
	}
	l.cursor = n - 1
	if l.cursor >= l.height() {
		l.offset = l.cursor - l.height() + 1
	}
}

// HalfPageDown moves down half a page.
func (l *listCursor) HalfPageDown(n int) {
	if n == 0 {
		return
	}
	l.cursor = min(l.cursor+l.height()/2, n-1)
	if l.cursor >= l.offset+l.height() {
		l.offset = l.cursor - l.height() + 1
	}
}

// HalfPageUp moves up half a page.
func (l *listCursor) HalfPageUp() {
	l.cursor = max(l.cursor-l.height()/2, 0)
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
}

// Clamp keeps the cursor inside a list that now has n rows.
func (l *listCursor) Clamp(n int) {
	if n == 0 {
		l.cursor, l.offset = 0, 0
		return
	}
	if l.cursor >= n {
		l.cursor = n - 1
	}
	if l.offset > l.cursor {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.height() {
		l.offset = l.cursor - l.height() + 1
	}
}

// Visible returns the index range of rows to draw for a list of n rows.
func (l *listCursor) Visible(n int) (int, int) {
	return l.offset, min(n, l.offset+l.height())
}

// HandleKey applies the shared movement bindings. It reports whether msg was
// a movement key.
func (l *listCursor) HandleKey(msg tea.KeyMsg, keys KeyMap, n int) bool {
	switch {
	case key.Matches(msg, keys.Down):
		l.MoveDown(n)
	case key.Matches(msg, keys.Up):
		l.MoveUp()
	case key.Matches(msg, keys.Top):
		l.JumpToTop()
	case key.Matches(msg, keys.Bottom):
		l.JumpToBottom(n)
	case key.Matches(msg, keys.HalfPageDown):
		l.HalfPageDown(n)
	case key.Matches(msg, keys.HalfPageUp):
		l.HalfPageUp()
	default:
		return false
	}
	return true
}
