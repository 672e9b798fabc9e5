package model

// Bubble Tea message types

// ErrorMsg represents an error message.
type ErrorMsg struct {
	Err error
}

// SearchChangedMsg is sent when the search session published new state.
type SearchChangedMsg struct{}

// NearbyChangedMsg is sent when the nearby session published new state.
type NearbyChangedMsg struct{}

// ArticleOpenedMsg is sent after an article was handed to the system browser.
type ArticleOpenedMsg struct {
	Title string
}

// Screen represents different app screens.
type Screen int

const (
	ScreenSearch Screen = iota
	ScreenNearby
)

func (s Screen) String() string {
	switch s {
	case ScreenNearby:
		return "nearby"
	default:
		return "search"
	}
}

// ParseScreen is the inverse of Screen.String; unknown names map to ScreenSearch.
func ParseScreen(name string) Screen {
	if name == "nearby" {
		return ScreenNearby
	}
	return ScreenSearch
}

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNav Mode = iota
	ModeInsert
)
