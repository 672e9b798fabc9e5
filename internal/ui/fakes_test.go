package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"wikiexplorer/internal/model"
	"wikiexplorer/internal/session"
)

type fakeSearch struct {
	state    session.SearchState
	queries  []string
	commits  int
	retries  int
	selected []string
	removed  [][]int
	cleared  int
	listener func(session.SearchState)
}

func (f *fakeSearch) State() session.SearchState { return f.state }
func (f *fakeSearch) SetQuery(q string) {
	f.queries = append(f.queries, q)
	f.state.Query = q
}
func (f *fakeSearch) CommitSearch()            { f.commits++ }
func (f *fakeSearch) RetrySearch()             { f.retries++ }
func (f *fakeSearch) SelectRecent(term string) { f.selected = append(f.selected, term) }
func (f *fakeSearch) RemoveRecent(indices []int) {
	f.removed = append(f.removed, indices)
}
func (f *fakeSearch) ClearRecents() { f.cleared++ }
func (f *fakeSearch) Subscribe(fn func(session.SearchState)) func() {
	f.listener = fn
	return func() { f.listener = nil }
}

type fetchAtCall struct {
	Center model.Geo
	Radius int
	Limit  int
}

type fakeNearby struct {
	state    session.NearbyState
	fetches  int
	fetchAt  []fetchAtCall
	retries  int
	centers  []model.Geo
	listener func(session.NearbyState)
}

func (f *fakeNearby) State() session.NearbyState { return f.state }
func (f *fakeNearby) FetchNearby()               { f.fetches++ }
func (f *fakeNearby) FetchNearbyAt(center model.Geo, radiusMeters, limit int) {
	f.fetchAt = append(f.fetchAt, fetchAtCall{center, radiusMeters, limit})
}
func (f *fakeNearby) Retry() { f.retries++ }
func (f *fakeNearby) SetMapCenter(center model.Geo) {
	f.centers = append(f.centers, center)
	f.state.MapCenter = &center
}
func (f *fakeNearby) Subscribe(fn func(session.NearbyState)) func() {
	f.listener = fn
	return func() { f.listener = nil }
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
	tabKey   = tea.KeyMsg{Type: tea.KeyTab}
)

func articles(titles ...string) []model.Article {
	out := make([]model.Article, len(titles))
	for i, t := range titles {
		out[i] = model.Article{
			ID:      int64(i + 1),
			Title:   t,
			FullURL: "https://en.wikipedia.org/wiki/" + t,
		}
	}
	return out
}
