package session

import (
	"context"
	"errors"
	"net"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"wikiexplorer/internal/model"
)

const testDebounce = 40 * time.Millisecond

func newTestSearch(t *testing.T, api *fakeAPI, store *countingStore) *SearchSession {
	t.Helper()
	s := NewSearchSession(api, store, WithDebounce(testDebounce))
	t.Cleanup(s.Close)
	return s
}

func TestSearchDebounceCoalescesRapidChanges(t *testing.T) {
	api := &fakeAPI{searchFn: func(context.Context, string) ([]model.Article, error) {
		return sanFranciscoArticles(), nil
	}}
	s := newTestSearch(t, api, newCountingStore())

	s.SetQuery("S")
	s.SetQuery("Sa")
	s.SetQuery("San")
	s.Wait()

	if got := api.searches(); !slices.Equal(got, []string{"San"}) {
		t.Fatalf("search calls = %v, want [San]", got)
	}
	if st := s.State(); st.Mode != SearchResults {
		t.Fatalf("mode = %v, want results", st.Mode)
	}
}

func TestSearchTrimsQuery(t *testing.T) {
	api := &fakeAPI{searchFn: func(context.Context, string) ([]model.Article, error) {
		return sanFranciscoArticles(), nil
	}}
	s := newTestSearch(t, api, newCountingStore())

	s.SetQuery("  Coit Tower \n")
	s.Wait()

	if got := api.searches(); !slices.Equal(got, []string{"Coit Tower"}) {
		t.Fatalf("search calls = %v", got)
	}
}

func TestSearchEmptyQueryIsIdle(t *testing.T) {
	api := &fakeAPI{searchFn: func(context.Context, string) ([]model.Article, error) {
		return sanFranciscoArticles(), nil
	}}
	s := newTestSearch(t, api, newCountingStore())

	s.SetQuery("   ")
	s.Wait()

	st := s.State()
	if st.Mode != SearchIdle || len(st.Results) != 0 {
		t.Fatalf("state = %+v, want idle with no results", st)
	}
	if n := len(api.searches()); n != 0 {
		t.Fatalf("search calls = %d, want 0", n)
	}

	s.SetQuery("Bridge")
	s.Wait()
	s.SetQuery("")
	s.Wait()
	if st := s.State(); st.Mode != SearchIdle || st.Results != nil {
		t.Fatalf("state after clearing = %+v, want idle with no results", st)
	}
}

func TestSearchEmptyQueryCancelsPending(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSearch(t, api, newCountingStore())

	s.SetQuery("Golden")
	s.SetQuery("")
	s.Wait()

	if n := len(api.searches()); n != 0 {
		t.Fatalf("search calls = %d, want 0", n)
	}
	if st := s.State(); st.Mode != SearchIdle {
		t.Fatalf("mode = %v, want idle", st.Mode)
	}
}

func TestSearchSuccessThenCommit(t *testing.T) {
	api := &fakeAPI{searchFn: func(context.Context, string) ([]model.Article, error) {
		return sanFranciscoArticles(), nil
	}}
	store := newCountingStore("Older")
	s := newTestSearch(t, api, store)

	s.SetQuery("San Francisco")
	if st := s.State(); st.Mode != SearchSearching {
		t.Fatalf("mode = %v, want searching right after a change", st.Mode)
	}
	s.Wait()

	st := s.State()
	if st.Mode != SearchResults || len(st.Results) != 3 {
		t.Fatalf("state = %v with %d results, want results with 3", st.Mode, len(st.Results))
	}
	if st.Err != (model.Error{}) {
		t.Fatalf("Err = %v, want zero outside error mode", st.Err)
	}
	if n := store.records.Load(); n != 0 {
		t.Fatalf("records before commit = %d, want 0", n)
	}

	s.CommitSearch()
	s.CommitSearch()

	st = s.State()
	if !slices.Equal(st.RecentSearches, []string{"San Francisco", "Older"}) {
		t.Fatalf("recents = %v", st.RecentSearches)
	}
	if n := store.records.Load(); n != 1 {
		t.Fatalf("records = %d, want 1 for repeated commits", n)
	}
}

func TestSearchCommitIgnoresEmptyQuery(t *testing.T) {
	store := newCountingStore()
	s := newTestSearch(t, &fakeAPI{}, store)

	s.SetQuery("  ")
	s.CommitSearch()
	if n := store.records.Load(); n != 0 {
		t.Fatalf("records = %d, want 0", n)
	}
}

func TestSearchCommitAfterClearingRecordsAgain(t *testing.T) {
	store := newCountingStore()
	s := newTestSearch(t, &fakeAPI{}, store)

	s.SetQuery("Swift")
	s.CommitSearch()
	s.SetQuery("")
	s.SetQuery("Swift")
	s.CommitSearch()
	s.Wait()

	if n := store.records.Load(); n != 2 {
		t.Fatalf("records = %d, want 2 after the query was cleared in between", n)
	}
}

func TestSearchNetworkFailure(t *testing.T) {
	api := &fakeAPI{searchFn: func(context.Context, string) ([]model.Article, error) {
		return nil, model.ErrNetworkUnavailable
	}}
	s := newTestSearch(t, api, newCountingStore())

	s.SetQuery("Offline")
	s.Wait()

	st := s.State()
	if st.Mode != SearchError || st.Err != model.ErrNetworkUnavailable {
		t.Fatalf("state = %v/%v, want error/network unavailable", st.Mode, st.Err)
	}
	if len(st.Results) != 0 {
		t.Fatalf("results = %d, want 0", len(st.Results))
	}
	if !st.Err.ShouldShowRetry() {
		t.Fatal("ShouldShowRetry = false, want true")
	}
}

func TestSearchClassifiesRawErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.Error
	}{
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, model.ErrNetworkUnavailable},
		{"deadline", context.DeadlineExceeded, model.ErrRequestTimeout},
		{"unknown", errors.New("weird"), model.UnknownError("weird")},
		{"server", model.ServerError(503), model.ServerError(503)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{searchFn: func(context.Context, string) ([]model.Article, error) {
				return nil, tt.err
			}}
			s := newTestSearch(t, api, newCountingStore())
			s.SetQuery("x")
			s.Wait()
			if st := s.State(); st.Err != tt.want {
				t.Fatalf("Err = %#v, want %#v", st.Err, tt.want)
			}
		})
	}
}

func TestSearchRetry(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	api := &fakeAPI{searchFn: func(context.Context, string) ([]model.Article, error) {
		if fail.Load() {
			return nil, model.ErrRequestTimeout
		}
		return sanFranciscoArticles(), nil
	}}
	s := newTestSearch(t, api, newCountingStore())

	s.SetQuery("Bridge")
	s.Wait()
	if st := s.State(); st.Mode != SearchError {
		t.Fatalf("mode = %v, want error", st.Mode)
	}

	fail.Store(false)
	s.RetrySearch()
	s.Wait()

	if st := s.State(); st.Mode != SearchResults || len(st.Results) != 3 {
		t.Fatalf("state after retry = %v with %d results", st.Mode, len(st.Results))
	}
	if got := api.searches(); !slices.Equal(got, []string{"Bridge", "Bridge"}) {
		t.Fatalf("search calls = %v", got)
	}
}

func TestSearchSupersededResultNeverApplied(t *testing.T) {
	startedA := make(chan struct{})
	releaseA := make(chan struct{})
	resultA := []model.Article{{ID: 100, Title: "A result"}}
	resultB := []model.Article{{ID: 200, Title: "B result"}}

	api := &fakeAPI{searchFn: func(_ context.Context, text string) ([]model.Article, error) {
		if text == "A" {
			close(startedA)
			<-releaseA
			return resultA, nil
		}
		return resultB, nil
	}}
	s := NewSearchSession(api, newCountingStore(), WithDebounce(0))
	defer s.Close()

	s.SetQuery("A")
	<-startedA
	s.SetQuery("B")

	waitFor(t, func() bool { return s.State().Mode == SearchResults })
	close(releaseA)
	s.Wait()

	st := s.State()
	if st.Query != "B" || !model.ArticlesEqual(st.Results, resultB) {
		t.Fatalf("state = %q %v, want B's results", st.Query, st.Results)
	}
}

func TestSearchCancelledFailureIsSilent(t *testing.T) {
	started := make(chan struct{})
	api := &fakeAPI{searchFn: func(ctx context.Context, text string) ([]model.Article, error) {
		if text == "first" {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return sanFranciscoArticles(), nil
	}}
	s := NewSearchSession(api, newCountingStore(), WithDebounce(0))
	defer s.Close()

	var errorsSeen atomic.Int32
	s.Subscribe(func(st SearchState) {
		if st.Mode == SearchError {
			errorsSeen.Add(1)
		}
	})

	s.SetQuery("first")
	<-started
	s.SetQuery("second")
	s.Wait()

	if n := errorsSeen.Load(); n != 0 {
		t.Fatalf("error states published = %d, want 0", n)
	}
	if st := s.State(); st.Mode != SearchResults {
		t.Fatalf("mode = %v, want results", st.Mode)
	}
}

func TestSelectRecent(t *testing.T) {
	api := &fakeAPI{searchFn: func(context.Context, string) ([]model.Article, error) {
		return sanFranciscoArticles(), nil
	}}
	store := newCountingStore("Alpha", "Beta")
	s := newTestSearch(t, api, store)

	if got := s.State().RecentSearches; !slices.Equal(got, []string{"Alpha", "Beta"}) {
		t.Fatalf("initial recents = %v", got)
	}

	s.SelectRecent("Beta")
	s.Wait()

	st := s.State()
	if st.Query != "Beta" || st.Mode != SearchResults {
		t.Fatalf("state = %q/%v", st.Query, st.Mode)
	}
	if !slices.Equal(st.RecentSearches, []string{"Beta", "Alpha"}) {
		t.Fatalf("recents = %v, want Beta promoted", st.RecentSearches)
	}
	if got := api.searches(); !slices.Equal(got, []string{"Beta"}) {
		t.Fatalf("search calls = %v", got)
	}

	s.CommitSearch()
	if n := store.records.Load(); n != 1 {
		t.Fatalf("records = %d, want 1: selection already committed", n)
	}
}

func TestSelectRecentRepeatedStillPromotes(t *testing.T) {
	api := &fakeAPI{searchFn: func(context.Context, string) ([]model.Article, error) {
		return sanFranciscoArticles(), nil
	}}
	store := newCountingStore("Alpha", "Beta")
	s := newTestSearch(t, api, store)

	s.SetQuery("Beta")
	s.CommitSearch()
	s.Wait()
	if n := store.records.Load(); n != 1 {
		t.Fatalf("records after commit = %d, want 1", n)
	}

	s.SelectRecent("Alpha")
	s.Wait()
	s.SelectRecent("Alpha")
	s.Wait()

	if n := store.records.Load(); n != 3 {
		t.Fatalf("records = %d, want 3: each selection records", n)
	}
	if got := s.State().RecentSearches; !slices.Equal(got, []string{"Alpha", "Beta"}) {
		t.Fatalf("recents = %v, want Alpha first", got)
	}
}

func TestRemoveAndClearRecents(t *testing.T) {
	s := newTestSearch(t, &fakeAPI{}, newCountingStore("a", "b", "c", "d"))

	s.RemoveRecent([]int{1, 3})
	if got := s.State().RecentSearches; !slices.Equal(got, []string{"a", "c"}) {
		t.Fatalf("recents after remove = %v", got)
	}

	s.ClearRecents()
	if got := s.State().RecentSearches; len(got) != 0 {
		t.Fatalf("recents after clear = %v", got)
	}
}

func TestSearchHistoryFailuresStayOutOfState(t *testing.T) {
	api := &fakeAPI{searchFn: func(context.Context, string) ([]model.Article, error) {
		return sanFranciscoArticles(), nil
	}}
	s := NewSearchSession(api, brokenStore{}, WithDebounce(0))
	defer s.Close()

	s.SetQuery("Bridge")
	s.Wait()
	s.CommitSearch()
	s.ClearRecents()

	st := s.State()
	if st.Mode != SearchResults || len(st.RecentSearches) != 0 {
		t.Fatalf("state = %v recents %v", st.Mode, st.RecentSearches)
	}
}

func TestSearchSubscribe(t *testing.T) {
	api := &fakeAPI{searchFn: func(context.Context, string) ([]model.Article, error) {
		return sanFranciscoArticles(), nil
	}}
	s := newTestSearch(t, api, newCountingStore())

	var modes []SearchMode
	done := make(chan struct{})
	unsubscribe := s.Subscribe(func(st SearchState) {
		modes = append(modes, st.Mode)
		if st.Mode == SearchResults {
			close(done)
		}
	})

	s.SetQuery("Tower")
	<-done
	s.Wait()
	unsubscribe()

	if !slices.Equal(modes, []SearchMode{SearchSearching, SearchResults}) {
		t.Fatalf("modes = %v", modes)
	}

	s.SetQuery("")
	if len(modes) != 2 {
		t.Fatalf("listener called after unsubscribe: %v", modes)
	}
}

func TestSignalCoalesces(t *testing.T) {
	fn, ch := Signal[SearchState]()
	fn(SearchState{})
	fn(SearchState{})
	fn(SearchState{})

	<-ch
	select {
	case <-ch:
		t.Fatal("expected a single pending signal")
	default:
	}
}

func TestSearchClose(t *testing.T) {
	api := &fakeAPI{}
	s := NewSearchSession(api, newCountingStore(), WithDebounce(time.Hour))

	s.SetQuery("never")
	s.Close()
	s.SetQuery("after close")
	s.Wait()

	if n := len(api.searches()); n != 0 {
		t.Fatalf("search calls = %d, want 0", n)
	}
}
