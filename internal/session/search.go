package session

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wikiexplorer/internal/history"
	"wikiexplorer/internal/logging"
	"wikiexplorer/internal/model"
)

const (
	DefaultDebounce    = 350 * time.Millisecond
	DefaultSearchLimit = 20
)

// ArticleSearcher performs full-text article searches.
type ArticleSearcher interface {
	Search(ctx context.Context, text string, limit int) ([]model.Article, error)
}

// SearchMode is the phase of the search pipeline.
type SearchMode int

const (
	SearchIdle SearchMode = iota
	SearchSearching
	SearchResults
	SearchError
)

func (m SearchMode) String() string {
	switch m {
	case SearchSearching:
		return "searching"
	case SearchResults:
		return "results"
	case SearchError:
		return "error"
	default:
		return "idle"
	}
}

// SearchState is a snapshot of a SearchSession. Err is only set when Mode is
// SearchError.
type SearchState struct {
	Query          string
	Mode           SearchMode
	Err            model.Error
	Results        []model.Article
	RecentSearches []string
}

type SearchOption func(*SearchSession)

// WithDebounce sets how long the query must stay unchanged before searching.
func WithDebounce(d time.Duration) SearchOption {
	return func(s *SearchSession) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

func WithSearchLimit(n int) SearchOption {
	return func(s *SearchSession) {
		if n > 0 {
			s.limit = n
		}
	}
}

func WithSearchLogger(l *slog.Logger) SearchOption {
	return func(s *SearchSession) {
		if l != nil {
			s.log = l
		}
	}
}

// SearchSession runs debounced searches as the query changes and keeps the
// recent search list in sync with a history store. At most one search is in
// flight; starting a new one cancels the previous, and a cancelled search
// never changes state.
type SearchSession struct {
	api      ArticleSearcher
	store    history.Store
	debounce time.Duration
	limit    int
	log      *slog.Logger

	root      context.Context
	cancelAll context.CancelFunc
	wg        sync.WaitGroup

	// histMu serializes store access; the store need not be safe for
	// concurrent use.
	histMu sync.Mutex

	mu            sync.Mutex
	query         string
	mode          SearchMode
	err           model.Error
	results       []model.Article
	recents       []string
	lastCommitted string
	cancel        context.CancelFunc
	closed        bool

	listeners broadcaster[SearchState]
}

// NewSearchSession creates a session and loads the recent searches.
func NewSearchSession(api ArticleSearcher, store history.Store, opts ...SearchOption) *SearchSession {
	root, cancel := context.WithCancel(context.Background())
	s := &SearchSession{
		api:       api,
		store:     store,
		debounce:  DefaultDebounce,
		limit:     DefaultSearchLimit,
		log:       logging.Discard(),
		root:      root,
		cancelAll: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.histMu.Lock()
	s.recents = s.loadRecents()
	s.histMu.Unlock()
	return s
}

// State returns a copy of the current state.
func (s *SearchSession) State() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SearchSession) snapshotLocked() SearchState {
	return SearchState{
		Query:          s.query,
		Mode:           s.mode,
		Err:            s.err,
		Results:        slices.Clone(s.results),
		RecentSearches: slices.Clone(s.recents),
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func removes the subscription.
func (s *SearchSession) Subscribe(fn func(SearchState)) func() {
	return s.listeners.subscribe(fn)
}

func (s *SearchSession) notify() {
	s.listeners.publish(s.State())
}

// SetQuery replaces the query text and reacts to the change.
func (s *SearchSession) SetQuery(q string) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
	s.OnQueryChanged()
}

// OnQueryChanged cancels any pending search and, for a non-empty query,
// starts a new debounced one.
func (s *SearchSession) OnQueryChanged() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.closed {
		s.mu.Unlock()
		return
	}

	trimmed := strings.TrimSpace(s.query)
	if trimmed == "" {
		s.mode = SearchIdle
		s.err = model.Error{}
		s.results = nil
		s.lastCommitted = ""
		s.mu.Unlock()
		s.notify()
		return
	}

	s.mode = SearchSearching
	s.err = model.Error{}
	ctx, cancel := context.WithCancel(s.root)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()
	s.notify()

	go s.run(ctx, cancel, trimmed)
}

func (s *SearchSession) run(ctx context.Context, cancel context.CancelFunc, text string) {
	defer s.wg.Done()
	defer cancel()

	log := s.log.With("op", uuid.NewString(), "query", text)

	timer := time.NewTimer(s.debounce)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		log.Debug("search superseded during debounce")
		return
	case <-timer.C:
	}

	start := time.Now()
	articles, err := s.api.Search(ctx, text, s.limit)

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		log.Debug("search cancelled", "elapsed", time.Since(start))
		return
	}
	if err != nil {
		s.err = model.Classify(err)
		s.mode = SearchError
		s.results = nil
		log.Warn("search failed", "kind", s.err.Kind, "err", err)
	} else {
		s.err = model.Error{}
		s.mode = SearchResults
		s.results = articles
		log.Info("search finished", "results", len(articles), "elapsed", time.Since(start))
	}
	s.mu.Unlock()
	s.notify()
}

// RetrySearch re-runs the pipeline for the current query.
func (s *SearchSession) RetrySearch() {
	s.OnQueryChanged()
}

// CommitSearch records the current query in history unless it is empty or
// was the last term committed.
func (s *SearchSession) CommitSearch() {
	s.mu.Lock()
	trimmed := strings.TrimSpace(s.query)
	if trimmed == "" || trimmed == s.lastCommitted {
		s.mu.Unlock()
		return
	}
	s.lastCommitted = trimmed
	s.mu.Unlock()

	s.updateHistory(func() error { return s.store.Record(trimmed) })
}

// SelectRecent searches for a term picked from the recent list and moves it
// to the front of history.
func (s *SearchSession) SelectRecent(term string) {
	s.mu.Lock()
	s.query = term
	s.lastCommitted = strings.TrimSpace(term)
	s.mu.Unlock()

	s.OnQueryChanged()
	s.updateHistory(func() error { return s.store.Record(term) })
}

// RemoveRecent deletes the recent searches at the given positions.
func (s *SearchSession) RemoveRecent(indices []int) {
	s.updateHistory(func() error { return s.store.Remove(indices) })
}

// ClearRecents empties the recent search list.
func (s *SearchSession) ClearRecents() {
	s.updateHistory(s.store.Clear)
}

// updateHistory applies op to the store and refreshes the recent list.
// Failures are logged and never surface as search errors.
func (s *SearchSession) updateHistory(op func() error) {
	s.histMu.Lock()
	if err := op(); err != nil {
		s.log.Error("history update failed", "err", err)
	}
	recents := s.loadRecents()
	s.histMu.Unlock()

	s.mu.Lock()
	s.recents = recents
	s.mu.Unlock()
	s.notify()
}

func (s *SearchSession) loadRecents() []string {
	recents, err := s.store.Load()
	if err != nil {
		s.log.Error("failed to load search history", "err", err)
		return nil
	}
	return recents
}

// Wait blocks until every started search has finished or been cancelled.
func (s *SearchSession) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight work and waits for it to stop. Later calls to
// OnQueryChanged do nothing.
func (s *SearchSession) Close() {
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.cancelAll()
	s.wg.Wait()
}
