package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"wikiexplorer/internal/history"
)

// HistoryEntry is a recorded search term with the time it was last used.
type HistoryEntry struct {
	Term       string
	SearchedAt time.Time
}

// HistoryStore implements history.Store on top of the search_history table.
// Rows are ordered by id: re-recording a term deletes the old row and inserts
// a new one, so the highest id is always the most recent search.
type HistoryStore struct {
	db    *sql.DB
	limit int
}

var _ history.Store = (*HistoryStore)(nil)

// NewHistoryStore creates a store keeping history.MaxEntries terms.
func NewHistoryStore(database *sql.DB) *HistoryStore {
	return &HistoryStore{db: database, limit: history.MaxEntries}
}

// Load returns the stored terms, most recent first.
func (s *HistoryStore) Load() ([]string, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	terms := make([]string, len(entries))
	for i, e := range entries {
		terms[i] = e.Term
	}
	return terms, nil
}

// Entries returns the stored terms with their timestamps, most recent first.
func (s *HistoryStore) Entries() ([]HistoryEntry, error) {
	rows, err := sq.Select("term", "searched_at").
		From("search_history").
		OrderBy("id DESC").
		Limit(uint64(s.limit)).
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to load search history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var searchedAt string
		if err := rows.Scan(&e.Term, &searchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search history row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, searchedAt); err == nil {
			e.SearchedAt = t
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search history rows: %w", err)
	}

	return entries, nil
}

// Record stores term at the front of the history, replacing any
// case-insensitive duplicate and dropping entries beyond the limit.
func (s *HistoryStore) Record(term string) error {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return nil
	}
	key := history.Key(trimmed)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := sq.Delete("search_history").Where(sq.Eq{"term_key": key}).RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("failed to remove duplicate term: %w", err)
	}

	if _, err := sq.Insert("search_history").Columns("term", "term_key").Values(trimmed, key).RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("failed to insert search term: %w", err)
	}

	trim := sq.Delete("search_history").
		Where("id NOT IN (SELECT id FROM search_history ORDER BY id DESC LIMIT ?)", s.limit)
	if _, err := trim.RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("failed to trim search history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit search term: %w", err)
	}
	return nil
}

// Remove deletes the entries at the given positions of the list Load returns.
func (s *HistoryStore) Remove(indices []int) error {
	if len(indices) == 0 {
		return nil
	}

	rows, err := sq.Select("id").From("search_history").OrderBy("id DESC").Limit(uint64(s.limit)).RunWith(s.db).Query()
	if err != nil {
		return fmt.Errorf("failed to list search history ids: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan search history id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating search history ids: %w", err)
	}

	var doomed []int64
	for _, i := range indices {
		if i >= 0 && i < len(ids) {
			doomed = append(doomed, ids[i])
		}
	}
	if len(doomed) == 0 {
		return nil
	}

	if _, err := sq.Delete("search_history").Where(sq.Eq{"id": doomed}).RunWith(s.db).Exec(); err != nil {
		return fmt.Errorf("failed to remove search terms: %w", err)
	}
	return nil
}

// Clear deletes every stored term.
func (s *HistoryStore) Clear() error {
	if _, err := sq.Delete("search_history").RunWith(s.db).Exec(); err != nil {
		return fmt.Errorf("failed to clear search history: %w", err)
	}
	return nil
}
