package history

import (
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// MaxEntries is the number of recent search terms kept.
const MaxEntries = 10

// Store persists recent search terms, most recent first.
type Store interface {
	Load() ([]string, error)
	Record(term string) error
	Remove(indices []int) error
	Clear() error
}

// Key is the case-folded form of a term. Two terms with the same key are
// duplicates.
func Key(term string) string {
	return cases.Fold().String(strings.TrimSpace(term))
}

// Insert applies the recording policy to items: the term is trimmed, any
// case-insensitive duplicate is dropped, the term goes to the front and the
// list is cut to limit. Empty terms leave items unchanged.
func Insert(items []string, term string, limit int) []string {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return items
	}

	key := Key(trimmed)
	out := make([]string, 0, len(items)+1)
	out = append(out, trimmed)
	for _, item := range items {
		if Key(item) == key {
			continue
		}
		out = append(out, item)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RemoveIndices returns items without the given positions. Out of range and
// duplicate indices are ignored.
func RemoveIndices(items []string, indices []int) []string {
	if len(indices) == 0 {
		return items
	}
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		if !drop[i] {
			out = append(out, item)
		}
	}
	return out
}

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	items []string
	limit int
}

// NewMemoryStore creates an empty store holding up to MaxEntries terms.
func NewMemoryStore(initial ...string) *MemoryStore {
	s := &MemoryStore{limit: MaxEntries}
	for i := len(initial) - 1; i >= 0; i-- {
		s.items = Insert(s.items, initial[i], s.limit)
	}
	return s
}

func (s *MemoryStore) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items), nil
}

func (s *MemoryStore) Record(term string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = Insert(s.items, term, s.limit)
	return nil
}

func (s *MemoryStore) Remove(indices []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = RemoveIndices(s.items, indices)
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return nil
}
