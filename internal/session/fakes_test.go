package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wikiexplorer/internal/history"
	"wikiexplorer/internal/model"
)

func sanFranciscoArticles() []model.Article {
	return []model.Article{
		{ID: 1, Title: "Golden Gate Bridge", FullURL: "https://en.wikipedia.org/wiki/Golden_Gate_Bridge",
			Geo: &model.Geo{Lat: 37.8199, Lon: -122.4783}},
		{ID: 2, Title: "Alcatraz Island", FullURL: "https://en.wikipedia.org/wiki/Alcatraz_Island",
			Geo: &model.Geo{Lat: 37.8270, Lon: -122.4230}},
		{ID: 3, Title: "Coit Tower", FullURL: "https://en.wikipedia.org/wiki/Coit_Tower",
			Geo: &model.Geo{Lat: 37.8024, Lon: -122.4058}},
	}
}

// fakeAPI records calls and answers from configurable hooks.
type fakeAPI struct {
	mu          sync.Mutex
	searchCalls []string
	nearbyCalls []nearbyCall

	searchFn func(ctx context.Context, text string) ([]model.Article, error)
	nearbyFn func(ctx context.Context, c nearbyCall) ([]model.Article, error)
}

type nearbyCall struct {
	Lat, Lon      float64
	Radius, Limit int
}

func (f *fakeAPI) Search(ctx context.Context, text string, limit int) ([]model.Article, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, text)
	fn := f.searchFn
	f.mu.Unlock()
	if fn == nil {
		return nil, model.ErrNoResults
	}
	return fn(ctx, text)
}

func (f *fakeAPI) Nearby(ctx context.Context, lat, lon float64, radiusMeters, limit int) ([]model.Article, error) {
	c := nearbyCall{Lat: lat, Lon: lon, Radius: radiusMeters, Limit: limit}
	f.mu.Lock()
	f.nearbyCalls = append(f.nearbyCalls, c)
	fn := f.nearbyFn
	f.mu.Unlock()
	if fn == nil {
		return sanFranciscoArticles(), nil
	}
	return fn(ctx, c)
}

func (f *fakeAPI) searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searchCalls...)
}

func (f *fakeAPI) nearbys() []nearbyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]nearbyCall(nil), f.nearbyCalls...)
}

type fakeLocator struct {
	calls atomic.Int32
	geo   model.Geo
	err   error
	block chan struct{}
}

func (f *fakeLocator) CurrentLocation(ctx context.Context) (model.Geo, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return model.Geo{}, ctx.Err()
		}
	}
	return f.geo, f.err
}

// countingStore counts Record calls on top of a MemoryStore.
type countingStore struct {
	*history.MemoryStore
	records atomic.Int32
}

func newCountingStore(initial ...string) *countingStore {
	return &countingStore{MemoryStore: history.NewMemoryStore(initial...)}
}

func (s *countingStore) Record(term string) error {
	s.records.Add(1)
	return s.MemoryStore.Record(term)
}

// brokenStore fails every operation.
type brokenStore struct{}

var errDisk = errors.New("disk full")

func (brokenStore) Load() ([]string, error) { return nil, errDisk }
func (brokenStore) Record(string) error     { return errDisk }
func (brokenStore) Remove([]int) error      { return errDisk }
func (brokenStore) Clear() error            { return errDisk }

// waitFor polls cond until it holds or two seconds pass.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
