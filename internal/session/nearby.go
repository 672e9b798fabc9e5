package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"wikiexplorer/internal/geo"
	"wikiexplorer/internal/logging"
	"wikiexplorer/internal/model"
)

const (
	DefaultNearbyRadius = 10000
	DefaultNearbyLimit  = 30

	// DefaultMoveThreshold is how far, in meters, the map must move from the
	// last fetch before a re-search is offered.
	DefaultMoveThreshold = 1000.0
)

// NearbySource finds articles around a coordinate.
type NearbySource interface {
	Nearby(ctx context.Context, lat, lon float64, radiusMeters, limit int) ([]model.Article, error)
}

// Locator resolves the current position.
type Locator interface {
	CurrentLocation(ctx context.Context) (model.Geo, error)
}

// NearbyState is a snapshot of a NearbySession. Region is nil until a fetch
// returns at least one geotagged article.
type NearbyState struct {
	Articles          model.Loadable[[]model.Article]
	MapCenter         *model.Geo
	LastFetchedCenter *model.Geo
	Region            *model.Region
	ShowSearchButton  bool
}

type NearbyOption func(*NearbySession)

// WithMoveThreshold sets the map movement in meters that enables "search this area".
func WithMoveThreshold(meters float64) NearbyOption {
	return func(s *NearbySession) {
		if meters > 0 {
			s.threshold = meters
		}
	}
}

func WithNearbyDefaults(radiusMeters, limit int) NearbyOption {
	return func(s *NearbySession) {
		if radiusMeters > 0 {
			s.radius = radiusMeters
		}
		if limit > 0 {
			s.limit = limit
		}
	}
}

func WithNearbyLogger(l *slog.Logger) NearbyOption {
	return func(s *NearbySession) {
		if l != nil {
			s.log = l
		}
	}
}

// NearbySession fetches articles around the user or an explicit coordinate
// and tracks the map viewport. A new fetch cancels the one in flight.
type NearbySession struct {
	api       NearbySource
	locator   Locator
	radius    int
	limit     int
	threshold float64
	log       *slog.Logger

	root      context.Context
	cancelAll context.CancelFunc
	wg        sync.WaitGroup

	mu          sync.Mutex
	articles    model.Loadable[[]model.Article]
	mapCenter   *model.Geo
	lastFetched *model.Geo
	region      *model.Region
	cancel      context.CancelFunc
	closed      bool

	listeners broadcaster[NearbyState]
}

func NewNearbySession(api NearbySource, locator Locator, opts ...NearbyOption) *NearbySession {
	root, cancel := context.WithCancel(context.Background())
	s := &NearbySession{
		api:       api,
		locator:   locator,
		radius:    DefaultNearbyRadius,
		limit:     DefaultNearbyLimit,
		threshold: DefaultMoveThreshold,
		log:       logging.Discard(),
		root:      root,
		cancelAll: cancel,
		articles:  model.Idle[[]model.Article](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *NearbySession) State() NearbyState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := NearbyState{
		Articles:          s.articles,
		MapCenter:         clonePtr(s.mapCenter),
		LastFetchedCenter: clonePtr(s.lastFetched),
		Region:            clonePtr(s.region),
		ShowSearchButton:  showSearchButton(s.mapCenter, s.lastFetched, s.threshold),
	}
	st.Articles.Value = slices.Clone(s.articles.Value)
	return st
}

func (s *NearbySession) Subscribe(fn func(NearbyState)) func() {
	return s.listeners.subscribe(fn)
}

func (s *NearbySession) notify() {
	s.listeners.publish(s.State())
}

// FetchNearby resolves the current location and loads articles around it.
// A location failure ends the fetch without a remote call.
func (s *NearbySession) FetchNearby() {
	ctx, cancel, ok := s.begin()
	if !ok {
		return
	}

	go func() {
		defer s.wg.Done()
		defer cancel()

		log := s.log.With("op", uuid.NewString())

		here, err := s.locator.CurrentLocation(ctx)

		s.mu.Lock()
		if ctx.Err() != nil {
			s.mu.Unlock()
			log.Debug("nearby fetch cancelled while locating")
			return
		}
		if err != nil {
			kind := model.Classify(err)
			s.articles = model.Failed[[]model.Article](kind)
			s.mu.Unlock()
			log.Warn("location failed", "kind", kind.Kind, "err", err)
			s.notify()
			return
		}
		s.mapCenter = &here
		fetched := here
		s.lastFetched = &fetched
		s.mu.Unlock()
		s.notify()

		s.load(ctx, log, here, s.radius, s.limit, false)
	}()
}

// FetchNearbyAt loads articles around center without resolving the location.
// On success center becomes the last fetched center.
func (s *NearbySession) FetchNearbyAt(center model.Geo, radiusMeters, limit int) {
	ctx, cancel, ok := s.begin()
	if !ok {
		return
	}

	go func() {
		defer s.wg.Done()
		defer cancel()
		s.load(ctx, s.log.With("op", uuid.NewString()), center, radiusMeters, limit, true)
	}()
}

// Retry repeats the last fetch location, or the device fetch when none.
func (s *NearbySession) Retry() {
	s.mu.Lock()
	last := clonePtr(s.lastFetched)
	s.mu.Unlock()

	if last != nil {
		s.FetchNearbyAt(*last, s.radius, s.limit)
		return
	}
	s.FetchNearby()
}

// SetMapCenter records that the map was moved.
func (s *NearbySession) SetMapCenter(center model.Geo) {
	s.mu.Lock()
	s.mapCenter = &center
	s.mu.Unlock()
	s.notify()
}

// ShouldShowSearchButton reports whether the map has moved far enough from the
// last fetch to offer searching the visible area.
func (s *NearbySession) ShouldShowSearchButton() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return showSearchButton(s.mapCenter, s.lastFetched, s.threshold)
}

// begin cancels the fetch in flight and marks the state Loading.
func (s *NearbySession) begin() (context.Context, context.CancelFunc, bool) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.closed {
		s.mu.Unlock()
		return nil, nil, false
	}
	ctx, cancel := context.WithCancel(s.root)
	s.cancel = cancel
	s.articles = model.Loading[[]model.Article]()
	s.wg.Add(1)
	s.mu.Unlock()

	s.notify()
	return ctx, cancel, true
}

func (s *NearbySession) load(ctx context.Context, log *slog.Logger, center model.Geo, radiusMeters, limit int, explicit bool) {
	start := time.Now()
	log.Debug("nearby fetch started", "lat", center.Lat, "lon", center.Lon, "radius", radiusMeters)

	articles, err := s.api.Nearby(ctx, center.Lat, center.Lon, radiusMeters, limit)

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		log.Debug("nearby fetch cancelled", "elapsed", time.Since(start))
		return
	}
	if err != nil {
		kind := model.Classify(err)
		s.articles = model.Failed[[]model.Article](kind)
		log.Warn("nearby fetch failed", "kind", kind.Kind, "err", err)
	} else {
		s.articles = model.Loaded(articles)
		s.region = fitRegion(articles)
		if explicit {
			c := center
			s.lastFetched = &c
		}
		log.Info("nearby fetch finished", "results", len(articles), "elapsed", time.Since(start))
	}
	s.mu.Unlock()
	s.notify()
}

// Wait blocks until every started fetch has finished or been cancelled.
func (s *NearbySession) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight work and waits for it to stop.
func (s *NearbySession) Close() {
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

// ArticlesWithGeo keeps the articles that can be placed on a map: those with
// a coordinate and an absolute URL.
func ArticlesWithGeo(articles []model.Article) []model.ArticleWithGeo {
	out := make([]model.ArticleWithGeo, 0, len(articles))
	for _, a := range articles {
		if a.Geo == nil {
			continue
		}
		if _, ok := a.ResolvedURL(); !ok {
			continue
		}
		out = append(out, model.ArticleWithGeo{Article: a, Geo: *a.Geo})
	}
	return out
}

func fitRegion(articles []model.Article) *model.Region {
	points := make([]model.Geo, 0, len(articles))
	for _, a := range articles {
		if a.Geo != nil {
			points = append(points, *a.Geo)
		}
	}
	region, ok := geo.FitRegion(points)
	if !ok {
		return nil
	}
	return &region
}

func showSearchButton(mapCenter, lastFetched *model.Geo, threshold float64) bool {
	if mapCenter == nil {
		return false
	}
	if lastFetched == nil {
		return true
	}
	return geo.DistanceMeters(*mapCenter, *lastFetched) > threshold
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
