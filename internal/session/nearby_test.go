package session

import (
	"context"
	"testing"

	"wikiexplorer/internal/model"
)

var sanFrancisco = model.Geo{Lat: 37.7749, Lon: -122.4194}

func newTestNearby(t *testing.T, api *fakeAPI, loc *fakeLocator, opts ...NearbyOption) *NearbySession {
	t.Helper()
	s := NewNearbySession(api, loc, opts...)
	t.Cleanup(s.Close)
	return s
}

func TestNearbyInitialState(t *testing.T) {
	s := newTestNearby(t, &fakeAPI{}, &fakeLocator{})
	st := s.State()
	if st.Articles.State != model.LoadIdle {
		t.Fatalf("state = %v, want idle", st.Articles.State)
	}
	if st.MapCenter != nil || st.LastFetchedCenter != nil || st.Region != nil || st.ShowSearchButton {
		t.Fatalf("initial state = %+v", st)
	}
}

func TestFetchNearbySuccess(t *testing.T) {
	api := &fakeAPI{}
	loc := &fakeLocator{geo: sanFrancisco}
	s := newTestNearby(t, api, loc)

	s.FetchNearby()
	s.Wait()

	st := s.State()
	if st.Articles.State != model.LoadLoaded || len(st.Articles.Value) != 3 {
		t.Fatalf("articles = %v with %d", st.Articles.State, len(st.Articles.Value))
	}
	if st.Articles.Value[0].Title != "Golden Gate Bridge" {
		t.Fatalf("first article = %q", st.Articles.Value[0].Title)
	}
	if n := loc.calls.Load(); n != 1 {
		t.Fatalf("location calls = %d, want 1", n)
	}
	calls := api.nearbys()
	want := nearbyCall{Lat: 37.7749, Lon: -122.4194, Radius: 10000, Limit: 30}
	if len(calls) != 1 || calls[0] != want {
		t.Fatalf("nearby calls = %+v, want [%+v]", calls, want)
	}
	if st.MapCenter == nil || *st.MapCenter != sanFrancisco {
		t.Fatalf("MapCenter = %v", st.MapCenter)
	}
	if st.LastFetchedCenter == nil || *st.LastFetchedCenter != sanFrancisco {
		t.Fatalf("LastFetchedCenter = %v", st.LastFetchedCenter)
	}
	if st.ShowSearchButton || s.ShouldShowSearchButton() {
		t.Fatal("search button shown right after fetching at the map center")
	}
	if st.Region == nil {
		t.Fatal("Region = nil, want a fitted region")
	}
	for _, a := range st.Articles.Value {
		if !st.Region.Contains(*a.Geo) {
			t.Errorf("region %+v does not contain %q", *st.Region, a.Title)
		}
	}
}

func TestFetchNearbyLocationFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.Error
	}{
		{"denied", model.ErrLocationDenied, model.ErrLocationDenied},
		{"restricted", model.ErrLocationRestricted, model.ErrLocationRestricted},
		{"unavailable", model.ErrLocationUnavailable, model.ErrLocationUnavailable},
		{"timeout", model.ErrRequestTimeout, model.ErrRequestTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			s := newTestNearby(t, api, &fakeLocator{err: tt.err})

			s.FetchNearby()
			s.Wait()

			st := s.State()
			if st.Articles.State != model.LoadFailed || st.Articles.Err != tt.want {
				t.Fatalf("articles = %v/%v, want failed/%v", st.Articles.State, st.Articles.Err, tt.want)
			}
			if n := len(api.nearbys()); n != 0 {
				t.Fatalf("nearby calls = %d, want 0", n)
			}
			if st.MapCenter != nil {
				t.Fatalf("MapCenter = %v, want nil", st.MapCenter)
			}
		})
	}
}

func TestFetchNearbyDeniedIsFullScreen(t *testing.T) {
	s := newTestNearby(t, &fakeAPI{}, &fakeLocator{err: model.ErrLocationDenied})
	s.FetchNearby()
	s.Wait()
	if !s.State().Articles.Err.RequiresFullScreen() {
		t.Fatal("denied location should require the full screen")
	}
}

func TestFetchNearbyNetworkError(t *testing.T) {
	api := &fakeAPI{nearbyFn: func(context.Context, nearbyCall) ([]model.Article, error) {
		return nil, model.ErrNetworkUnavailable
	}}
	s := newTestNearby(t, api, &fakeLocator{geo: sanFrancisco})

	s.FetchNearby()
	s.Wait()

	st := s.State()
	if st.Articles.State != model.LoadFailed || st.Articles.Err != model.ErrNetworkUnavailable {
		t.Fatalf("articles = %v/%v", st.Articles.State, st.Articles.Err)
	}
	if st.LastFetchedCenter == nil || *st.LastFetchedCenter != sanFrancisco {
		t.Fatalf("LastFetchedCenter = %v, want the located fix", st.LastFetchedCenter)
	}
}

func TestFetchNearbyLoadingWhileLocating(t *testing.T) {
	loc := &fakeLocator{geo: sanFrancisco, block: make(chan struct{})}
	s := newTestNearby(t, &fakeAPI{}, loc)

	s.FetchNearby()
	if st := s.State(); st.Articles.State != model.LoadLoading {
		t.Fatalf("state = %v, want loading", st.Articles.State)
	}

	close(loc.block)
	s.Wait()
	if st := s.State(); st.Articles.State != model.LoadLoaded {
		t.Fatalf("state = %v, want loaded", st.Articles.State)
	}
}

func TestFetchNearbyAtSkipsLocation(t *testing.T) {
	nyc := model.Geo{Lat: 40.7128, Lon: -74.0060}
	api := &fakeAPI{nearbyFn: func(context.Context, nearbyCall) ([]model.Article, error) {
		return []model.Article{{ID: 9, Title: "Single Test Article"}}, nil
	}}
	loc := &fakeLocator{geo: sanFrancisco}
	s := newTestNearby(t, api, loc)

	s.FetchNearbyAt(nyc, 5000, 15)
	s.Wait()

	if n := loc.calls.Load(); n != 0 {
		t.Fatalf("location calls = %d, want 0", n)
	}
	calls := api.nearbys()
	want := nearbyCall{Lat: 40.7128, Lon: -74.0060, Radius: 5000, Limit: 15}
	if len(calls) != 1 || calls[0] != want {
		t.Fatalf("nearby calls = %+v", calls)
	}
	st := s.State()
	if st.LastFetchedCenter == nil || *st.LastFetchedCenter != nyc {
		t.Fatalf("LastFetchedCenter = %v, want %v", st.LastFetchedCenter, nyc)
	}
	if st.Region != nil {
		t.Fatalf("Region = %+v, want nil without geotagged articles", st.Region)
	}
	if st.ShowSearchButton {
		t.Fatal("search button shown without a map center")
	}
}

func TestFetchNearbyAtFailureKeepsLastFetchedCenter(t *testing.T) {
	api := &fakeAPI{nearbyFn: func(_ context.Context, c nearbyCall) ([]model.Article, error) {
		if c.Lat == 1 {
			return nil, model.ServerError(502)
		}
		return sanFranciscoArticles(), nil
	}}
	s := newTestNearby(t, api, &fakeLocator{})

	s.FetchNearbyAt(sanFrancisco, DefaultNearbyRadius, DefaultNearbyLimit)
	s.Wait()
	s.FetchNearbyAt(model.Geo{Lat: 1, Lon: 1}, DefaultNearbyRadius, DefaultNearbyLimit)
	s.Wait()

	st := s.State()
	if st.Articles.Err != model.ServerError(502) {
		t.Fatalf("Err = %v", st.Articles.Err)
	}
	if *st.LastFetchedCenter != sanFrancisco {
		t.Fatalf("LastFetchedCenter = %v, want unchanged", *st.LastFetchedCenter)
	}
}

func TestShouldShowSearchButton(t *testing.T) {
	s := newTestNearby(t, &fakeAPI{}, &fakeLocator{geo: sanFrancisco})

	s.SetMapCenter(sanFrancisco)
	if !s.ShouldShowSearchButton() {
		t.Fatal("want button before any fetch once the map has a center")
	}

	s.FetchNearby()
	s.Wait()
	if s.ShouldShowSearchButton() {
		t.Fatal("want no button right after fetching at the map center")
	}

	// About 556 m north.
	s.SetMapCenter(model.Geo{Lat: sanFrancisco.Lat + 0.005, Lon: sanFrancisco.Lon})
	if s.ShouldShowSearchButton() {
		t.Fatal("want no button for a move under the threshold")
	}

	// About 2.2 km north.
	s.SetMapCenter(model.Geo{Lat: sanFrancisco.Lat + 0.02, Lon: sanFrancisco.Lon})
	if !s.ShouldShowSearchButton() || !s.State().ShowSearchButton {
		t.Fatal("want button once the map moved beyond the threshold")
	}
}

func TestMoveThresholdOption(t *testing.T) {
	s := newTestNearby(t, &fakeAPI{}, &fakeLocator{geo: sanFrancisco}, WithMoveThreshold(500))
	s.FetchNearby()
	s.Wait()

	s.SetMapCenter(model.Geo{Lat: sanFrancisco.Lat + 0.005, Lon: sanFrancisco.Lon})
	if !s.ShouldShowSearchButton() {
		t.Fatal("want button for a 556 m move with a 500 m threshold")
	}
}

func TestSearchThisAreaClearsButton(t *testing.T) {
	s := newTestNearby(t, &fakeAPI{}, &fakeLocator{geo: sanFrancisco})
	s.FetchNearby()
	s.Wait()

	moved := model.Geo{Lat: sanFrancisco.Lat + 0.05, Lon: sanFrancisco.Lon}
	s.SetMapCenter(moved)
	if !s.ShouldShowSearchButton() {
		t.Fatal("want button after moving")
	}

	s.FetchNearbyAt(moved, DefaultNearbyRadius, DefaultNearbyLimit)
	s.Wait()
	if s.ShouldShowSearchButton() {
		t.Fatal("want no button after searching the visible area")
	}
}

func TestNearbyRetry(t *testing.T) {
	t.Run("without previous fetch uses location", func(t *testing.T) {
		loc := &fakeLocator{geo: sanFrancisco}
		s := newTestNearby(t, &fakeAPI{}, loc)
		s.Retry()
		s.Wait()
		if n := loc.calls.Load(); n != 1 {
			t.Fatalf("location calls = %d, want 1", n)
		}
	})

	t.Run("reuses last fetched center", func(t *testing.T) {
		area := model.Geo{Lat: 51.5074, Lon: -0.1278}
		api := &fakeAPI{}
		loc := &fakeLocator{geo: sanFrancisco}
		s := newTestNearby(t, api, loc)

		s.FetchNearbyAt(area, 2000, 5)
		s.Wait()
		s.Retry()
		s.Wait()

		if n := loc.calls.Load(); n != 0 {
			t.Fatalf("location calls = %d, want 0", n)
		}
		calls := api.nearbys()
		want := nearbyCall{Lat: area.Lat, Lon: area.Lon, Radius: DefaultNearbyRadius, Limit: DefaultNearbyLimit}
		if len(calls) != 2 || calls[1] != want {
			t.Fatalf("nearby calls = %+v", calls)
		}
	})

	t.Run("after network failure", func(t *testing.T) {
		var fail = true
		api := &fakeAPI{}
		api.nearbyFn = func(context.Context, nearbyCall) ([]model.Article, error) {
			if fail {
				return nil, model.ErrNetworkUnavailable
			}
			return sanFranciscoArticles(), nil
		}
		s := newTestNearby(t, api, &fakeLocator{geo: sanFrancisco})

		s.FetchNearby()
		s.Wait()
		fail = false
		s.Retry()
		s.Wait()

		if st := s.State(); st.Articles.State != model.LoadLoaded {
			t.Fatalf("state after retry = %v", st.Articles.State)
		}
	})
}

func TestNearbyLatestFetchWins(t *testing.T) {
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	slow := model.Geo{Lat: 10, Lon: 10}
	fast := model.Geo{Lat: 20, Lon: 20}
	fastArticles := []model.Article{{ID: 20, Title: "Fast", Geo: &fast}}

	api := &fakeAPI{nearbyFn: func(_ context.Context, c nearbyCall) ([]model.Article, error) {
		if c.Lat == slow.Lat {
			close(slowStarted)
			<-releaseSlow
			return []model.Article{{ID: 10, Title: "Slow"}}, nil
		}
		return fastArticles, nil
	}}
	s := newTestNearby(t, api, &fakeLocator{})

	s.FetchNearbyAt(slow, DefaultNearbyRadius, DefaultNearbyLimit)
	<-slowStarted
	s.FetchNearbyAt(fast, DefaultNearbyRadius, DefaultNearbyLimit)

	waitFor(t, func() bool { return s.State().Articles.State == model.LoadLoaded })
	close(releaseSlow)
	s.Wait()

	st := s.State()
	if !model.ArticlesEqual(st.Articles.Value, fastArticles) {
		t.Fatalf("articles = %v, want the latest fetch", st.Articles.Value)
	}
	if *st.LastFetchedCenter != fast {
		t.Fatalf("LastFetchedCenter = %v, want %v", *st.LastFetchedCenter, fast)
	}
}

func TestNearbyCloseCancelsLocating(t *testing.T) {
	loc := &fakeLocator{geo: sanFrancisco, block: make(chan struct{})}
	api := &fakeAPI{}
	s := NewNearbySession(api, loc)

	s.FetchNearby()
	s.Close()

	if n := len(api.nearbys()); n != 0 {
		t.Fatalf("nearby calls = %d, want 0", n)
	}
	if st := s.State(); st.Articles.State != model.LoadLoading {
		t.Fatalf("state = %v, want untouched loading", st.Articles.State)
	}
	s.FetchNearby()
	if n := loc.calls.Load(); n != 1 {
		t.Fatalf("location calls = %d, want 1 after close", n)
	}
}

func TestArticlesWithGeo(t *testing.T) {
	here := &model.Geo{Lat: 1, Lon: 2}
	articles := []model.Article{
		{ID: 1, Title: "Both", FullURL: "https://en.wikipedia.org/wiki/Both", Geo: here},
		{ID: 2, Title: "No geo", FullURL: "https://en.wikipedia.org/wiki/No_geo"},
		{ID: 3, Title: "No URL", Geo: here},
		{ID: 4, Title: "Relative URL", FullURL: "/wiki/Relative", Geo: here},
	}

	got := ArticlesWithGeo(articles)
	if len(got) != 1 || got[0].Article.ID != 1 || got[0].Geo != *here {
		t.Fatalf("ArticlesWithGeo = %+v", got)
	}
	if got := ArticlesWithGeo(nil); len(got) != 0 {
		t.Fatalf("ArticlesWithGeo(nil) = %+v", got)
	}
}

func TestNearbyStateIsACopy(t *testing.T) {
	s := newTestNearby(t, &fakeAPI{}, &fakeLocator{geo: sanFrancisco})
	s.FetchNearby()
	s.Wait()

	st := s.State()
	st.MapCenter.Lat = 0
	st.Articles.Value[0].Title = "changed"

	again := s.State()
	if again.MapCenter.Lat != sanFrancisco.Lat || again.Articles.Value[0].Title == "changed" {
		t.Fatal("State returned shared memory")
	}
}
