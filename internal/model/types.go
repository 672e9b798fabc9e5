package model

import (
	"net/url"
	"slices"
)

// Geo is a WGS 84 coordinate.
type Geo struct {
	Lat float64
	Lon float64
}

// Article represents a Wikipedia page returned by a search.
type Article struct {
	ID           int64
	Title        string
	FullURL      string // empty when the API returned no canonical URL
	ThumbnailURL string
	Geo          *Geo
}

// Equal reports whether two articles carry the same values.
func (a Article) Equal(b Article) bool {
	if a.ID != b.ID || a.Title != b.Title || a.FullURL != b.FullURL || a.ThumbnailURL != b.ThumbnailURL {
		return false
	}
	if a.Geo == nil || b.Geo == nil {
		return a.Geo == nil && b.Geo == nil
	}
	return *a.Geo == *b.Geo
}

// ResolvedURL returns the parsed article URL when it is absolute.
func (a Article) ResolvedURL() (*url.URL, bool) {
	if a.FullURL == "" {
		return nil, false
	}
	u, err := url.Parse(a.FullURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, false
	}
	return u, true
}

// ArticlesEqual compares two article lists element by element.
func ArticlesEqual(a, b []Article) bool {
	return slices.EqualFunc(a, b, Article.Equal)
}

// ArticleWithGeo pairs an article with the coordinate used to place it on a map.
type ArticleWithGeo struct {
	Article Article
	Geo     Geo
}

// Region is a map viewport: a center and the span in degrees on each axis.
type Region struct {
	Center   Geo
	LatDelta float64
	LonDelta float64
}

// Contains reports whether g falls inside the region.
func (r Region) Contains(g Geo) bool {
	return g.Lat >= r.Center.Lat-r.LatDelta/2 && g.Lat <= r.Center.Lat+r.LatDelta/2 &&
		g.Lon >= r.Center.Lon-r.LonDelta/2 && g.Lon <= r.Center.Lon+r.LonDelta/2
}
