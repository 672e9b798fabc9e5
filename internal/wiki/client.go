package wiki

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"wikiexplorer/internal/logging"
	"wikiexplorer/internal/model"
)

const (
	apiPath = "/w/api.php"

	// DefaultTimeout bounds every API request.
	DefaultTimeout = 10 * time.Second

	defaultCacheSize = 64
	defaultCacheTTL  = 5 * time.Minute
	thumbnailSize    = 200
)

// BaseURLForLanguage returns the Wikipedia host for a language edition.
func BaseURLForLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = "en"
	}
	return "https://" + lang + ".wikipedia.org"
}

// Options configures a Client. Zero values select the defaults; a negative
// CacheSize disables response caching.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	CacheSize  int
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client wraps the MediaWiki Action API of a Wikipedia edition.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      *expirable.LRU[string, []model.Article]
	group      singleflight.Group
	log        *slog.Logger
}

// NewClient creates a new Wikipedia API client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURLForLanguage("en")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		log:        opts.Logger,
	}

	if opts.CacheSize >= 0 {
		size, ttl := opts.CacheSize, opts.CacheTTL
		if size == 0 {
			size = defaultCacheSize
		}
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		c.cache = expirable.NewLRU[string, []model.Article](size, nil, ttl)
	}

	return c
}

// Search runs a full-text search and returns matching articles.
func (c *Client) Search(ctx context.Context, text string, limit int) ([]model.Article, error) {
	params := baseParams()
	params.Set("generator", "search")
	params.Set("gsrsearch", text)
	params.Set("gsrlimit", strconv.Itoa(limit))

	return c.fetchArticles(ctx, params)
}

// Nearby returns articles geotagged within radiusMeters of the coordinate.
func (c *Client) Nearby(ctx context.Context, lat, lon float64, radiusMeters, limit int) ([]model.Article, error) {
	params := baseParams()
	params.Set("generator", "geosearch")
	params.Set("ggscoord", strconv.FormatFloat(lat, 'f', -1, 64)+"|"+strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("ggsradius", strconv.Itoa(radiusMeters))
	params.Set("ggslimit", strconv.Itoa(limit))

	return c.fetchArticles(ctx, params)
}

func baseParams() url.Values {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("prop", "coordinates|pageimages|info")
	params.Set("inprop", "url")
	params.Set("pithumbsize", strconv.Itoa(thumbnailSize))
	return params
}

// fetchArticles serves from the cache when possible and otherwise shares one
// HTTP round trip between concurrent identical requests. The shared request
// is detached from the caller's cancellation so one caller giving up does not
// fail the others; the client timeout still bounds it.
func (c *Client) fetchArticles(ctx context.Context, params url.Values) ([]model.Article, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, apiPath, params.Encode())

	if c.cache != nil {
		if articles, ok := c.cache.Get(reqURL); ok {
			c.log.Debug("wiki cache hit", "generator", params.Get("generator"))
			return slices.Clone(articles), nil
		}
	}

	ch := c.group.DoChan(reqURL, func() (any, error) {
		return c.do(context.WithoutCancel(ctx), reqURL)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		articles := res.Val.([]model.Article)
		if c.cache != nil && !res.Shared {
			c.cache.Add(reqURL, articles)
		}
		return slices.Clone(articles), nil
	}
}

func (c *Client) do(ctx context.Context, reqURL string) ([]model.Article, error) {
	start := time.Now()

	resp, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.log.Debug("wiki response", "status", resp.StatusCode, "elapsed", time.Since(start))

	var result queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		classified := model.Classify(err)
		if classified.Kind != model.KindRequestTimeout && classified.Kind != model.KindNetworkUnavailable {
			classified = model.ErrDecoding
		}
		c.log.Warn("wiki response decode failed", "err", err, "kind", classified.Kind)
		return nil, classified
	}

	if result.Error != nil {
		c.log.Warn("wiki api error", "code", result.Error.Code, "info", result.Error.Info)
		return nil, model.ErrInvalidResponse
	}

	articles := result.articles()
	if len(articles) == 0 {
		return nil, model.ErrNoResults
	}
	return articles, nil
}

// API response types

type queryResponse struct {
	Query *query    `json:"query"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type query struct {
	Pages []page `json:"pages"`
}

type page struct {
	PageID      int64        `json:"pageid"`
	Title       string       `json:"title"`
	FullURL     string       `json:"fullurl"`
	Coordinates []coordinate `json:"coordinates"`
	Thumbnail   *thumbnail   `json:"thumbnail"`
	Missing     bool         `json:"missing"`
}

type coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type thumbnail struct {
	Source string `json:"source"`
}

// articles converts pages to Articles sorted by title, ignoring case.
func (r queryResponse) articles() []model.Article {
	if r.Query == nil {
		return nil
	}

	articles := make([]model.Article, 0, len(r.Query.Pages))
	for _, p := range r.Query.Pages {
		if p.Missing || p.PageID == 0 {
			continue
		}
		article := model.Article{
			ID:      p.PageID,
			Title:   p.Title,
			FullURL: p.FullURL,
		}
		if p.Thumbnail != nil {
			article.ThumbnailURL = p.Thumbnail.Source
		}
		if len(p.Coordinates) > 0 {
			article.Geo = &model.Geo{Lat: p.Coordinates[0].Lat, Lon: p.Coordinates[0].Lon}
		}
		articles = append(articles, article)
	}

	slices.SortStableFunc(articles, func(a, b model.Article) int {
		if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return articles
}
