package location

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"wikiexplorer/internal/logging"
	"wikiexplorer/internal/model"
)

// StaticSource always reports the same coordinate.
type StaticSource struct {
	Geo model.Geo
}

func (s StaticSource) Authorization() Authorization { return AuthorizationGranted }

func (s StaticSource) Request(_ context.Context, deliver func(model.Geo, error)) {
	deliver(s.Geo, nil)
}

// DisabledSource never produces a fix. Status decides how the refusal is
// reported; a granted status yields ErrLocationUnavailable.
type DisabledSource struct {
	Status Authorization
}

func (s DisabledSource) Authorization() Authorization { return s.Status }

func (s DisabledSource) Request(_ context.Context, deliver func(model.Geo, error)) {
	deliver(model.Geo{}, model.ErrLocationUnavailable)
}

// DefaultIPEndpoint is the free ip-api.com lookup.
const DefaultIPEndpoint = "http://ip-api.com/json/?fields=status,message,lat,lon"

// IPSource approximates the position from the public IP address.
type IPSource struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
	log        *slog.Logger
}

// NewIPSource creates an IP geolocation source. An empty endpoint selects
// DefaultIPEndpoint.
func NewIPSource(endpoint, userAgent string, logger *slog.Logger) *IPSource {
	if endpoint == "" {
		endpoint = DefaultIPEndpoint
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &IPSource{
		endpoint:   endpoint,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger,
	}
}

func (s *IPSource) Authorization() Authorization { return AuthorizationGranted }

func (s *IPSource) Request(ctx context.Context, deliver func(model.Geo, error)) {
	g, err := s.lookup(ctx)
	if err != nil {
		s.log.Warn("ip geolocation failed", "err", err)
	}
	deliver(g, err)
}

type ipResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (s *IPSource) lookup(ctx context.Context) (model.Geo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return model.Geo{}, fmt.Errorf("failed to create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return model.Geo{}, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Geo{}, fmt.Errorf("geolocation API error: status %d", resp.StatusCode)
	}

	var result ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.Geo{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Status != "success" {
		return model.Geo{}, fmt.Errorf("geolocation lookup failed: %s", result.Message)
	}

	return model.Geo{Lat: result.Lat, Lon: result.Lon}, nil
}
