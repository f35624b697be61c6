// Package places finds football turfs near a coordinate with the Google
// Places Text Search (New) API.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/model"
)

const (
	providerName   = "places"
	textQuery      = "football turf nearby"
	searchRadius   = 2500.0 // metres
	maxResultCount = 15
	fieldMask      = "places.displayName,places.location,places.googleMapsUri"
	maxBody        = 1 << 20
)

// Cache is the subset of the Redis cache the client uses. A nil Cache
// disables caching.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

type Client struct {
	url      string
	apiKey   string
	http     *http.Client
	cache    Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

func New(searchURL, apiKey string, cache Cache, cacheTTL time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url:      searchURL,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

type searchRequest struct {
	TextQuery      string       `json:"textQuery"`
	LocationBias   locationBias `json:"locationBias"`
	MaxResultCount int          `json:"maxResultCount"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NearbyTurfs returns up to 15 venues around (lat, lng).
//
// Results are cached per coordinate rounded to three decimals (about 100m),
// so nearby callers share one upstream request.
func (c *Client) NearbyTurfs(ctx context.Context, lat, lng float64) ([]model.Turf, error) {
	// Written as negated ranges so NaN fails them too.
	if !(lat >= -90 && lat <= 90) {
		return nil, apperror.InvalidArgument("lat", fmt.Sprint(lat), "latitude must be between -90 and 90")
	}
	if !(lng >= -180 && lng <= 180) {
		return nil, apperror.InvalidArgument("long", fmt.Sprint(lng), "longitude must be between -180 and 180")
	}
	if c.apiKey == "" {
		return nil, apperror.UpstreamUnavailable(providerName, errors.New("no api key configured"))
	}

	key := cacheKey(lat, lng)
	if c.cache != nil {
		var cached []model.Turf
		ok, err := c.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			c.logger.Warn("turf cache read failed", "key", key, "error", err)
		}
		if ok {
			return cached, nil
		}
	}

	turfs, err := c.search(ctx, lat, lng)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, key, turfs, c.cacheTTL); err != nil {
			c.logger.Warn("turf cache write failed", "key", key, "error", err)
		}
	}
	return turfs, nil
}

func (c *Client) search(ctx context.Context, lat, lng float64) ([]model.Turf, error) {
	payload, err := json.Marshal(searchRequest{
		TextQuery: textQuery,
		LocationBias: locationBias{Circle: circle{
			Center: latLng{Latitude: lat, Longitude: lng},
			Radius: searchRadius,
		}},
		MaxResultCount: maxResultCount,
	})
	if err != nil {
		return nil, fmt.Errorf("places: encoding request: %w", err)
	}

	u, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("places: parsing url: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("places: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.UpstreamUnavailable(providerName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, apperror.UpstreamUnavailable(providerName, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperror.UpstreamUnavailable(providerName,
			fmt.Errorf("status %d: %s", resp.StatusCode, gjson.GetBytes(body, "error.message").String()))
	}
	if !gjson.ValidBytes(body) {
		return nil, apperror.UpstreamUnavailable(providerName, errors.New("response is not valid json"))
	}

	// An area with no venues comes back as {} with no "places" key.
	places := gjson.GetBytes(body, "places").Array()
	turfs := make([]model.Turf, 0, len(places))
	for _, p := range places {
		turfs = append(turfs, model.Turf{
			Name:    p.Get("displayName.text").String(),
			Lat:     p.Get("location.latitude").Float(),
			Lng:     p.Get("location.longitude").Float(),
			MapsURI: p.Get("googleMapsUri").String(),
		})
	}
	return turfs, nil
}

func cacheKey(lat, lng float64) string {
	round := func(v float64) float64 { return math.Round(v*1000) / 1000 }
	return fmt.Sprintf("turf:%.3f:%.3f", round(lat), round(lng))
}
