// Package scores fetches match fixtures and scores from football-data.org.
//
// The provider's payload is large and deeply nested; only six fields per
// match are needed, so they are picked out with gjson paths instead of
// mirroring the whole schema in structs.
package scores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/model"
)

const providerName = "football-data"

// maxBody guards against a misbehaving upstream streaming forever.
const maxBody = 4 << 20

// The free football-data tier allows 10 requests per minute.
var defaultLimit = rate.Every(6 * time.Second)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLimiter replaces the outbound rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(defaultLimit, 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Matches returns today's matches reshaped for the live channel. Any
// transport, status or decoding failure is apperror.ErrUpstreamUnavailable,
// so an empty slice always means "no matches".
func (c *Client) Matches(ctx context.Context) ([]model.Match, error) {
	if c.apiKey == "" {
		return nil, apperror.UpstreamUnavailable(providerName, errors.New("no api key configured"))
	}

	// Wait honours ctx, so a disconnecting subscriber never blocks here.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.UpstreamUnavailable(providerName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/matches", nil)
	if err != nil {
		return nil, fmt.Errorf("scores: building request: %w", err)
	}
	req.Header.Set("X-Auth-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

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
			fmt.Errorf("status %d: %s", resp.StatusCode, gjson.GetBytes(body, "message").String()))
	}

	return parseMatches(body)
}

func parseMatches(body []byte) ([]model.Match, error) {
	if !gjson.ValidBytes(body) {
		return nil, apperror.UpstreamUnavailable(providerName, errors.New("response is not valid json"))
	}

	list := gjson.GetBytes(body, "matches")
	if !list.IsArray() {
		return nil, apperror.UpstreamUnavailable(providerName, errors.New(`response has no "matches" array`))
	}

	matches := make([]model.Match, 0, len(list.Array()))
	list.ForEach(func(_, m gjson.Result) bool {
		score := m.Get("score.fullTime").Raw
		if score == "" {
			score = "null"
		}
		matches = append(matches, model.Match{
			Time:      m.Get("utcDate").String(),
			HomeTeam:  m.Get("homeTeam.name").String(),
			AwayTeam:  m.Get("awayTeam.name").String(),
			Score:     json.RawMessage(score),
			HomeCrest: m.Get("homeTeam.crest").String(),
			AwayCrest: m.Get("awayTeam.crest").String(),
		})
		return true
	})
	return matches, nil
}
