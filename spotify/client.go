// ABOUTME: HTTP client for the Spotify Web API with rate limiting and retries
// ABOUTME: Provides JSON GET/POST helpers and the typed APIError

// Package spotify adapts the Spotify Web API to the song source, recommender
// and playlist sink used by the playlist search.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"diversify/config"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Spotify Web API root
const DefaultBaseURL = "https://api.spotify.com/v1"

// defaultFanout bounds concurrent page requests
const defaultFanout = 4

// APIError is returned for unexpected HTTP status codes
type APIError struct {
	Status   int
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("spotify adapter: %s: status %d: %s", e.Endpoint, e.Status, e.Message)
	}

	return fmt.Sprintf("spotify adapter: %s: status %d", e.Endpoint, e.Status)
}

// Client is an HTTP client for the Spotify adapter.
// The http.Client is expected to add authorization, see TokenStore.HTTPClient.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
	fanout      int
	logger      *slog.Logger
}

// NewClient constructs a new Spotify client from the [spotify] config section.
func NewClient(httpClient *http.Client, cfg config.SpotifyConfig, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, int(cfg.RequestsPerSecond))
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		limiter:     rate.NewLimiter(limit, burst),
		maxRetries:  cfg.MaxRetries,
		baseBackoff: time.Duration(cfg.RetryBackoffMs) * time.Millisecond,
		fanout:      defaultFanout,
		logger:      logger.With("component", "spotify"),
	}
}

// CurrentUser returns the Spotify ID of the logged-in user
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	var me userResponse
	if err := c.getJSON(ctx, "/me", nil, &me); err != nil {
		return "", err
	}

	if me.ID == "" {
		return "", fmt.Errorf("spotify adapter: /me returned no user id")
	}

	return me.ID, nil
}

// endpoint joins path and query onto the base URL
func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	return u
}

// getJSON issues a GET for path and decodes a 200 response into out
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.getURL(ctx, c.endpoint(path, query), path, out)
}

// getURL fetches an absolute URL such as a paging "next" link
func (c *Client) getURL(ctx context.Context, rawURL, name string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("spotify adapter: failed to create request: %w", err)
	}

	return c.do(req, name, out, http.StatusOK)
}

// postJSON sends body as JSON and decodes the response into out when out is non-nil
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("spotify adapter: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("spotify adapter: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, out, http.StatusOK, http.StatusCreated)
}

func (c *Client) do(req *http.Request, name string, out any, okStatus ...int) error {
	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return fmt.Errorf("spotify adapter: %s: %w", name, err)
	}
	defer resp.Body.Close()

	ok := false
	for _, s := range okStatus {
		if resp.StatusCode == s {
			ok = true
			break
		}
	}

	if !ok {
		return &APIError{Status: resp.StatusCode, Endpoint: name, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("spotify adapter: %s: decode error: %w", name, err)
	}

	return nil
}

// errorMessage extracts the message of a Spotify error object, if any
func errorMessage(body io.Reader) string {
	var e errorResponse
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&e); err != nil {
		return ""
	}

	return e.Error.Message
}
