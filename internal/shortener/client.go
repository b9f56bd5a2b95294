package shortener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var ErrNotConfigured = errors.New("shortener not configured")

// Client is an HTTP client for an inshorturl-compatible link shortening API
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new shortener client
func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 1), // ~4 RPS
	}
}

// Enabled reports whether an API token is configured
func (c *Client) Enabled() bool {
	return c.apiToken != "" && c.baseURL != ""
}

func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(data))
	}

	return data, nil
}

// Shorten returns a short URL for destination. alias is optional.
func (c *Client) Shorten(ctx context.Context, destination, alias string) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}

	params := url.Values{}
	params.Set("api", c.apiToken)
	params.Set("url", destination)
	if alias != "" {
		params.Set("alias", alias)
	}

	data, err := c.doRequest(ctx, params)
	if err != nil {
		return "", err
	}

	var resp ShortenResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}

	if resp.Status != StatusSuccess || resp.ShortenedURL == "" {
		return "", fmt.Errorf("API error: %s", resp.ErrorMessage())
	}

	return resp.ShortenedURL, nil
}

// ShortenOrFallback shortens destination and returns destination itself when the API fails.
// The error is returned alongside the fallback so callers can log it.
func (c *Client) ShortenOrFallback(ctx context.Context, destination, alias string) (string, error) {
	short, err := c.Shorten(ctx, destination, alias)
	if err != nil {
		return destination, err
	}
	return short, nil
}
