// Package tmdb is a minimal client for The Movie Database multi search
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/mmcdole/moviebase/internal/domain"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	defaultTimeout = 15 * time.Second
	defaultRetries = 3
	userAgent      = "moviebase/1.0"
)

// ErrUnauthorized indicates a missing or rejected API key
var ErrUnauthorized = errors.New("tmdb: invalid api key")

// StatusError is a non-success response from the API
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: unexpected status code %d", e.Code)
}

// Client implements domain.CatalogSearcher
type Client struct {
	baseURL    string
	apiKey     string
	retries    uint
	retryDelay time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetries sets how many attempts a request gets in total
func WithRetries(n uint, delay time.Duration) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
		c.retryDelay = delay
	}
}

// NewClient creates a new TMDB API client
func NewClient(apiKey string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		retries:    defaultRetries,
		retryDelay: 200 * time.Millisecond,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Page         int                   `json:"page"`
	Results      []domain.SearchResult `json:"results"`
	TotalResults int                   `json:"total_results"`
}

// Search runs a multi search (movies, series and people) for query
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)

	body, err := c.get(ctx, "/search/multi", params)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	c.logger.Debug("tmdb search", "query", query, "results", len(resp.Results))
	return resp.Results, nil
}

// get performs a GET with the api key attached, retrying transport errors
// and server-side failures.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrUnauthorized
	}
	query.Set("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	return retry.DoWithData(
		func() ([]byte, error) {
			return c.do(ctx, reqURL)
		},
		retry.Context(ctx),
		retry.Attempts(c.retries),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying tmdb request", "attempt", n+1, "path", path, "error", err)
		}),
	)
}

func (c *Client) do(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, retry.Unrecoverable(ErrUnauthorized)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	case resp.StatusCode != http.StatusOK:
		c.logger.Error("tmdb request error", "status", resp.StatusCode, "body", string(body))
		return nil, retry.Unrecoverable(&StatusError{Code: resp.StatusCode, Body: string(body)})
	}
	return body, nil
}
