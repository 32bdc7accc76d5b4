// Package websearch queries the Serper web search API.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Failure causes. Search logs them and returns no results.
var (
	ErrRequest   = errors.New("web search request failed")
	ErrStatus    = errors.New("web search returned non-success status")
	ErrMalformed = errors.New("web search returned malformed response")
)

// Client calls the Serper search and news endpoints with a bounded timeout.
type Client struct {
	endpoint     string
	newsEndpoint string
	apiKey       string
	maxResults   int
	timeout      time.Duration
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for failure causes.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type searchResponse struct {
	Organic []models.SearchResult `json:"organic"`
	News    []models.SearchResult `json:"news"`
}

// NewClient builds a client from cfg. A zero RequestsPerSecond disables throttling.
func NewClient(cfg config.WebSearchConfig, opts ...Option) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		endpoint:     cfg.Endpoint,
		newsEndpoint: cfg.NewsEndpoint,
		apiKey:       cfg.APIKey,
		maxResults:   cfg.MaxResults,
		timeout:      timeout,
		httpClient:   &http.Client{},
		limiter:      rate.NewLimiter(limit, 1),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns up to num organic results (the configured maximum when num <= 0).
// It never fails: every failure is logged with its cause and yields no results.
func (c *Client) Search(ctx context.Context, query string, num int) []models.SearchResult {
	results, err := c.query(ctx, c.endpoint, query, num)
	if err != nil {
		c.logFailure("search", query, err)
		return nil
	}
	return results.Organic
}

// News returns up to num news results, with the same failure policy as Search.
func (c *Client) News(ctx context.Context, query string, num int) []models.SearchResult {
	results, err := c.query(ctx, c.newsEndpoint, query, num)
	if err != nil {
		c.logFailure("news", query, err)
		return nil
	}
	return results.News
}

// EnhancedSearch returns organic results followed by news results when includeNews
// is set. Results repeating an earlier link are dropped.
func (c *Client) EnhancedSearch(ctx context.Context, query string, includeNews bool) []models.SearchResult {
	results := c.Search(ctx, query, c.maxResults)
	if includeNews {
		results = append(results, c.News(ctx, query, c.maxResults)...)
	}
	seen := make(map[string]struct{}, len(results))
	out := results[:0]
	for _, r := range results {
		if r.Link != "" {
			if _, dup := seen[r.Link]; dup {
				continue
			}
			seen[r.Link] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

func (c *Client) query(ctx context.Context, endpoint, query string, num int) (*searchResponse, error) {
	if c.apiKey == "" {
		return nil, models.ErrMissingCredentials
	}
	if num <= 0 {
		num = c.maxResults
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", ErrRequest, err)
	}

	body, err := json.Marshal(searchRequest{Q: query, Num: num})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal: %v", ErrRequest, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &parsed, nil
}

func (c *Client) logFailure(kind, query string, err error) {
	fields := []zap.Field{zap.String("kind", kind), zap.String("query", query), zap.Error(err)}
	switch {
	case errors.Is(err, models.ErrMissingCredentials):
		c.logger.Warn("web search skipped: SERPER_API_KEY not set", fields...)
	case errors.Is(err, context.DeadlineExceeded):
		c.logger.Warn("web search timed out", append(fields, zap.Duration("timeout", c.timeout))...)
	case errors.Is(err, ErrStatus):
		c.logger.Warn("web search rejected", fields...)
	case errors.Is(err, ErrMalformed):
		c.logger.Warn("web search response could not be decoded", fields...)
	default:
		c.logger.Warn("web search network failure", fields...)
	}
}
