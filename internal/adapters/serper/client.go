package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"diligence/pkg/errors"
)

const (
	defaultBaseURL = "https://google.serper.dev"

	// Tool names used as cache namespaces.
	ToolSearch = "serper_search"
	ToolScrape = "serper_scrape"
)

// Result is a single organic search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SearchResponse is the subset of the Serper payload the pipeline consumes.
type SearchResponse struct {
	Organic []Result `json:"organic"`
}

// Client calls the Serper web search and scrape APIs.
type Client struct {
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewClient creates a new Serper client with client-side rate limiting.
func NewClient(apiKey string, requestsPerMinute int, timeout time.Duration) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute/10+1),
		baseURL:    defaultBaseURL,
	}
}

// Search runs a web search and returns the raw JSON payload. The raw form is
// what gets cached; use ParseSearch to decode it.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return "", errors.Wrap(err, "marshal search request")
	}
	return c.post(ctx, "/search", body)
}

// Scrape fetches a webpage's text content through the scrape API.
func (c *Client) Scrape(ctx context.Context, url string) (string, error) {
	body, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return "", errors.Wrap(err, "marshal scrape request")
	}
	return c.post(ctx, "/scrape", body)
}

// ParseSearch decodes a raw search payload.
func ParseSearch(payload string) (*SearchResponse, error) {
	var resp SearchResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, errors.Wrap(err, "unmarshal search payload")
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (string, error) {
	if c.apiKey == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "serper API key not configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(errors.ErrRateLimitExceeded, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "create serper request")
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "send serper request")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read serper response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(errors.ErrExternal, "serper API returned HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return string(respBody), nil
}
