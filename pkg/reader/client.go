// Package reader provides a client for a Jina-style page reader API:
// GET <base>/<url> returns the page rendered as markdown with token
// accounting. Failures are classified onto the pipeline error taxonomy
// so the caller's retry executor decides what is worth retrying.
package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/procurelabs/vendor-research-cli/internal/resilience"
)

// Client defines the page-reader operations.
type Client interface {
	// Fetch retrieves a URL and returns its readable text content.
	Fetch(ctx context.Context, targetURL string) (*Page, error)
}

// Page is the fetched page content.
type Page struct {
	URL       string
	Title     string
	Text      string
	WordCount int
	Tokens    int
}

// readResponse is the wire shape of the reader API.
type readResponse struct {
	Code int `json:"code"`
	Data struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
		Usage   struct {
			Tokens int `json:"tokens"`
		} `json:"usage"`
	} `json:"data"`
}

// Option configures the reader client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a page-reader client. The default rate limit of
// 2 rps stays inside the reader API's free-tier budget.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://r.jina.ai",
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "reader: rate limit wait")
	}

	reqURL := fmt.Sprintf("%s/%s", c.baseURL, targetURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "reader: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Return-Format", "markdown")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrapf(err, "reader: fetch %s", targetURL), 0)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "reader: read response body"), resp.StatusCode)
	}

	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	var result readResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "reader: unmarshal response")
	}

	text := result.Data.Content
	return &Page{
		URL:       result.Data.URL,
		Title:     result.Data.Title,
		Text:      text,
		WordCount: len(strings.Fields(text)),
		Tokens:    result.Data.Usage.Tokens,
	}, nil
}

func classifyStatus(statusCode int, body []byte) error {
	switch {
	case statusCode == http.StatusOK:
		return nil
	case resilience.AuthHTTPStatus(statusCode):
		return resilience.NewAuthError(eris.Errorf("reader: status %d: %s", statusCode, truncate(body)))
	case resilience.IsTransientHTTPStatus(statusCode):
		return resilience.NewTransientError(eris.Errorf("reader: status %d: %s", statusCode, truncate(body)), statusCode)
	default:
		return eris.Errorf("reader: unexpected status %d: %s", statusCode, truncate(body))
	}
}

func truncate(body []byte) string {
	const limit = 200
	s := string(body)
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
