// Package websearch provides a fetcher that locates current standard
// revisions through a web search API with text contents in the results.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxResults = 5

	// DefaultRequestsPerSecond throttles search API calls. Search APIs
	// meter by request, and a fetch cycle fans out across many sources.
	DefaultRequestsPerSecond = 2
)

// Config holds configuration for the web search fetcher.
type Config struct {
	// Endpoint is the search API URL (required), e.g. https://api.exa.ai/search.
	Endpoint string

	// APIKey authenticates requests (required).
	APIKey string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// MaxResults caps results per query when the caller passes no limit
	// (default: 5).
	MaxResults int

	// RequestsPerSecond throttles outgoing requests (default: 2).
	RequestsPerSecond float64
}

// Fetcher retrieves candidate documents from a search API.
type Fetcher struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	maxResults int
	limiter    *rate.Limiter
}

// searchRequest is the search API request format.
type searchRequest struct {
	Query      string         `json:"query"`
	NumResults int            `json:"numResults"`
	Contents   searchContents `json:"contents"`
}

// searchContents asks the API to return full text with each result.
type searchContents struct {
	Text bool `json:"text"`
}

// searchResponse is the search API response format.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

// searchResult is one document in a search response.
type searchResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Text          string `json:"text"`
	PublishedDate string `json:"publishedDate"`
}

// NewFetcher creates a new web search fetcher.
func NewFetcher(cfg Config) (*Fetcher, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("websearch: endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("websearch: API key is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		maxResults: cfg.MaxResults,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}, nil
}

// Name identifies the fetcher.
func (f *Fetcher) Name() string {
	return "websearch"
}

// Fetch retrieves documents for one standard source.
func (f *Fetcher) Fetch(ctx context.Context, source domain.StandardSource, limit int) ([]domain.FetchedDocument, error) {
	if limit <= 0 {
		limit = f.maxResults
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqBody := searchRequest{
		Query:      source.Query,
		NumResults: limit,
		Contents:   searchContents{Text: true},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("search API: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("search API error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("search API error (status %d): %s", resp.StatusCode, string(body))
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	now := time.Now().UTC()
	docs := make([]domain.FetchedDocument, 0, len(searchResp.Results))
	for _, result := range searchResp.Results {
		if result.Text == "" {
			continue
		}
		title := result.Title
		if title == "" {
			title = source.Name
		}
		docs = append(docs, domain.FetchedDocument{
			Title:     title,
			SourceURL: result.URL,
			Text:      result.Text,
			Source:    f.Name(),
			FetchedAt: now,
		})
	}

	return docs, nil
}
