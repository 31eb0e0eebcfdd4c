// Package web collects search results from the Tavily search API.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/poiesic/gleaner/collector"
	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/ingestion"
)

const (
	// DefaultBaseURL is the Tavily search endpoint.
	DefaultBaseURL = "https://api.tavily.com/search"
	// DefaultMaxResults is how many results a search asks for.
	DefaultMaxResults = 8
	// MinContentLength drops snippets too short to be worth processing.
	MinContentLength = 20

	scholarlySites = " site:arxiv.org OR site:nature.com OR site:science.org OR site:acm.org OR site:ieee.org"
)

// ErrAPIKeyRequired is returned when no Tavily key is configured.
var ErrAPIKeyRequired = errors.New("tavily api key is required")

type searchRequest struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

type searchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// Source searches the web through Tavily, steering queries toward
// scholarly sites.
type Source struct {
	apiKey     string
	baseURL    string
	client     *http.Client
	maxResults int
}

// Option configures a Source.
type Option func(*Source)

// WithBaseURL points the source at another endpoint.
func WithBaseURL(u string) Option {
	return func(s *Source) {
		s.baseURL = u
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

// WithMaxResults sets the result count used when Fetch is given no limit.
func WithMaxResults(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// New creates a web source authenticating with apiKey.
func New(apiKey string, opts ...Option) (*Source, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrAPIKeyRequired
	}
	s := &Source{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name identifies the source inside the registry.
func (s *Source) Name() string {
	return "web"
}

// Messages returns the display lines for web runs.
func (s *Source) Messages() collector.Messages {
	return collector.Messages{
		Header:        "Web results processed by the standard flow:",
		Empty:         "No results found in web search.",
		NoneProcessed: "No web content was processed successfully.",
	}
}

// Fetch searches for query. Tavily has no paging, so cursor is ignored.
func (s *Source) Fetch(ctx context.Context, query string, _ int, limit int) ([]collector.Entry, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	results, err := s.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, collector.ErrNoResults
	}

	entries := make([]collector.Entry, 0, len(results))
	for _, r := range results {
		content := strings.TrimSpace(htmlToText(r.Content))
		if len([]rune(content)) < MinContentLength {
			continue
		}
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = "Untitled"
		}

		entries = append(entries, collector.Entry{
			Label: "🌐 " + title,
			Item: ingestion.Item{
				Content: content,
				Metadata: core.Metadata{
					"title":  title,
					"url":    r.URL,
					"source": "web_search",
					"query":  query,
				},
				SourceType: core.SourceTypeWeb,
			},
		})
	}
	return entries, nil
}

func (s *Source) search(ctx context.Context, query string, limit int) ([]searchResult, error) {
	body, err := json.Marshal(searchRequest{
		Query:       query + scholarlySites,
		MaxResults:  limit,
		SearchDepth: "advanced",
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Results, nil
}

// htmlToText strips markup that search snippets sometimes carry.
func htmlToText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}
