// Package arxiv collects paper abstracts from the arXiv export API.
package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/poiesic/gleaner/collector"
	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/ingestion"
)

// DefaultBaseURL is the arXiv query endpoint.
const DefaultBaseURL = "http://export.arxiv.org/api/query"

// Source queries arXiv and remembers every entry link it has returned, so
// repeated queries only yield new papers.
type Source struct {
	baseURL string
	client  *http.Client

	mu   sync.Mutex
	seen map[string]struct{}
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

// New creates an arXiv source.
func New(opts ...Option) *Source {
	s := &Source{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		seen:    map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the source inside the registry.
func (s *Source) Name() string {
	return "arxiv"
}

// Messages returns the display lines for arXiv runs.
func (s *Source) Messages() collector.Messages {
	return collector.Messages{
		Header:        "Articles processed by the standard flow:",
		Empty:         "No articles found on arXiv.",
		NoneProcessed: "No new articles were processed.",
	}
}

// Fetch returns abstracts for query from offset cursor. Entries seen in an
// earlier call are skipped.
func (s *Source) Fetch(ctx context.Context, query string, cursor, limit int) ([]collector.Entry, error) {
	feed, err := s.fetchFeed(ctx, query, cursor, limit)
	if err != nil {
		return nil, err
	}
	if len(feed.Items) == 0 {
		return nil, collector.ErrNoResults
	}

	entries := make([]collector.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.GUID)
		if link == "" {
			link = strings.TrimSpace(item.Link)
		}
		if !s.markSeen(link) {
			continue
		}

		title := strings.Join(strings.Fields(item.Title), " ")
		year := publishedYear(item.Published)

		authors := make([]string, 0, len(item.Authors))
		for _, a := range item.Authors {
			if a != nil && strings.TrimSpace(a.Name) != "" {
				authors = append(authors, strings.TrimSpace(a.Name))
			}
		}

		entries = append(entries, collector.Entry{
			Label: fmt.Sprintf("📄 %s (%s)", title, year),
			Item: ingestion.Item{
				Content: strings.TrimSpace(item.Description),
				Metadata: core.Metadata{
					"title":   title,
					"authors": strings.Join(authors, ", "),
					"year":    year,
					"link":    link,
					"source":  "arxiv",
				},
				SourceType: core.SourceTypePaper,
			},
		})
	}
	return entries, nil
}

func (s *Source) fetchFeed(ctx context.Context, query string, cursor, limit int) (*gofeed.Feed, error) {
	pageURL, err := buildQueryURL(s.baseURL, query, cursor, limit)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "gleaner/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// markSeen records link and reports whether it was new.
func (s *Source) markSeen(link string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[link]; ok {
		return false
	}
	s.seen[link] = struct{}{}
	return true
}

func publishedYear(published string) string {
	published = strings.TrimSpace(published)
	if len(published) < 4 {
		return published
	}
	return published[:4]
}

func buildQueryURL(base, query string, cursor, limit int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid arxiv url %s: %w", base, err)
	}
	if cursor < 0 {
		cursor = 0
	}
	if limit <= 0 {
		limit = 3
	}

	q := parsed.Query()
	q.Set("search_query", "all:"+query)
	q.Set("start", strconv.Itoa(cursor))
	q.Set("max_results", strconv.Itoa(limit))
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
