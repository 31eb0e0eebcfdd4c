package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/gleaner/collector"
	"github.com/poiesic/gleaner/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTavilyServer(t *testing.T, results []searchResult, got *searchRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searchResponse{Results: results})
	}))
}

func TestNew(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}

func TestSource_Fetch(t *testing.T) {
	var req searchRequest
	srv := newTavilyServer(t, []searchResult{
		{Title: "Transformers in Vision", URL: "https://nature.com/a", Content: "<p>Transformers are <b>reshaping</b> computer vision research.</p>"},
		{Title: "", URL: "https://ieee.org/b", Content: "Attention mechanisms applied to speech recognition pipelines."},
		{Title: "Too short", URL: "https://acm.org/c", Content: "   tiny   "},
	}, &req)
	defer srv.Close()

	src, err := New("test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	entries, err := src.Fetch(context.Background(), "transformers", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxResults, req.MaxResults)
	assert.Equal(t, "advanced", req.SearchDepth)
	assert.False(t, req.IncludeAnswer)
	assert.True(t, strings.HasPrefix(req.Query, "transformers site:arxiv.org OR"))

	require.Len(t, entries, 2)
	assert.Equal(t, "🌐 Transformers in Vision", entries[0].Label)
	assert.Equal(t, "Transformers are reshaping computer vision research.", entries[0].Item.Content)
	assert.Equal(t, core.SourceTypeWeb, entries[0].Item.SourceType)
	assert.Equal(t, core.Metadata{
		"title":  "Transformers in Vision",
		"url":    "https://nature.com/a",
		"source": "web_search",
		"query":  "transformers",
	}, entries[0].Item.Metadata)

	assert.Equal(t, "🌐 Untitled", entries[1].Label)
}

func TestSource_Fetch_Limit(t *testing.T) {
	var req searchRequest
	srv := newTavilyServer(t, []searchResult{{Title: "x", Content: strings.Repeat("word ", 10)}}, &req)
	defer srv.Close()

	src, err := New("test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), "q", 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, req.MaxResults)
}

func TestSource_Fetch_NoResults(t *testing.T) {
	srv := newTavilyServer(t, nil, nil)
	defer srv.Close()

	src, err := New("test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), "q", 0, 0)
	assert.ErrorIs(t, err, collector.ErrNoResults)
}

func TestSource_Fetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	src, err := New("test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), "q", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestHTMLToText(t *testing.T) {
	assert.Equal(t, "plain text", htmlToText("plain text"))
	assert.Equal(t, "Hello world", htmlToText("<div>Hello <script>x()</script>world</div>"))
	assert.Equal(t, "a & b", htmlToText("a &amp; b"))
}
