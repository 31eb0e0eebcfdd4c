package relevance

import (
	"strings"

	"github.com/poiesic/gleaner/core"
)

const (
	// queryContext sharpens short search queries toward the research domain.
	queryContext = "artificial intelligence machine learning research"

	// DefaultTopic is used when metadata offers nothing better.
	DefaultTopic = "scientific research artificial intelligence machine learning neural networks"
)

// DeriveTopic picks the topic an item is scored against.
//
// Preference order: the "query" field augmented with domain context words,
// then the "title" augmented with "research study", then a "source" name that
// is not one of the built-in collectors, then DefaultTopic. Query and title
// must be longer than two characters after trimming to qualify.
func DeriveTopic(md core.Metadata) string {
	if query := strings.TrimSpace(md.String("query")); len(query) > 2 {
		return query + " " + queryContext
	}
	if title := strings.TrimSpace(md.String("title")); len(title) > 2 {
		return title + " research study"
	}
	if source := strings.TrimSpace(md.String("source")); source != "" && source != "arxiv" && source != "web_search" {
		return source + " research"
	}
	return DefaultTopic
}
