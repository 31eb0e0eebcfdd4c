package relevance

import (
	"testing"

	"github.com/poiesic/gleaner/core"
	"github.com/stretchr/testify/assert"
)

func TestDeriveTopic(t *testing.T) {
	tests := []struct {
		name     string
		metadata core.Metadata
		want     string
	}{
		{
			name:     "query preferred",
			metadata: core.Metadata{"query": " artificial intelligence ", "title": "AI Study"},
			want:     "artificial intelligence artificial intelligence machine learning research",
		},
		{
			name:     "short query falls through to title",
			metadata: core.Metadata{"query": "ai", "title": "AI Study"},
			want:     "AI Study research study",
		},
		{
			name:     "custom source",
			metadata: core.Metadata{"source": "pubmed"},
			want:     "pubmed research",
		},
		{
			name:     "builtin source ignored",
			metadata: core.Metadata{"source": "arxiv"},
			want:     DefaultTopic,
		},
		{
			name:     "web source ignored",
			metadata: core.Metadata{"source": "web_search", "title": "  "},
			want:     DefaultTopic,
		},
		{
			name:     "empty metadata",
			metadata: nil,
			want:     DefaultTopic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTopic(tt.metadata))
		})
	}
}
