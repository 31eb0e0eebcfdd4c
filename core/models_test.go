package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, HashContent("Hello World!!"), HashContent("Hello World!!"))
	})

	t.Run("128-bit hex", func(t *testing.T) {
		assert.Len(t, HashContent("anything"), 32)
	})

	t.Run("differs for different text", func(t *testing.T) {
		assert.NotEqual(t, HashContent("Hello World"), HashContent("Hello World!"))
	})
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "abcdef01", ShortHash("abcdef0123456789"))
	assert.Equal(t, "abc", ShortHash("abc"))
}

func TestParseSourceType(t *testing.T) {
	assert.Equal(t, SourceTypeWeb, ParseSourceType("web_search"))
	assert.Equal(t, SourceTypeWeb, ParseSourceType("web"))
	assert.Equal(t, SourceTypePaper, ParseSourceType("arxiv"))
	assert.Equal(t, SourceTypePaper, ParseSourceType("paper"))
	assert.Equal(t, SourceTypeOther, ParseSourceType("rss"))
	assert.Equal(t, SourceTypeOther, ParseSourceType(""))
}

func TestMetadata(t *testing.T) {
	md := Metadata{"title": "AI Study", "year": 2024, "score": 0.5}

	t.Run("String renders numbers", func(t *testing.T) {
		assert.Equal(t, "AI Study", md.String("title"))
		assert.Equal(t, "2024", md.String("year"))
		assert.Equal(t, "", md.String("missing"))
	})

	t.Run("Clone is independent", func(t *testing.T) {
		clone := md.Clone()
		clone["title"] = "changed"
		assert.Equal(t, "AI Study", md["title"])
	})

	t.Run("Clone of nil", func(t *testing.T) {
		var nilMd Metadata
		assert.NotNil(t, nilMd.Clone())
	})

	t.Run("Validate", func(t *testing.T) {
		assert.NoError(t, md.Validate())
		assert.NoError(t, Metadata(nil).Validate())

		for name, v := range map[string]any{
			"object": map[string]any{"a": 1},
			"array":  []any{"a", "b"},
			"bool":   true,
			"null":   nil,
		} {
			err := Metadata{"title": "ok", "extra": v}.Validate()
			assert.ErrorIs(t, err, ErrInvalidMetadata, name)
			assert.ErrorContains(t, err, `"extra"`, name)
		}
	})

	t.Run("Flatten", func(t *testing.T) {
		flat := md.Flatten()
		assert.Equal(t, map[string]string{"title": "AI Study", "year": "2024", "score": "0.5"}, flat)
	})
}
