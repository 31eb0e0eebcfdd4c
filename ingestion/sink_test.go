package ingestion

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/gleaner/ai/mock"
	"github.com/poiesic/gleaner/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorageSink(t *testing.T) {
	_, err := NewStorageSink(nil, SinkConfig{})
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)
}

func TestStorageSink_Store(t *testing.T) {
	ctx := context.Background()

	t.Run("empty slot", func(t *testing.T) {
		sink, err := NewStorageSink(newMemoryRepo(t), SinkConfig{})
		require.NoError(t, err)

		res := sink.Store(ctx, NewSlot())
		assert.False(t, res.Stored)
		assert.Equal(t, "❌ Nothing to store: no validated content available", res.Status)
	})

	t.Run("stores chunks with metadata and clears slot", func(t *testing.T) {
		repo := newMemoryRepo(t)
		sink, err := NewStorageSink(repo, SinkConfig{Embedder: mock.NewMockEmbedder(), Now: fixedClock})
		require.NoError(t, err)

		slot := normalizedSlot(t, aiText, core.Metadata{"title": "AI Study", "year": 2024})
		item, _ := slot.Get()

		res := sink.Store(ctx, slot)
		require.True(t, res.Stored, res.Status)
		assert.Equal(t, 1, res.Chunks)
		assert.Equal(t, "✅ Stored: 1 chunks, hash: "+item.ContentHash[:8], res.Status)
		assert.True(t, slot.IsEmpty())

		chunks, err := repo.GetChunksByHash(ctx, item.ContentHash)
		require.NoError(t, err)
		require.Len(t, chunks, 1)

		c := chunks[0]
		assert.Equal(t, item.Content, c.Text)
		assert.Equal(t, "AI Study", c.Metadata["title"])
		assert.Equal(t, "2024", c.Metadata["year"])
		assert.Equal(t, item.ContentHash, c.Metadata[MetaContentHash])
		assert.Equal(t, "2025-06-01T10:30:00Z", c.Metadata[MetaStoredAt])
		assert.Equal(t, "web", c.Metadata[MetaSourceType])
		assert.Equal(t, "0", c.Metadata[MetaChunkIndex])
		require.NotEmpty(t, c.Vector)

		var norm float64
		for _, v := range c.Vector {
			norm += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, norm, 1e-4)
	})

	t.Run("splits long content", func(t *testing.T) {
		repo := newMemoryRepo(t)
		sink, err := NewStorageSink(repo, SinkConfig{ChunkSize: 200, ChunkOverlap: 40})
		require.NoError(t, err)

		long := strings.Repeat(aiText+" ", 8)
		slot := normalizedSlot(t, long, core.Metadata{"title": "Long"})
		item, _ := slot.Get()

		res := sink.Store(ctx, slot)
		require.True(t, res.Stored, res.Status)
		assert.Greater(t, res.Chunks, 1)

		chunks, err := repo.GetChunksByHash(ctx, item.ContentHash)
		require.NoError(t, err)
		require.Len(t, chunks, res.Chunks)
		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
			assert.LessOrEqual(t, len(c.Text), 200)
			assert.Empty(t, c.Vector, "no embedder configured")
		}
	})

	t.Run("failure keeps slot for retry", func(t *testing.T) {
		repo := &flakyRepo{ChunkRepository: newMemoryRepo(t)}
		repo.failing.Store(true)
		sink, err := NewStorageSink(repo, SinkConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
		require.NoError(t, err)

		slot := normalizedSlot(t, aiText, core.Metadata{"title": "AI Study"})

		res := sink.Store(ctx, slot)
		assert.False(t, res.Stored)
		assert.Error(t, res.Err)
		assert.True(t, strings.HasPrefix(res.Status, "❌ Storage failed: "))
		assert.Contains(t, res.Status, "disk full")
		assert.EqualValues(t, 2, repo.adds.Load())
		assert.False(t, slot.IsEmpty())

		repo.failing.Store(false)
		res = sink.Store(ctx, slot)
		assert.True(t, res.Stored, res.Status)
		assert.True(t, slot.IsEmpty())
	})

	t.Run("embedding failure", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{}, nil
		}
		sink, err := NewStorageSink(newMemoryRepo(t), SinkConfig{Embedder: embedder, MaxRetries: 1, RetryDelay: time.Millisecond})
		require.NoError(t, err)

		slot := normalizedSlot(t, aiText, core.Metadata{"title": "AI Study"})
		res := sink.Store(ctx, slot)
		assert.False(t, res.Stored)
		assert.ErrorIs(t, res.Err, ErrEmbeddingMismatch)
		assert.False(t, slot.IsEmpty())
	})
}
