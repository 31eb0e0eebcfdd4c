package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) storage.ChunkRepository {
	t.Helper()
	repo, backend, err := NewMemoryChunkRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func chunksFor(text string, parts ...string) []*core.Chunk {
	hash := core.HashContent(text)
	chunks := make([]*core.Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = &core.Chunk{
			ContentHash: hash,
			Index:       i,
			Text:        p,
			Metadata:    map[string]string{"title": "t"},
		}
	}
	return chunks
}

func TestChunkRepository_AddChunks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddChunks(ctx, chunksFor("doc", "first", "second")...)
	require.NoError(t, err)
	require.Len(t, added, 2)

	t.Run("assigns nonzero unique IDs", func(t *testing.T) {
		assert.NotZero(t, added[0].Id)
		assert.NotZero(t, added[1].Id)
		assert.NotEqual(t, added[0].Id, added[1].Id)
	})

	t.Run("stamps StoredAt", func(t *testing.T) {
		assert.False(t, added[0].StoredAt.IsZero())
	})

	t.Run("round trips through GetChunk", func(t *testing.T) {
		got, err := repo.GetChunk(ctx, added[1].Id)
		require.NoError(t, err)
		assert.Equal(t, "second", got.Text)
		assert.Equal(t, "t", got.Metadata["title"])
	})

	t.Run("rejects invalid chunks without writing", func(t *testing.T) {
		before, err := repo.CountChunks(ctx)
		require.NoError(t, err)

		bad := append(chunksFor("other", "ok"), &core.Chunk{ContentHash: "h"})
		_, err = repo.AddChunks(ctx, bad...)
		assert.ErrorIs(t, err, core.ErrInvalidChunk)

		after, err := repo.CountChunks(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestChunkRepository_GetChunk_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetChunk(context.Background(), 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChunkRepository_GetChunksByHash(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddChunks(ctx, chunksFor("doc-a", "a0", "a1", "a2")...)
	require.NoError(t, err)
	_, err = repo.AddChunks(ctx, chunksFor("doc-b", "b0")...)
	require.NoError(t, err)

	got, err := repo.GetChunksByHash(ctx, core.HashContent("doc-a"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, c := range got {
		assert.Equal(t, i, c.Index)
	}

	none, err := repo.GetChunksByHash(ctx, core.HashContent("missing"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestChunkRepository_ContentHashes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddChunks(ctx, chunksFor("doc-a", "a0", "a1")...)
	require.NoError(t, err)
	_, err = repo.AddChunks(ctx, chunksFor("doc-b", "b0")...)
	require.NoError(t, err)

	hashes, err := repo.ContentHashes(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{core.HashContent("doc-a"), core.HashContent("doc-b")}, hashes)
}

func TestChunkRepository_UpdateChunks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddChunks(ctx, chunksFor("doc", "text")...)
	require.NoError(t, err)

	chunk := added[0]
	chunk.Vector = []float32{1, 0}
	_, err = repo.UpdateChunks(ctx, chunk)
	require.NoError(t, err)

	got, err := repo.GetChunk(ctx, chunk.Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, got.Vector)

	t.Run("missing chunk", func(t *testing.T) {
		_, err := repo.UpdateChunks(ctx, &core.Chunk{Id: 12345, ContentHash: "h", Text: "t"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestChunkRepository_ForEachChunk(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddChunks(ctx, chunksFor("doc", "a", "b", "c")...)
	require.NoError(t, err)

	var texts []string
	err = repo.ForEachChunk(ctx, func(c *core.Chunk) error {
		texts = append(texts, c.Text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, texts)

	t.Run("stops on error", func(t *testing.T) {
		stop := errors.New("stop")
		calls := 0
		err := repo.ForEachChunk(ctx, func(*core.Chunk) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})
}

func TestChunkRepository_FindSimilar(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	chunks := chunksFor("doc", "east", "north", "northeast", "novector")
	chunks[0].Vector = []float32{1, 0}
	chunks[1].Vector = []float32{0, 1}
	chunks[2].Vector = []float32{0.7071, 0.7071}
	_, err := repo.AddChunks(ctx, chunks...)
	require.NoError(t, err)

	results, err := repo.FindSimilar(ctx, []float32{1, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "east", results[0].Chunk.Text)
	assert.Equal(t, "northeast", results[1].Chunk.Text)

	limited, err := repo.FindSimilar(ctx, []float32{1, 0}, 0, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = repo.FindSimilar(ctx, []float32{1, 0}, 0, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestChunkRepository_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	storedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	repo, err := NewChunkRepository(backend)
	require.NoError(t, err)

	chunks := chunksFor("doc", "persisted")
	chunks[0].StoredAt = storedAt
	added, err := repo.AddChunks(ctx, chunks...)
	require.NoError(t, err)
	require.NoError(t, repo.Close())
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	repo, err = NewChunkRepository(backend)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.GetChunk(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Text)
	assert.True(t, storedAt.Equal(got.StoredAt))
}

func TestChunkRepository_Closed(t *testing.T) {
	repo, backend, err := NewMemoryChunkRepository()
	require.NoError(t, err)
	repo.Close()
	backend.Close()

	_, err = repo.AddChunks(context.Background(), chunksFor("doc", "x")...)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
