package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/storage"
	"github.com/poiesic/gleaner/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (storage.ChunkRepository, func()) {
	repo, backend, err := badger.NewMemoryChunkRepository()
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		backend.Close()
	}

	return repo, cleanup
}

func addTestChunks(t *testing.T, repo storage.ChunkRepository, n int) []*core.Chunk {
	t.Helper()
	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			ContentHash: fmt.Sprintf("hash-%d", i/2),
			Index:       i % 2,
			Text:        fmt.Sprintf("chunk text %d", i),
		}
	}
	added, err := repo.AddChunks(context.Background(), chunks...)
	require.NoError(t, err)
	require.Len(t, added, n)
	return added
}

func TestChunkIterator_Batches(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	added := addTestChunks(t, repo, 5)

	var sizes []int
	var ids []core.ID
	err := NewChunkIterator(repo, 2).ForEach(context.Background(), func(batch []*core.Chunk) error {
		sizes = append(sizes, len(batch))
		for _, c := range batch {
			ids = append(ids, c.Id)
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 1}, sizes)
	require.Len(t, ids, 5)
	for i, c := range added {
		assert.Equal(t, c.Id, ids[i], "chunks arrive in key order")
	}
}

func TestChunkIterator_Empty(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	called := false
	err := NewChunkIterator(repo, 10).ForEach(context.Background(), func([]*core.Chunk) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestChunkIterator_DefaultBatchSize(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	assert.Equal(t, DefaultBatchSize, NewChunkIterator(repo, 0).batchSize)
	assert.Equal(t, DefaultBatchSize, NewChunkIterator(repo, -5).batchSize)
}

func TestChunkIterator_StopsOnError(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	addTestChunks(t, repo, 6)

	boom := errors.New("boom")
	calls := 0
	err := NewChunkIterator(repo, 2).ForEach(context.Background(), func([]*core.Chunk) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestChunkIterator_ContextCancelled(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	addTestChunks(t, repo, 6)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewChunkIterator(repo, 2).ForEach(ctx, func([]*core.Chunk) error {
		t.Fatal("should not be called")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	ctx, cancel = context.WithCancel(context.Background())
	calls := 0
	err = NewChunkIterator(repo, 2).ForEach(ctx, func([]*core.Chunk) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
