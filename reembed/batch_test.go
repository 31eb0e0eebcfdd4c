package reembed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/gleaner/ai/mock"
	"github.com/poiesic/gleaner/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unnormalizedEmbedder returns vectors of magnitude 3.
func unnormalizedEmbedder() *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1.0, 2.0, 2.0}
		}
		return out, nil
	}
	return embedder
}

func TestBatchProcessor_Process(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	added := addTestChunks(t, repo, 2)

	processor := NewBatchProcessor(repo, unnormalizedEmbedder(), 3, time.Millisecond)
	require.NoError(t, processor.Process(ctx, added))

	for _, c := range added {
		stored, err := repo.GetChunk(ctx, c.Id)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float32{1.0 / 3, 2.0 / 3, 2.0 / 3}, stored.Vector, 1e-6)
		assert.Equal(t, c.Text, stored.Text)
	}
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	embedder := unnormalizedEmbedder()
	processor := NewBatchProcessor(repo, embedder, 3, time.Millisecond)
	require.NoError(t, processor.Process(context.Background(), nil))
	assert.Zero(t, embedder.CallCount())
}

func TestBatchProcessor_RetriesEmbedding(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	added := addTestChunks(t, repo, 2)

	var attempts atomic.Int32
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if attempts.Add(1) < 3 {
			return nil, errors.New("temporary failure")
		}
		return [][]float32{{1, 0}, {0, 1}}, nil
	}

	processor := NewBatchProcessor(repo, embedder, 3, time.Millisecond)
	require.NoError(t, processor.Process(context.Background(), added))
	assert.EqualValues(t, 3, attempts.Load())
}

func TestBatchProcessor_GivesUp(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	added := addTestChunks(t, repo, 1)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("permanent failure")
	}

	processor := NewBatchProcessor(repo, embedder, 2, time.Millisecond)
	err := processor.Process(context.Background(), added)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed after 2 attempts")
	assert.Contains(t, err.Error(), "permanent failure")
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	added := addTestChunks(t, repo, 2)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}

	err := NewBatchProcessor(repo, embedder, 1, time.Millisecond).Process(context.Background(), added)
	assert.ErrorIs(t, err, ErrEmbeddingCount)
	assert.EqualError(t, err, "embedding count mismatch: expected 2, got 1")

	var unchanged []*core.Chunk
	for _, c := range added {
		stored, getErr := repo.GetChunk(context.Background(), c.Id)
		require.NoError(t, getErr)
		unchanged = append(unchanged, stored)
	}
	for _, c := range unchanged {
		assert.Empty(t, c.Vector)
	}
}
