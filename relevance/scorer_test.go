package relevance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/poiesic/gleaner/ai"
	"github.com/poiesic/gleaner/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vectorsFor returns an EmbedTextsFunc mapping each text to a fixed vector.
func vectorsFor(table map[string][]float32) func(context.Context, []string) ([][]float32, error) {
	return func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = table[text]
		}
		return out, nil
	}
}

func TestNewScorer(t *testing.T) {
	_, err := NewScorer(nil)
	assert.ErrorIs(t, err, ErrEmbedderFactoryRequired)

	_, err = NewScorerWithEmbedder(nil)
	assert.ErrorIs(t, err, ErrEmbedderFactoryRequired)
}

func TestScorer_Similarity(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = vectorsFor(map[string][]float32{
		"same":     {1, 0},
		"topic":    {1, 0},
		"opposite": {-1, 0},
		"diagonal": {1, 1},
	})
	scorer, err := NewScorerWithEmbedder(embedder)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("identical direction", func(t *testing.T) {
		sim, err := scorer.Similarity(ctx, "same", "topic")
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-9)
	})

	t.Run("negative similarity clamps to zero", func(t *testing.T) {
		sim, err := scorer.Similarity(ctx, "opposite", "topic")
		require.NoError(t, err)
		assert.Equal(t, 0.0, sim)
	})

	t.Run("partial", func(t *testing.T) {
		sim, err := scorer.Similarity(ctx, "diagonal", "topic")
		require.NoError(t, err)
		assert.InDelta(t, 0.7071, sim, 1e-4)
	})

	t.Run("empty vector is an error", func(t *testing.T) {
		_, err := scorer.Similarity(ctx, "unknown", "topic")
		assert.ErrorIs(t, err, ErrEmptyEmbedding)
	})
}

func TestScorer_Score(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = vectorsFor(map[string][]float32{
		"text":  {1, 0},
		"topic": {1, 0},
	})
	scorer, err := NewScorerWithEmbedder(embedder)
	require.NoError(t, err)

	t.Run("passes at threshold", func(t *testing.T) {
		res := scorer.Score(context.Background(), "text", "topic", 1.0)
		assert.True(t, res.Relevant)
		assert.False(t, res.FailedOpen)
		assert.Equal(t, 1.0, res.Threshold)
	})

	t.Run("fails above score", func(t *testing.T) {
		res := scorer.Score(context.Background(), "text", "topic", 1.0001)
		assert.False(t, res.Relevant)
	})
}

func TestScorer_FailOpen(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("backend unavailable")
	}
	scorer, err := NewScorerWithEmbedder(embedder)
	require.NoError(t, err)

	res := scorer.Score(context.Background(), "text", "topic", 0.9)
	assert.True(t, res.Relevant)
	assert.True(t, res.FailedOpen)
	assert.Equal(t, NeutralScore, res.Score)
	assert.ErrorContains(t, res.Err, "backend unavailable")
}

func TestScorer_FactoryFailureFailsOpen(t *testing.T) {
	var calls atomic.Int32
	scorer, err := NewScorer(func() (ai.Embedder, error) {
		calls.Add(1)
		return nil, errors.New("model not found")
	})
	require.NoError(t, err)

	res := scorer.Score(context.Background(), "text", "topic", 0.6)
	assert.True(t, res.FailedOpen)
	assert.True(t, res.Relevant)

	// Failed construction is retried on the next call
	scorer.Score(context.Background(), "text", "topic", 0.6)
	assert.Equal(t, int32(2), calls.Load())
}

func TestScorer_LazyInitOnce(t *testing.T) {
	var calls atomic.Int32
	embedder := mock.NewMockEmbedder()
	scorer, err := NewScorer(func() (ai.Embedder, error) {
		calls.Add(1)
		return embedder, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(0), calls.Load(), "factory must not run before first use")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := scorer.Similarity(context.Background(), "some text", "some topic")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 16, embedder.CallCount())
}
