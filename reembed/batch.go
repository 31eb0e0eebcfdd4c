package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/gleaner/ai"
	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/retry"
	"github.com/poiesic/gleaner/storage"
)

// BatchProcessor embeds one batch of chunks and writes it back.
type BatchProcessor struct {
	repo     storage.ChunkRepository
	embedder ai.Embedder
	attempts int
	delay    time.Duration
}

// NewBatchProcessor makes up to attempts tries, with backoff starting at
// delay, for both the embedding request and the update.
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, attempts int, delay time.Duration) *BatchProcessor {
	return &BatchProcessor{repo: repo, embedder: embedder, attempts: attempts, delay: delay}
}

// Process replaces the vectors of chunks. Nothing is written unless every
// chunk received a vector.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}

	var vectors [][]float32
	err := retry.WithBackoff(ctx, func() (err error) {
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.attempts, bp.delay)
	if err != nil {
		return fmt.Errorf("embed after %d attempts: %w", bp.attempts, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCount, len(chunks), len(vectors))
	}

	for i, c := range chunks {
		c.Vector = ai.NormalizeVector(vectors[i])
	}

	err = retry.WithBackoff(ctx, func() error {
		_, err := bp.repo.UpdateChunks(ctx, chunks...)
		return err
	}, bp.attempts, bp.delay)
	if err != nil {
		return fmt.Errorf("update chunks: %w", err)
	}
	return nil
}
