package reembed

import "errors"

var (
	ErrChunkRepositoryRequired = errors.New("chunk repository required")
	ErrEmbedderRequired        = errors.New("embedder required")

	// ErrEmbeddingCount is returned when the service answers a batch with
	// a different number of vectors than texts sent.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)
