package relevance

import "errors"

var (
	// ErrEmbedderFactoryRequired is returned when no embedder factory is provided.
	ErrEmbedderFactoryRequired = errors.New("embedder factory required")

	// ErrEmptyEmbedding is returned when the embedding service returns no vector.
	ErrEmptyEmbedding = errors.New("embedding service returned an empty vector")
)
