package ai

import "context"

// Embedder turns text into vectors. Implementations are safe for
// concurrent use. Returned vectors are not necessarily normalized.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	// EmbedTexts returns one vector per input, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AIProvider owns an Embedder and whatever connection backs it.
type AIProvider interface {
	Embedder() Embedder
	Close() error
}
