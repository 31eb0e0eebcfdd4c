package search

import "errors"

// Constructor errors.
var (
	ErrChunkRepositoryRequired = errors.New("search needs a chunk repository")
	ErrAIProviderRequired      = errors.New("search needs an embedding provider")
)
