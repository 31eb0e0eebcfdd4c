package storage

import (
	"context"

	"github.com/poiesic/gleaner/core"
)

// ChunkRepository persists content chunks and searches them by vector.
// Implementations must be safe for concurrent use.
type ChunkRepository interface {
	// AddChunks stores new chunks in a single transaction, assigning IDs and
	// StoredAt timestamps. Either all chunks are stored or none are.
	// Returns the chunks with IDs populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks replaces existing chunks by ID.
	// Returns ErrNotFound if any chunk does not exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk does not exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunksByHash returns every chunk split from the content with the given
	// hash, ordered by chunk index. Returns an empty slice if none exist.
	GetChunksByHash(ctx context.Context, contentHash string) ([]*core.Chunk, error)

	// ContentHashes returns the distinct content hashes that have stored chunks.
	ContentHashes(ctx context.Context) ([]string, error)

	// ForEachChunk calls fn for every stored chunk in ID order. Iteration stops
	// at the first error returned by fn.
	ForEachChunk(ctx context.Context, fn func(*core.Chunk) error) error

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// FindSimilar returns chunks whose vectors have a dot product with vector
	// of at least minSimilarity, best first, at most limit results.
	// Vectors are expected to be normalized.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// Close releases resources held by the repository.
	Close() error
}
