package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"time"

	"github.com/poiesic/gleaner/ai"
	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/retry"
	"github.com/poiesic/gleaner/storage"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is how many characters consecutive chunks share.
	DefaultChunkOverlap = 200
)

// Storage is the outcome of storing one item.
type Storage struct {
	Stored      bool
	Chunks      int
	ContentHash string
	Status      string
	Err         error
}

// StorageSink splits validated content into chunks and persists them.
type StorageSink struct {
	repo       storage.ChunkRepository
	embedder   ai.Embedder
	splitter   textsplitter.TextSplitter
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// SinkConfig configures a StorageSink. Zero values select defaults.
type SinkConfig struct {
	Embedder     ai.Embedder // Optional; chunks are stored without vectors when nil
	ChunkSize    int
	ChunkOverlap int
	MaxRetries   int
	RetryDelay   time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewStorageSink creates a sink writing to repo.
func NewStorageSink(repo storage.ChunkRepository, cfg SinkConfig) (*StorageSink, error) {
	if repo == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 5
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &StorageSink{
		repo:     repo,
		embedder: cfg.Embedder,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		now:        cfg.Now,
		logger:     cfg.Logger.With("processor", "storage"),
	}, nil
}

// Store persists the item in slot and clears the slot on success.
// On failure the slot keeps its item so storage can be retried.
func (s *StorageSink) Store(ctx context.Context, slot *Slot) Storage {
	item, ok := slotItem(slot)
	if !ok {
		return Storage{Status: "❌ Nothing to store: no validated content available"}
	}

	chunks, err := s.buildChunks(ctx, item)
	if err == nil {
		err = retry.WithBackoff(ctx, func() error {
			_, addErr := s.repo.AddChunks(ctx, chunks...)
			return addErr
		}, s.maxRetries, s.retryDelay)
	}
	if err != nil {
		s.logger.Error("failed to store content", "hash", core.ShortHash(item.ContentHash), "err", err)
		return Storage{
			ContentHash: item.ContentHash,
			Status:      fmt.Sprintf("❌ Storage failed: %v", err),
			Err:         err,
		}
	}

	slot.Clear()
	s.logger.Debug("stored content", "hash", core.ShortHash(item.ContentHash), "chunks", len(chunks))
	return Storage{
		Stored:      true,
		Chunks:      len(chunks),
		ContentHash: item.ContentHash,
		Status:      fmt.Sprintf("✅ Stored: %d chunks, hash: %s", len(chunks), core.ShortHash(item.ContentHash)),
	}
}

// buildChunks splits the content and embeds each piece.
func (s *StorageSink) buildChunks(ctx context.Context, item core.ProcessedContent) ([]*core.Chunk, error) {
	storedAt := s.now().UTC()

	md := item.Metadata.Clone()
	md[MetaContentHash] = item.ContentHash
	md[MetaStoredAt] = storedAt.Format(time.RFC3339)
	if item.SourceType != "" {
		md[MetaSourceType] = string(item.SourceType)
	}
	base := md.Flatten()

	texts, err := s.splitter.SplitText(item.Content)
	if err != nil {
		return nil, fmt.Errorf("split content: %w", err)
	}
	if len(texts) == 0 {
		texts = []string{item.Content}
	}

	var vectors [][]float32
	if s.embedder != nil {
		err := retry.WithBackoff(ctx, func() error {
			var embedErr error
			vectors, embedErr = s.embedder.EmbedTexts(ctx, texts)
			return embedErr
		}, s.maxRetries, s.retryDelay)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(texts) {
			return nil, ErrEmbeddingMismatch
		}
	}

	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunkMeta := maps.Clone(base)
		chunkMeta[MetaChunkIndex] = strconv.Itoa(i)

		chunks[i] = &core.Chunk{
			ContentHash: item.ContentHash,
			Index:       i,
			Text:        text,
			Metadata:    chunkMeta,
			StoredAt:    storedAt,
		}
		if vectors != nil {
			chunks[i].Vector = ai.NormalizeVector(vectors[i])
		}
	}
	return chunks, nil
}
