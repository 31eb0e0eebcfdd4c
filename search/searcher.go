package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/poiesic/gleaner/ai"
	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/storage"
)

const (
	// DefaultMinSimilarity is the lowest cosine similarity a semantic hit may have.
	DefaultMinSimilarity = 0.5

	lexicalOnlyScore = 0.6
	verbatimBoost    = 0.3
)

// Searcher provides hybrid semantic and keyword search over stored chunks.
type Searcher struct {
	repository    storage.ChunkRepository
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the semantic hit cutoff.
func WithMinSimilarity(v float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = v
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repository storage.ChunkRepository, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		repository:    repository,
		embedder:      provider.Embedder(),
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches for chunks similar to the query.
// Returns up to maxHits results, at most one per stored document, ranked by score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for chunks similar to the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if maxHits <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// 1. Semantic search
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	// Several chunks of one document may match, so over-fetch before collapsing
	matches, err := s.repository.FindSimilar(ctx, ai.NormalizeVector(embedding), s.minSimilarity, maxHits*3)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}

	chunks := make(map[core.ID]*core.Chunk, len(matches))
	semanticScores := make(map[core.ID]float32, len(matches))
	semanticIds := make([]core.ID, 0, len(matches))
	for _, match := range matches {
		chunks[match.Chunk.Id] = match.Chunk
		semanticScores[match.Chunk.Id] = match.Score
		semanticIds = append(semanticIds, match.Chunk.Id)
	}
	monitor.AfterSemanticSearch(semanticIds)

	// 2. Keyword search: every non-stop-word of the query appears in the chunk
	lexicalSet := make(map[core.ID]bool)
	if len(tokenizeAndFilter(query)) > 0 {
		err = s.repository.ForEachChunk(ctx, func(chunk *core.Chunk) error {
			if containsAllQueryWords(chunk.Text, query) {
				lexicalSet[chunk.Id] = true
				if _, ok := chunks[chunk.Id]; !ok {
					chunks[chunk.Id] = chunk
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Error("error scanning chunks for keywords", "err", err)
			return nil, err
		}
	}
	lexicalIds := make([]core.ID, 0, len(lexicalSet))
	for id := range lexicalSet {
		lexicalIds = append(lexicalIds, id)
	}
	monitor.AfterLexicalSearch(lexicalIds)

	// 3. Score, keeping the best chunk per document
	best := make(map[string]*core.SearchResult)
	for id, chunk := range chunks {
		similarity, inSemantic := semanticScores[id]
		inLexical := lexicalSet[id]

		var score float32
		switch {
		case inSemantic && inLexical:
			score = similarity + verbatimBoost
			monitor.SemanticAndLexicalHit(chunk)
		case inLexical:
			score = lexicalOnlyScore
			monitor.LexicalHit(chunk)
		default:
			score = similarity
			monitor.SemanticHit(chunk)
		}

		key := chunk.ContentHash
		if key == "" {
			key = chunk.Text
		}
		if prev, ok := best[key]; !ok || score > prev.Score {
			best[key] = &core.SearchResult{Chunk: chunk, Score: score}
		}
	}

	results := make([]*core.SearchResult, 0, len(best))
	for _, r := range best {
		results = append(results, r)
	}

	// Sort by score descending, ties by id for stable output
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Id < results[j].Chunk.Id
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}
