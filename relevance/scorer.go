package relevance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/gleaner/ai"
)

// NeutralScore is reported when similarity cannot be computed.
const NeutralScore = 0.5

// EmbedderFactory builds the embedding service. It is called at most once
// per successful initialization.
type EmbedderFactory func() (ai.Embedder, error)

// Result is the outcome of scoring one text against one topic.
type Result struct {
	Score      float64 // Similarity in [0, 1]
	Threshold  float64 // Threshold the score was compared against
	Relevant   bool    // Score >= Threshold, or FailedOpen
	FailedOpen bool    // Scoring failed and NeutralScore was substituted
	Err        error   // Cause of the failure when FailedOpen is set
}

// Scorer computes text/topic similarity with a lazily constructed embedder.
// It is safe for concurrent use.
type Scorer struct {
	factory EmbedderFactory

	mu       sync.Mutex
	embedder ai.Embedder

	logger *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithLogger sets the logger. A nil logger selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewScorer creates a Scorer that builds its embedder on first use.
func NewScorer(factory EmbedderFactory, opts ...Option) (*Scorer, error) {
	if factory == nil {
		return nil, ErrEmbedderFactoryRequired
	}

	s := &Scorer{
		factory: factory,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "relevance-scorer")
	return s, nil
}

// NewScorerWithEmbedder creates a Scorer around an already constructed embedder.
func NewScorerWithEmbedder(embedder ai.Embedder, opts ...Option) (*Scorer, error) {
	if embedder == nil {
		return nil, ErrEmbedderFactoryRequired
	}
	return NewScorer(func() (ai.Embedder, error) { return embedder, nil }, opts...)
}

// embedderHandle returns the shared embedder, constructing it if needed.
// A failed construction is not cached so a later call may succeed.
func (s *Scorer) embedderHandle() (ai.Embedder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embedder != nil {
		return s.embedder, nil
	}

	embedder, err := s.factory()
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}
	if embedder == nil {
		return nil, fmt.Errorf("initialize embedder: %w", ErrEmptyEmbedding)
	}
	s.logger.Debug("embedder initialized")
	s.embedder = embedder
	return embedder, nil
}

// Similarity returns the cosine similarity of text and topic clamped to [0, 1].
func (s *Scorer) Similarity(ctx context.Context, text, topic string) (float64, error) {
	embedder, err := s.embedderHandle()
	if err != nil {
		return 0, err
	}

	vectors, err := embedder.EmbedTexts(ctx, []string{text, topic})
	if err != nil {
		return 0, fmt.Errorf("embed text and topic: %w", err)
	}
	if len(vectors) != 2 || len(vectors[0]) == 0 || len(vectors[1]) == 0 {
		return 0, ErrEmptyEmbedding
	}

	return clamp(ai.CosineSimilarity(vectors[0], vectors[1])), nil
}

// Score compares text against topic and applies threshold.
// It never returns an error; failures produce a passing NeutralScore result.
func (s *Scorer) Score(ctx context.Context, text, topic string, threshold float64) Result {
	similarity, err := s.Similarity(ctx, text, topic)
	if err != nil {
		s.logger.Warn("similarity failed, accepting with neutral score",
			"topic", topic, "score", NeutralScore, "err", err)
		return Result{
			Score:      NeutralScore,
			Threshold:  threshold,
			Relevant:   true,
			FailedOpen: true,
			Err:        err,
		}
	}

	return Result{
		Score:     similarity,
		Threshold: threshold,
		Relevant:  similarity >= threshold,
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
