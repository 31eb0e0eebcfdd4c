package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/gleaner/ai"
	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/storage"
)

// Stage names used in results and metrics.
const (
	StageNormalize = "normalize"
	StageValidate  = "validate"
	StageStore     = "store"
)

// Recorder receives one observation per pipeline stage outcome.
type Recorder interface {
	RecordStage(stage, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordStage(string, string) {}

// Thresholds holds the minimum relevance per source type.
type Thresholds struct {
	Paper float64 `yaml:"paper"`
	Web   float64 `yaml:"web"`
	Other float64 `yaml:"other"`
}

// DefaultThresholds returns the stock thresholds: paper 0.3, web 0.4, other 0.6.
func DefaultThresholds() Thresholds {
	return Thresholds{Paper: 0.3, Web: 0.4, Other: 0.6}
}

// For returns the threshold for a source type.
func (t Thresholds) For(sourceType core.SourceType) float64 {
	switch sourceType {
	case core.SourceTypePaper:
		return t.Paper
	case core.SourceTypeWeb:
		return t.Web
	default:
		return t.Other
	}
}

// Item is one raw piece of content produced by a collector.
type Item struct {
	Content    string
	Metadata   core.Metadata
	SourceType core.SourceType
}

// Result is the outcome of running one item through the pipeline.
type Result struct {
	Status      string // Display line from the last stage that ran
	Stage       string // Last stage that ran
	Accepted    bool   // Item was validated and stored
	Reason      Reason
	ContentHash string
	Score       float64
	Chunks      int
}

// Pipeline sequences Normalizer, Validator and StorageSink for each item.
// Every Process call gets its own Slot, so concurrent calls are safe.
type Pipeline struct {
	normalizer *Normalizer
	validator  *Validator
	sink       *StorageSink
	index      *HashIndex
	thresholds Thresholds
	pool       *ants.Pool
	recorder   Recorder
	logger     *slog.Logger

	// Settings collected from options and used to build the stages
	embedder   ai.Embedder
	now        func() time.Time
	maxRetries int
	retryDelay time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size used by ProcessBatch.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets the logger. A nil logger selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithHashIndex shares an existing hash index with the pipeline.
func WithHashIndex(index *HashIndex) Option {
	return func(p *Pipeline) error {
		if index == nil {
			return ErrHashIndexRequired
		}
		p.index = index
		return nil
	}
}

// WithEmbedder embeds stored chunks so they can be searched later.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(p *Pipeline) error {
		p.embedder = embedder
		return nil
	}
}

// WithThresholds overrides the per-source relevance thresholds.
func WithThresholds(t Thresholds) Option {
	return func(p *Pipeline) error {
		p.thresholds = t
		return nil
	}
}

// WithRecorder reports stage outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) error {
		if r == nil {
			r = noopRecorder{}
		}
		p.recorder = r
		return nil
	}
}

// WithClock sets the time source for processed_at and stored_at stamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		p.now = now
		return nil
	}
}

// WithStorageRetry sets how persistence failures are retried.
func WithStorageRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		p.maxRetries = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// NewPipeline creates a pipeline writing accepted content to repo.
func NewPipeline(repo storage.ChunkRepository, scorer RelevanceScorer, opts ...Option) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if scorer == nil {
		return nil, ErrScorerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		pool:       pool,
		thresholds: DefaultThresholds(),
		recorder:   noopRecorder{},
		logger:     slog.Default(),
		now:        time.Now,
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if p.index == nil {
		p.index = NewHashIndex()
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.logger = p.logger.With("component", "pipeline")

	p.normalizer = NewNormalizer(p.now)

	p.validator, err = NewValidator(p.index, scorer, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	p.sink, err = NewStorageSink(repo, SinkConfig{
		Embedder:   p.embedder,
		MaxRetries: p.maxRetries,
		RetryDelay: p.retryDelay,
		Now:        p.now,
		Logger:     p.logger,
	})
	if err != nil {
		p.Release()
		return nil, err
	}

	return p, nil
}

// HashIndex returns the index of accepted content hashes.
func (p *Pipeline) HashIndex() *HashIndex {
	return p.index
}

// Process runs one item through normalize, validate and store, stopping at
// the first rejection. It never returns an error; failures are reported in
// the Result.
func (p *Pipeline) Process(ctx context.Context, item Item, threshold float64) Result {
	slot := NewSlot()

	status := p.normalizer.Normalize(slot, item.Content, item.Metadata, item.SourceType)
	p.recorder.RecordStage(StageNormalize, "ok")
	res := Result{Status: status, Stage: StageNormalize}

	validation := p.validator.Validate(ctx, slot, threshold)
	res.Stage = StageValidate
	res.Status = validation.Status
	res.ContentHash = validation.ContentHash
	res.Score = validation.Score
	if !validation.Passed {
		res.Reason = validation.Reason
		p.recorder.RecordStage(StageValidate, string(validation.Reason))
		return res
	}
	outcome := "passed"
	if validation.FailedOpen {
		outcome = "failed_open"
	}
	p.recorder.RecordStage(StageValidate, outcome)

	stored := p.sink.Store(ctx, slot)
	res.Stage = StageStore
	res.Status = stored.Status
	res.Chunks = stored.Chunks
	if !stored.Stored {
		// The hash was reserved by validation; release it so a resubmission
		// after the backend recovers is not taken for a duplicate
		p.index.Remove(validation.ContentHash)
		res.Reason = ReasonStorageFailed
		p.recorder.RecordStage(StageStore, "error")
		return res
	}
	p.recorder.RecordStage(StageStore, "stored")
	res.Accepted = true
	return res
}

// ProcessDefault processes item with the threshold configured for its source type.
func (p *Pipeline) ProcessDefault(ctx context.Context, item Item) Result {
	return p.Process(ctx, item, p.thresholds.For(item.SourceType))
}

// ProcessBatch processes items concurrently on the worker pool and returns
// results in input order. Identical items in one batch are accepted once.
func (p *Pipeline) ProcessBatch(ctx context.Context, items []Item) []Result {
	results := make([]Result, len(items))
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			results[i] = p.ProcessDefault(ctx, item)
		})
		if err != nil {
			// Pool closed or overloaded; run inline rather than drop the item
			p.logger.Warn("worker pool rejected item, processing inline", "err", err)
			results[i] = p.ProcessDefault(ctx, item)
			wg.Done()
		}
	}

	wg.Wait()
	return results
}

// Release frees the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
