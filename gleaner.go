// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gleaner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poiesic/gleaner/ai"
	"github.com/poiesic/gleaner/ai/openai"
	"github.com/poiesic/gleaner/collector"
	"github.com/poiesic/gleaner/collector/arxiv"
	"github.com/poiesic/gleaner/collector/web"
	"github.com/poiesic/gleaner/config"
	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/ingestion"
	"github.com/poiesic/gleaner/metrics"
	"github.com/poiesic/gleaner/relevance"
	"github.com/poiesic/gleaner/scheduler"
	"github.com/poiesic/gleaner/search"
	"github.com/poiesic/gleaner/storage"
	"github.com/poiesic/gleaner/storage/badger"
)

// ResearchSource is the collector scheduled research jobs run against.
const ResearchSource = "arxiv"

// ErrResearchSourceMissing is returned by Open when custom sources omit the
// research source.
var ErrResearchSourceMissing = errors.New("research source " + ResearchSource + " is not registered")

// Gleaner wires storage, relevance scoring, the ingestion pipeline, the
// collectors and the research scheduler together.
type Gleaner struct {
	config    *config.Config
	backend   *badger.Backend
	repo      storage.ChunkRepository
	provider  ai.AIProvider
	metrics   *metrics.Metrics
	pipeline  *ingestion.Pipeline
	sources   *collector.Registry
	runner    *collector.Runner
	scheduler *scheduler.Scheduler
	commands  *scheduler.Commands
	searcher  *search.Searcher
	logger    *slog.Logger
}

// Option configures Open.
type Option func(*options)

type options struct {
	provider   ai.AIProvider
	inMemory   bool
	logger     *slog.Logger
	metrics    *metrics.Metrics
	httpClient *http.Client
	sources    []collector.Source
}

// WithProvider replaces the OpenAI-compatible provider built from config.
func WithProvider(p ai.AIProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithInMemory keeps the chunk store in memory and ignores DBPath.
func WithInMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics shares an existing metrics set instead of creating one.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithHTTPClient sets the client the built-in collectors use.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithSources replaces the built-in collectors.
func WithSources(sources ...collector.Source) Option {
	return func(o *options) {
		o.sources = sources
	}
}

// Open builds a Gleaner from cfg. A nil cfg uses config.Default. The hash
// index is seeded from content already in the store, so duplicates are
// rejected across restarts. Call Start to begin firing scheduled jobs.
func Open(cfg *config.Config, opts ...Option) (g *Gleaner, err error) {
	if cfg == nil {
		cfg = config.Default()
	}
	o := &options{logger: slog.Default(), httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}

	g = &Gleaner{config: cfg, metrics: o.metrics, logger: o.logger.With("component", "gleaner")}

	// Anything built before a failure is torn down in reverse order
	var closers []func() error
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				if cerr := closers[i](); cerr != nil {
					g.logger.Error("error during cleanup", "err", cerr)
				}
			}
			g = nil
		}
	}()

	g.backend, err = badger.OpenBackend(cfg.DBPath, o.inMemory)
	if err != nil {
		return nil, err
	}
	closers = append(closers, g.backend.Close)

	g.repo, err = badger.NewChunkRepository(g.backend)
	if err != nil {
		return nil, err
	}
	closers = append(closers, g.repo.Close)

	hashes, err := g.repo.ContentHashes(context.Background())
	if err != nil {
		return nil, fmt.Errorf("seed hash index: %w", err)
	}
	index := ingestion.NewHashIndex(hashes...)
	g.metrics.SetHashIndexSize(index.Len())

	g.provider = o.provider
	if g.provider == nil {
		g.provider, err = openai.NewProvider(cfg.AIConfig())
		if err != nil {
			return nil, err
		}
	}
	closers = append(closers, g.provider.Close)

	scorer, err := relevance.NewScorer(func() (ai.Embedder, error) {
		return g.provider.Embedder(), nil
	}, relevance.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	g.pipeline, err = ingestion.NewPipeline(g.repo, scorer,
		ingestion.WithHashIndex(index),
		ingestion.WithEmbedder(g.provider.Embedder()),
		ingestion.WithThresholds(cfg.Thresholds),
		ingestion.WithPoolSize(cfg.Pipeline.PoolSize),
		ingestion.WithStorageRetry(cfg.Pipeline.StoreRetries, cfg.Pipeline.RetryDelay),
		ingestion.WithRecorder(stageRecorder{metrics: g.metrics, index: index}),
		ingestion.WithLogger(o.logger),
	)
	if err != nil {
		return nil, err
	}
	closers = append(closers, func() error { g.pipeline.Release(); return nil })

	sources := o.sources
	if sources == nil {
		sources, err = defaultSources(cfg, o.httpClient)
		if err != nil {
			return nil, err
		}
	}
	g.sources = collector.NewRegistry(sources...)

	g.runner, err = collector.NewRunner(g.pipeline, cfg.Thresholds, o.logger, collector.WithRecorder(g.metrics))
	if err != nil {
		return nil, err
	}

	research, err := g.sources.Resolve(ResearchSource)
	if err != nil {
		return nil, ErrResearchSourceMissing
	}
	g.scheduler, err = scheduler.New(g.runner.Task(research),
		scheduler.WithBatchSize(cfg.Scheduler.BatchSize),
		scheduler.WithPoolSize(cfg.Scheduler.PoolSize),
		scheduler.WithRecorder(g.metrics),
		scheduler.WithLogger(o.logger),
	)
	if err != nil {
		return nil, err
	}
	g.commands = scheduler.NewCommands(g.scheduler)

	g.searcher, err = search.NewSearcher(g.repo, g.provider, search.WithLogger(o.logger))
	if err != nil {
		g.scheduler.Stop()
		return nil, err
	}

	g.logger.Info("gleaner opened", "path", cfg.DBPath, "in_memory", o.inMemory,
		"known_hashes", index.Len(), "sources", g.sources.Names())
	return g, nil
}

func defaultSources(cfg *config.Config, client *http.Client) ([]collector.Source, error) {
	sources := []collector.Source{
		arxiv.New(arxiv.WithBaseURL(cfg.Arxiv.BaseURL), arxiv.WithHTTPClient(client)),
	}
	if cfg.Tavily.APIKey == "" {
		return sources, nil
	}
	src, err := web.New(cfg.Tavily.APIKey,
		web.WithBaseURL(cfg.Tavily.BaseURL),
		web.WithHTTPClient(client),
		web.WithMaxResults(cfg.Tavily.MaxResults),
	)
	if err != nil {
		return nil, err
	}
	return append(sources, src), nil
}

// Start begins firing scheduled research jobs.
func (g *Gleaner) Start() {
	g.scheduler.Start()
}

// Close stops the scheduler and releases every resource.
func (g *Gleaner) Close() error {
	g.scheduler.Stop()
	g.pipeline.Release()

	if err := g.provider.Close(); err != nil {
		g.logger.Error("error closing AI provider", "err", err)
	}
	if err := g.repo.Close(); err != nil {
		g.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := g.backend.Close(); err != nil {
		g.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Ingest runs one item through the pipeline with its source type's threshold.
func (g *Gleaner) Ingest(ctx context.Context, item ingestion.Item) ingestion.Result {
	return g.pipeline.ProcessDefault(ctx, item)
}

// IngestWithThreshold runs one item through the pipeline with an explicit
// relevance threshold.
func (g *Gleaner) IngestWithThreshold(ctx context.Context, item ingestion.Item, threshold float64) ingestion.Result {
	return g.pipeline.Process(ctx, item, threshold)
}

// IngestBatch runs items through the pipeline concurrently.
func (g *Gleaner) IngestBatch(ctx context.Context, items []ingestion.Item) []ingestion.Result {
	return g.pipeline.ProcessBatch(ctx, items)
}

// Collect fetches from the named source and ingests what it returns.
func (g *Gleaner) Collect(ctx context.Context, source, query string, cursor, limit int) (collector.Report, error) {
	src, err := g.sources.Resolve(source)
	if err != nil {
		return collector.Report{}, err
	}
	return g.runner.Collect(ctx, src, query, cursor, limit)
}

// Command interprets a scheduling command and returns its reply.
func (g *Gleaner) Command(text string) string {
	return g.commands.Handle(text)
}

// Jobs lists the live research jobs.
func (g *Gleaner) Jobs() []scheduler.JobInfo {
	return g.scheduler.Jobs()
}

// DrainResults removes and returns every queued research result.
func (g *Gleaner) DrainResults() []string {
	return g.scheduler.DrainResults()
}

// Search returns stored chunks similar to query.
func (g *Gleaner) Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return g.searcher.FindSimilar(ctx, query, maxHits)
}

// Config returns the configuration the Gleaner was opened with.
func (g *Gleaner) Config() *config.Config {
	return g.config
}

func (g *Gleaner) Repository() storage.ChunkRepository {
	return g.repo
}

func (g *Gleaner) Pipeline() *ingestion.Pipeline {
	return g.pipeline
}

func (g *Gleaner) Sources() *collector.Registry {
	return g.sources
}

func (g *Gleaner) Scheduler() *scheduler.Scheduler {
	return g.scheduler
}

func (g *Gleaner) Searcher() *search.Searcher {
	return g.searcher
}

func (g *Gleaner) Metrics() *metrics.Metrics {
	return g.metrics
}

// stageRecorder forwards stage outcomes to the metrics and keeps the hash
// index gauge current.
type stageRecorder struct {
	metrics *metrics.Metrics
	index   *ingestion.HashIndex
}

func (r stageRecorder) RecordStage(stage, outcome string) {
	r.metrics.RecordStage(stage, outcome)
	if stage == ingestion.StageValidate {
		r.metrics.SetHashIndexSize(r.index.Len())
	}
}
