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


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/gleaner/ai"
	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/storage"
)

// Config tunes a reembedding run.
type Config struct {
	BatchSize      int           // Chunks per embedding request
	ReportInterval int           // Chunks between progress lines
	MaxRetries     int           // Attempts per embed or update call
	RetryDelay     time.Duration // Base backoff delay
}

// DefaultConfig returns the settings the reembed command starts from.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

// Reembedder recomputes the vector of every stored chunk, for example after
// switching embedding models.
type Reembedder struct {
	repo      storage.ChunkRepository
	config    *Config
	out       io.Writer
	processor *BatchProcessor
	iterator  *ChunkIterator
	now       func() time.Time
}

// NewReembedder creates a reembedder writing progress to out, which may be nil.
func NewReembedder(repo storage.ChunkRepository, embedder ai.Embedder, config *Config, out io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if out == nil {
		out = io.Discard
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		out:       out,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewChunkIterator(repo, config.BatchSize),
		now:       time.Now,
	}, nil
}

// Run reembeds every chunk batch by batch and returns how many were
// rewritten. On error the count covers the batches already committed.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	total, err := r.repo.CountChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	if total == 0 {
		fmt.Fprintln(r.out, "No chunks found; nothing to reembed")
		return 0, nil
	}

	fmt.Fprintf(r.out, "Starting reembedding of %d chunks (batch size: %d)\n", total, r.iterator.batchSize)
	prog := newProgress(r.out, total, r.config.ReportInterval, r.now)

	done := 0
	err = r.iterator.ForEach(ctx, func(batch []*core.Chunk) error {
		if err := r.processor.Process(ctx, batch); err != nil {
			return fmt.Errorf("chunks %d-%d: %w", done, done+len(batch)-1, err)
		}
		done += len(batch)
		prog.Update(done)
		return nil
	})
	if err != nil {
		return done, err
	}
	prog.Finish()

	elapsed := prog.Elapsed()
	fmt.Fprintf(r.out, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		done, elapsed.Round(time.Millisecond), float64(done)/max(elapsed.Seconds(), 1e-9))
	return done, nil
}
