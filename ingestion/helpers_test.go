package ingestion

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/relevance"
	"github.com/poiesic/gleaner/storage"
	"github.com/poiesic/gleaner/storage/badger"
	"github.com/stretchr/testify/require"
)

// fakeScorer returns a fixed similarity and compares it against the threshold.
type fakeScorer struct {
	score    float64
	failOpen bool
	calls    atomic.Int32
}

func (f *fakeScorer) Score(_ context.Context, _, _ string, threshold float64) relevance.Result {
	f.calls.Add(1)
	if f.failOpen {
		return relevance.Result{
			Score:      relevance.NeutralScore,
			Threshold:  threshold,
			Relevant:   true,
			FailedOpen: true,
			Err:        errors.New("backend unavailable"),
		}
	}
	return relevance.Result{Score: f.score, Threshold: threshold, Relevant: f.score >= threshold}
}

// flakyRepo fails AddChunks while failing is set.
type flakyRepo struct {
	storage.ChunkRepository
	failing atomic.Bool
	adds    atomic.Int32
}

func (r *flakyRepo) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	r.adds.Add(1)
	if r.failing.Load() {
		return nil, errors.New("disk full")
	}
	return r.ChunkRepository.AddChunks(ctx, chunks...)
}

// stageRecorder collects stage outcomes.
type stageRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *stageRecorder) RecordStage(stage, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, stage+":"+outcome)
}

func newMemoryRepo(t *testing.T) storage.ChunkRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryChunkRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
}

const aiText = "Artificial intelligence research shows promising results in neural networks " +
	"for classification tasks used widely in industry today."
