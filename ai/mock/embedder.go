package mock

import (
	"context"
	"hash/fnv"
	"sync/atomic"

	"github.com/poiesic/gleaner/ai"
)

// Dimensions is the length of generated vectors.
const Dimensions = 384

// MockEmbedder returns vectors seeded from a hash of the text, so equal
// texts always embed identically. The hooks override that per test.
type MockEmbedder struct {
	EmbedTextFunc  func(ctx context.Context, text string) ([]float32, error)
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	calls atomic.Int64
}

var _ ai.Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder returns an embedder with no hooks set.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	return m.embedOne(ctx, text)
}

// EmbedTexts counts as a single call regardless of len(texts).
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := m.embedOne(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// CallCount reports EmbedText plus EmbedTexts calls.
func (m *MockEmbedder) CallCount() int {
	return int(m.calls.Load())
}

func (m *MockEmbedder) embedOne(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return seededVector(text), nil
}

// seededVector fills a vector from a linear congruential generator seeded
// with the FNV-1a hash of text.
func seededVector(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	v := make([]float32, Dimensions)
	for i := range v {
		seed = seed*1664525 + 1013904223
		v[i] = float32(seed%1000) / 1000.0
	}
	return v
}

// MockProvider serves a MockEmbedder.
type MockProvider struct {
	embedder *MockEmbedder
}

// NewMockProvider wraps a fresh MockEmbedder.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithEmbedder(NewMockEmbedder())
}

// NewMockProviderWithEmbedder wraps embedder so tests can keep a handle on it.
func NewMockProviderWithEmbedder(embedder *MockEmbedder) ai.AIProvider {
	return &MockProvider{embedder: embedder}
}

func (p *MockProvider) Embedder() ai.Embedder { return p.embedder }

func (p *MockProvider) Close() error { return nil }
