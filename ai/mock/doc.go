// Package mock provides test doubles for the ai interfaces.
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
// Without hooks, MockEmbedder returns deterministic vectors seeded from a
// hash of the text, so identical text always embeds identically.
package mock
