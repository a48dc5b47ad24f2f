// Package mock provides a test double for ai.Embedder.
//
// The mock lets pipeline tests run without an embedding service and gives
// them deterministic vectors plus a record of every text that was sent.
//
// # Usage in Tests
//
//	// Default behavior: deterministic vectors from a hash of the text
//	embedder := mock.NewMockEmbedder()
//	vector, err := embedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder = mock.NewMockEmbedder().
//	    WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
//	        return []float32{0.1, 0.2, 0.3}, nil
//	    })
//
//	// Inspect what was sent
//	count := embedder.CallCount()
//	texts := embedder.Texts()
package mock
