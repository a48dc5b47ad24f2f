package ai

import "context"

// Embedder generates vector embeddings from text.
// Calls are independent; the caller decides ordering and concurrency.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string
	// with exactly one request to the embedding service.
	// Every failure wraps core.ErrEmbeddingRequest.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
