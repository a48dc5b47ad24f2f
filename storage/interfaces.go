package storage

import (
	"context"

	"github.com/poiesic/recembed/core"
)

// EmbeddingRepository persists the embeddings produced by a pipeline run.
// It satisfies ingestion.Sink through Emit, so it can be attached to a run
// like any other sink. Implementations must be thread-safe.
type EmbeddingRepository interface {
	// Emit stores an embedding keyed by the ID of its cleaned text.
	// Storing the same text again replaces the vector and origin but keeps
	// the original InsertedAt.
	Emit(ctx context.Context, embedding *core.Embedding) error

	// Get retrieves a stored embedding by ID.
	// Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id core.ID) (*StoredEmbedding, error)

	// GetByText retrieves the stored embedding for a cleaned text.
	// Returns ErrNotFound if it doesn't exist.
	GetByText(ctx context.Context, text string) (*StoredEmbedding, error)

	// Count returns the number of stored embeddings.
	Count(ctx context.Context) (int, error)

	// FindSimilar returns stored embeddings whose cosine similarity to
	// vector is at least minSimilarity, highest first, up to limit results.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*SearchResult, error)

	// Close releases the repository and its backend.
	Close() error
}
