package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/recembed/ai"
	"github.com/poiesic/recembed/normalize"
	"github.com/poiesic/recembed/storage"
)

// DefaultMinSimilarity is the score below which hits are dropped.
const DefaultMinSimilarity float32 = 0.60

// Searcher provides semantic search over stored embeddings.
type Searcher struct {
	repository    storage.EmbeddingRepository
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the cosine similarity threshold, in [-1, 1].
func WithMinSimilarity(score float32) Option {
	return func(s *Searcher) error {
		if score < -1 || score > 1 {
			return fmt.Errorf("%w: min similarity %v outside [-1, 1]", storage.ErrInvalidQuery, score)
		}
		s.minSimilarity = score
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repository storage.EmbeddingRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		repository:    repository,
		embedder:      embedder,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar returns up to maxHits stored embeddings most similar to query,
// highest score first.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*storage.SearchResult, error) {
	cleaned := normalize.Text(query)
	if cleaned == "" {
		return nil, ErrEmptyQuery
	}

	embedding, err := s.embedder.EmbedText(ctx, cleaned)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", cleaned, "err", err)
		return nil, err
	}

	results, err := s.repository.FindSimilar(ctx, embedding, s.minSimilarity, maxHits)
	if err != nil {
		s.logger.Error("error querying for similar embeddings", "err", err)
		return nil, err
	}

	s.logger.Debug("search complete", "query", cleaned, "hits", len(results))
	return results, nil
}
