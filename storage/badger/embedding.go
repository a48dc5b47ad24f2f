package badger

import (
	"context"
	"errors"
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recembed/core"
	"github.com/poiesic/recembed/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// newEmbeddingRepository wraps an open backend.
func newEmbeddingRepository(backend *Backend) *EmbeddingRepository {
	return &EmbeddingRepository{backend: backend}
}

// NewEmbeddingRepository opens (creating if needed) a store at path.
// Closing the repository closes the database.
func NewEmbeddingRepository(path string) (storage.EmbeddingRepository, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newEmbeddingRepository(backend), nil
}

// Close closes the underlying database.
func (r *EmbeddingRepository) Close() error {
	if r.backend.IsClosed() {
		return nil
	}
	return r.backend.Close()
}

// Emit stores an embedding, replacing any earlier one for the same text.
func (r *EmbeddingRepository) Emit(ctx context.Context, embedding *core.Embedding) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := storage.NewStoredEmbedding(embedding)
	key := makeEmbeddingKey(stored.ID)

	return r.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := readEmbedding(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			stored.InsertedAt = existing.InsertedAt
		} else {
			stored.InsertedAt = time.Now().UTC()
		}

		if err := tx.Set(key, storage.MarshalEmbedding(stored)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Get retrieves a stored embedding by ID.
func (r *EmbeddingRepository) Get(ctx context.Context, id core.ID) (*storage.StoredEmbedding, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var stored *storage.StoredEmbedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		stored, err = readEmbedding(tx, makeEmbeddingKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, storage.ErrNotFound
	}
	return stored, nil
}

// GetByText retrieves the stored embedding for a cleaned text.
func (r *EmbeddingRepository) GetByText(ctx context.Context, text string) (*storage.StoredEmbedding, error) {
	return r.Get(ctx, core.IDFromContent(text))
}

// Count returns the number of stored embeddings.
func (r *EmbeddingRepository) Count(ctx context.Context) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	return count, err
}

// FindSimilar scans every stored embedding and scores it by cosine
// similarity against vector.
func (r *EmbeddingRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*storage.SearchResult, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if len(vector) == 0 || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*storage.SearchResult

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var stored *storage.StoredEmbedding
			err := iter.Item().Value(func(val []byte) error {
				var err error
				stored, err = storage.UnmarshalEmbedding(val)
				return err
			})
			if err != nil {
				return err
			}

			// Skip embeddings from a different model
			if len(stored.Vector) != len(vector) {
				continue
			}

			similarity := cosineSimilarity(vector, stored.Vector)
			if similarity >= minSimilarity {
				results = append(results, &storage.SearchResult{
					Embedding: stored,
					Score:     similarity,
				})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *storage.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// readEmbedding reads an embedding within a transaction.
// Returns nil, nil if the key doesn't exist.
func readEmbedding(tx *badger.Txn, key []byte) (*storage.StoredEmbedding, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var stored *storage.StoredEmbedding
	err = item.Value(func(val []byte) error {
		var err error
		stored, err = storage.UnmarshalEmbedding(val)
		return err
	})
	return stored, err
}

// cosineSimilarity of two equal-length vectors; 0 when either is all zeros.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
