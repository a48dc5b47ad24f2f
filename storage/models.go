package storage

import (
	"time"

	"github.com/poiesic/recembed/core"
)

// StoredEmbedding is the persisted form of a core.Embedding.
type StoredEmbedding struct {
	ID         core.ID
	Source     string
	Index      int
	Text       string
	Vector     []float32
	InsertedAt time.Time
}

// SearchResult pairs a stored embedding with its similarity score.
type SearchResult struct {
	Embedding *StoredEmbedding
	Score     float32
}

// NewStoredEmbedding converts a pipeline embedding to its stored form.
// InsertedAt is left zero for the repository to fill.
func NewStoredEmbedding(e *core.Embedding) *StoredEmbedding {
	return &StoredEmbedding{
		ID:     core.IDFromContent(e.Text),
		Source: e.Source,
		Index:  e.Index,
		Text:   e.Text,
		Vector: e.Vector,
	}
}
