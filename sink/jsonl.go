package sink

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/poiesic/recembed/core"
	"github.com/poiesic/recembed/ingestion"
)

// line is the JSON Lines representation of one embedding.
type line struct {
	Source string       `json:"source"`
	Index  int          `json:"index"`
	Text   string       `json:"text"`
	Record *core.Record `json:"record"`
	Vector []float32    `json:"vector"`
}

// JSONLines writes one JSON object per embedding.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

var _ ingestion.Sink = (*JSONLines)(nil)

// NewJSONLines creates a JSON Lines sink writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLines{enc: enc}
}

// Emit writes the embedding as one JSON object followed by a newline.
func (j *JSONLines) Emit(ctx context.Context, embedding *core.Embedding) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.enc.Encode(line{
		Source: embedding.Source,
		Index:  embedding.Index,
		Text:   embedding.Text,
		Record: embedding.Record,
		Vector: embedding.Vector,
	})
}
