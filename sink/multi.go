package sink

import (
	"context"

	"github.com/poiesic/recembed/core"
	"github.com/poiesic/recembed/ingestion"
)

// Multi hands each embedding to every sink in order and stops at the first
// error.
type Multi []ingestion.Sink

var _ ingestion.Sink = Multi(nil)

// NewMulti returns a Multi over the non-nil sinks.
func NewMulti(sinks ...ingestion.Sink) Multi {
	m := make(Multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

// Emit forwards the embedding to each sink in order and returns the first
// error, skipping the sinks after it.
func (m Multi) Emit(ctx context.Context, embedding *core.Embedding) error {
	for _, s := range m {
		if err := s.Emit(ctx, embedding); err != nil {
			return err
		}
	}
	return nil
}
