package ingestion

import (
	"context"

	"github.com/poiesic/recembed/core"
)

// Sink receives each embedding as soon as it is produced, in load order.
// An error returned by Emit ends the run.
type Sink interface {
	Emit(ctx context.Context, embedding *core.Embedding) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, embedding *core.Embedding) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, embedding *core.Embedding) error {
	return f(ctx, embedding)
}
