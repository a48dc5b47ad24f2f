package ingestion

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrSinkRequired is returned when a sink is not provided.
	ErrSinkRequired = errors.New("sink required")

	// ErrInvalidMaxAttempts is returned when max attempts is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

	// ErrInvalidRetryDelay is returned when the retry delay is negative.
	ErrInvalidRetryDelay = errors.New("retry delay must not be negative")

	// ErrAlreadyRunning is returned when Run is called on a pipeline that
	// has not finished its previous run.
	ErrAlreadyRunning = errors.New("pipeline is already running")
)
