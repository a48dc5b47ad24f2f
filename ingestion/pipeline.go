package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/recembed/ai"
	"github.com/poiesic/recembed/core"
	"github.com/poiesic/recembed/normalize"
	"github.com/poiesic/recembed/source"
)

// Pipeline orchestrates loading, normalizing and embedding the records of
// one input file. Records are embedded strictly one at a time, in load order.
type Pipeline struct {
	embedder       ai.Embedder
	sink           Sink
	sourceOpts     source.Options
	progressOut    io.Writer
	reportInterval int
	maxAttempts    int
	retryDelay     time.Duration
	skipFailed     bool
	logger         *slog.Logger

	mu        sync.Mutex
	state     State
	processed int
}

// Result summarizes a run.
type Result struct {
	Source   string
	Total    int // Records loaded
	Embedded int // Records embedded and emitted
	Skipped  int // Records whose embedding failed in skip mode
	Stats    []normalize.Stats
	Elapsed  time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithSourceOptions sets the options handed to the record sources.
// Zero fields keep their defaults.
func WithSourceOptions(opts source.Options) Option {
	return func(p *Pipeline) error {
		p.sourceOpts = opts.WithDefaults()
		return nil
	}
}

// WithContentField sets the field holding the text to embed.
// Default is "content".
func WithContentField(field string) Option {
	return func(p *Pipeline) error {
		if field != "" {
			p.sourceOpts.ContentField = field
		}
		return nil
	}
}

// WithProgress enables progress output on w, redrawn every interval records.
// Progress is disabled when w is nil.
func WithProgress(w io.Writer, interval int) Option {
	return func(p *Pipeline) error {
		if interval < 1 {
			interval = 1
		}
		p.progressOut = w
		p.reportInterval = interval
		return nil
	}
}

// WithMaxAttempts sets how many times a record's embedding request is tried
// before the failure counts. Default is 1, no retry.
func WithMaxAttempts(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = n
		return nil
	}
}

// WithRetryDelay sets the base delay between attempts, doubled after each
// failed attempt. Default is 1s.
func WithRetryDelay(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d < 0 {
			return ErrInvalidRetryDelay
		}
		p.retryDelay = d
		return nil
	}
}

// WithSkipFailed makes a record whose embedding fails a logged skip instead
// of a fatal error. Default is false.
func WithSkipFailed(skip bool) Option {
	return func(p *Pipeline) error {
		p.skipFailed = skip
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(embedder ai.Embedder, sink Sink, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if sink == nil {
		return nil, ErrSinkRequired
	}

	p := &Pipeline{
		embedder:       embedder,
		sink:           sink,
		sourceOpts:     source.DefaultOptions(),
		reportInterval: 1,
		maxAttempts:    1,
		retryDelay:     time.Second,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

// State returns the current state of the pipeline.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Processed returns the progress counter of the current or last run.
// It counts embedded records plus records skipped in skip mode.
func (p *Pipeline) Processed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed
}

// Run processes the file at path: it selects a source by extension, loads
// every record, normalizes numeric fields once over the full set, then
// cleans and embeds each record in order, handing every vector to the sink.
//
// The returned Result is non-nil even on failure and reflects the work done
// before the run stopped. Every failure leaves the pipeline in StateFailed.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	p.mu.Lock()
	if p.state != StateIdle && !p.state.Terminal() {
		p.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	p.processed = 0
	p.state = StateSelectingSource
	p.mu.Unlock()

	start := time.Now()
	result := &Result{Source: path}
	logger := p.logger.With("source", path)

	src, err := source.ForPath(path, p.sourceOpts)
	if err != nil {
		return p.fail(logger, result, start, err)
	}

	p.transition(StateLoading)
	records, err := src.Load(ctx, path)
	if err != nil {
		return p.fail(logger, result, start, err)
	}
	result.Total = len(records)
	logger.Info("loaded records", "records", len(records))

	p.transition(StateNormalizing)
	stats, err := normalize.Fields(records, p.sourceOpts.ContentField)
	if err != nil {
		return p.fail(logger, result, start, err)
	}
	result.Stats = stats
	for _, s := range stats {
		logger.Debug("normalized field", "field", s.Field, "min", s.Min, "max", s.Max)
	}

	p.transition(StateIterating)
	var tracker *ProgressTracker
	if p.progressOut != nil {
		tracker = NewProgressTracker(p.progressOut, len(records), p.reportInterval)
		tracker.Start()
	}

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			tracker.abort()
			return p.fail(logger, result, start, err)
		}

		text := normalize.Text(core.ContentOf(record, p.sourceOpts.ContentField))

		vector, err := p.embed(ctx, text)
		if err != nil {
			if p.skipFailed && ctx.Err() == nil {
				logger.Warn("skipping record", "record", i+1, "err", err)
				result.Skipped++
				p.advance()
				tracker.increment()
				continue
			}
			tracker.abort()
			return p.fail(logger, result, start, fmt.Errorf("record %d: %w", i+1, err))
		}

		p.advance()
		tracker.increment()

		embedding := &core.Embedding{
			Source: path,
			Index:  i,
			Record: record,
			Text:   text,
			Vector: vector,
		}
		if err := p.sink.Emit(ctx, embedding); err != nil {
			tracker.abort()
			return p.fail(logger, result, start, fmt.Errorf("record %d: emit: %w", i+1, err))
		}
		result.Embedded++
	}

	tracker.finish()
	result.Elapsed = time.Since(start)
	p.transition(StateDone)

	logger.Info("run complete",
		"records", result.Total,
		"embedded", result.Embedded,
		"skipped", result.Skipped,
		"elapsed", result.Elapsed)

	return result, nil
}

// embed requests the vector for one text, retrying when configured to.
func (p *Pipeline) embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		v, err := p.embedder.EmbedText(ctx, text)
		if err != nil {
			return err
		}
		vector = v
		return nil
	}, p.maxAttempts, p.retryDelay)
	if err != nil {
		return nil, err
	}
	return vector, nil
}

func (p *Pipeline) transition(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Debug("state transition", "from", p.state, "to", s)
	p.state = s
}

func (p *Pipeline) advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed++
}

func (p *Pipeline) fail(logger *slog.Logger, result *Result, start time.Time, err error) (*Result, error) {
	result.Elapsed = time.Since(start)
	p.mu.Lock()
	logger.Error("run failed", "state", p.state, "processed", p.processed, "err", err)
	p.state = StateFailed
	p.mu.Unlock()
	return result, err
}

// nil-safe tracker helpers so the loop reads the same with progress off.

func (p *ProgressTracker) increment() {
	if p != nil {
		p.Increment(1)
	}
}

func (p *ProgressTracker) abort() {
	if p != nil {
		p.Abort()
	}
}

func (p *ProgressTracker) finish() {
	if p != nil {
		p.Finish()
	}
}
