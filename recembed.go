// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package recembed wires configuration, the embedding client and the output
// sinks into an ingestion pipeline.
package recembed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/poiesic/recembed/ai"
	"github.com/poiesic/recembed/ai/openai"
	"github.com/poiesic/recembed/config"
	"github.com/poiesic/recembed/ingestion"
	"github.com/poiesic/recembed/sink"
	"github.com/poiesic/recembed/storage"
	"github.com/poiesic/recembed/storage/badger"
)

// Runner owns the resources of one CLI invocation.
type Runner struct {
	config   *config.AppConfig
	embedder ai.Embedder
	sink     ingestion.Sink
	store    storage.EmbeddingRepository
	progress io.Writer
	closers  []io.Closer
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*runnerOptions)

type runnerOptions struct {
	embedder ai.Embedder
	stdout   io.Writer
	progress io.Writer
	logger   *slog.Logger
}

// WithEmbedder replaces the OpenAI-compatible client, skipping credential
// lookup.
func WithEmbedder(embedder ai.Embedder) RunnerOption {
	return func(o *runnerOptions) {
		o.embedder = embedder
	}
}

// WithStdout sets where the console sink prints. Default is os.Stdout.
func WithStdout(w io.Writer) RunnerOption {
	return func(o *runnerOptions) {
		o.stdout = w
	}
}

// WithProgressWriter sets where progress is drawn. Nil disables progress.
// Default is os.Stderr.
func WithProgressWriter(w io.Writer) RunnerOption {
	return func(o *runnerOptions) {
		o.progress = w
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(o *runnerOptions) {
		o.logger = logger
	}
}

// NewRunner validates cfg, builds the embedding client and opens every
// configured sink. Without WithEmbedder the credential is read from the
// environment, so a missing key fails here with core.ErrMissingCredential
// before any input is touched.
func NewRunner(cfg *config.AppConfig, opts ...RunnerOption) (*Runner, error) {
	options := &runnerOptions{
		stdout:   os.Stdout,
		progress: os.Stderr,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		apiKey, err := cfg.Embedder.APIKey()
		if err != nil {
			return nil, err
		}
		embedder, err = openai.NewEmbedder(cfg.Embedder.AIConfig(apiKey))
		if err != nil {
			return nil, err
		}
	}

	r := &Runner{
		config:   cfg,
		embedder: embedder,
		progress: options.progress,
		logger:   options.logger,
	}

	var sinks []ingestion.Sink
	if !cfg.Sinks.Quiet {
		sinks = append(sinks, sink.NewConsole(options.stdout))
	}

	if cfg.Sinks.JSONL != "" {
		f, err := os.Create(cfg.Sinks.JSONL)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.closers = append(r.closers, f)
		sinks = append(sinks, sink.NewJSONLines(f))
	}

	if cfg.Sinks.Store != "" {
		store, err := badger.NewEmbeddingRepository(cfg.Sinks.Store)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.store = store
		r.closers = append(r.closers, store)
		sinks = append(sinks, store)
	}

	r.sink = sink.NewMulti(sinks...)
	return r, nil
}

// Run processes one input file.
func (r *Runner) Run(ctx context.Context, path string) (*ingestion.Result, error) {
	sourceOpts, err := r.config.Pipeline.SourceOptions()
	if err != nil {
		return nil, err
	}

	opts := []ingestion.Option{
		ingestion.WithLogger(r.logger),
		ingestion.WithSourceOptions(sourceOpts),
		ingestion.WithMaxAttempts(r.config.Pipeline.MaxAttempts),
		ingestion.WithRetryDelay(r.config.Pipeline.RetryDelay),
		ingestion.WithSkipFailed(r.config.Pipeline.SkipFailed),
	}
	if r.progress != nil {
		opts = append(opts, ingestion.WithProgress(r.progress, r.config.Pipeline.ReportInterval))
	}

	pipeline, err := ingestion.NewPipeline(r.embedder, r.sink, opts...)
	if err != nil {
		return nil, err
	}
	return pipeline.Run(ctx, path)
}

// Store returns the embedding store, or nil when none is configured.
func (r *Runner) Store() storage.EmbeddingRepository {
	return r.store
}

// Close releases every opened sink in reverse order.
func (r *Runner) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			r.logger.Error("error closing sink", "err", err)
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
