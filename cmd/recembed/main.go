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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/recembed"
	"github.com/poiesic/recembed/config"
	"github.com/urfave/cli/v2"
)

// shutdownSignals cancel an in-flight run.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "recembed",
		Usage:     "Generate embeddings for the records of a CSV or JSON file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (default: ./recembed.yaml, then ~/.config/recembed/config.yaml)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to .env file holding the API key",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.IntFlag{
				Name:  "max-attempts",
				Usage: "Attempts per record before its embedding request counts as failed",
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff",
			},
			&cli.BoolFlag{
				Name:  "skip-failed",
				Usage: "Log and skip records whose embedding fails instead of stopping",
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report progress every N records",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Also persist embeddings to a BadgerDB directory",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Also write embeddings as JSON Lines to this file",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not print embeddings to stdout",
			},
		},
		Before: setupLogger,
		Action: runCommand,
	}
}

func runCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one input file, got %d arguments", c.NArg())
	}
	path := c.Args().First()

	if err := config.LoadEnv(c.String("env-file")); err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyFlags(c, cfg)

	runner, err := recembed.NewRunner(cfg, recembed.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			slog.Error("error closing outputs", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	result, err := runner.Run(ctx, path)
	if err != nil {
		return err
	}

	slog.Info("done",
		"records", result.Total,
		"embedded", result.Embedded,
		"skipped", result.Skipped,
		"elapsed", result.Elapsed)
	return nil
}

// loadConfig reads --config when given, otherwise the default locations.
// An explicitly named file must exist.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	if path := c.String("config"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		return config.Load(path)
	}

	cfg, path, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	if path != "" {
		slog.Debug("loaded config", "path", path)
	}
	return cfg, nil
}

// applyFlags overrides config values with explicitly set flags.
func applyFlags(c *cli.Context, cfg *config.AppConfig) {
	if c.IsSet("embedding-host") {
		cfg.Embedder.BaseURL = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedder.Model = c.String("embedding-model")
	}
	if c.IsSet("max-attempts") {
		cfg.Pipeline.MaxAttempts = c.Int("max-attempts")
	}
	if c.IsSet("retry-delay") {
		cfg.Pipeline.RetryDelay = c.Duration("retry-delay")
	}
	if c.IsSet("skip-failed") {
		cfg.Pipeline.SkipFailed = c.Bool("skip-failed")
	}
	if c.IsSet("report-interval") {
		cfg.Pipeline.ReportInterval = c.Int("report-interval")
	}
	if c.IsSet("store") {
		cfg.Sinks.Store = c.String("store")
	}
	if c.IsSet("output") {
		cfg.Sinks.JSONL = c.String("output")
	}
	if c.IsSet("quiet") {
		cfg.Sinks.Quiet = c.Bool("quiet")
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
