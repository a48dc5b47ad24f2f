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
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/recembed/ai/openai"
	"github.com/poiesic/recembed/config"
	"github.com/poiesic/recembed/search"
	"github.com/poiesic/recembed/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "recsearch",
		Usage:     "Search an embedding store written by recembed --store",
		ArgsUsage: "<query...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:     "store",
				Aliases:  []string{"s"},
				Usage:    "Path to BadgerDB embedding store",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to .env file holding the API key",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL (must match the one used to build the store)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name (must match the one used to build the store)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of hits",
				Value:   5,
			},
			&cli.Float64Flag{
				Name:  "min-score",
				Usage: "Minimum cosine similarity",
				Value: float64(search.DefaultMinSimilarity),
			},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error {
			return searchCommand(c, out)
		},
	}
}

func searchCommand(c *cli.Context, out io.Writer) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return search.ErrEmptyQuery
	}

	if err := config.LoadEnv(c.String("env-file")); err != nil {
		return err
	}

	var (
		cfg *config.AppConfig
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}
	if c.IsSet("embedding-host") {
		cfg.Embedder.BaseURL = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedder.Model = c.String("embedding-model")
	}

	apiKey, err := cfg.Embedder.APIKey()
	if err != nil {
		return err
	}
	embedder, err := openai.NewEmbedder(cfg.Embedder.AIConfig(apiKey))
	if err != nil {
		return err
	}

	repo, err := badger.NewEmbeddingRepository(c.String("store"))
	if err != nil {
		return err
	}
	defer repo.Close()

	searcher, err := search.NewSearcher(repo, embedder,
		search.WithMinSimilarity(float32(c.Float64("min-score"))))
	if err != nil {
		return err
	}

	results, err := searcher.FindSimilar(context.Background(), query, c.Int("limit"))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(out, "%d: '%s' (%s#%d)[%0.3f]\n", i, hit.Embedding.Text, hit.Embedding.Source, hit.Embedding.Index, hit.Score)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
	return nil
}
