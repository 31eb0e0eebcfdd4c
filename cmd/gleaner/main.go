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
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/gleaner"
	"github.com/poiesic/gleaner/ai/openai"
	"github.com/poiesic/gleaner/config"
	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/ingestion"
	"github.com/poiesic/gleaner/reembed"
	"github.com/poiesic/gleaner/server"
	"github.com/poiesic/gleaner/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "gleaner",
		Usage: "Collect, filter and store research content for semantic retrieval",
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
				Usage:   "Path to YAML config file",
				EnvVars: []string{"GLEANER_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides config)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL (overrides config)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name (overrides config)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the research scheduler",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Listen address (overrides config)",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Run one piece of content through the pipeline",
				ArgsUsage: "[file]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Title stored with the content",
					},
					&cli.StringFlag{
						Name:  "source-type",
						Usage: "Source type (web, paper, other)",
						Value: "other",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Relevance threshold; defaults to the configured value for the source type",
						Value: -1,
					},
				},
			},
			{
				Name:      "collect",
				Usage:     "Fetch from a source and ingest the results",
				ArgsUsage: "<source> <query>",
				Action:    collectCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "cursor",
						Usage: "Result offset to start from",
						Value: 0,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results to fetch",
						Value: 3,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search stored content",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results",
						Value: 5,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored chunks with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if v := c.String("db"); v != "" {
		cfg.DBPath = v
	}
	if v := c.String("embedding-host"); v != "" {
		cfg.Embedding.Host = v
	}
	if v := c.String("embedding-model"); v != "" {
		cfg.Embedding.Model = v
	}
	return cfg, cfg.Validate()
}

func openGleaner(c *cli.Context) (*gleaner.Gleaner, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	g, err := gleaner.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return g, nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if v := c.String("listen"); v != "" {
		cfg.ListenAddr = v
	}

	g, err := gleaner.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer g.Close()
	g.Start()

	srv := server.New(cfg.ListenAddr, g, g.Metrics().Handler())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	}
	return srv.Shutdown(context.Background())
}

func ingestCommand(c *cli.Context) error {
	var (
		content []byte
		err     error
	)
	if path := c.Args().First(); path != "" && path != "-" {
		content, err = os.ReadFile(path)
	} else {
		content, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	g, err := openGleaner(c)
	if err != nil {
		return err
	}
	defer g.Close()

	item := ingestion.Item{
		Content:    string(content),
		Metadata:   core.Metadata{"title": c.String("title")},
		SourceType: core.ParseSourceType(c.String("source-type")),
	}

	var res ingestion.Result
	if threshold := c.Float64("threshold"); threshold >= 0 {
		res = g.IngestWithThreshold(c.Context, item, threshold)
	} else {
		res = g.Ingest(c.Context, item)
	}

	fmt.Fprintln(c.App.Writer, res.Status)
	return nil
}

func collectCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("usage: gleaner collect <source> <query>")
	}
	source := c.Args().First()
	query := strings.Join(c.Args().Tail(), " ")

	g, err := openGleaner(c)
	if err != nil {
		return err
	}
	defer g.Close()

	report, err := g.Collect(c.Context, source, query, c.Int("cursor"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}
	fmt.Fprintln(c.App.Writer, report.Summary)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("usage: gleaner search <query>")
	}

	g, err := openGleaner(c)
	if err != nil {
		return err
	}
	defer g.Close()

	results, err := g.Search(c.Context, strings.Join(c.Args().Slice(), " "), c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(c.App.Writer, "%d: [%0.3f] %s (%s #%d)\n", i, hit.Score,
			hit.Chunk.Metadata["title"], core.ShortHash(hit.Chunk.ContentHash), hit.Chunk.Index)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	backend, err := badger.OpenBackend(cfg.DBPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	embedder, err := openai.NewEmbedder(cfg.AIConfig())
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedder, err := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.DBPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(os.Stderr)

	if _, err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
	}
}

func setupLogger(c *cli.Context) error {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}
