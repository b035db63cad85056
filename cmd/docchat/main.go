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
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/docchat"
	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/ai/openai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/index"
	"github.com/poiesic/docchat/pipeline"
	"github.com/poiesic/docchat/reembed"
	"github.com/poiesic/docchat/session"
	"github.com/poiesic/docchat/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	// Optional .env for local backend hosts and models
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "docchat",
		Usage: "Chat with your documents using semantic retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Chunk and embed text files into a passage index",
				ArgsUsage: "FILE [FILE...]",
				Action:    indexCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the passage index directory",
						Required: true,
						EnvVars:  []string{"DOCCHAT_DB"},
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Chunk size in words",
						Value: index.DefaultChunkSize,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Chunk overlap in words",
						Value: index.DefaultChunkOverlap,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent embedding workers",
						Value: 4,
					},
				),
			},
			{
				Name:      "ask",
				Usage:     "Ask a single question against an existing index",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags:     chatFlags(),
			},
			{
				Name:   "chat",
				Usage:  "Start an interactive chat over an existing index",
				Action: chatCommand,
				Flags:  chatFlags(),
			},
			{
				Name:   "reembed",
				Usage:  "Re-embed all passages with a new embedding model",
				Action: reembedCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the passage index directory",
						Required: true,
						EnvVars:  []string{"DOCCHAT_DB"},
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of passages to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N passages",
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
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Usage:   "OpenAI-compatible service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"DOCCHAT_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"DOCCHAT_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "completion-model",
			Usage:   "Completion model name (" + strings.Join(ai.SupportedCompletionModels, ", ") + ")",
			Value:   "qwen2.5:3b",
			EnvVars: []string{"DOCCHAT_COMPLETION_MODEL"},
		},
	}
}

func chatFlags() []cli.Flag {
	return append(aiFlags(),
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the passage index directory",
			Required: true,
			EnvVars:  []string{"DOCCHAT_DB"},
		},
		&cli.IntFlag{
			Name:    "k",
			Usage:   "Number of passages retrieved per question",
			Value:   index.DefaultK,
			EnvVars: []string{"DOCCHAT_K"},
		},
		&cli.DurationFlag{
			Name:  "turn-timeout",
			Usage: "Per-question timeout (0 disables)",
			Value: session.DefaultTurnTimeout,
		},
	)
}

func openAgent(c *cli.Context) (*docchat.Agent, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithCompletionModel(c.String("completion-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	agent, err := docchat.NewAgent(c.String("db"), docchat.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return agent, nil
}

func indexCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	documents, err := readDocuments(c.Args().Slice())
	if err != nil {
		return err
	}

	agent, err := openAgent(c)
	if err != nil {
		return err
	}
	defer agent.Close()

	start := time.Now()
	count, err := agent.IndexDocuments(context.Background(), documents,
		index.WithChunking(c.Int("chunk-size"), c.Int("chunk-overlap")),
		index.WithPoolSize(c.Int("pool-size")),
	)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %d passages from %d documents in %s\n",
		count, len(documents), time.Since(start).Round(time.Millisecond))
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a question is required")
	}
	question := strings.Join(c.Args().Slice(), " ")

	agent, err := openAgent(c)
	if err != nil {
		return err
	}
	defer agent.Close()

	s, err := newSession(agent, c)
	if err != nil {
		return err
	}

	result, err := s.Ask(context.Background(), question)
	if err != nil {
		return fmt.Errorf("question failed: %w", err)
	}

	printResult(result)
	return nil
}

func chatCommand(c *cli.Context) error {
	agent, err := openAgent(c)
	if err != nil {
		return err
	}
	defer agent.Close()

	s, err := newSession(agent, c)
	if err != nil {
		return err
	}

	fmt.Println("Ask a question, or /reset to clear history, /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			s.Reset()
			fmt.Println("History cleared.")
			continue
		}

		result, err := s.Ask(context.Background(), line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "That question failed: %v\n", err)
			continue
		}
		printResult(result)
	}
	return scanner.Err()
}

func reembedCommand(c *cli.Context) error {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithCompletionModel(c.String("completion-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewPassageRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
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

	reembedder := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)
	if err := reembedder.Run(context.Background()); err != nil {
		return fmt.Errorf("re-embedding failed: %w", err)
	}
	return nil
}

func newSession(agent *docchat.Agent, c *cli.Context) (*session.Session, error) {
	return agent.NewSession(
		[]index.RetrieverOption{index.WithK(c.Int("k"))},
		session.WithTurnTimeout(c.Duration("turn-timeout")),
	)
}

func printResult(result *pipeline.Result) {
	if result.Outcome == pipeline.OutcomeNoMatches {
		fmt.Printf("(no matching passages) %s\n", result.Answer)
		return
	}
	fmt.Println(result.Answer)
}

// readDocuments loads each path as one document named after its base
// filename.
func readDocuments(paths []string) ([]core.Document, error) {
	documents := make([]core.Document, 0, len(paths))
	for _, path := range paths {
		contents, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		documents = append(documents, core.Document{
			Name:     filepath.Base(path),
			Contents: string(contents),
		})
	}
	return documents, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
