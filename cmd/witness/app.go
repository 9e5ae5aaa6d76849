package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/witness"
	"github.com/poiesic/witness/ai"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "witness",
		Usage: "Desktop context ingestion and deduplication engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"WITNESS_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the database (directory for badger, file for sqlite)",
				EnvVars: []string{"WITNESS_DB"},
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "Storage backend (badger, sqlite)",
				Value:   witness.BackendBadger,
				EnvVars: []string{"WITNESS_STORE"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL, empty to store chunks without vectors",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"WITNESS_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   "embeddinggemma",
				EnvVars: []string{"WITNESS_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "tagger-host",
				Usage:   "Name tagging model host URL, empty to use the built-in gazetteer",
				EnvVars: []string{"WITNESS_TAGGER_HOST"},
			},
			&cli.StringFlag{
				Name:    "tagger-model",
				Usage:   "Name tagging model name",
				Value:   "qwen2.5:3b",
				EnvVars: []string{"WITNESS_TAGGER_MODEL"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "API token for the AI services",
				EnvVars: []string{"WITNESS_TOKEN"},
			},
			&cli.StringSliceFlag{
				Name:    "self",
				Usage:   "Names the user is known by; repeat for each",
				EnvVars: []string{"WITNESS_SELF"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "collect",
				Usage:  "Collect JSON-lines events from a file or stdin",
				Action: collectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Events file, - for stdin",
						Value:   "-",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Chunks per embedding batch",
						Value: 10,
					},
					&cli.DurationFlag{
						Name:  "flush-delay",
						Usage: "Flush a partial batch after this delay",
						Value: 2 * time.Second,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Embed chunks stored without a vector",
				Action: reembedCommand,
				Flags: append(batchFlags(),
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Re-embed every chunk, e.g. after switching models",
					},
				),
			},
			{
				Name:   "reextract",
				Usage:  "Re-run entity extraction and topic classification over stored chunks",
				Action: reextractCommand,
				Flags:  batchFlags(),
			},
			{
				Name:      "search",
				Usage:     "Search stored chunks",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show chunk counts, sources and top contacts",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "contacts",
						Usage: "Number of top contacts to show",
						Value: 10,
					},
				},
			},
		},
	}
}

func batchFlags() []cli.Flag {
	return []cli.Flag{
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
	}
}

func setupLogger(c *cli.Context) error {
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

// openDatabase opens the database named by the global flags.
func openDatabase(c *cli.Context) (*witness.Database, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required (--db or WITNESS_DB)")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithTaggerHost(c.String("tagger-host")),
		ai.WithTaggerModel(c.String("tagger-model")),
		ai.WithToken(c.String("token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := witness.NewDatabase(dbPath,
		witness.WithBackend(c.String("store")),
		witness.WithAIConfig(aiConfig),
		witness.WithSelfNames(c.StringSlice("self")...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
