package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/reembed"
	"github.com/urfave/cli/v2"
)

func batchConfig(c *cli.Context) (*reembed.Config, error) {
	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return nil, fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return nil, fmt.Errorf("max-retries must be greater than 0")
	}
	return config, nil
}

func reembedCommand(c *cli.Context) error {
	config, err := batchConfig(c)
	if err != nil {
		return err
	}
	config.All = c.Bool("all")

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := db.NewReembedder(config, os.Stderr).Run(c.Context); err != nil {
		if errors.Is(err, reembed.ErrEmbedderNotConfigured) {
			return fmt.Errorf("reembedding failed: %w (set --embedding-host)", err)
		}
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func reextractCommand(c *cli.Context) error {
	config, err := batchConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	reextractor, err := db.NewReextractor(c.Context, config, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reextractor: %w", err)
	}
	changed, err := reextractor.Run(c.Context)
	if err != nil {
		return fmt.Errorf("reextraction failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "updated %d chunks\n", changed)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher(c.Context)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}
	results, err := searcher.FindSimilar(c.Context, query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(c.App.Writer, "%d: [%0.3f] %s %s: %s\n", i, hit.Score,
			hit.Chunk.Timestamp.Local().Format("2006-01-02 15:04"), hit.Chunk.Source, hit.Chunk.Content)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	total, embedded, err := db.ChunkRepository().CountChunks(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "chunks: %d (%d embedded)\n", total, embedded)

	chunks, err := db.ChunkRepository().GetRecentChunks(c.Context, total)
	if err != nil {
		return err
	}
	bySource := make(map[core.ContextSource]int)
	for _, chunk := range chunks {
		bySource[chunk.Source]++
	}
	sources := make([]core.ContextSource, 0, len(bySource))
	for s := range bySource {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool {
		if bySource[sources[i]] != bySource[sources[j]] {
			return bySource[sources[i]] > bySource[sources[j]]
		}
		return sources[i] < sources[j]
	})
	for _, s := range sources {
		fmt.Fprintf(c.App.Writer, "  %-14s %d\n", s, bySource[s])
	}

	contacts, err := db.ContactRepository().TopContacts(c.Context, c.Int("contacts"))
	if err != nil {
		return err
	}
	if len(contacts) > 0 {
		fmt.Fprintln(c.App.Writer, "contacts:")
	}
	for _, contact := range contacts {
		fmt.Fprintf(c.App.Writer, "  %-24s %d (last seen %s)\n", contact.Name, contact.Count,
			contact.LastSeen.Local().Format("2006-01-02"))
	}
	return nil
}
