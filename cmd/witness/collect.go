package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/poiesic/witness/ingestion"
	"github.com/urfave/cli/v2"
)

// maxEventSize bounds one JSON line; OCR captures can be long.
const maxEventSize = 1 << 20

// event is one line of collect input.
type event struct {
	Text      string            `json:"text"`
	App       string            `json:"app"`
	Source    string            `json:"source"`
	Metadata  map[string]string `json:"metadata"`
	Aggregate bool              `json:"aggregate"`
}

func collectCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	in, err := openInput(c.String("input"))
	if err != nil {
		return err
	}
	defer in.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector, err := db.NewCollector(ctx,
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithFlushDelay(c.Duration("flush-delay")),
	)
	if err != nil {
		return fmt.Errorf("failed to create collector: %w", err)
	}
	defer collector.Release()

	if err := collector.Start(ctx); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- readEvents(ctx, in, collector)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		slog.Info("interrupted, flushing pending chunks")
		// Closing a file input ends the pending Scan. Stdin is never closed,
		// so a reader blocked on it is left behind until the process exits.
		in.Close()
	}

	if stopErr := collector.Stop(context.WithoutCancel(ctx)); stopErr != nil && err == nil {
		err = stopErr
	}

	status := collector.Status()
	fmt.Fprintf(c.App.Writer, "accepted: %d, persisted: %d, embedded: %d, rejected: %d short, %d filtered, %d duplicate, %d near-duplicate\n",
		status.Counters.Accepted, status.Persisted, status.Embedded,
		status.Counters.TooShort, status.Counters.Filtered,
		status.Counters.Duplicates, status.Counters.NearDuplicates)
	if status.LastError != "" {
		fmt.Fprintf(c.App.Writer, "last error: %s\n", status.LastError)
	}
	return err
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

// readEvents feeds every line of r to the collector until EOF or ctx is done.
// Malformed lines are logged and skipped.
func readEvents(ctx context.Context, r io.Reader, collector *ingestion.Collector) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)

	line := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var ev event
		if err := json.Unmarshal(raw, &ev); err != nil {
			slog.Warn("skipping malformed event", "line", line, "err", err)
			continue
		}
		if ev.Aggregate {
			collector.CollectAggregateCapture(ctx, ev.Text, ev.App)
		} else {
			collector.Collect(ctx, ev.Text, ev.App, ev.Source, ev.Metadata)
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to read events: %w", err)
	}
	return nil
}
