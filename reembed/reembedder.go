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
package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/witness/ai"
	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/storage"
)

// Config holds configuration for maintenance runs.
type Config struct {
	// BatchSize is the number of chunks to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for embedding calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// All re-embeds every chunk, not only those stored without a vector.
	// Use after switching embedding models.
	All bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Checkpoint processor names.
const (
	ProcessorReembed    = "reembed"
	ProcessorReembedAll = "reembed-all"
	ProcessorReextract  = "reextract"
)

// Reembedder embeds stored chunks.
type Reembedder struct {
	embedder  ai.Embedder
	processor *BatchProcessor
	runner    *runner
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.ChunkRepository, checkpoints storage.CheckpointRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	name := ProcessorReembed
	include := func(c *core.ContextChunk) bool { return !c.HasEmbedding() }
	if config.All {
		name = ProcessorReembedAll
		include = nil
	}

	return &Reembedder{
		embedder:  embedder,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
		runner: &runner{
			name:        name,
			label:       "Re-embedding",
			checkpoints: checkpoints,
			iterator:    NewChunkIterator(repo, config.BatchSize, include),
			config:      config,
			progress:    progress,
			logger:      slog.Default().With("component", "reembed"),
		},
	}
}

// Run embeds every pending chunk and reports progress. An interrupted run
// resumes from its checkpoint.
func (r *Reembedder) Run(ctx context.Context) error {
	if !r.embedder.IsConfigured() {
		return ErrEmbedderNotConfigured
	}
	_, err := r.runner.run(ctx, r.processor.Process)
	return err
}

// runner drives a checkpointed batch loop.
type runner struct {
	name        string
	label       string
	checkpoints storage.CheckpointRepository
	iterator    *ChunkIterator
	config      *Config
	progress    io.Writer
	logger      *slog.Logger
}

// run loads the checkpoint, processes the remaining chunks batch by batch and
// clears the checkpoint once everything is done. It returns how many chunks
// were handed to fn in this run.
func (r *runner) run(ctx context.Context, fn func(context.Context, []*core.ContextChunk) error) (int, error) {
	var from time.Time
	done := 0
	if r.checkpoints != nil {
		cp, err := r.checkpoints.LoadCheckpoint(ctx, r.name)
		if err != nil {
			return 0, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if cp != nil {
			from, done = cp.Position, cp.Processed
			r.logger.Info("resuming from checkpoint", "position", cp.Position, "processed", cp.Processed)
		}
	}

	chunks, err := r.iterator.Pending(ctx, from)
	if err != nil {
		return 0, fmt.Errorf("failed to query chunks: %w", err)
	}
	if len(chunks) == 0 {
		fmt.Fprintf(r.progress, "%s: nothing to do (0 chunks)\n", r.label)
		return 0, r.clear(ctx)
	}

	fmt.Fprintf(r.progress, "%s %d chunks (batch size: %d)\n", r.label, len(chunks), r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, r.label, done+len(chunks), r.config.ReportInterval)
	tracker.Start(done)

	processed := 0
	err = r.iterator.ForEach(ctx, chunks, func(batch []*core.ContextChunk) error {
		if err := fn(ctx, batch); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		processed += len(batch)
		tracker.Add(len(batch))
		return r.save(ctx, batch[len(batch)-1].Timestamp, tracker.Current())
	})
	if err != nil {
		return processed, err
	}

	tracker.Finish()
	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "%s complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		r.label, processed, elapsed.Round(time.Millisecond), float64(processed)/max(elapsed.Seconds(), 1e-9))

	return processed, r.clear(ctx)
}

func (r *runner) save(ctx context.Context, position time.Time, processed int) error {
	if r.checkpoints == nil {
		return nil
	}
	err := r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		Processor: r.name,
		Position:  position,
		Processed: processed,
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (r *runner) clear(ctx context.Context) error {
	if r.checkpoints == nil {
		return nil
	}
	return r.checkpoints.ClearCheckpoint(ctx, r.name)
}
