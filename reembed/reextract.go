package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/extract"
	"github.com/poiesic/witness/storage"
	"github.com/poiesic/witness/topic"
)

// Reextractor re-runs entity extraction and topic classification over stored
// chunks and replaces those whose enrichment changed.
type Reextractor struct {
	repo       storage.ChunkRepository
	extractor  *extract.Extractor
	classifier *topic.Classifier
	runner     *runner

	// IsMe, when set, drops the user's own name from person entities of
	// OCR chunks, as the collector does on capture.
	IsMe func(value string) bool

	changed int
}

// NewReextractor creates a new reextractor.
func NewReextractor(repo storage.ChunkRepository, checkpoints storage.CheckpointRepository,
	extractor *extract.Extractor, classifier *topic.Classifier, config *Config, progress io.Writer) *Reextractor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Reextractor{
		repo:       repo,
		extractor:  extractor,
		classifier: classifier,
		runner: &runner{
			name:        ProcessorReextract,
			label:       "Re-extracting",
			checkpoints: checkpoints,
			iterator:    NewChunkIterator(repo, config.BatchSize, nil),
			config:      config,
			progress:    progress,
			logger:      slog.Default().With("component", "reextract"),
		},
	}
}

// Run processes every chunk and returns how many were replaced.
func (r *Reextractor) Run(ctx context.Context) (int, error) {
	r.changed = 0
	_, err := r.runner.run(ctx, r.process)
	return r.changed, err
}

func (r *Reextractor) process(ctx context.Context, batch []*core.ContextChunk) error {
	var updated []*core.ContextChunk
	for _, chunk := range batch {
		entities := r.extractor.Extract(ctx, chunk.Content)
		if chunk.Source == core.SourceOCR && r.IsMe != nil {
			entities = slices.DeleteFunc(entities, func(e core.Entity) bool {
				return e.Type == core.EntityPerson && r.IsMe(e.Value)
			})
		}
		label := r.classifier.Classify(chunk.Content, chunk.Metadata[core.MetaApp])
		if label == chunk.Topic && slices.Equal(entities, chunk.Entities) {
			continue
		}
		updated = append(updated, chunk.WithEnrichment(entities, label))
	}
	if len(updated) == 0 {
		return nil
	}
	if err := r.repo.ReplaceChunks(ctx, updated...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}
	r.changed += len(updated)
	return nil
}
