package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/witness/ai"
	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/storage"
)

// BatchProcessor embeds batches of chunks and stores the results.
type BatchProcessor struct {
	repo           storage.ChunkRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds a batch of chunks and replaces them with copies carrying a
// unit-length vector.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.ContextChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		if err == nil && len(embeddings) != len(texts) {
			err = fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(embeddings))
		}
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	updated := make([]*core.ContextChunk, len(chunks))
	for i, chunk := range chunks {
		updated[i] = chunk.WithEmbedding(NormalizeVector(embeddings[i]))
	}

	if err := bp.repo.ReplaceChunks(ctx, updated...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}
	return nil
}
