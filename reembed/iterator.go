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
	"time"

	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/storage"
)

const (
	// DefaultBatchSize is the default number of chunks to process in each batch
	DefaultBatchSize = 100
)

var (
	rangeStart = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2100, 12, 31, 23, 59, 59, 0, time.UTC)
)

// ChunkIterator walks stored chunks in timestamp order.
type ChunkIterator struct {
	repo      storage.ChunkRepository
	batchSize int
	include   func(*core.ContextChunk) bool
}

// NewChunkIterator creates a new chunk iterator.
// batchSize: number of chunks handed to fn at a time (defaults when <= 0)
// include: optional filter; nil visits every chunk
func NewChunkIterator(repo storage.ChunkRepository, batchSize int, include func(*core.ContextChunk) bool) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkIterator{
		repo:      repo,
		batchSize: batchSize,
		include:   include,
	}
}

// Pending returns the chunks at or after from that pass the filter.
func (it *ChunkIterator) Pending(ctx context.Context, from time.Time) ([]*core.ContextChunk, error) {
	if from.IsZero() || from.Before(rangeStart) {
		from = rangeStart
	}
	chunks, err := it.repo.GetChunksByDateRange(ctx, from, rangeEnd)
	if err != nil {
		return nil, err
	}
	if it.include == nil {
		return chunks, nil
	}

	kept := chunks[:0]
	for _, c := range chunks {
		if it.include(c) {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

// ForEach calls fn with consecutive batches of chunks.
// Iteration stops on first error from fn or when all chunks are processed.
// Context cancellation is checked between batches.
func (it *ChunkIterator) ForEach(ctx context.Context, chunks []*core.ContextChunk, fn func([]*core.ContextChunk) error) error {
	for i := 0; i < len(chunks); i += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+it.batchSize, len(chunks))
		if err := fn(chunks[i:end]); err != nil {
			return err
		}
	}
	return nil
}
