package storage

import (
	"context"
	"time"

	"github.com/poiesic/witness/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close closes the repository and releases resources.
	Close() error
}

// ChunkRepository is the durable store for context chunks.
//
// Chunks are append-only. InsertChunk never overwrites an existing id;
// re-enrichment goes through ReplaceChunks, which stores a new value under
// the same id.
type ChunkRepository interface {
	Repository

	// Initialize prepares the store for writes. It is called once before
	// collection starts and is safe to call again.
	Initialize(ctx context.Context) error

	// InsertChunk persists a new chunk.
	// Returns ErrDuplicateKey if a chunk with the same ID exists.
	InsertChunk(ctx context.Context, chunk *core.ContextChunk) error

	// ReplaceChunks stores new values for existing chunk IDs and keeps the
	// indexes in step. Returns ErrNotFound if any chunk doesn't exist.
	ReplaceChunks(ctx context.Context, chunks ...*core.ContextChunk) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id string) (*core.ContextChunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...string) ([]*core.ContextChunk, error)

	// GetChunksByDateRange retrieves chunks where start <= Timestamp < end,
	// ordered by timestamp. An end before start is ErrInvalidQuery.
	GetChunksByDateRange(ctx context.Context, start, end time.Time) ([]*core.ContextChunk, error)

	// GetRecentChunks retrieves up to limit chunks, most recent first.
	GetRecentChunks(ctx context.Context, limit int) ([]*core.ContextChunk, error)

	// GetChunkIDsByEntity returns IDs of chunks carrying an entity with the
	// given value, compared case-insensitively.
	GetChunkIDsByEntity(ctx context.Context, value string) ([]string, error)

	// FindSimilar finds chunks whose embedding is similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first). Chunks without an
	// embedding are never returned.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// CountChunks returns the total number of chunks and how many of them
	// carry an embedding.
	CountChunks(ctx context.Context) (total int, embedded int, err error)
}

// ContactRepository stores people learned from observed activity.
type ContactRepository interface {
	Repository

	// RecordContacts increments the occurrence count of each name, creating
	// contacts as needed. Names are matched case-insensitively.
	RecordContacts(ctx context.Context, seenAt time.Time, names ...string) error

	// GetContact retrieves a contact by name.
	// Returns ErrNotFound if the contact doesn't exist.
	GetContact(ctx context.Context, name string) (*core.Contact, error)

	// TopContacts returns up to limit contacts ordered by count descending.
	TopContacts(ctx context.Context, limit int) ([]*core.Contact, error)
}

// CheckpointRepository persists progress of maintenance runs.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for its processor.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processor string) (*core.Checkpoint, error)

	// ClearCheckpoint removes the checkpoint for a processor.
	ClearCheckpoint(ctx context.Context, processor string) error
}

// Store bundles the repositories a witness database needs.
type Store interface {
	Chunks() ChunkRepository
	Contacts() ContactRepository
	Checkpoints() CheckpointRepository
	Close() error
}
