package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend     *Backend
	initialized atomic.Bool
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// newChunkRepository creates a new ChunkRepository.
func newChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// Close is a no-op; the Store owns the backend.
func (r *ChunkRepository) Close() error {
	return nil
}

// Initialize checks the schema marker, writing it on first use.
func (r *ChunkRepository) Initialize(ctx context.Context) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(schemaKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			if err := tx.Set([]byte(schemaKey), []byte(schemaVersion)); err != nil {
				return err
			}
			return tx.Commit()
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if string(val) != schemaVersion {
				return fmt.Errorf("unsupported schema version %q, want %q", val, schemaVersion)
			}
			return nil
		})
	}, true)
	if err != nil {
		return err
	}
	r.initialized.Store(true)
	return nil
}

// InsertChunk persists a new chunk with its date and entity index entries.
func (r *ChunkRepository) InsertChunk(ctx context.Context, chunk *core.ContextChunk) error {
	if !r.initialized.Load() {
		return storage.ErrNotInitialized
	}
	if err := core.ValidateContextChunk(chunk); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(chunk.ID)
		existing, err := readChunk(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: chunk %s", storage.ErrDuplicateKey, chunk.ID)
		}

		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		if err := tx.Set(makeChunkDateKey(chunk.Timestamp, chunk.ID), []byte(chunk.ID)); err != nil {
			return err
		}
		if err := setEntityIndex(tx, chunk); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ReplaceChunks stores new values under existing IDs.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, chunks ...*core.ContextChunk) error {
	if !r.initialized.Load() {
		return storage.ErrNotInitialized
	}
	for _, chunk := range chunks {
		if err := core.ValidateContextChunk(chunk); err != nil {
			return err
		}
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.ID)

			// Read old chunk to detect index changes
			old, err := readChunk(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: chunk %s", storage.ErrNotFound, chunk.ID)
			}

			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}

			// Update date index if timestamp changed
			if !old.Timestamp.Equal(chunk.Timestamp) {
				if err := tx.Delete(makeChunkDateKey(old.Timestamp, old.ID)); err != nil {
					return err
				}
				if err := tx.Set(makeChunkDateKey(chunk.Timestamp, chunk.ID), []byte(chunk.ID)); err != nil {
					return err
				}
			}

			// Update entity index if entities changed
			if !slices.Equal(old.Entities, chunk.Entities) {
				if err := deleteEntityIndex(tx, old); err != nil {
					return err
				}
				if err := setEntityIndex(tx, chunk); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id string) (*core.ContextChunk, error) {
	var result *core.ContextChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetChunks retrieves multiple chunks by their IDs.
func (r *ChunkRepository) GetChunks(ctx context.Context, ids ...string) ([]*core.ContextChunk, error) {
	var result []*core.ContextChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := readChunk(tx, makeChunkKey(id))
			if err != nil {
				return err
			}
			if chunk != nil {
				result = append(result, chunk)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetChunksByDateRange retrieves chunks within a time range.
func (r *ChunkRepository) GetChunksByDateRange(ctx context.Context, start, end time.Time) ([]*core.ContextChunk, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range ends before it starts", storage.ErrInvalidQuery)
	}
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.ContextChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialChunkDateKey(start)
		endKey := makePartialChunkDateKey(end)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkDatePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if bytes.Compare(key, endKey) >= 0 {
				break
			}

			chunk, err := r.readIndexed(tx, iter.Item())
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)

	return results, err
}

// GetRecentChunks retrieves the N most recent chunks, newest first.
func (r *ChunkRepository) GetRecentChunks(ctx context.Context, limit int) ([]*core.ContextChunk, error) {
	var results []*core.ContextChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent chunks first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(chunkDatePrefix)

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(lastChunkDateKey()); iter.Valid() && len(results) < limit; iter.Next() {
			chunk, err := r.readIndexed(tx, iter.Item())
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)

	return results, err
}

// GetChunkIDsByEntity returns IDs of chunks carrying an entity value.
func (r *ChunkRepository) GetChunkIDsByEntity(ctx context.Context, value string) ([]string, error) {
	var ids []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return forEachPrefix(tx, makePartialChunkEntityKey(value), func(_, val []byte) error {
			ids = append(ids, string(val))
			return nil
		})
	}, false)
	return ids, err
}

// FindSimilar scans every chunk with an embedding and ranks by cosine similarity.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	var results []*core.SearchResult

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return forEachPrefix(tx, []byte(chunkPrefix), func(_, val []byte) error {
			chunk, err := storage.UnmarshalChunk(val)
			if err != nil {
				return err
			}

			// Skip chunks without embeddings
			if !chunk.HasEmbedding() {
				return nil
			}

			similarity := storage.CosineSimilarity(vector, chunk.Embedding)
			if similarity >= minSimilarity {
				results = append(results, &core.SearchResult{
					Chunk: chunk,
					Score: similarity,
				})
			}
			return nil
		})
	}, false)

	if err != nil {
		return nil, err
	}

	return storage.RankResults(results, limit), nil
}

// CountChunks counts all chunks and those with an embedding.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, int, error) {
	total, embedded := 0, 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return forEachPrefix(tx, []byte(chunkPrefix), func(_, val []byte) error {
			chunk, err := storage.UnmarshalChunk(val)
			if err != nil {
				return err
			}
			total++
			if chunk.HasEmbedding() {
				embedded++
			}
			return nil
		})
	}, false)
	return total, embedded, err
}

// Helper methods

// readIndexed follows an index entry to the chunk it points at.
func (r *ChunkRepository) readIndexed(tx *badger.Txn, item *badger.Item) (*core.ContextChunk, error) {
	id, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return readChunk(tx, makeChunkKey(string(id)))
}

// readChunk reads a chunk from the transaction. Returns nil, nil when the
// key does not exist.
func readChunk(tx *badger.Txn, key []byte) (*core.ContextChunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.ContextChunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// setEntityIndex adds entity index entries for a chunk.
func setEntityIndex(tx *badger.Txn, chunk *core.ContextChunk) error {
	for _, e := range chunk.Entities {
		if err := tx.Set(makeChunkEntityKey(e.Value, chunk.ID), []byte(chunk.ID)); err != nil {
			return err
		}
	}
	return nil
}

// deleteEntityIndex removes entity index entries for a chunk.
func deleteEntityIndex(tx *badger.Txn, chunk *core.ContextChunk) error {
	for _, e := range chunk.Entities {
		if err := tx.Delete(makeChunkEntityKey(e.Value, chunk.ID)); err != nil {
			return err
		}
	}
	return nil
}
