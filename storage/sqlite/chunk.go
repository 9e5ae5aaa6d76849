package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/storage"
)

// ChunkRepository implements storage.ChunkRepository for SQLite.
type ChunkRepository struct {
	db          *sql.DB
	initialized atomic.Bool
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// Close is a no-op; the Store owns the database handle.
func (r *ChunkRepository) Close() error {
	return nil
}

// Initialize checks the database is reachable. The schema is created by Open.
func (r *ChunkRepository) Initialize(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	r.initialized.Store(true)
	return nil
}

// InsertChunk persists a new chunk and its entity index rows.
func (r *ChunkRepository) InsertChunk(ctx context.Context, chunk *core.ContextChunk) error {
	if !r.initialized.Load() {
		return storage.ErrNotInitialized
	}
	if err := core.ValidateContextChunk(chunk); err != nil {
		return err
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM chunks WHERE id = ?`, chunk.ID).Scan(&exists)
		if err == nil {
			return fmt.Errorf("%w: chunk %s", storage.ErrDuplicateKey, chunk.ID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO chunks (id, ts, source, has_embedding, data) VALUES (?, ?, ?, ?, ?)`,
			chunk.ID, chunk.Timestamp.UnixMicro(), string(chunk.Source), boolInt(chunk.HasEmbedding()), storage.MarshalChunk(chunk))
		if err != nil {
			return err
		}
		return insertEntities(ctx, tx, chunk)
	})
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
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, chunk := range chunks {
			res, err := tx.ExecContext(ctx,
				`UPDATE chunks SET ts = ?, source = ?, has_embedding = ?, data = ? WHERE id = ?`,
				chunk.Timestamp.UnixMicro(), string(chunk.Source), boolInt(chunk.HasEmbedding()), storage.MarshalChunk(chunk), chunk.ID)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: chunk %s", storage.ErrNotFound, chunk.ID)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM chunk_entities WHERE chunk_id = ?`, chunk.ID); err != nil {
				return err
			}
			if err := insertEntities(ctx, tx, chunk); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id string) (*core.ContextChunk, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM chunks WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalChunk(data)
}

// GetChunks retrieves multiple chunks by their IDs, in the order requested.
func (r *ChunkRepository) GetChunks(ctx context.Context, ids ...string) ([]*core.ContextChunk, error) {
	var result []*core.ContextChunk
	for _, id := range ids {
		chunk, err := r.GetChunk(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, chunk)
	}
	return result, nil
}

// GetChunksByDateRange retrieves chunks where start <= ts < end.
func (r *ChunkRepository) GetChunksByDateRange(ctx context.Context, start, end time.Time) ([]*core.ContextChunk, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range ends before it starts", storage.ErrInvalidQuery)
	}
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}
	return r.query(ctx,
		`SELECT data FROM chunks WHERE ts >= ? AND ts < ? ORDER BY ts, id`,
		start.UnixMicro(), end.UnixMicro())
}

// GetRecentChunks retrieves up to limit chunks, newest first.
func (r *ChunkRepository) GetRecentChunks(ctx context.Context, limit int) ([]*core.ContextChunk, error) {
	return r.query(ctx, `SELECT data FROM chunks ORDER BY ts DESC, id DESC LIMIT ?`, limit)
}

// GetChunkIDsByEntity returns IDs of chunks carrying an entity value.
func (r *ChunkRepository) GetChunkIDsByEntity(ctx context.Context, value string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT chunk_id FROM chunk_entities WHERE value_key = ? ORDER BY chunk_id`, entityKey(value))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindSimilar ranks every embedded chunk by cosine similarity.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	chunks, err := r.query(ctx, `SELECT data FROM chunks WHERE has_embedding = 1`)
	if err != nil {
		return nil, err
	}

	var results []*core.SearchResult
	for _, chunk := range chunks {
		similarity := storage.CosineSimilarity(vector, chunk.Embedding)
		if similarity >= minSimilarity {
			results = append(results, &core.SearchResult{Chunk: chunk, Score: similarity})
		}
	}
	return storage.RankResults(results, limit), nil
}

// CountChunks counts all chunks and those with an embedding.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, int, error) {
	var total, embedded int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(has_embedding), 0) FROM chunks`).Scan(&total, &embedded)
	return total, embedded, err
}

func (r *ChunkRepository) query(ctx context.Context, query string, args ...any) ([]*core.ContextChunk, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*core.ContextChunk
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		chunk, err := storage.UnmarshalChunk(data)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func insertEntities(ctx context.Context, tx *sql.Tx, chunk *core.ContextChunk) error {
	for _, e := range chunk.Entities {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO chunk_entities (value_key, chunk_id) VALUES (?, ?)`,
			entityKey(e.Value), chunk.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func entityKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
