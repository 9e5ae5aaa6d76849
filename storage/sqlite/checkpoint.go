package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/storage"
)

// CheckpointRepository implements storage.CheckpointRepository for SQLite.
type CheckpointRepository struct {
	db *sql.DB
}

var _ storage.CheckpointRepository = (*CheckpointRepository)(nil)

// SaveCheckpoint persists a checkpoint for its processor.
func (r *CheckpointRepository) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	checkpoint.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO checkpoints (processor, data) VALUES (?, ?)
		 ON CONFLICT(processor) DO UPDATE SET data = excluded.data`,
		checkpoint.Processor, storage.MarshalCheckpoint(checkpoint))
	return err
}

// LoadCheckpoint retrieves the checkpoint for a processor.
// Returns nil, nil if no checkpoint exists.
func (r *CheckpointRepository) LoadCheckpoint(ctx context.Context, processor string) (*core.Checkpoint, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM checkpoints WHERE processor = ?`, processor).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalCheckpoint(data)
}

// ClearCheckpoint removes the checkpoint for a processor.
func (r *CheckpointRepository) ClearCheckpoint(ctx context.Context, processor string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE processor = ?`, processor)
	return err
}
