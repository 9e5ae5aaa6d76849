package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/witness/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Checkpoints()

	cp, err := repo.LoadCheckpoint(ctx, "reembed")
	require.NoError(t, err)
	assert.Nil(t, cp)

	pos := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Processor: "reembed", Position: pos, Processed: 42}))

	cp, err = repo.LoadCheckpoint(ctx, "reembed")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, 42, cp.Processed)
	assert.True(t, cp.Position.Equal(pos))
	assert.False(t, cp.UpdatedAt.IsZero())

	other, err := repo.LoadCheckpoint(ctx, "reextract")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, repo.ClearCheckpoint(ctx, "reembed"))
	cp, err = repo.LoadCheckpoint(ctx, "reembed")
	require.NoError(t, err)
	assert.Nil(t, cp)
}
