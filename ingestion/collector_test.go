package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/witness/ai/mock"
	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/profile"
	"github.com/poiesic/witness/storage"
	"github.com/poiesic/witness/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// distinctTexts share too few words to be near-duplicates of each other.
var distinctTexts = []string{
	"Quarterly roadmap discussion with the design team",
	"Remember to water the office plants tomorrow",
	"Lunch order from the Thai place downstairs",
	"Flight to Berlin departs early Friday morning",
	"Draft the onboarding checklist for new hires",
	"Server migration window moved to next weekend",
	"Dentist appointment rescheduled until later this month",
	"Grocery list includes apples, bread and cheese",
	"Podcast episode about distributed systems history",
	"Kids soccer practice starts at five o'clock",
}

// failingChunks lets tests break Initialize or InsertChunk of a real store.
type failingChunks struct {
	storage.ChunkRepository
	initErr    error
	failInsert func(chunk *core.ContextChunk) bool
}

func (f *failingChunks) Initialize(ctx context.Context) error {
	if f.initErr != nil {
		return f.initErr
	}
	return f.ChunkRepository.Initialize(ctx)
}

func (f *failingChunks) InsertChunk(ctx context.Context, chunk *core.ContextChunk) error {
	if f.failInsert != nil && f.failInsert(chunk) {
		return errors.New("disk full")
	}
	return f.ChunkRepository.InsertChunk(ctx, chunk)
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func startCollector(t *testing.T, chunks storage.ChunkRepository, embedder *mock.MockEmbedder, opts ...Option) *Collector {
	t.Helper()
	opts = append([]Option{WithFlushDelay(time.Minute)}, opts...)
	c, err := New(chunks, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Stop(context.Background())
		c.Release()
	})
	require.NoError(t, c.Start(context.Background()))
	return c
}

func storedChunks(t *testing.T, store storage.Store) map[string]*core.ContextChunk {
	t.Helper()
	chunks, err := store.Chunks().GetRecentChunks(context.Background(), 1000)
	require.NoError(t, err)
	byContent := make(map[string]*core.ContextChunk, len(chunks))
	for _, c := range chunks {
		byContent[c.Content] = c
	}
	return byContent
}

func TestNew_RequiresCollaborators(t *testing.T) {
	store := newTestStore(t)

	_, err := New(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = New(store.Chunks(), nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = New(store.Chunks(), mock.NewMockEmbedder(), WithBatchSize(0))
	assert.Error(t, err)
}

func TestStart_StoreInitFailure(t *testing.T) {
	store := newTestStore(t)
	chunks := &failingChunks{ChunkRepository: store.Chunks(), initErr: errors.New("permission denied")}

	c, err := New(chunks, mock.NewMockEmbedder())
	require.NoError(t, err)
	defer c.Release()

	err = c.Start(context.Background())
	require.ErrorIs(t, err, ErrStoreInit)
	assert.Contains(t, err.Error(), "permission denied")

	st := c.Status()
	assert.False(t, st.Collecting())
	assert.Equal(t, "permission denied", st.LastError)
	assert.False(t, c.Collect(context.Background(), distinctTexts[0], "Slack", "", nil))
}

func TestStartStop_StateMachine(t *testing.T) {
	store := newTestStore(t)
	c, err := New(store.Chunks(), mock.NewMockEmbedder())
	require.NoError(t, err)
	defer c.Release()
	ctx := context.Background()

	assert.ErrorIs(t, c.Stop(ctx), ErrNotStarted)
	require.NoError(t, c.Start(ctx))
	assert.ErrorIs(t, c.Start(ctx), ErrAlreadyStarted)
	assert.True(t, c.Status().Collecting())
	require.NoError(t, c.Stop(ctx))
	assert.False(t, c.Status().Collecting())

	// Restart after stop
	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Stop(ctx))
}

func TestCollect_FlushBySize(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()
	c := startCollector(t, store.Chunks(), embedder)
	ctx := context.Background()

	for _, text := range distinctTexts {
		require.True(t, c.Collect(ctx, text, "Slack", "", nil), text)
	}

	require.Eventually(t, func() bool {
		return c.Status().Persisted == len(distinctTexts)
	}, 5*time.Second, 10*time.Millisecond)

	batches := embedder.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, distinctTexts, batches[0])
	assert.Equal(t, 0, c.Status().Pending)

	stored := storedChunks(t, store)
	require.Len(t, stored, len(distinctTexts))
	for _, text := range distinctTexts {
		chunk := stored[text]
		require.NotNil(t, chunk, text)
		assert.Equal(t, mock.Vector(text), chunk.Embedding)
		assert.Equal(t, core.SourceSlack, chunk.Source)
		assert.Equal(t, "Slack", chunk.Metadata[core.MetaApp])
	}
}

func TestCollect_FlushByTime(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()
	c := startCollector(t, store.Chunks(), embedder, WithFlushDelay(50*time.Millisecond))

	require.True(t, c.Collect(context.Background(), distinctTexts[0], "Notes", "", nil))

	require.Eventually(t, func() bool {
		return c.Status().Persisted == 1
	}, 5*time.Second, 10*time.Millisecond)

	batches := embedder.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{distinctTexts[0]}, batches[0])
}

func TestCollect_StaleTimerDoesNotFlushAgain(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()
	c := startCollector(t, store.Chunks(), embedder, WithFlushDelay(100*time.Millisecond))
	ctx := context.Background()

	for _, text := range distinctTexts {
		require.True(t, c.Collect(ctx, text, "Slack", "", nil))
	}
	time.Sleep(300 * time.Millisecond)

	assert.Len(t, embedder.Batches(), 1)
}

func TestCollect_EmbeddingFailureStoresWithoutVector(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("connection refused")
	}
	c := startCollector(t, store.Chunks(), embedder, WithBatchSize(3))
	ctx := context.Background()

	for _, text := range distinctTexts[:3] {
		require.True(t, c.Collect(ctx, text, "Slack", "", nil))
	}
	require.NoError(t, c.Stop(ctx))

	total, embedded, err := store.Chunks().CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 0, embedded)
	assert.Equal(t, "connection refused", c.Status().LastError)
}

func TestCollect_ShortEmbeddingResult(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{mock.Vector(texts[0])}, nil
	}
	c := startCollector(t, store.Chunks(), embedder, WithBatchSize(3))
	ctx := context.Background()

	for _, text := range distinctTexts[:3] {
		require.True(t, c.Collect(ctx, text, "Slack", "", nil))
	}
	require.NoError(t, c.Stop(ctx))

	stored := storedChunks(t, store)
	require.Len(t, stored, 3)
	assert.True(t, stored[distinctTexts[0]].HasEmbedding())
	assert.False(t, stored[distinctTexts[1]].HasEmbedding())
	assert.False(t, stored[distinctTexts[2]].HasEmbedding())

	st := c.Status()
	assert.Equal(t, 3, st.Persisted)
	assert.Equal(t, 1, st.Embedded)
}

func TestCollect_UnconfiguredEmbedder(t *testing.T) {
	store := newTestStore(t)
	embedder := &mock.MockEmbedder{Unconfigured: true}
	c := startCollector(t, store.Chunks(), embedder, WithBatchSize(2))
	ctx := context.Background()

	require.True(t, c.Collect(ctx, distinctTexts[0], "Slack", "", nil))
	require.True(t, c.Collect(ctx, distinctTexts[1], "Slack", "", nil))
	require.NoError(t, c.Stop(ctx))

	assert.Equal(t, 0, embedder.CallCount())
	total, embedded, err := store.Chunks().CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 0, embedded)
}

func TestCollect_InsertFailureIsPerChunk(t *testing.T) {
	store := newTestStore(t)
	chunks := &failingChunks{
		ChunkRepository: store.Chunks(),
		failInsert: func(chunk *core.ContextChunk) bool {
			return chunk.Content == distinctTexts[1]
		},
	}
	c := startCollector(t, chunks, mock.NewMockEmbedder(), WithBatchSize(3))
	ctx := context.Background()

	for _, text := range distinctTexts[:3] {
		require.True(t, c.Collect(ctx, text, "Slack", "", nil))
	}
	require.NoError(t, c.Stop(ctx))

	st := c.Status()
	assert.Equal(t, 2, st.Persisted)
	assert.Equal(t, 1, st.InsertFailures)
	assert.Equal(t, "disk full", st.LastError)

	stored := storedChunks(t, store)
	assert.NotContains(t, stored, distinctTexts[1])
}

func TestCollect_IdempotentRejection(t *testing.T) {
	store := newTestStore(t)
	c := startCollector(t, store.Chunks(), mock.NewMockEmbedder())
	ctx := context.Background()

	accepted := 0
	for range 5 {
		if c.Collect(ctx, distinctTexts[0], "Slack", "", nil) {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)

	st := c.Status()
	assert.Equal(t, 1, st.Counters.Accepted)
	assert.Equal(t, 4, st.Counters.Duplicates)
	assert.Equal(t, 1, st.Pending)

	require.NoError(t, c.Stop(ctx))
	total, _, err := store.Chunks().CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCollect_ConcurrentProducersAcceptOnce(t *testing.T) {
	store := newTestStore(t)
	c := startCollector(t, store.Chunks(), mock.NewMockEmbedder())
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Collect(ctx, distinctTexts[3], "Slack", "", nil) {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)
}

func TestCollect_NearDuplicate(t *testing.T) {
	store := newTestStore(t)
	c := startCollector(t, store.Chunks(), mock.NewMockEmbedder())
	ctx := context.Background()

	require.True(t, c.Collect(ctx, "alpha bravo charlie delta echo foxtrot golf hotel india juliet", "Slack", "", nil))
	assert.False(t, c.Collect(ctx, "Alpha bravo charlie delta echo foxtrot golf hotel india juliet!", "Slack", "", nil))
	assert.Equal(t, 1, c.Status().Counters.NearDuplicates)
}

func TestCollect_SecretsNeverStored(t *testing.T) {
	store := newTestStore(t)
	c := startCollector(t, store.Chunks(), mock.NewMockEmbedder(), WithBatchSize(1))
	ctx := context.Background()

	secrets := []string{
		"export the api_key for the staging server now",
		"curl -H 'Authorization: Bearer abcdef123456' https://example.com",
		"my new password=hunter2 for the vpn portal",
	}
	for _, text := range secrets {
		assert.False(t, c.Collect(ctx, text, "Terminal", "", nil), text)
	}
	require.NoError(t, c.Stop(ctx))

	total, _, err := store.Chunks().CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Equal(t, len(secrets), c.Status().Counters.Filtered)
}

func TestCollect_MinimumLengths(t *testing.T) {
	store := newTestStore(t)
	c := startCollector(t, store.Chunks(), mock.NewMockEmbedder())
	ctx := context.Background()

	assert.False(t, c.Collect(ctx, "  copy 67890  ", "Slack", "", nil))
	assert.True(t, c.Collect(ctx, "copy 12345", "Slack", "clipboard", nil))
	assert.False(t, c.Collect(ctx, "copy 1234", "Slack", "clipboard", nil))
	assert.Equal(t, 2, c.Status().Counters.TooShort)

	require.NoError(t, c.Stop(ctx))
	stored := storedChunks(t, store)
	require.Contains(t, stored, "copy 12345")
	assert.Equal(t, core.SourceClipboard, stored["copy 12345"].Source)
	assert.Equal(t, "clipboard", stored["copy 12345"].Metadata[core.MetaProducer])
}

func TestCollect_Enrichment(t *testing.T) {
	store := newTestStore(t)
	c := startCollector(t, store.Chunks(), mock.NewMockEmbedder())
	ctx := context.Background()

	text := "Please send invoice 500 PLN to john@x.com"
	meta := map[string]string{"window": "Inbox"}
	require.True(t, c.Collect(ctx, text, "Mail", "", meta))
	require.NoError(t, c.Stop(ctx))

	chunk := storedChunks(t, store)[text]
	require.NotNil(t, chunk)
	assert.Equal(t, "finance", chunk.Topic)
	assert.Equal(t, core.SourceMail, chunk.Source)
	assert.Equal(t, "Inbox", chunk.Metadata["window"])
	assert.Contains(t, chunk.Entities, core.Entity{Type: core.EntityMoney, Value: "500 PLN", Confidence: 1})
	assert.Contains(t, chunk.Entities, core.Entity{Type: core.EntityEmail, Value: "john@x.com", Confidence: 1})

	// Caller's map is not modified.
	assert.Len(t, meta, 1)
}

func TestStop_FlushesPending(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()
	c := startCollector(t, store.Chunks(), embedder)
	ctx := context.Background()

	for _, text := range distinctTexts[:3] {
		require.True(t, c.Collect(ctx, text, "Slack", "", nil))
	}
	assert.Equal(t, 3, c.Status().Pending)
	require.NoError(t, c.Stop(ctx))

	batches := embedder.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, distinctTexts[:3], batches[0])
	assert.Equal(t, 3, c.Status().Persisted)
	assert.Equal(t, 0, c.Status().Pending)

	// Idle collector rejects new events.
	assert.False(t, c.Collect(ctx, distinctTexts[5], "Slack", "", nil))
}

func TestCollectAggregateCapture(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()
	learner, err := profile.New(store.Contacts(), profile.WithSelfNames("Kamil Moskała"))
	require.NoError(t, err)
	c := startCollector(t, store.Chunks(), embedder, WithProfile(learner))
	ctx := context.Background()

	short := strings.Repeat("x", 20) + " " + strings.Repeat("y", 19)
	require.Len(t, short, 40)
	assert.False(t, c.CollectAggregateCapture(ctx, short, "Preview"))
	assert.Equal(t, 1, c.Status().Counters.TooShort)

	text := "Kamil Moskała 7:10 PM Are we still on for the review? Anna Nowak 7:12 PM Yes, see you at noon"
	require.True(t, c.CollectAggregateCapture(ctx, text, "Slack"))
	assert.False(t, c.CollectAggregateCapture(ctx, text, "Slack"))

	// Stored synchronously, no batch involved.
	assert.Equal(t, []string{text}, embedder.Singles())
	assert.Empty(t, embedder.Batches())

	stored := storedChunks(t, store)
	chunk := stored[text]
	require.NotNil(t, chunk)
	assert.Equal(t, core.SourceOCR, chunk.Source)
	assert.True(t, chunk.HasEmbedding())
	for _, e := range chunk.Entities {
		assert.NotEqual(t, "Kamil Moskała", e.Value)
	}

	anna, err := store.Contacts().GetContact(ctx, "Anna Nowak")
	require.NoError(t, err)
	assert.Equal(t, 1, anna.Count)
	_, err = store.Contacts().GetContact(ctx, "Kamil Moskała")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCollectAggregateCapture_EmbeddingFailure(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("timeout")
	}
	c := startCollector(t, store.Chunks(), embedder)
	ctx := context.Background()

	text := "A long enough screen capture of the quarterly planning document draft"
	require.True(t, c.CollectAggregateCapture(ctx, text, "Preview"))

	chunk := storedChunks(t, store)[text]
	require.NotNil(t, chunk)
	assert.False(t, chunk.HasEmbedding())
	assert.Equal(t, "timeout", c.Status().LastError)
}

func TestCollect_PoolSizeOption(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()
	c := startCollector(t, store.Chunks(), embedder, WithPoolSize(2), WithBatchSize(1))
	ctx := context.Background()

	for i, text := range distinctTexts {
		require.True(t, c.Collect(ctx, text, "Slack", "", map[string]string{"seq": fmt.Sprint(i)}))
	}
	require.NoError(t, c.Stop(ctx))
	assert.Len(t, embedder.Batches(), len(distinctTexts))
	assert.Equal(t, len(distinctTexts), c.Status().Persisted)
}
