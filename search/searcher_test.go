package search

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/poiesic/witness/ai/mock"
	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/storage"
	"github.com/poiesic/witness/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Chunks().Initialize(context.Background()))
	return store
}

// addChunk stores content with the mock embedder's vector for embedText,
// so a query equal to embedText is a perfect semantic match.
func addChunk(t *testing.T, store storage.Store, content, embedText string, entities ...core.Entity) *core.ContextChunk {
	t.Helper()
	chunk := &core.ContextChunk{
		ID:        core.NewChunkID(),
		Timestamp: time.Now().UTC(),
		Source:    core.SourceSlack,
		Content:   content,
		Entities:  entities,
	}
	if embedText != "" {
		chunk.Embedding = mock.Vector(embedText)
	}
	require.NoError(t, store.Chunks().InsertChunk(context.Background(), chunk))
	return chunk
}

func TestNewSearcher(t *testing.T) {
	store := setupStore(t)

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(store.Chunks(), mock.NewMockEmbedder())
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(store.Chunks(), mock.NewMockEmbedder(), WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		_, err := NewSearcher(nil, mock.NewMockEmbedder())
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(store.Chunks(), nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestFindSimilar_EmptyDatabase(t *testing.T) {
	store := setupStore(t)
	searcher, err := NewSearcher(store.Chunks(), mock.NewMockEmbedder(), WithLogger(slog.Default()))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "anything at all", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_SemanticOnly(t *testing.T) {
	store := setupStore(t)
	query := "roadmap review"
	hit := addChunk(t, store, "notes from the planning session", query)
	addChunk(t, store, "unrelated lunch order", "unrelated lunch order")

	searcher, err := NewSearcher(store.Chunks(), mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), query, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, hit.ID, results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
}

func TestFindSimilar_EntityOnly(t *testing.T) {
	store := setupStore(t)
	hit := addChunk(t, store, "Budget sync moved to Thursday", "",
		core.Entity{Type: core.EntityPerson, Value: "Anna Nowak", Confidence: 0.9})

	searcher, err := NewSearcher(store.Chunks(), mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "what did anna nowak say", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, hit.ID, results[0].Chunk.ID)
	assert.InDelta(t, entityScore, results[0].Score, 1e-5)
}

func TestFindSimilar_HybridRanksFirst(t *testing.T) {
	store := setupStore(t)
	query := "Acme contract"
	both := addChunk(t, store, "signed paperwork yesterday", query,
		core.Entity{Type: core.EntityCompany, Value: "Acme", Confidence: 1})
	semantic := addChunk(t, store, "other paperwork", query)

	searcher, err := NewSearcher(store.Chunks(), mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), query, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, both.ID, results[0].Chunk.ID)
	assert.InDelta(t, bothWeight, results[0].Score, 1e-5)
	assert.Equal(t, semantic.ID, results[1].Chunk.ID)
}

func TestFindSimilar_VerbatimBoost(t *testing.T) {
	store := setupStore(t)
	query := "quarterly roadmap"
	verbatim := addChunk(t, store, "The quarterly roadmap is ready", query)
	plain := addChunk(t, store, "Plans for the next months", query)

	searcher, err := NewSearcher(store.Chunks(), mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), query, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, verbatim.ID, results[0].Chunk.ID)
	assert.InDelta(t, 1.0+verbatimBoost, results[0].Score, 1e-5)
	assert.Equal(t, plain.ID, results[1].Chunk.ID)
}

func TestFindSimilar_MaxHits(t *testing.T) {
	store := setupStore(t)
	query := "standup notes"
	for range 5 {
		addChunk(t, store, "daily standup summary", query)
	}

	searcher, err := NewSearcher(store.Chunks(), mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), query, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFindSimilar_UnconfiguredEmbedderUsesEntities(t *testing.T) {
	store := setupStore(t)
	hit := addChunk(t, store, "Invoice from Acme arrived", "Acme",
		core.Entity{Type: core.EntityCompany, Value: "Acme", Confidence: 1})

	embedder := &mock.MockEmbedder{Unconfigured: true}
	searcher, err := NewSearcher(store.Chunks(), embedder)
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "acme", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, hit.ID, results[0].Chunk.ID)
	assert.Zero(t, embedder.CallCount())
}

type recordingMonitor struct {
	noopMonitor
	started     string
	semantic    []string
	entityIDs   []string
	matched     []string
	entityHits  int
	bothHits    int
	semHits     int
	finishedLen int
}

func (m *recordingMonitor) Start(q string) { m.started = q }

func (m *recordingMonitor) AfterSemanticSearch(ids []string) { m.semantic = ids }

func (m *recordingMonitor) FoundEntityMatches(value string, _ []string) {
	m.matched = append(m.matched, value)
}

func (m *recordingMonitor) AfterEntitySearch(ids iter.Seq[string]) {
	m.entityIDs = slices.Collect(ids)
}

func (m *recordingMonitor) SemanticAndEntityHit(*core.ContextChunk) { m.bothHits++ }

func (m *recordingMonitor) SemanticHit(*core.ContextChunk) { m.semHits++ }

func (m *recordingMonitor) EntityHit(*core.ContextChunk) { m.entityHits++ }

func (m *recordingMonitor) Finish(results []*core.SearchResult) { m.finishedLen = len(results) }

func TestFindSimilarWithMonitor(t *testing.T) {
	store := setupStore(t)
	query := "Jan Kowalski review"
	addChunk(t, store, "code review with Jan Kowalski", query,
		core.Entity{Type: core.EntityPerson, Value: "Jan Kowalski", Confidence: 0.85})
	addChunk(t, store, "something else entirely", "",
		core.Entity{Type: core.EntityPerson, Value: "Jan Kowalski", Confidence: 0.85})
	addChunk(t, store, "more review notes", query)

	searcher, err := NewSearcher(store.Chunks(), mock.NewMockEmbedder())
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	results, err := searcher.FindSimilarWithMonitor(context.Background(), query, 10, monitor)
	require.NoError(t, err)

	assert.Equal(t, query, monitor.started)
	assert.Len(t, monitor.semantic, 2)
	assert.Len(t, monitor.entityIDs, 2)
	assert.Contains(t, monitor.matched, "jan kowalski")
	assert.Equal(t, 1, monitor.bothHits)
	assert.Equal(t, 1, monitor.entityHits)
	assert.Equal(t, 1, monitor.semHits)
	assert.Equal(t, 3, monitor.finishedLen)
	assert.Len(t, results, 3)
}

func TestEntityCandidates(t *testing.T) {
	got := entityCandidates("What did Anna Nowak say about the invoice?", []string{"Anna Nowak"})
	assert.Equal(t, "anna nowak", got[0])
	assert.Contains(t, got, "invoice")
	assert.Contains(t, got, "say invoice")
	assert.NotContains(t, got, "the")
}

func TestContainsAllQueryWords(t *testing.T) {
	assert.True(t, containsAllQueryWords("The quarterly roadmap is ready.", "quarterly roadmap"))
	assert.False(t, containsAllQueryWords("The quarterly plan", "quarterly roadmap"))
	assert.False(t, containsAllQueryWords("anything", "the a an"))
}
