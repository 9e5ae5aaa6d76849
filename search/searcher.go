package search

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/poiesic/witness/ai"
	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/extract"
	"github.com/poiesic/witness/storage"
)

const (
	// DefaultThreshold is the minimum cosine similarity for a semantic hit.
	DefaultThreshold float32 = 0.60

	bothWeight    = 1.5
	entityScore   = 1.2
	verbatimBoost = 0.3
)

// Searcher provides hybrid semantic and entity search over context chunks.
type Searcher struct {
	chunks    storage.ChunkRepository
	embedder  ai.Embedder
	extractor *extract.Extractor
	threshold float32
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithExtractor sets the extractor used to recognize entities in queries.
// Default is extract.New().
func WithExtractor(e *extract.Extractor) Option {
	return func(s *Searcher) error {
		if e != nil {
			s.extractor = e
		}
		return nil
	}
}

// WithThreshold sets the minimum similarity for semantic hits.
// Default is 0.60.
func WithThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		s.threshold = threshold
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		chunks:    chunks,
		embedder:  embedder,
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.extractor == nil {
		s.extractor = extract.New(extract.WithLogger(s.logger))
	}

	return s, nil
}

// FindSimilar searches for chunks similar to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for chunks similar to the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
// Without a configured embedder only entity search runs.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// 1. Semantic search
	semanticScores := make(map[string]float32)
	semanticIDs := []string{}
	if s.embedder.IsConfigured() {
		embedding, err := s.embedder.EmbedText(ctx, query)
		if err != nil {
			s.logger.Error("error generating embedding for query", "query", query, "err", err)
			return nil, err
		}

		matches, err := s.chunks.FindSimilar(ctx, embedding, s.threshold, maxHits)
		if err != nil {
			s.logger.Error("error querying for similar chunks", "err", err)
			return nil, err
		}
		for _, match := range matches {
			semanticScores[match.Chunk.ID] = match.Score
			semanticIDs = append(semanticIDs, match.Chunk.ID)
		}
	} else {
		s.logger.Debug("embedder not configured, entity search only")
	}
	monitor.AfterSemanticSearch(semanticIDs)

	// 2. Entities in the query
	var values []string
	for _, e := range s.extractor.Extract(ctx, query) {
		values = append(values, e.Value)
	}
	monitor.AfterQueryEntityExtraction(values)

	// 3. Chunks carrying those entities
	entitySet := make(map[string]bool)
	for _, candidate := range entityCandidates(query, values) {
		ids, err := s.chunks.GetChunkIDsByEntity(ctx, candidate)
		if err != nil {
			s.logger.Warn("failed to get chunks for entity", "entity", candidate, "err", err)
			continue
		}
		if len(ids) == 0 {
			continue
		}
		monitor.FoundEntityMatches(candidate, ids)
		for _, id := range ids {
			entitySet[id] = true
		}
	}
	monitor.AfterEntitySearch(maps.Keys(entitySet))

	// 4. Combine and score
	allIDs := make(map[string]bool, len(semanticScores)+len(entitySet))
	for id := range semanticScores {
		allIDs[id] = true
	}
	for id := range entitySet {
		allIDs[id] = true
	}
	if len(allIDs) == 0 {
		monitor.Finish(nil)
		return []*core.SearchResult{}, nil
	}

	chunks, err := s.chunks.GetChunks(ctx, slices.Collect(maps.Keys(allIDs))...)
	if err != nil {
		s.logger.Error("error retrieving chunks", "chunkCount", len(allIDs), "err", err)
		return nil, err
	}
	monitor.AfterChunkRetrieval(chunks)

	results := make([]*core.SearchResult, 0, len(chunks))
	for _, chunk := range chunks {
		similarity, inSemantic := semanticScores[chunk.ID]
		inEntity := entitySet[chunk.ID]

		var score float32
		switch {
		case inSemantic && inEntity:
			score = bothWeight * similarity
			monitor.SemanticAndEntityHit(chunk)
		case inEntity:
			score = entityScore
			monitor.EntityHit(chunk)
		default:
			score = similarity
			monitor.SemanticHit(chunk)
		}

		if containsAllQueryWords(chunk.Content, query) {
			score += verbatimBoost
		}

		results = append(results, &core.SearchResult{Chunk: chunk, Score: score})
	}

	results = storage.RankResults(results, maxHits)
	monitor.Finish(results)
	return results, nil
}
