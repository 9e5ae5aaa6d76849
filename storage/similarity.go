package storage

import (
	"math"
	"slices"

	"github.com/poiesic/witness/core"
)

// CosineSimilarity returns the cosine of the angle between a and b. Vectors of
// different length are compared over their common prefix. Zero vectors have
// similarity 0.
func CosineSimilarity(a, b []float32) float32 {
	n := min(len(a), len(b))
	var dot, normA, normB float64
	for i := range n {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// RankResults sorts results by score descending and keeps at most limit.
// Ties keep the newer chunk first.
func RankResults(results []*core.SearchResult, limit int) []*core.SearchResult {
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return b.Chunk.Timestamp.Compare(a.Chunk.Timestamp)
	})

	// Limit to maxHits
	if limit >= 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
