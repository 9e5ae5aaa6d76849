package search

import (
	"iter"

	"github.com/poiesic/witness/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(ids []string)
	AfterQueryEntityExtraction(values []string)
	FoundEntityMatches(value string, ids []string)
	AfterEntitySearch(ids iter.Seq[string])
	AfterChunkRetrieval(chunks []*core.ContextChunk)
	SemanticAndEntityHit(chunk *core.ContextChunk)
	SemanticHit(chunk *core.ContextChunk)
	EntityHit(chunk *core.ContextChunk)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterSemanticSearch(_ []string)              {}
func (n *noopMonitor) AfterQueryEntityExtraction(_ []string)       {}
func (n *noopMonitor) FoundEntityMatches(_ string, _ []string)     {}
func (n *noopMonitor) AfterEntitySearch(_ iter.Seq[string])        {}
func (n *noopMonitor) AfterChunkRetrieval(_ []*core.ContextChunk)  {}
func (n *noopMonitor) SemanticAndEntityHit(_ *core.ContextChunk)   {}
func (n *noopMonitor) SemanticHit(_ *core.ContextChunk)            {}
func (n *noopMonitor) EntityHit(_ *core.ContextChunk)              {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)               {}
