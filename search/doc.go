// Package search provides hybrid semantic and entity search over stored
// context chunks.
//
// The Searcher combines:
//   - Semantic search using vector embeddings, when an embedder is configured
//   - Entity search: values recognized in the query, and the query's own
//     words and word pairs, looked up in the entity index
//   - Verbatim keyword matching with stop-word filtering
//
// Chunks found by both semantic and entity search rank highest. A chunk
// containing every query word verbatim gets an extra boost.
package search
