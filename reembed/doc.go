// Package reembed backfills and refreshes enrichment of stored chunks.
//
// The Reembedder embeds chunks that were persisted without a vector, for
// example while the embedding host was down, or every chunk after a model
// change. The Reextractor re-runs entity extraction and topic classification
// after pattern changes. Both replace chunks under their existing IDs, work
// in batches, retry embedding calls with exponential backoff and record a
// checkpoint after each batch so an interrupted run resumes where it stopped.
package reembed
