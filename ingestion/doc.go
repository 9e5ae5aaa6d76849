// Package ingestion turns raw observed text into persisted context chunks.
//
// The Collector is the single owner of the filter, the deduplication caches
// and the pending batch. Producers call Collect for ordinary events and
// CollectAggregateCapture for whole-screen OCR scans. Accepted chunks are
// enriched with entities and a topic right away, then batched and handed to
// a worker pool that requests embeddings and writes to the store.
//
// Enrichment failures never drop text: a chunk whose embedding cannot be
// produced is stored without one and can be backfilled later by the reembed
// package. Filter and duplicate rejections are reported as a false return,
// not as errors.
package ingestion
