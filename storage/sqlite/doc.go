// Package sqlite implements storage.Store on a single SQLite file using the
// pure-Go modernc.org/sqlite driver.
//
// Chunks are stored as mus-encoded blobs alongside the columns needed for
// range, entity and embedding queries. Similarity search scans embedded rows
// and ranks them in process, like the BadgerDB store.
package sqlite
