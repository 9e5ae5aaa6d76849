// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package storage provides the storage abstraction layer for witness.
//
// This package defines repository interfaces that decouple storage implementation
// from ingestion logic. Two backends implement them:
//
//   - storage/badger: the default embedded key-value store
//   - storage/sqlite: a single-file SQL store, handy for ad hoc inspection
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.Store interface:
//
//	store, err := badger.Open("/path/to/db")  // returns storage.Store
//
// Internal constructors (newChunkRepository, newContactRepository, etc.)
// may return concrete types since they're only used within the implementation
// package.
//
// # Architecture
//
//   - ChunkRepository: append-only context chunks with date and entity indexes
//   - ContactRepository: people learned from observed activity
//   - CheckpointRepository: progress of backfill and re-extraction runs
//   - Store: bundles the three for one database
//
// Values are encoded with the binary codecs in package core, so both backends
// store identical bytes for a chunk.
//
// # Usage
//
//	store, err := badger.Open(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Use in tests with in-memory storage:
//
//	store, err := badger.OpenInMemory()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
