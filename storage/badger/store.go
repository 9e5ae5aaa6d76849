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
package badger

import "github.com/poiesic/witness/storage"

// Store implements storage.Store on a single Backend.
type Store struct {
	backend     *Backend
	chunks      *ChunkRepository
	contacts    *ContactRepository
	checkpoints *CheckpointRepository
}

var _ storage.Store = (*Store)(nil)

// Open opens or creates a BadgerDB store in the directory at path.
func Open(path string) (storage.Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newStore(backend), nil
}

// OpenInMemory creates an in-memory store for testing.
// Caller must close the store when done.
func OpenInMemory() (storage.Store, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return newStore(backend), nil
}

func newStore(backend *Backend) *Store {
	return &Store{
		backend:     backend,
		chunks:      newChunkRepository(backend),
		contacts:    newContactRepository(backend),
		checkpoints: newCheckpointRepository(backend),
	}
}

// Chunks returns the chunk repository.
func (s *Store) Chunks() storage.ChunkRepository {
	return s.chunks
}

// Contacts returns the contact repository.
func (s *Store) Contacts() storage.ContactRepository {
	return s.contacts
}

// Checkpoints returns the checkpoint repository.
func (s *Store) Checkpoints() storage.CheckpointRepository {
	return s.checkpoints
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.backend.IsClosed() {
		return nil
	}
	return s.backend.Close()
}
