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


package storage

import "errors"

var (
	// ErrNotFound is returned when a chunk, contact or checkpoint is absent.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a chunk ID is inserted twice.
	// Chunks are immutable; use ReplaceChunks to store a new value.
	ErrDuplicateKey = errors.New("chunk already exists")

	// ErrNotInitialized is returned by writes before Initialize succeeded.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrStorageClosed is returned after the store has been closed.
	ErrStorageClosed = errors.New("store closed")

	// ErrInvalidQuery is returned for a malformed range or limit.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrSerializationFailed wraps codec failures for stored values.
	ErrSerializationFailed = errors.New("serialization failed")
)
