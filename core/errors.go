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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a ContextChunk failed validation.
	ErrInvalidChunk = errors.New("invalid context chunk")

	// ErrEmptyID indicates the chunk ID is empty.
	ErrEmptyID = errors.New("chunk id cannot be empty")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrContentTooLong indicates the content exceeds MaxContentLength.
	ErrContentTooLong = errors.New("content exceeds maximum length")

	// ErrInvalidSource indicates an unknown ContextSource value.
	ErrInvalidSource = errors.New("invalid context source")

	// ErrMissingTimestamp indicates the chunk has a zero timestamp.
	ErrMissingTimestamp = errors.New("timestamp is required")

	// ErrInvalidEntity indicates an Entity failed validation.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrMalformedRecord indicates encoded bytes could not be decoded.
	ErrMalformedRecord = errors.New("malformed record")
)
