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

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

// ValidateContextChunk validates a ContextChunk according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Content must not be empty and at most MaxContentLength characters
//   - Source must be a known ContextSource
//   - Timestamp must be set
//   - Every entity must be valid
//
// NOT validated (populated by enrichment):
//   - Embedding (absent until the embedding service succeeds)
//   - Topic (optional)
func ValidateContextChunk(chunk *ContextChunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyID)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if utf8.RuneCountInString(chunk.Content) > MaxContentLength {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrContentTooLong)
	}

	if !IsValidSource(chunk.Source) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidChunk, ErrInvalidSource, chunk.Source)
	}

	if chunk.Timestamp.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingTimestamp)
	}

	for _, e := range chunk.Entities {
		if err := ValidateEntity(e); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
		}
	}

	return nil
}

// ValidateEntity validates an Entity.
func ValidateEntity(e Entity) error {
	if e.Value == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidEntity)
	}
	if !slices.Contains(EntityTypes, e.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEntity, e.Type)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of range", ErrInvalidEntity, e.Confidence)
	}
	return nil
}
