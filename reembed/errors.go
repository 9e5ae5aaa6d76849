package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbedderNotConfigured is returned when a backfill is requested
	// without an embedding host.
	ErrEmbedderNotConfigured = errors.New("embedder not configured")
)
