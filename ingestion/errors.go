package ingestion

import "errors"

var (
	// ErrStoreRequired is returned when a chunk repository is not provided.
	ErrStoreRequired = errors.New("chunk repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrStoreInit wraps a failure to initialize the store on Start.
	ErrStoreInit = errors.New("store initialization failed")

	// ErrAlreadyStarted is returned by Start when the collector is collecting.
	ErrAlreadyStarted = errors.New("collector already started")

	// ErrNotStarted is returned by Stop when the collector is idle.
	ErrNotStarted = errors.New("collector not started")
)
