package witness

import "errors"

var (
	// ErrUnknownBackend is returned for a storage backend name other than
	// "badger" or "sqlite".
	ErrUnknownBackend = errors.New("unknown storage backend")
)
