package badger

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/poiesic/witness/core"
)

// Key prefixes for different data types
const (
	chunkPrefix       = "chunk:"
	chunkDatePrefix   = "chunkd:"
	chunkEntityPrefix = "chunke:"
	contactPrefix     = "contact:"
	checkpointPrefix  = "chkpt:"
	schemaKey         = "meta:schema"
)

// schemaVersion is bumped whenever the key layout or value encoding changes.
const schemaVersion = "1"

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id string) []byte {
	return []byte(chunkPrefix + id)
}

// makeChunkDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeChunkDateKey(timestamp time.Time, id string) []byte {
	buf := makePartialChunkDateKey(timestamp)
	return append(buf, id...)
}

// makePartialChunkDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialChunkDateKey(timestamp time.Time) []byte {
	buf := make([]byte, len(chunkDatePrefix)+8, len(chunkDatePrefix)+8+26)
	offset := copy(buf, chunkDatePrefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// lastChunkDateKey sorts after every key in the date index.
func lastChunkDateKey() []byte {
	buf := []byte(chunkDatePrefix)
	for range 9 {
		buf = append(buf, 0xff)
	}
	return buf
}

// makeChunkEntityKey generates a composite key for the entity index.
// Format: prefix:hash(lower(value)):id
func makeChunkEntityKey(value, id string) []byte {
	return append(makePartialChunkEntityKey(value), id...)
}

// makePartialChunkEntityKey generates a partial key for entity queries.
func makePartialChunkEntityKey(value string) []byte {
	buf := make([]byte, len(chunkEntityPrefix)+8, len(chunkEntityPrefix)+8+26)
	offset := copy(buf, chunkEntityPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.HashContent(strings.ToLower(value))))
	return buf
}

// makeContactKey generates a key for a contact by lowercased name.
func makeContactKey(name string) []byte {
	return []byte(contactPrefix + strings.ToLower(strings.TrimSpace(name)))
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processor string) []byte {
	return []byte(checkpointPrefix + processor)
}
