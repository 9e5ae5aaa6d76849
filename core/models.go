package core

import (
	"encoding/binary"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/oklog/ulid/v2"
)

// MaxContentLength is the upper bound on chunk content. Longer text is treated
// as a code or log dump and never becomes a chunk.
const MaxContentLength = 5000

// Hash is a 64-bit content fingerprint.
type Hash uint64

// HashContent generates a deterministic fingerprint from text content using BLAKE2b hashing.
// Identical content always produces identical hashes.
func HashContent(text string) Hash {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Hash(binary.LittleEndian.Uint64(sum))
}

// NewChunkID returns a new time-sortable chunk identifier.
func NewChunkID() string {
	return ulid.Make().String()
}

// EntityType categorizes an extracted entity.
type EntityType string

const (
	EntityPerson   EntityType = "person"
	EntityCompany  EntityType = "company"
	EntityProject  EntityType = "project"
	EntityDate     EntityType = "date"
	EntityMoney    EntityType = "money"
	EntityEmail    EntityType = "email"
	EntityPhone    EntityType = "phone"
	EntityLocation EntityType = "location"
	EntityOther    EntityType = "other"
)

// EntityTypes lists every valid entity type.
var EntityTypes = []EntityType{
	EntityPerson,
	EntityCompany,
	EntityProject,
	EntityDate,
	EntityMoney,
	EntityEmail,
	EntityPhone,
	EntityLocation,
	EntityOther,
}

// Entity is a typed value recognized in chunk content.
type Entity struct {
	Type       EntityType
	Value      string
	Confidence float64 // 0..1
}

// Key returns the lowercased value used for case-insensitive deduplication.
func (e Entity) Key() string {
	return strings.ToLower(e.Value)
}

// MergeEntities appends each entity from more whose value is not already present
// in list, comparing values case-insensitively. The first occurrence wins.
func MergeEntities(list []Entity, more ...Entity) []Entity {
	seen := make(map[string]struct{}, len(list)+len(more))
	for _, e := range list {
		seen[e.Key()] = struct{}{}
	}
	for _, e := range more {
		if e.Value == "" {
			continue
		}
		if _, ok := seen[e.Key()]; ok {
			continue
		}
		seen[e.Key()] = struct{}{}
		list = append(list, e)
	}
	return list
}

// Metadata keys the collector sets on every chunk.
const (
	MetaApp      = "app"      // application the text was observed in
	MetaProducer = "producer" // producer tag passed with the event
)

// ContextChunk is a timestamped, source-tagged, enriched unit of observed text.
//
// Chunks are values: once accepted they are never modified in place. The With*
// methods return a copy that shares the same ID.
type ContextChunk struct {
	ID        string
	Timestamp time.Time
	Source    ContextSource
	Content   string
	Entities  []Entity
	Topic     string            // empty when no topic matched
	Embedding []float32         // nil until enrichment succeeds
	Metadata  map[string]string // free-form provenance
}

// HasEmbedding reports whether the chunk carries a vector.
func (c *ContextChunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// Clone returns a deep copy of the chunk.
func (c *ContextChunk) Clone() *ContextChunk {
	out := *c
	out.Entities = slices.Clone(c.Entities)
	out.Embedding = slices.Clone(c.Embedding)
	out.Metadata = maps.Clone(c.Metadata)
	return &out
}

// WithEmbedding returns a copy of the chunk carrying the given vector.
func (c *ContextChunk) WithEmbedding(vector []float32) *ContextChunk {
	out := c.Clone()
	out.Embedding = slices.Clone(vector)
	return out
}

// WithEnrichment returns a copy of the chunk with replaced entities and topic.
func (c *ContextChunk) WithEnrichment(entities []Entity, topic string) *ContextChunk {
	out := c.Clone()
	out.Entities = slices.Clone(entities)
	out.Topic = topic
	return out
}

// Contact is a person learned from observed activity.
type Contact struct {
	Name      string
	Count     int
	FirstSeen time.Time
	LastSeen  time.Time
}

// Key returns the lowercased name used to index contacts.
func (c *Contact) Key() string {
	return strings.ToLower(c.Name)
}

// SearchResult represents a search result with the full chunk and relevance score.
type SearchResult struct {
	Chunk *ContextChunk
	Score float32
}

// Checkpoint records how far a maintenance run has progressed through the
// chunk timeline so an interrupted run can resume.
type Checkpoint struct {
	Processor string
	Position  time.Time // timestamp of the last fully processed chunk
	Processed int
	UpdatedAt time.Time
}
