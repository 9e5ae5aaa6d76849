package core

import (
	"maps"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Binary serializers for values kept in durable stores. Field order is part of
// the on-disk format: append new fields at the end only.

// ChunkMUS serializes ContextChunk values.
var ChunkMUS = chunkMUS{}

// EntityMUS serializes Entity values.
var EntityMUS = entityMUS{}

// ContactMUS serializes Contact values.
var ContactMUS = contactMUS{}

// CheckpointMUS serializes Checkpoint values.
var CheckpointMUS = checkpointMUS{}

type chunkMUS struct{}

func (s chunkMUS) Marshal(v ContextChunk, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += varint.Int64.Marshal(unixMicro(v.Timestamp), bs[n:])
	n += ord.String.Marshal(string(v.Source), bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += varint.Int.Marshal(len(v.Entities), bs[n:])
	for _, e := range v.Entities {
		n += EntityMUS.Marshal(e, bs[n:])
	}
	n += ord.String.Marshal(v.Topic, bs[n:])
	n += varint.Int.Marshal(len(v.Embedding), bs[n:])
	for _, f := range v.Embedding {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	keys := slices.Sorted(maps.Keys(v.Metadata))
	n += varint.Int.Marshal(len(keys), bs[n:])
	for _, k := range keys {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(v.Metadata[k], bs[n:])
	}
	return n
}

func (s chunkMUS) Unmarshal(bs []byte) (v ContextChunk, n int, err error) {
	d := &decoder{bs: bs}
	v.ID = d.string()
	v.Timestamp = d.time()
	v.Source = ContextSource(d.string())
	v.Content = d.string()
	if count := d.length(); count > 0 {
		v.Entities = make([]Entity, 0, count)
		for range count {
			v.Entities = append(v.Entities, d.entity())
		}
	}
	v.Topic = d.string()
	if count := d.length(); count > 0 {
		v.Embedding = make([]float32, count)
		for i := range v.Embedding {
			v.Embedding[i] = d.float32()
		}
	}
	if count := d.length(); count > 0 {
		v.Metadata = make(map[string]string, count)
		for range count {
			k := d.string()
			v.Metadata[k] = d.string()
		}
	}
	if d.err != nil {
		return ContextChunk{}, d.n, d.err
	}
	return v, d.n, nil
}

func (s chunkMUS) Size(v ContextChunk) (size int) {
	size = ord.String.Size(v.ID)
	size += varint.Int64.Size(unixMicro(v.Timestamp))
	size += ord.String.Size(string(v.Source))
	size += ord.String.Size(v.Content)
	size += varint.Int.Size(len(v.Entities))
	for _, e := range v.Entities {
		size += EntityMUS.Size(e)
	}
	size += ord.String.Size(v.Topic)
	size += varint.Int.Size(len(v.Embedding))
	for _, f := range v.Embedding {
		size += raw.Float32.Size(f)
	}
	size += varint.Int.Size(len(v.Metadata))
	for k, val := range v.Metadata {
		size += ord.String.Size(k) + ord.String.Size(val)
	}
	return size
}

type entityMUS struct{}

func (s entityMUS) Marshal(v Entity, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.Type), bs)
	n += ord.String.Marshal(v.Value, bs[n:])
	return n + raw.Float64.Marshal(v.Confidence, bs[n:])
}

func (s entityMUS) Unmarshal(bs []byte) (v Entity, n int, err error) {
	d := &decoder{bs: bs}
	v = d.entity()
	return v, d.n, d.err
}

func (s entityMUS) Size(v Entity) (size int) {
	size = ord.String.Size(string(v.Type))
	size += ord.String.Size(v.Value)
	return size + raw.Float64.Size(v.Confidence)
}

type contactMUS struct{}

func (s contactMUS) Marshal(v Contact, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += varint.Int.Marshal(v.Count, bs[n:])
	n += varint.Int64.Marshal(unixMicro(v.FirstSeen), bs[n:])
	return n + varint.Int64.Marshal(unixMicro(v.LastSeen), bs[n:])
}

func (s contactMUS) Unmarshal(bs []byte) (v Contact, n int, err error) {
	d := &decoder{bs: bs}
	v.Name = d.string()
	v.Count = d.int()
	v.FirstSeen = d.time()
	v.LastSeen = d.time()
	if d.err != nil {
		return Contact{}, d.n, d.err
	}
	return v, d.n, nil
}

func (s contactMUS) Size(v Contact) (size int) {
	size = ord.String.Size(v.Name)
	size += varint.Int.Size(v.Count)
	size += varint.Int64.Size(unixMicro(v.FirstSeen))
	return size + varint.Int64.Size(unixMicro(v.LastSeen))
}

type checkpointMUS struct{}

func (s checkpointMUS) Marshal(v Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.Processor, bs)
	n += varint.Int64.Marshal(unixMicro(v.Position), bs[n:])
	n += varint.Int.Marshal(v.Processed, bs[n:])
	return n + varint.Int64.Marshal(unixMicro(v.UpdatedAt), bs[n:])
}

func (s checkpointMUS) Unmarshal(bs []byte) (v Checkpoint, n int, err error) {
	d := &decoder{bs: bs}
	v.Processor = d.string()
	v.Position = d.time()
	v.Processed = d.int()
	v.UpdatedAt = d.time()
	if d.err != nil {
		return Checkpoint{}, d.n, d.err
	}
	return v, d.n, nil
}

func (s checkpointMUS) Size(v Checkpoint) (size int) {
	size = ord.String.Size(v.Processor)
	size += varint.Int64.Size(unixMicro(v.Position))
	size += varint.Int.Size(v.Processed)
	return size + varint.Int64.Size(unixMicro(v.UpdatedAt))
}

// decoder reads fields in sequence and keeps the first error.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) int() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) time() time.Time {
	if d.err != nil {
		return time.Time{}
	}
	v, n, err := varint.Int64.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

// unixMicro encodes the zero time as 0 so it survives a round trip.
func unixMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func (d *decoder) float32() float32 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) float64() float64 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float64.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

// length reads a collection length and rejects values that cannot fit in the
// remaining input.
func (d *decoder) length() int {
	l := d.int()
	if d.err == nil && (l < 0 || l > len(d.bs)-d.n) {
		d.err = ErrMalformedRecord
		return 0
	}
	return l
}

func (d *decoder) entity() Entity {
	var e Entity
	e.Type = EntityType(d.string())
	e.Value = d.string()
	e.Confidence = d.float64()
	return e
}
