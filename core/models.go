package core

import (
	"bytes"
	"encoding/binary"
	"encoding/json"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored embeddings.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Record is one row or entry of input data.
// Field order follows the order in which the source produced the fields.
// Values are strings or float64 at load time; hierarchical sources may
// also carry booleans, nulls or nested values, which are passed through.
type Record struct {
	fields []string
	values map[string]any
}

// NewRecord creates an empty record with room for n fields.
func NewRecord(n int) *Record {
	return &Record{
		fields: make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

// Set assigns a field value. New fields are appended to the field order;
// existing fields keep their position.
func (r *Record) Set(name string, value any) {
	if _, ok := r.values[name]; !ok {
		r.fields = append(r.fields, name)
	}
	r.values[name] = value
}

// Get returns the value of a field and whether it is present.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether the record carries the named field.
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Fields returns the field names in source order.
func (r *Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// MarshalJSON encodes the record as a JSON object preserving field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Embedding is the per-record result handed to sinks.
type Embedding struct {
	Source string    // Path of the input file
	Index  int       // Zero-based position of the record in load order
	Record *Record   // The normalized record
	Text   string    // Cleaned text that was embedded
	Vector []float32 // Vector returned by the embedding service
}
