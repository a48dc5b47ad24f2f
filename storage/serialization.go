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

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/recembed/core"
)

var vectorMUS = ord.NewSliceSer[float32](raw.Float32)

// StoredEmbeddingMUS is the MUS serializer for StoredEmbedding.
// Fields are written in declaration order; InsertedAt is stored as
// microseconds since the Unix epoch.
var StoredEmbeddingMUS = storedEmbeddingMUS{}

type storedEmbeddingMUS struct{}

func (s storedEmbeddingMUS) Marshal(v StoredEmbedding, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.ID), bs)
	n += ord.String.Marshal(v.Source, bs[n:])
	n += varint.Int.Marshal(v.Index, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	return n + varint.Int64.Marshal(v.InsertedAt.UnixMicro(), bs[n:])
}

func (s storedEmbeddingMUS) Unmarshal(bs []byte) (v StoredEmbedding, n int, err error) {
	id, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v.ID = core.ID(id)

	var n1 int
	v.Source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Index, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt = time.UnixMicro(micros).UTC()
	return
}

func (s storedEmbeddingMUS) Size(v StoredEmbedding) (size int) {
	size = varint.Uint64.Size(uint64(v.ID))
	size += ord.String.Size(v.Source)
	size += varint.Int.Size(v.Index)
	size += ord.String.Size(v.Text)
	size += vectorMUS.Size(v.Vector)
	return size + varint.Int64.Size(v.InsertedAt.UnixMicro())
}

func (s storedEmbeddingMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(id), err
}

// MarshalEmbedding serializes a StoredEmbedding to bytes.
func MarshalEmbedding(e *StoredEmbedding) []byte {
	buf := make([]byte, StoredEmbeddingMUS.Size(*e))
	StoredEmbeddingMUS.Marshal(*e, buf)
	return buf
}

// UnmarshalEmbedding deserializes a StoredEmbedding from bytes.
func UnmarshalEmbedding(data []byte) (*StoredEmbedding, error) {
	e, _, err := StoredEmbeddingMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &e, nil
}
