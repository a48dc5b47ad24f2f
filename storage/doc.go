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

// Package storage provides the optional persistence layer for embeddings.
//
// The ingestion pipeline never persists anything on its own; a store is
// attached as one more sink when the caller asks for it. This package
// defines the EmbeddingRepository interface and the on-disk value format;
// storage/badger implements it on BadgerDB.
//
// # Keys and Values
//
// Each embedding is keyed by core.IDFromContent of its cleaned text, so
// re-running the same input is idempotent. Values are MUS-encoded
// StoredEmbedding structs.
//
// # Usage
//
//	repo, err := badger.NewEmbeddingRepository("/path/to/db")
//	if err != nil {
//	    return err
//	}
//	defer repo.Close()
//
//	pipeline, err := ingestion.NewPipeline(embedder, sink.NewMulti(console, repo))
//
// Use in tests with in-memory storage:
//
//	repo, err := badger.NewMemoryRepository()
//
// # Thread Safety
//
// Repository implementations must be safe for concurrent use.
package storage
