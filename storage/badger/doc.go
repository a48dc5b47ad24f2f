// Package badger implements storage.EmbeddingRepository on BadgerDB.
//
// Embeddings live under the "emb:" prefix keyed by the big-endian content
// ID of their cleaned text. Values are MUS-encoded storage.StoredEmbedding.
package badger
