package badger

import (
	"encoding/binary"

	"github.com/poiesic/recembed/core"
)

// Key prefix for stored embeddings
const embeddingPrefix = "emb:"

// makeEmbeddingKey generates a key for an embedding by ID.
// Format: prefix + 8-byte big-endian ID, so keys sort by ID.
func makeEmbeddingKey(id core.ID) []byte {
	buf := make([]byte, len(embeddingPrefix)+8)
	offset := copy(buf, embeddingPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
