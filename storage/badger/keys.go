package badger

import (
	"encoding/binary"

	"github.com/poiesic/gleaner/core"
)

// Key prefixes for different data types
const (
	chunkPrefix     = "chunk:"
	chunkHashPrefix = "chunkh:"
	chunkIDSeq      = "chunkseq"
)

// makeChunkKey generates a key for a chunk by ID.
// Format: prefix + 8 byte big endian ID, so iteration follows ID order.
func makeChunkKey(id core.ID) []byte {
	buf := make([]byte, len(chunkPrefix)+8)
	offset := copy(buf, chunkPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeChunkHashKey generates a composite key for the content hash index.
// Format: prefix:hash:id
func makeChunkHashKey(contentHash string, id core.ID) []byte {
	prefix := makePartialChunkHashKey(contentHash)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialChunkHashKey generates the prefix shared by all chunks of one content.
// Format: prefix:hash:
func makePartialChunkHashKey(contentHash string) []byte {
	return []byte(chunkHashPrefix + contentHash + ":")
}

// hashFromChunkHashKey extracts the content hash from an index key.
func hashFromChunkHashKey(key []byte) (string, bool) {
	// prefix + hash + ":" + 8 byte id
	if len(key) < len(chunkHashPrefix)+1+8 {
		return "", false
	}
	return string(key[len(chunkHashPrefix) : len(key)-9]), true
}
