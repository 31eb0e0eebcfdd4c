package core

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored chunks, allocated from a database sequence.
type ID uint64

// shortHashLen is the number of hash characters shown in status lines.
const shortHashLen = 8

// HashContent returns the hex encoded BLAKE2b-128 digest of normalized text.
// Identical text always produces the identical hash.
func HashContent(text string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// ShortHash returns the display prefix of a content hash.
func ShortHash(hash string) string {
	if len(hash) <= shortHashLen {
		return hash
	}
	return hash[:shortHashLen]
}

// SourceType identifies the kind of collector that produced an item.
type SourceType string

const (
	// SourceTypeWeb is content found by general web search.
	SourceTypeWeb SourceType = "web"
	// SourceTypePaper is content from a scientific paper index.
	SourceTypePaper SourceType = "paper"
	// SourceTypeOther is anything else.
	SourceTypeOther SourceType = "other"
)

// ParseSourceType maps a collector tag onto a SourceType.
// Unknown tags map to SourceTypeOther.
func ParseSourceType(tag string) SourceType {
	switch tag {
	case "web", "web_search":
		return SourceTypeWeb
	case "paper", "arxiv":
		return SourceTypePaper
	default:
		return SourceTypeOther
	}
}

// Metadata carries descriptive fields for an item. Values are strings or numbers.
type Metadata map[string]any

// Clone returns a shallow copy of the metadata. A nil receiver yields an empty map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	maps.Copy(out, m)
	return out
}

// String returns the value for key rendered as a string, or "" when absent.
func (m Metadata) String(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Validate rejects values other than strings and numbers, such as nested
// objects, arrays, booleans and nulls decoded from JSON.
func (m Metadata) Validate() error {
	for k, v := range m {
		switch v.(type) {
		case string, float64, float32, int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64, json.Number:
		default:
			return fmt.Errorf("%w: %q is %T", ErrInvalidMetadata, k, v)
		}
	}
	return nil
}

// Flatten renders every value as a string for storage.
func (m Metadata) Flatten() map[string]string {
	out := make(map[string]string, len(m))
	for k := range m {
		out[k] = m.String(k)
	}
	return out
}

// ProcessedContent is an item after normalization.
type ProcessedContent struct {
	Content     string     // Normalized text
	Metadata    Metadata   // Input metadata merged with derived fields
	SourceType  SourceType // Collector kind
	ContentHash string     // HashContent(Content)
}

// Chunk is one persisted slice of validated content.
type Chunk struct {
	Id          ID
	ContentHash string            // Hash of the content this chunk was split from
	Index       int               // Position of the chunk within its content
	Text        string            // Chunk text
	Metadata    map[string]string // Flattened item metadata
	Vector      []float32         // Embedding vector for semantic search
	StoredAt    time.Time
}

// SearchResult represents a search result with the full chunk and relevance score.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}
