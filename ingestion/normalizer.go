package ingestion

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/gleaner/core"
)

// Metadata keys added by the pipeline.
const (
	MetaWordCount   = "word_count"
	MetaCharCount   = "char_count"
	MetaLanguage    = "language"
	MetaProcessedAt = "processed_at"
	MetaContentHash = "content_hash"
	MetaStoredAt    = "stored_at"
	MetaChunkIndex  = "chunk_index"
	MetaSourceType  = "source_type"
)

// spaceClass is Unicode whitespace. RE2's \s is ASCII-only and omits \v,
// so the vertical tab, the information separators and NEL are listed too.
const spaceClass = `\s\v\x{1c}-\x{1f}\x{85}\p{Z}`

var (
	whitespaceRun = regexp.MustCompile(`[` + spaceClass + `]+`)
	// Letters, marks, digits, underscore, whitespace and .,;:!?()-
	disallowedChars = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_` + spaceClass + `.,;:!?()\-]`)
)

var portugueseWords = map[string]bool{
	"de": true, "da": true, "do": true, "das": true, "dos": true, "para": true,
	"com": true, "que": true, "não": true, "uma": true, "um": true, "em": true,
	"por": true, "na": true, "os": true, "ao": true,
}

var englishWords = map[string]bool{
	"the": true, "and": true, "of": true, "to": true, "in": true, "is": true,
	"for": true, "with": true, "that": true, "on": true, "are": true, "this": true,
	"from": true, "by": true, "an": true, "be": true,
}

// Normalizer turns raw collector text into ProcessedContent.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a Normalizer. A nil clock selects time.Now.
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// NormalizeText strips characters outside the whitelist, collapses
// whitespace runs to single spaces and trims.
func NormalizeText(raw string) string {
	text := disallowedChars.ReplaceAllString(raw, "")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// DetectLanguage votes between Portuguese and English function words.
// It returns "pt" only when Portuguese words strictly outnumber English ones.
func DetectLanguage(text string) string {
	var pt, en int
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		switch {
		case portugueseWords[w]:
			pt++
		case englishWords[w]:
			en++
		}
	}
	if pt > en {
		return "pt"
	}
	return "en"
}

// Process normalizes raw text and derives metadata. The input metadata map
// is copied, never modified.
func (n *Normalizer) Process(raw string, metadata core.Metadata, sourceType core.SourceType) core.ProcessedContent {
	content := NormalizeText(raw)

	md := metadata.Clone()
	md[MetaWordCount] = len(strings.Fields(content))
	md[MetaCharCount] = utf8.RuneCountInString(content)
	md[MetaLanguage] = DetectLanguage(content)
	md[MetaProcessedAt] = n.now().UTC().Format(time.RFC3339)

	return core.ProcessedContent{
		Content:     content,
		Metadata:    md,
		SourceType:  sourceType,
		ContentHash: core.HashContent(content),
	}
}

// Normalize processes raw text into slot, replacing whatever it held, and
// returns a status line. It never fails.
func (n *Normalizer) Normalize(slot *Slot, raw string, metadata core.Metadata, sourceType core.SourceType) string {
	item := n.Process(raw, metadata, sourceType)
	slot.Set(item)
	return fmt.Sprintf("✅ Normalized: %d words, hash: %s", item.Metadata[MetaWordCount], core.ShortHash(item.ContentHash))
}
