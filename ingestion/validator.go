package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/relevance"
)

// MinContentLength is the shortest normalized content, in characters, worth storing.
const MinContentLength = 50

// Reason explains why an item was rejected.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonNothingToValidate  Reason = "nothing to validate"
	ReasonDuplicate          Reason = "duplicate"
	ReasonTooShort           Reason = "too short"
	ReasonIncompleteMetadata Reason = "incomplete metadata"
	ReasonLowRelevance       Reason = "low relevance"
	ReasonNothingToStore     Reason = "nothing to store"
	ReasonStorageFailed      Reason = "storage failed"
)

// RelevanceScorer scores text against a topic and never fails; see relevance.Scorer.
type RelevanceScorer interface {
	Score(ctx context.Context, text, topic string, threshold float64) relevance.Result
}

// Validation is the outcome of validating one item.
type Validation struct {
	Passed      bool
	Reason      Reason
	Score       float64
	FailedOpen  bool
	ContentHash string
	Status      string
}

// Validator gates items on dedup, structure and semantic relevance.
type Validator struct {
	index  *HashIndex
	scorer RelevanceScorer
	logger *slog.Logger
}

// NewValidator creates a Validator sharing index with every other validator
// that should see the same accepted set.
func NewValidator(index *HashIndex, scorer RelevanceScorer, logger *slog.Logger) (*Validator, error) {
	if index == nil {
		return nil, ErrHashIndexRequired
	}
	if scorer == nil {
		return nil, ErrScorerRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		index:  index,
		scorer: scorer,
		logger: logger.With("processor", "validator"),
	}, nil
}

// Validate checks the item in slot. Checks run cheapest first and stop at the
// first failure. Only a full pass registers the hash; low relevance does not.
func (v *Validator) Validate(ctx context.Context, slot *Slot, threshold float64) Validation {
	item, ok := slotItem(slot)
	if !ok {
		return Validation{
			Reason: ReasonNothingToValidate,
			Status: "❌ Nothing to validate: no processed content available",
		}
	}

	hash := item.ContentHash
	short := core.ShortHash(hash)

	if v.index.Contains(hash) {
		return Validation{
			Reason:      ReasonDuplicate,
			ContentHash: hash,
			Status:      fmt.Sprintf("❌ Duplicate content detected (hash: %s)", short),
		}
	}

	if utf8.RuneCountInString(item.Content) < MinContentLength {
		return Validation{
			Reason:      ReasonTooShort,
			ContentHash: hash,
			Status:      "❌ Content too short to be relevant",
		}
	}

	if strings.TrimSpace(item.Metadata.String("title")) == "" {
		return Validation{
			Reason:      ReasonIncompleteMetadata,
			ContentHash: hash,
			Status:      "❌ Incomplete metadata: missing title",
		}
	}

	topic := relevance.DeriveTopic(item.Metadata)
	res := v.scorer.Score(ctx, item.Content, topic, threshold)
	if !res.Relevant {
		v.logger.Debug("rejected for low relevance", "hash", short, "score", res.Score, "threshold", threshold)
		return Validation{
			Reason:      ReasonLowRelevance,
			Score:       res.Score,
			ContentHash: hash,
			Status:      fmt.Sprintf("⚠️ Low semantic similarity: %.3f (threshold: %g)", res.Score, threshold),
		}
	}

	// Another invocation may have accepted the same content since the check above
	if !v.index.Add(hash) {
		return Validation{
			Reason:      ReasonDuplicate,
			Score:       res.Score,
			ContentHash: hash,
			Status:      fmt.Sprintf("❌ Duplicate content detected (hash: %s)", short),
		}
	}

	status := fmt.Sprintf("✅ Validation passed: similarity %.3f, hash: %s", res.Score, short)
	if res.FailedOpen {
		status = fmt.Sprintf("✅ Validation passed: similarity %.3f (scoring unavailable), hash: %s", res.Score, short)
	}
	return Validation{
		Passed:      true,
		Score:       res.Score,
		FailedOpen:  res.FailedOpen,
		ContentHash: hash,
		Status:      status,
	}
}

func slotItem(slot *Slot) (core.ProcessedContent, bool) {
	if slot == nil {
		return core.ProcessedContent{}, false
	}
	return slot.Get()
}
