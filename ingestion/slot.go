package ingestion

import (
	"sync"

	"github.com/poiesic/gleaner/core"
)

// Slot holds at most one ProcessedContent as it moves from the Normalizer
// through the Validator to the StorageSink. Set overwrites, Clear empties.
//
// A Pipeline allocates one Slot per Process call, so concurrent items never
// share a Slot. Callers driving the stages by hand should do the same.
type Slot struct {
	mu   sync.Mutex
	item *core.ProcessedContent
}

// NewSlot returns an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Set replaces the slot contents.
func (s *Slot) Set(item core.ProcessedContent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.item = &item
}

// Get returns the current item and whether one is present.
func (s *Slot) Get() (core.ProcessedContent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.item == nil {
		return core.ProcessedContent{}, false
	}
	return *s.item, true
}

// Clear empties the slot.
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.item = nil
}

// IsEmpty reports whether the slot holds nothing.
func (s *Slot) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.item == nil
}
