package ingestion

import "sync"

// HashIndex is the set of content hashes accepted for storage. A hash is
// added when validation passes and removed again if the item then fails to
// persist. Safe for concurrent use.
type HashIndex struct {
	mu     sync.RWMutex
	hashes map[string]struct{}
}

// NewHashIndex returns an index pre-populated with hashes.
func NewHashIndex(hashes ...string) *HashIndex {
	idx := &HashIndex{hashes: make(map[string]struct{}, len(hashes))}
	idx.Seed(hashes)
	return idx
}

// Contains reports whether hash has been accepted.
func (h *HashIndex) Contains(hash string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.hashes[hash]
	return ok
}

// Add registers hash. It returns false if hash was already present, making
// check-and-insert a single atomic step.
func (h *HashIndex) Add(hash string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.hashes[hash]; ok {
		return false
	}
	h.hashes[hash] = struct{}{}
	return true
}

// Remove drops hash so the content can be submitted again.
func (h *HashIndex) Remove(hash string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.hashes, hash)
}

// Seed registers hashes loaded from storage and returns how many were new.
func (h *HashIndex) Seed(hashes []string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	added := 0
	for _, hash := range hashes {
		if _, ok := h.hashes[hash]; !ok {
			h.hashes[hash] = struct{}{}
			added++
		}
	}
	return added
}

// Len returns the number of registered hashes.
func (h *HashIndex) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.hashes)
}
