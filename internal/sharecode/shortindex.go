package sharecode

import (
	"fmt"
	"sync"
)

// ShortIndex maps short codes to the long codes they were derived from.
// Short codes keep only 80 bits of the hash, so distinct long codes can in
// principle share a short code; the index keeps every expansion it has seen
// and reports a collision instead of guessing.
//
// ShortIndex is safe for concurrent use.
type ShortIndex struct {
	mu      sync.RWMutex
	entries map[string][]string // short ref -> long codes
}

// NewShortIndex creates an empty index.
func NewShortIndex() *ShortIndex {
	return &ShortIndex{entries: make(map[string][]string)}
}

// Add records longCode and returns its short code. Adding the same long code
// twice is a no-op.
func (idx *ShortIndex) Add(longCode string) string {
	ref := ShortRef(longCode)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, existing := range idx.entries[ref] {
		if existing == longCode {
			return ref
		}
	}
	idx.entries[ref] = append(idx.entries[ref], longCode)
	return ref
}

// Lookup returns the long code for ref, or "" when ref is unknown. It fails
// when more than one long code hashes to ref.
func (idx *ShortIndex) Lookup(ref string) (string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	longs := idx.entries[ref]
	switch len(longs) {
	case 0:
		return "", nil
	case 1:
		return longs[0], nil
	default:
		return "", fmt.Errorf("%d share codes collide on %s", len(longs), ref)
	}
}

// Len returns the number of distinct short codes in the index.
func (idx *ShortIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}
