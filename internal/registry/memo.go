package registry

import "sync"

// Memo caches a value derived from the registry. The value is recomputed on
// the first Get after a new snapshot has been published and served from the
// cache otherwise.
type Memo[T any] struct {
	reg     *Registry
	compute func(*Snapshot) T

	mu    sync.Mutex
	snap  *Snapshot
	value T
}

// NewMemo creates a Memo over reg. compute must not publish.
func NewMemo[T any](reg *Registry, compute func(*Snapshot) T) *Memo[T] {
	return &Memo[T]{reg: reg, compute: compute}
}

// Get returns the value for the current snapshot.
func (m *Memo[T]) Get() T {
	cur := m.reg.Current()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap != cur {
		m.value = m.compute(cur)
		m.snap = cur
	}
	return m.value
}

// Match is the result of a Lookup: the canonical favorite when one exists,
// otherwise the record that was looked up.
type Match struct {
	Record   FileRecord
	Favorite bool
}

// Lookup returns a Memo resolving candidate against the registry. A view that
// keeps the memo sees renames and recategorizations made elsewhere on its
// next Get.
func Lookup(reg *Registry, candidate FileRecord) *Memo[Match] {
	return NewMemo(reg, func(s *Snapshot) Match {
		if rec, ok := s.FindSimilar(candidate); ok {
			return Match{Record: rec, Favorite: true}
		}
		return Match{Record: candidate}
	})
}
