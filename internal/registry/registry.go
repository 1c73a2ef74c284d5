// Package registry holds the favorites collection: immutable snapshots of
// FileRecords deduplicated by decoded share identity, a publish cell that
// swaps snapshots atomically, and memoized lookups that recompute when a new
// snapshot is published.
package registry

import "sync/atomic"

// Registry owns the process-wide current snapshot. Reads never lock; writes
// go through Publish, which serializes them with compare-and-swap.
type Registry struct {
	current atomic.Pointer[Snapshot]
}

// New creates a Registry whose current snapshot is initial.
func New(initial *Snapshot) *Registry {
	r := &Registry{}
	r.current.Store(initial)
	return r
}

// Current returns the latest published snapshot.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Publish applies mutate to the current snapshot and installs the result.
// If another publish lands first, mutate is applied again to the newer
// snapshot, so mutate must be a pure function of its argument. It returns
// the snapshot that is current afterwards and whether mutate produced a new
// one. Returning the argument (or nil) from mutate publishes nothing.
func (r *Registry) Publish(mutate func(*Snapshot) *Snapshot) (*Snapshot, bool) {
	for {
		old := r.current.Load()
		next := mutate(old)
		if next == nil || next == old {
			return old, false
		}
		if r.current.CompareAndSwap(old, next) {
			return next, true
		}
	}
}

// Add publishes Snapshot.Add.
func (r *Registry) Add(rec FileRecord) (*Snapshot, bool) {
	return r.Publish(func(s *Snapshot) *Snapshot { return s.Add(rec) })
}

// Remove publishes Snapshot.Remove.
func (r *Registry) Remove(rec FileRecord) (*Snapshot, bool) {
	return r.Publish(func(s *Snapshot) *Snapshot { return s.Remove(rec) })
}

// Update publishes Snapshot.Update.
func (r *Registry) Update(rec FileRecord, transform func(FileRecord) FileRecord) (*Snapshot, bool) {
	return r.Publish(func(s *Snapshot) *Snapshot { return s.Update(rec, transform) })
}
