package registry

import "mixshare/internal/sharecode"

// entry pairs a record with its decoded identity, computed once when the
// entry enters a snapshot.
type entry struct {
	record FileRecord
	id     sharecode.Identity
	ok     bool
}

// Snapshot is an immutable, ordered set of favorites. Mutating methods return
// a new Snapshot and leave the receiver untouched, so a reader holding a
// Snapshot always sees a consistent view. When a mutation changes nothing the
// receiver itself is returned.
//
// Uniqueness is by similarity: no two entries decode to the same (url, key).
type Snapshot struct {
	dec     Decoder
	version uint64
	entries []entry
}

// NewSnapshot builds a snapshot from records in order, dropping later
// duplicates. Records whose codes do not decode are kept so a loaded
// registry never silently loses data; they simply never match a lookup
// until their code becomes decodable.
func NewSnapshot(dec Decoder, version uint64, records []FileRecord) *Snapshot {
	s := &Snapshot{dec: dec, version: version, entries: make([]entry, 0, len(records))}
	for _, rec := range records {
		id, ok := identify(dec, rec)
		if ok && s.indexOfIdentity(id) >= 0 {
			continue
		}
		s.entries = append(s.entries, entry{record: rec, id: id, ok: ok})
	}
	return s
}

// Version increases by one with every snapshot derived by a mutation.
func (s *Snapshot) Version() uint64 { return s.version }

// Len returns the number of entries.
func (s *Snapshot) Len() int { return len(s.entries) }

// At returns the i-th entry.
func (s *Snapshot) At(i int) FileRecord { return s.entries[i].record }

// Entries returns a copy of the records in display order.
func (s *Snapshot) Entries() []FileRecord {
	out := make([]FileRecord, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.record
	}
	return out
}

// FindSimilar returns the first entry referencing the same blob as
// candidate. A candidate whose code does not decode is never found; callers
// that need the decode error should decode the code themselves.
func (s *Snapshot) FindSimilar(candidate FileRecord) (FileRecord, bool) {
	i := s.indexOf(candidate)
	if i < 0 {
		return FileRecord{}, false
	}
	return s.entries[i].record, true
}

// Contains reports whether a record similar to candidate is present.
func (s *Snapshot) Contains(candidate FileRecord) bool {
	return s.indexOf(candidate) >= 0
}

// Add appends rec unless a similar entry exists. Adding an already favorited
// blob, or a record whose code does not decode, returns s unchanged.
func (s *Snapshot) Add(rec FileRecord) *Snapshot {
	id, ok := identify(s.dec, rec)
	if !ok || s.indexOfIdentity(id) >= 0 {
		return s
	}
	next := s.derive(len(s.entries) + 1)
	next.entries = append(next.entries, s.entries...)
	next.entries = append(next.entries, entry{record: rec, id: id, ok: true})
	return next
}

// Remove drops the first entry similar to rec. Removing a record that is not
// present returns s unchanged.
func (s *Snapshot) Remove(rec FileRecord) *Snapshot {
	i := s.indexOf(rec)
	if i < 0 {
		return s
	}
	next := s.derive(len(s.entries) - 1)
	next.entries = append(next.entries, s.entries[:i]...)
	next.entries = append(next.entries, s.entries[i+1:]...)
	return next
}

// Update replaces the entry similar to rec with transform(existing), keeping
// its position. When no entry matches, or the transformed record would be
// similar to a different entry, s is returned unchanged.
func (s *Snapshot) Update(rec FileRecord, transform func(FileRecord) FileRecord) *Snapshot {
	i := s.indexOf(rec)
	if i < 0 {
		return s
	}
	updated := transform(s.entries[i].record)
	if updated == s.entries[i].record {
		return s
	}
	id, ok := identify(s.dec, updated)
	if ok {
		if j := s.indexOfIdentity(id); j >= 0 && j != i {
			return s
		}
	}

	next := s.derive(len(s.entries))
	next.entries = append(next.entries, s.entries...)
	next.entries[i] = entry{record: updated, id: id, ok: ok}
	return next
}

// Replace returns a snapshot holding records. Its version is one after s, or
// minVersion if that is higher, so a restored registry never goes backwards
// relative to the export it came from.
func (s *Snapshot) Replace(minVersion uint64, records []FileRecord) *Snapshot {
	return NewSnapshot(s.dec, max(s.version+1, minVersion), records)
}

// Categories returns the distinct category names in first-seen order.
func (s *Snapshot) Categories() []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range s.entries {
		name := e.record.CategoryName()
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// InCategory returns the records whose CategoryName is name, in order. An
// empty name returns every record.
func (s *Snapshot) InCategory(name string) []FileRecord {
	if name == "" {
		return s.Entries()
	}
	var out []FileRecord
	for _, e := range s.entries {
		if e.record.CategoryName() == name {
			out = append(out, e.record)
		}
	}
	return out
}

func (s *Snapshot) derive(capacity int) *Snapshot {
	return &Snapshot{dec: s.dec, version: s.version + 1, entries: make([]entry, 0, capacity)}
}

func (s *Snapshot) indexOf(candidate FileRecord) int {
	id, ok := identify(s.dec, candidate)
	if !ok {
		return -1
	}
	return s.indexOfIdentity(id)
}

func (s *Snapshot) indexOfIdentity(id sharecode.Identity) int {
	for i, e := range s.entries {
		eid, ok := e.id, e.ok
		if !ok {
			// Entries loaded before their short code could be expanded get
			// another chance here.
			eid, ok = identify(s.dec, e.record)
		}
		if ok && eid == id {
			return i
		}
	}
	return -1
}
