package crawler

import (
	"cmp"
	"encoding/binary"
	"slices"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Key returns the 64-bit dedup key of a normalized URL: the first eight
// bytes of its BLAKE2b-256 digest. Two distinct URLs sharing a key are
// treated as one; at 64 bits this is accepted.
func Key(normalizedURL string) uint64 {
	sum := blake2b.Sum256([]byte(normalizedURL))
	return binary.BigEndian.Uint64(sum[:8])
}

// VisitedSet is the concurrent dedup store of a run.
// It is the single source of truth for whether a URL has been claimed.
type VisitedSet struct {
	mu      sync.Mutex
	records map[uint64]Record
}

// NewVisitedSet creates an empty VisitedSet.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{records: make(map[uint64]Record)}
}

// TryRecord inserts rec unless its URL is already present.
// The test and the insert happen under one lock, so of any number of
// concurrent callers with the same URL exactly one gets true.
func (v *VisitedSet) TryRecord(rec Record) bool {
	key := Key(rec.URL)

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.records[key]; ok {
		return false
	}
	v.records[key] = rec
	return true
}

// Contains reports whether the normalized URL has been recorded.
func (v *VisitedSet) Contains(normalizedURL string) bool {
	key := Key(normalizedURL)

	v.mu.Lock()
	defer v.mu.Unlock()

	_, ok := v.records[key]
	return ok
}

// Len returns the number of records.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.records)
}

// Snapshot returns a copy of all records ordered by depth, then URL.
func (v *VisitedSet) Snapshot() []Record {
	v.mu.Lock()
	out := make([]Record, 0, len(v.records))
	for _, rec := range v.records {
		out = append(out, rec)
	}
	v.mu.Unlock()

	slices.SortFunc(out, func(a, b Record) int {
		if c := cmp.Compare(a.Depth, b.Depth); c != 0 {
			return c
		}
		return cmp.Compare(a.URL, b.URL)
	})
	return out
}
