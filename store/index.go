package store

import (
	"sync"

	"github.com/go-fskv/fskv/internal/hash"
	"github.com/go-fskv/fskv/section"
)

// entry is the in-memory form of an index record. It is a type alias of
// section.IndexEntry and adds nothing beyond what that struct already
// carries (IsUpdated, KeyPosition); the alias exists so store package
// code reads naturally without an import-qualified name on every line.
type entry = section.IndexEntry

// index is the concurrent primary key->entry map, per spec.md §4.4: one
// writer, many readers, content equality on keys. It is implemented as
// striped locks over plain Go maps (grounded on internal/hash.StripeIndex,
// adapted from the reference's metric-name hashing to lock-stripe
// selection) rather than a single global mutex, so concurrent Get/Contains
// calls against different keys do not serialize against each other.
type index struct {
	stripes []indexStripe
}

type indexStripe struct {
	mu   sync.RWMutex
	live map[string]*entry
}

func newIndex(numStripes int) *index {
	if numStripes <= 0 {
		numStripes = defaultLockStripes
	}

	idx := &index{stripes: make([]indexStripe, numStripes)}
	for i := range idx.stripes {
		idx.stripes[i].live = make(map[string]*entry)
	}

	return idx
}

func (idx *index) stripeFor(key []byte) *indexStripe {
	return &idx.stripes[hash.StripeIndex(key, len(idx.stripes))]
}

// get looks up key, returning (entry, true) if a live entry exists.
func (idx *index) get(key []byte) (*entry, bool) {
	s := idx.stripeFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.live[string(key)]

	return e, ok
}

// put inserts or replaces the live entry for key.
func (idx *index) put(key []byte, e *entry) {
	s := idx.stripeFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.live[string(key)] = e
}

// remove deletes key from the live map, returning the removed entry (if
// any) so the caller can move it to the tombstone set.
func (idx *index) remove(key []byte) (*entry, bool) {
	s := idx.stripeFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live[string(key)]
	if ok {
		delete(s.live, string(key))
	}

	return e, ok
}

// count returns the number of live entries across all stripes.
func (idx *index) count() int {
	n := 0
	for i := range idx.stripes {
		idx.stripes[i].mu.RLock()
		n += len(idx.stripes[i].live)
		idx.stripes[i].mu.RUnlock()
	}

	return n
}

// keys returns a snapshot of every live key. The snapshot may be
// immediately stale with respect to concurrent mutation, consistent with
// spec.md's non-goal of serializable iteration.
func (idx *index) keys() [][]byte {
	out := make([][]byte, 0, idx.count())
	for i := range idx.stripes {
		idx.stripes[i].mu.RLock()
		for k := range idx.stripes[i].live {
			out = append(out, []byte(k))
		}
		idx.stripes[i].mu.RUnlock()
	}

	return out
}

// forEach calls fn for every live entry. fn must not mutate idx.
func (idx *index) forEach(fn func(key string, e *entry)) {
	for i := range idx.stripes {
		idx.stripes[i].mu.RLock()
		for k, e := range idx.stripes[i].live {
			fn(k, e)
		}
		idx.stripes[i].mu.RUnlock()
	}
}

// clear empties every stripe, used by Engine.Clear.
func (idx *index) clear() {
	for i := range idx.stripes {
		idx.stripes[i].mu.Lock()
		idx.stripes[i].live = make(map[string]*entry)
		idx.stripes[i].mu.Unlock()
	}
}

// tombstoneSet holds entries removed from the live index but not yet
// reclaimed by compaction (spec.md §3, "Lifecycles"). It is always
// accessed under the Engine write lock, so it needs no internal locking
// of its own.
type tombstoneSet struct {
	entries map[string]*entry
}

func newTombstoneSet() *tombstoneSet {
	return &tombstoneSet{entries: make(map[string]*entry)}
}

func (t *tombstoneSet) add(key string, e *entry) {
	t.entries[key] = e
}

func (t *tombstoneSet) clear() {
	t.entries = make(map[string]*entry)
}

func (t *tombstoneSet) len() int {
	return len(t.entries)
}
