package vulnerability

import (
	"iter"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/scan-io-git/skims/internal/finding"
)

// Store is an append-only collection of the vulnerabilities of one finding.
// It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	items []Vulnerability
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Store appends v.
func (s *Store) Store(v Vulnerability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, v)
}

// Len returns the number of stored vulnerabilities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// All yields the vulnerabilities stored when All was called, in insertion
// order. Later stores are not observed by the returned sequence.
func (s *Store) All() iter.Seq[Vulnerability] {
	s.mu.RLock()
	snapshot := s.items[:len(s.items):len(s.items)]
	s.mu.RUnlock()

	return func(yield func(Vulnerability) bool) {
		for _, v := range snapshot {
			if !yield(v) {
				return
			}
		}
	}
}

// Reset drops every stored vulnerability.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Stores holds one Store per finding for one analysis run.
type Stores struct {
	mu     sync.Mutex
	stores map[finding.ID]*Store
}

// NewStores creates an empty set of stores.
func NewStores() *Stores {
	return &Stores{stores: map[finding.ID]*Store{}}
}

// For returns the store of id, creating it on first use.
func (ss *Stores) For(id finding.ID) *Store {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.stores[id]
	if !ok {
		s = NewStore()
		ss.stores[id] = s
	}
	return s
}

// Counts returns the number of stored vulnerabilities per finding.
func (ss *Stores) Counts() map[finding.ID]int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return lo.MapValues(ss.stores, func(s *Store, _ finding.ID) int { return s.Len() })
}

// Merge returns the vulnerabilities of every store, sorted and
// deduplicated by Key.
func (ss *Stores) Merge() []Vulnerability {
	ss.mu.Lock()
	seqs := make([]iter.Seq[Vulnerability], 0, len(ss.stores))
	for _, s := range ss.stores {
		seqs = append(seqs, s.All())
	}
	ss.mu.Unlock()
	return Merge(seqs...)
}

// Reset empties every store.
func (ss *Stores) Reset() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.stores = map[finding.ID]*Store{}
}

// Merge collects seqs into one slice ordered by Compare. Vulnerabilities
// sharing a Key collapse into the first one in that order.
func Merge(seqs ...iter.Seq[Vulnerability]) []Vulnerability {
	var all []Vulnerability
	for _, seq := range seqs {
		all = slices.AppendSeq(all, seq)
	}
	slices.SortFunc(all, Compare)
	return lo.UniqBy(all, Vulnerability.Key)
}
