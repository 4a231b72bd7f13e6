package graph

import (
	"iter"
	"slices"
	"sort"
	"sync"

	"github.com/scan-io-git/skims/internal/language"
)

// DB holds the sealed shards of one analysis run.
type DB struct {
	mu     sync.RWMutex
	shards map[string]*Shard
}

// NewDB creates an empty DB.
func NewDB() *DB {
	return &DB{shards: map[string]*Shard{}}
}

// Add seals s and stores it under its path, replacing any previous shard.
func (db *DB) Add(s *Shard) {
	s.Seal()
	db.mu.Lock()
	defer db.mu.Unlock()
	db.shards[s.Path] = s
}

// Get returns the shard stored for path.
func (db *DB) Get(path string) (*Shard, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	s, ok := db.shards[path]
	return s, ok
}

// Len returns the number of shards.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.shards)
}

// Shards yields the shards of the given languages, all of them when none
// is given, ordered by path.
func (db *DB) Shards(langs ...language.Language) iter.Seq[*Shard] {
	db.mu.RLock()
	snapshot := make([]*Shard, 0, len(db.shards))
	for _, s := range db.shards {
		if len(langs) == 0 || slices.Contains(langs, s.Language) {
			snapshot = append(snapshot, s)
		}
	}
	db.mu.RUnlock()
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].Path < snapshot[j].Path })

	return func(yield func(*Shard) bool) {
		for _, s := range snapshot {
			if !yield(s) {
				return
			}
		}
	}
}
