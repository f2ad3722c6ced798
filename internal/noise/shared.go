package noise

import "sync"

// Shared guards a Table with a single-writer, multiple-reader lock so it can
// be reseeded while other goroutines evaluate.
type Shared struct {
	mu     sync.RWMutex
	table  *Table
	seed   int64
	seeded bool
}

// NewShared returns a Shared holding a copy of t.
func NewShared(t *Table) *Shared {
	return &Shared{table: t.Clone()}
}

// NewSharedSeed returns a Shared holding the canonical table, reseeded with
// seed when ok is true.
func NewSharedSeed(seed int64, ok bool) *Shared {
	s := &Shared{table: NewTable()}
	if ok {
		s.table.Reseed(seed)
		s.seed = seed
		s.seeded = true
	}
	return s
}

// Evaluate calls Evaluate under the read lock.
func (s *Shared) Evaluate(x, y float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Evaluate(x, y, s.table)
}

// Reseed replaces the table with the canonical table reseeded by seed.
// Starting from the canonical state keeps the result a function of seed alone.
func (s *Shared) Reseed(seed int64) {
	next := NewSeededTable(seed)

	s.mu.Lock()
	s.table = next
	s.seed = seed
	s.seeded = true
	s.mu.Unlock()
}

// Reset restores the canonical table.
func (s *Shared) Reset() {
	next := NewTable()

	s.mu.Lock()
	s.table = next
	s.seed = 0
	s.seeded = false
	s.mu.Unlock()
}

// Snapshot returns an independent copy of the current table, and the seed
// that produced it.
func (s *Shared) Snapshot() (t *Table, seed int64, seeded bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone(), s.seed, s.seeded
}

// Label identifies the current table: "default" for the canonical table,
// otherwise "seed<N>".
func (s *Shared) Label() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SeedLabel(s.seed, s.seeded)
}
