package noise

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShared_ReseedMatchesTable(t *testing.T) {
	s := NewSharedSeed(0, false)
	assert.Equal(t, "default", s.Label())
	assert.Equal(t, Evaluate(0.37, 0.81, NewTable()), s.Evaluate(0.37, 0.81))

	s.Reseed(1)
	assert.Equal(t, "seed1", s.Label())
	assert.Equal(t, Evaluate(0.37, 0.81, NewSeededTable(1)), s.Evaluate(0.37, 0.81))

	// Reseeding always starts from the canonical table.
	s.Reseed(1)
	snap, seed, ok := s.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, int64(1), seed)
	assert.Equal(t, NewSeededTable(1).Entries(), snap.Entries())

	s.Reset()
	assert.Equal(t, "default", s.Label())
}

func TestShared_SnapshotIsCopy(t *testing.T) {
	s := NewShared(NewTable())
	snap, _, _ := s.Snapshot()
	snap.Reseed(4)

	again, _, _ := s.Snapshot()
	assert.Equal(t, canonical, again.Values())
}

func TestShared_ConcurrentReseedAndEvaluate(t *testing.T) {
	s := NewSharedSeed(3, true)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				v := s.Evaluate(float64(i)*0.01, float64(w)*0.37)
				if v < -0.05 || v > 1.05 {
					t.Errorf("value out of range: %v", v)
					return
				}
			}
		}(w)
	}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			s.Reseed(seed)
		}(int64(i))
	}
	wg.Wait()

	snap, _, _ := s.Snapshot()
	checkTableInvariant(t, snap)
}
