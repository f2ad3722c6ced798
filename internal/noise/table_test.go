package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkTableInvariant(t *testing.T, tbl *Table) {
	t.Helper()
	entries := tbl.Entries()

	var counts [TableSize]int
	for _, v := range entries {
		counts[v]++
	}
	for v, n := range counts {
		if n != 2 {
			t.Fatalf("value %d appears %d times, want 2", v, n)
		}
	}
	for i := 0; i < TableSize; i++ {
		if entries[i] != entries[i+TableSize] {
			t.Fatalf("entry %d = %d differs from entry %d = %d", i, entries[i], i+TableSize, entries[i+TableSize])
		}
	}
}

func TestNewTable_Canonical(t *testing.T) {
	tbl := NewTable()
	checkTableInvariant(t, tbl)

	p := tbl.Values()
	assert.Equal(t, uint8(151), p[0])
	assert.Equal(t, uint8(160), p[1])
	assert.Equal(t, uint8(137), p[2])
	assert.Equal(t, uint8(180), p[255])
	assert.Equal(t, canonical, p)
}

func TestReseed_TableInvariant(t *testing.T) {
	seeds := []int64{0, 1, 2, -1, -7, 42, 1337, 1 << 62, -1 << 63}
	for _, seed := range seeds {
		tbl := NewSeededTable(seed)
		checkTableInvariant(t, tbl)
	}
}

func TestReseed_KnownPermutations(t *testing.T) {
	tests := []struct {
		seed int64
		want []uint8
	}{
		{seed: 0, want: []uint8{161, 253, 173, 229, 251, 12, 199, 196}},
		{seed: 1, want: []uint8{92, 220, 68, 237, 109, 183, 108, 255}},
		{seed: 2, want: []uint8{145, 67, 70, 240, 130, 142, 248, 24}},
		{seed: -7, want: []uint8{202, 64, 52, 228, 180, 191, 169, 198}},
	}

	for _, tt := range tests {
		p := NewSeededTable(tt.seed).Values()
		require.Equal(t, tt.want, p[:len(tt.want)], "seed %d", tt.seed)
	}
}

func TestReseed_SameSeedSameTable(t *testing.T) {
	a := NewSeededTable(99)
	b := NewSeededTable(99)
	assert.Equal(t, a.Entries(), b.Entries())

	c := NewSeededTable(100)
	assert.NotEqual(t, a.Entries(), c.Entries())
}

func TestReseed_ShufflesCurrentState(t *testing.T) {
	tbl := NewTable()
	tbl.Reseed(1)
	tbl.Reseed(1)
	checkTableInvariant(t, tbl)

	p := tbl.Values()
	assert.Equal(t, []uint8{137, 16, 30, 200, 121, 194, 41, 127}, p[:8])
}

func TestLookup_Wraps(t *testing.T) {
	tbl := NewTable()
	for i := 0; i < 4*TableSize; i++ {
		if got, want := tbl.Lookup(i), canonical[i%TableSize]; got != want {
			t.Fatalf("Lookup(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestHash_NegativeCornersWrap(t *testing.T) {
	tbl := NewSeededTable(5)
	for _, c := range [][2]int{{-1, -1}, {-256, 3}, {-300, -2}, {7, -129}} {
		wx := ((c[0] % 256) + 256) % 256
		wy := ((c[1] % 256) + 256) % 256
		assert.Equal(t, tbl.hash(wx, wy), tbl.hash(c[0], c[1]), "corner %v", c)
	}
}

func TestClone_Independent(t *testing.T) {
	a := NewTable()
	b := a.Clone()
	b.Reseed(3)
	assert.Equal(t, canonical, a.Values())
	assert.NotEqual(t, a.Values(), b.Values())
}
