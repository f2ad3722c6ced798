// Package noise implements single-octave 2D gradient (Perlin) noise over a
// reseedable permutation table.
package noise

// TableSize is the number of distinct hash values in a permutation table.
const TableSize = 256

// canonical is Ken Perlin's reference permutation of 0..255.
var canonical = [TableSize]uint8{
	151, 160, 137, 91, 90, 15, 131, 13, 201, 95, 96, 53, 194, 233, 7, 225,
	140, 36, 103, 30, 69, 142, 8, 99, 37, 240, 21, 10, 23, 190, 6, 148,
	247, 120, 234, 75, 0, 26, 197, 62, 94, 252, 219, 203, 117, 35, 11, 32,
	57, 177, 33, 88, 237, 149, 56, 87, 174, 20, 125, 136, 171, 168, 68, 175,
	74, 165, 71, 134, 139, 48, 27, 166, 77, 146, 158, 231, 83, 111, 229, 122,
	60, 211, 133, 230, 220, 105, 92, 41, 55, 46, 245, 40, 244, 102, 143, 54,
	65, 25, 63, 161, 1, 216, 80, 73, 209, 76, 132, 187, 208, 89, 18, 169,
	200, 196, 135, 130, 116, 188, 159, 86, 164, 100, 109, 198, 173, 186, 3, 64,
	52, 217, 226, 250, 124, 123, 5, 202, 38, 147, 118, 126, 255, 82, 85, 212,
	207, 206, 59, 227, 47, 16, 58, 17, 182, 189, 28, 42, 223, 183, 170, 213,
	119, 248, 152, 2, 44, 154, 163, 70, 221, 153, 101, 155, 167, 43, 172, 9,
	129, 22, 39, 253, 19, 98, 108, 110, 79, 113, 224, 232, 178, 185, 112, 104,
	218, 246, 97, 228, 251, 34, 242, 193, 238, 210, 144, 12, 191, 179, 162, 241,
	81, 51, 145, 235, 249, 14, 239, 107, 49, 192, 214, 31, 181, 199, 106, 157,
	184, 84, 204, 176, 115, 121, 50, 45, 127, 4, 150, 254, 138, 236, 205, 93,
	222, 114, 67, 29, 24, 72, 243, 141, 128, 195, 78, 66, 215, 61, 156, 180,
}

// Table is a permutation of 0..255 stored twice so that perm[i] == perm[i+256].
//
// A Table is not safe for concurrent use while Reseed runs; see Shared.
type Table struct {
	perm [2 * TableSize]uint8
}

// NewTable returns a table holding the canonical Perlin permutation.
func NewTable() *Table {
	t := &Table{}
	t.fill(canonical)
	return t
}

// NewSeededTable returns the canonical table reseeded with seed.
func NewSeededTable(seed int64) *Table {
	t := NewTable()
	t.Reseed(seed)
	return t
}

// Reseed shuffles the current first half of the table with a Fisher-Yates
// shuffle keyed by seed and rewrites both halves. Any seed is valid,
// including zero and negative values.
func (t *Table) Reseed(seed int64) {
	p := t.Values()
	src := newSource(seed)
	for i := len(p) - 1; i > 0; i-- {
		j := src.intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	t.fill(p)
}

// Lookup returns the table entry for index & 255.
func (t *Table) Lookup(index int) uint8 {
	return t.perm[index&(TableSize-1)]
}

// Values returns a copy of the first half of the table.
func (t *Table) Values() [TableSize]uint8 {
	var p [TableSize]uint8
	copy(p[:], t.perm[:TableSize])
	return p
}

// Entries returns a copy of all 512 entries.
func (t *Table) Entries() [2 * TableSize]uint8 {
	return t.perm
}

// Clone returns an independent copy of t.
func (t *Table) Clone() *Table {
	c := *t
	return &c
}

// fill replaces all 512 entries in a single assignment.
func (t *Table) fill(p [TableSize]uint8) {
	var next [2 * TableSize]uint8
	copy(next[:TableSize], p[:])
	copy(next[TableSize:], p[:])
	t.perm = next
}

// hash maps an integer lattice point to a value in [0,255]. Both coordinates
// are wrapped with & 255, which for two's complement ints equals Euclidean
// modulo 256, so negative corners hash consistently.
func (t *Table) hash(cx, cy int) uint8 {
	return t.Lookup(int(t.Lookup(cx&(TableSize-1))) + (cy & (TableSize - 1)))
}
