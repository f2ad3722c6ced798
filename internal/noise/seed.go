package noise

import (
	"strconv"
	"strings"
)

// ParseSeed parses a base-10 seed. Empty or malformed input returns ok=false,
// in which case callers keep the canonical table.
func ParseSeed(s string) (seed int64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// TableFor returns the canonical table, reseeded when ok is true.
func TableFor(seed int64, ok bool) *Table {
	if !ok {
		return NewTable()
	}
	return NewSeededTable(seed)
}

// SeedLabel names a table configuration for file paths and metadata.
func SeedLabel(seed int64, ok bool) string {
	if !ok {
		return "default"
	}
	return "seed" + strconv.FormatInt(seed, 10)
}

// ResolvePxPerGrid returns n, or DefaultPxPerGrid when n is not positive.
func ResolvePxPerGrid(n int) int {
	if n <= 0 {
		return DefaultPxPerGrid
	}
	return n
}
