package noise

// source is a SplitMix64 generator. It uses only fixed-width unsigned
// arithmetic, so a given seed yields the same stream on every platform and
// Go release.
type source struct {
	state uint64
}

func newSource(seed int64) *source {
	return &source{state: uint64(seed)}
}

func (s *source) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// intn returns a value in [0, n). n must be positive.
func (s *source) intn(n int) int {
	return int(s.next() % uint64(n))
}
