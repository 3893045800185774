package transition

// PairSet is an unordered set of edges
type PairSet map[Pair]struct{}

// NewPairSet builds a set from the given pairs
func NewPairSet(pairs ...Pair) PairSet {
	s := make(PairSet, len(pairs))
	for _, p := range pairs {
		s[p] = struct{}{}
	}
	return s
}

// Add inserts p
func (s PairSet) Add(p Pair) { s[p] = struct{}{} }

// Has reports membership
func (s PairSet) Has(p Pair) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the pairs in ComparePairs order
func (s PairSet) Sorted() []Pair {
	out := make([]Pair, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	return SortPairs(out)
}

// Clone returns a copy of the set
func (s PairSet) Clone() PairSet {
	out := make(PairSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}
