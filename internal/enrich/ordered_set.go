package enrich

// orderedSet is a string set that preserves insertion order, so accumulation
// and category results iterate deterministically.
type orderedSet struct {
	index  map[string]struct{}
	values []string
}

func newOrderedSet(initial ...string) *orderedSet {
	s := &orderedSet{index: make(map[string]struct{})}
	for _, v := range initial {
		s.Add(v)
	}
	return s
}

// Add inserts v if absent and reports whether it was added.
func (s *orderedSet) Add(v string) bool {
	if v == "" {
		return false
	}
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.values = append(s.values, v)
	return true
}

func (s *orderedSet) AddAll(values []string) {
	for _, v := range values {
		s.Add(v)
	}
}

func (s *orderedSet) Len() int {
	return len(s.values)
}

// Values returns a copy of the members in insertion order. Never nil.
func (s *orderedSet) Values() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}
