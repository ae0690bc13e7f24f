package paneldata

import "fmt"

// Selector is a set over a fixed universe of series indices. It records which
// of the N parallel series are observed at a given time step, so filtering
// code can skip absent observations without scanning the raw data.
//
// The universe size is fixed at construction; membership for indices outside
// [0, NVarsPossible) is always false and Add/Drop on such indices are no-ops.
type Selector struct {
	included []bool
	count    int
}

// NewSelector creates a Selector over a universe of n series, with every
// series initially excluded (all-missing).
func NewSelector(n int) Selector {
	return Selector{included: make([]bool, n)}
}

// NVarsPossible returns the size of the universe the Selector ranges over.
func (s Selector) NVarsPossible() int {
	return len(s.included)
}

// NVars returns the number of series currently included.
func (s Selector) NVars() int {
	return s.count
}

// Contains reports whether series i is included.
func (s Selector) Contains(i int) bool {
	if i < 0 || i >= len(s.included) {
		return false
	}
	return s.included[i]
}

// Add includes series i. Out-of-universe indices are ignored.
func (s *Selector) Add(i int) {
	if i < 0 || i >= len(s.included) || s.included[i] {
		return
	}
	s.included[i] = true
	s.count++
}

// Drop excludes series i. Out-of-universe indices are ignored.
func (s *Selector) Drop(i int) {
	if i < 0 || i >= len(s.included) || !s.included[i] {
		return
	}
	s.included[i] = false
	s.count--
}

// Included returns the included series indices in increasing order.
func (s Selector) Included() []int {
	out := make([]int, 0, s.count)
	for i, in := range s.included {
		if in {
			out = append(out, i)
		}
	}
	return out
}

// Clone returns an independent copy of the Selector.
func (s Selector) Clone() Selector {
	cp := Selector{included: make([]bool, len(s.included)), count: s.count}
	copy(cp.included, s.included)
	return cp
}

// Equal reports whether two Selectors have the same universe and membership.
func (s Selector) Equal(other Selector) bool {
	if len(s.included) != len(other.included) || s.count != other.count {
		return false
	}
	for i := range s.included {
		if s.included[i] != other.included[i] {
			return false
		}
	}
	return true
}

// String renders the Selector as a 0/1 mask, e.g. "10100" for {0,2} over 5.
func (s Selector) String() string {
	buf := make([]byte, len(s.included))
	for i, in := range s.included {
		if in {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return fmt.Sprintf("Selector(%s)", buf)
}
