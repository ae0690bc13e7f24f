package paneldata

import "testing"

func TestSelectorMembership(t *testing.T) {
	s := NewSelector(5)
	if got := s.NVarsPossible(); got != 5 {
		t.Fatalf("NVarsPossible: got %d, want 5", got)
	}
	if got := s.NVars(); got != 0 {
		t.Fatalf("fresh selector NVars: got %d, want 0", got)
	}

	s.Add(0)
	s.Add(2)
	s.Add(2) // repeated add does not double count
	if got := s.NVars(); got != 2 {
		t.Errorf("NVars after adds: got %d, want 2", got)
	}
	for i := 0; i < 5; i++ {
		want := i == 0 || i == 2
		if got := s.Contains(i); got != want {
			t.Errorf("Contains(%d): got %v, want %v", i, got, want)
		}
	}

	s.Drop(2)
	s.Drop(2)
	if s.Contains(2) || s.NVars() != 1 {
		t.Errorf("after Drop(2): Contains(2)=%v NVars=%d, want false, 1", s.Contains(2), s.NVars())
	}

	// Out-of-universe indices are ignored, not errors.
	s.Add(-1)
	s.Add(5)
	s.Drop(99)
	if got := s.NVars(); got != 1 {
		t.Errorf("NVars after out-of-universe ops: got %d, want 1", got)
	}
	if s.Contains(-1) || s.Contains(5) {
		t.Error("out-of-universe membership should be false")
	}
}

func TestSelectorIncluded(t *testing.T) {
	s := NewSelector(6)
	for _, i := range []int{4, 1, 3} {
		s.Add(i)
	}
	got := s.Included()
	want := []int{1, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("Included: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Included: got %v, want %v", got, want)
		}
	}
}

func TestSelectorCloneAndEqual(t *testing.T) {
	s := NewSelector(4)
	s.Add(1)
	cp := s.Clone()
	if !s.Equal(cp) {
		t.Fatal("clone should equal its source")
	}
	cp.Add(3)
	if s.Equal(cp) {
		t.Error("mutating the clone should break equality")
	}
	if s.Contains(3) {
		t.Error("clone mutation leaked into the source")
	}
	if s.Equal(NewSelector(5)) {
		t.Error("selectors over different universes must not compare equal")
	}
}
