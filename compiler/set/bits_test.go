package set

import "testing"

func TestBitsBasic(t *testing.T) {
	s := MakeBits(0)
	s.SetAll(1, 5, 130)

	if !s.IsSet(5) {
		t.Error("5 should be set")
	}

	if s.IsSet(6) {
		t.Error("6 should not be set")
	}

	if s.Size() != 3 {
		t.Errorf("size: got %d want 3", s.Size())
	}

	got := s.Sorted()
	want := []int{1, 5, 130}

	if len(got) != len(want) {
		t.Fatalf("sorted: got %v", got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sorted[%d]: got %d want %d", i, got[i], want[i])
		}
	}
}

func TestBitsIntersectSubtract(t *testing.T) {
	a := FromSlice(0, []int{1, 2, 3})
	b := FromSlice(0, []int{2, 3, 4})

	i := a.Copy()
	i.Intersect(b)

	if !equalSlices(i.Sorted(), []int{2, 3}) {
		t.Errorf("intersect: got %v", i.Sorted())
	}

	d := a.Copy()
	d.Substract(b)

	if !equalSlices(d.Sorted(), []int{1}) {
		t.Errorf("subtract: got %v", d.Sorted())
	}
}

func TestBitsEqual(t *testing.T) {
	a := FromSlice(0, []int{1, 2, 3})
	b := FromSlice(0, []int{3, 2, 1})

	if !a.Equal(b) {
		t.Error("expected equal")
	}

	c := FromSlice(0, []int{1, 2})
	if a.Equal(c) {
		t.Error("expected not equal")
	}
}
