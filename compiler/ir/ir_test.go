package ir

import "testing"

func TestVarString(t *testing.T) {
	u := NewVar("X")
	if u.String() != "X" {
		t.Errorf("user var: got %q", u.String())
	}

	c := &Counter{}
	g := c.NewVar("tmp")

	if g.String() != "tmp1" {
		t.Errorf("generated var: got %q", g.String())
	}

	g2 := c.NewVar("tmp")
	if g2.N == g.N {
		t.Errorf("counter not monotonic: %d == %d", g2.N, g.N)
	}
}

func TestPhiArgsRoundtrip(t *testing.T) {
	s := &Set{Op: OpPhi}
	want := []PhiArg{
		{Value: Lit{Value: 1}, Pred: 10},
		{Value: NewVar("X"), Pred: 20},
	}

	s.SetPhiArgs(want)
	got := s.PhiArgs()

	if len(got) != len(want) {
		t.Fatalf("len: got %d want %d", len(got), len(want))
	}

	for i := range want {
		if got[i].Pred != want[i].Pred {
			t.Errorf("arg %d: pred got %v want %v", i, got[i].Pred, want[i].Pred)
		}
	}
}

func TestIsPure(t *testing.T) {
	s := &Set{Op: OpGetTupleElement}
	if !s.IsPure() {
		t.Error("get_tuple_element should be pure")
	}

	c := &Set{Op: OpCall}
	if c.IsPure() {
		t.Error("call should not be pure")
	}

	if !c.ClobbersXregs() {
		t.Error("call should clobber xregs")
	}
}
