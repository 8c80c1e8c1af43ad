package cfgutil

import (
	"testing"

	"github.com/chenyifan96/otp/compiler/ir"
)

// diamond builds:
//
//	0 -> 1, 2
//	1 -> 3
//	2 -> 3
//	3 (ret)
func diamond() map[ir.Label]*ir.Block {
	return map[ir.Label]*ir.Block{
		0: {Label: 0, Last: ir.Br{Bool: ir.NewVar("C"), Succ: 1, Fail: 2}},
		1: {Label: 1, Last: ir.Br{Bool: ir.Lit{Value: true}, Succ: 3, Fail: 3}},
		2: {Label: 2, Last: ir.Br{Bool: ir.Lit{Value: true}, Succ: 3, Fail: 3}},
		3: {Label: 3, Last: ir.Ret{Arg: ir.NewVar("X")}},
	}
}

func TestRPOEntryFirst(t *testing.T) {
	order := RPO(diamond(), 0)

	if len(order) == 0 || order[0] != 0 {
		t.Fatalf("entry not first: %v", order)
	}

	if order[len(order)-1] != 3 {
		t.Fatalf("exit not last: %v", order)
	}
}

func TestPredecessors(t *testing.T) {
	preds := Predecessors(diamond())

	got := preds[3]
	if len(got) != 2 {
		t.Fatalf("block 3 preds: got %v", got)
	}
}

func TestDominators(t *testing.T) {
	dom := Dominators(diamond(), 0)

	chain3 := dom[3]

	want := map[ir.Label]bool{0: true, 3: true}

	for _, l := range chain3 {
		if !want[l] {
			t.Errorf("block 3 should not be dominated by %v (diamond join)", l)
		}
	}

	if len(chain3) != 2 {
		t.Errorf("block 3 dominator chain: got %v, want exactly {0,3}", chain3)
	}

	chain1 := dom[1]
	if len(chain1) != 2 || chain1[0] != 0 || chain1[1] != 1 {
		t.Errorf("block 1 dominator chain: got %v", chain1)
	}
}

func TestUsedSet(t *testing.T) {
	s := &ir.Set{
		Op:   ir.OpBif,
		Sub:  "+",
		Args: []ir.Operand{ir.NewVar("A"), ir.NewVar("B"), ir.Lit{Value: 1}},
	}

	got := Used(s)
	if len(got) != 2 {
		t.Fatalf("used: got %v", got)
	}
}

func TestUsedPhi(t *testing.T) {
	s := &ir.Set{Op: ir.OpPhi}
	s.SetPhiArgs([]ir.PhiArg{
		{Value: ir.NewVar("A"), Pred: 1},
		{Value: ir.Lit{Value: 0}, Pred: 2},
	})

	got := Used(s)
	if len(got) != 1 || got[0].Name != "A" {
		t.Fatalf("used phi: got %v", got)
	}
}

func TestSplitBlocksMovesTerminatorAndFixesPhis(t *testing.T) {
	blocks := map[ir.Label]*ir.Block{
		0: {
			Label: 0,
			Is: []*ir.Set{
				{Dst: ir.NewVar("X"), Op: ir.OpGetHd, Args: []ir.Operand{ir.NewVar("L")}},
				{Dst: ir.NewVar("Y"), Op: ir.OpCall},
			},
			Last: ir.Br{Bool: ir.Lit{Value: true}, Succ: 1, Fail: 1},
		},
		1: {
			Label: 1,
			Phis: []*ir.Set{
				func() *ir.Set {
					s := &ir.Set{Dst: ir.NewVar("P"), Op: ir.OpPhi}
					s.SetPhiArgs([]ir.PhiArg{{Value: ir.NewVar("Y"), Pred: 0}})

					return s
				}(),
			},
			Last: ir.Ret{Arg: ir.NewVar("P")},
		},
	}

	// The fixture already uses labels 0 and 1; advance the counter past
	// them so the label SplitBlocks mints is fresh.
	c := &ir.Counter{}
	c.NewLabel()
	c.NewLabel()

	SplitBlocks(func(s *ir.Set) bool { return s.Op == ir.OpCall }, blocks, c)

	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks after split, got %d", len(blocks))
	}

	b0 := blocks[0]
	if len(b0.Is) != 1 {
		t.Fatalf("block 0 should keep only the get_hd: %v", b0.Is)
	}

	var tailLabel ir.Label

	for l, b := range blocks {
		if l != 0 && l != 1 {
			tailLabel = l

			if len(b.Is) != 1 || b.Is[0].Op != ir.OpCall {
				t.Fatalf("tail block should hold the call: %v", b.Is)
			}
		}
	}

	phi := blocks[1].Phis[0]
	args := phi.PhiArgs()

	if args[0].Pred != tailLabel {
		t.Errorf("phi predecessor not rewritten: got %v want %v", args[0].Pred, tailLabel)
	}
}
