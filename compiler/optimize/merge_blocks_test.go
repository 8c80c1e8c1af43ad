package optimize

import (
	"testing"

	"github.com/chenyifan96/otp/compiler/ir"
)

func TestMergeBlocksAbsorbsUniqueSuccessor(t *testing.T) {
	p := &ir.Set{Dst: ir.NewVar("X"), Op: ir.OpGetHd, Args: []ir.Operand{ir.NewVar("L")}}
	lInstr := &ir.Set{Dst: ir.NewVar("Y"), Op: ir.OpGetTl, Args: []ir.Operand{ir.NewVar("L")}}

	blocks := map[ir.Label]*ir.Block{
		0: {Label: 0, Is: []*ir.Set{p}, Last: ir.Br{Bool: ir.Lit{Value: true}, Succ: 1, Fail: 1}},
		1: {Label: 1, Is: []*ir.Set{lInstr}, Last: ir.Ret{Arg: lInstr.Dst}},
	}

	f := &ir.Func{Shape: ir.ShapeMap, Entry: 0, Blocks: blocks}

	runMergeBlocks(f)

	if len(f.Blocks) != 1 {
		t.Fatalf("expected the two blocks to merge into one, got %d", len(f.Blocks))
	}

	b0 := f.Blocks[0]
	if len(b0.Is) != 2 || b0.Is[0] != p || b0.Is[1] != lInstr {
		t.Fatalf("expected instructions concatenated in order, got %v", b0.Is)
	}

	if _, ok := b0.Last.(ir.Ret); !ok {
		t.Fatalf("expected the merged block to keep the successor's terminator, got %v", b0.Last)
	}
}

func TestMergeBlocksSkipsConditionalPredecessor(t *testing.T) {
	blocks := map[ir.Label]*ir.Block{
		0: {Label: 0, Last: ir.Br{Bool: ir.NewVar("C"), Succ: 1, Fail: 2}},
		1: {Label: 1, Last: ir.Ret{Arg: ir.Lit{Value: 1}}},
		2: {Label: 2, Last: ir.Ret{Arg: ir.Lit{Value: 2}}},
	}

	f := &ir.Func{Shape: ir.ShapeMap, Entry: 0, Blocks: blocks}

	runMergeBlocks(f)

	if len(f.Blocks) != 3 {
		t.Fatalf("a conditional predecessor must never merge, got %d blocks", len(f.Blocks))
	}
}

func TestMergeBlocksSkipsPeekMessage(t *testing.T) {
	peek := &ir.Set{Dst: ir.NewVar("M"), Op: ir.OpPeekMessage}

	blocks := map[ir.Label]*ir.Block{
		0: {Label: 0, Last: ir.Br{Bool: ir.Lit{Value: true}, Succ: 1, Fail: 1}},
		1: {Label: 1, Is: []*ir.Set{peek}, Last: ir.Ret{Arg: peek.Dst}},
	}

	f := &ir.Func{Shape: ir.ShapeMap, Entry: 0, Blocks: blocks}

	runMergeBlocks(f)

	if len(f.Blocks) != 2 {
		t.Fatalf("a block starting with peek_message must not be merged, got %d blocks", len(f.Blocks))
	}
}

func TestMergeBlocksRewritesSuccessorPhi(t *testing.T) {
	phi := &ir.Set{Dst: ir.NewVar("P"), Op: ir.OpPhi}
	phi.SetPhiArgs([]ir.PhiArg{
		{Value: ir.NewVar("A"), Pred: 1},
		{Value: ir.NewVar("B"), Pred: 2},
	})

	blocks := map[ir.Label]*ir.Block{
		0: {Label: 0, Last: ir.Br{Bool: ir.Lit{Value: true}, Succ: 1, Fail: 1}},
		1: {Label: 1, Last: ir.Br{Bool: ir.Lit{Value: true}, Succ: 3, Fail: 3}},
		2: {Label: 2, Last: ir.Br{Bool: ir.Lit{Value: true}, Succ: 3, Fail: 3}},
		3: {Label: 3, Phis: []*ir.Set{phi}, Last: ir.Ret{Arg: phi.Dst}},
	}

	f := &ir.Func{Shape: ir.ShapeMap, Entry: 0, Blocks: blocks}

	runMergeBlocks(f)

	args := phi.PhiArgs()

	foundZero := false

	for _, a := range args {
		if a.Pred == 0 {
			foundZero = true
		}

		if a.Pred == 1 {
			t.Fatalf("block 1's label should have been rewritten to its absorbing predecessor: %v", args)
		}
	}

	if !foundZero {
		t.Fatalf("expected phi predecessor rewritten to block 0: %v", args)
	}
}
