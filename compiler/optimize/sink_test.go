package optimize

import (
	"testing"

	"github.com/chenyifan96/otp/compiler/ir"
)

// diamond-shaped CFG: 0 -> {1,2} -> 3. get_tuple_element for V lives in
// 0 but only block 3 (common to both branches) ever reads it.
func sinkDiamond(getElem *ir.Set) map[ir.Label]*ir.Block {
	return map[ir.Label]*ir.Block{
		0: {Label: 0, Is: []*ir.Set{getElem}, Last: ir.Br{Bool: ir.NewVar("C"), Succ: 1, Fail: 2}},
		1: {Label: 1, Last: ir.Br{Bool: ir.Lit{Value: true}, Succ: 3, Fail: 3}},
		2: {Label: 2, Last: ir.Br{Bool: ir.Lit{Value: true}, Succ: 3, Fail: 3}},
		3: {Label: 3, Is: []*ir.Set{{Dst: ir.NewVar("U"), Op: ir.OpBif, Sub: "+", Args: []ir.Operand{getElem.Dst, ir.Lit{Value: 1}}}}, Last: ir.Ret{Arg: ir.NewVar("U")}},
	}
}

func TestSinkMovesToCommonUseBlock(t *testing.T) {
	tup := ir.NewVar("T")
	getElem := &ir.Set{Dst: ir.NewVar("V"), Op: ir.OpGetTupleElement, Args: []ir.Operand{tup, ir.Lit{Value: 0}}}

	blocks := sinkDiamond(getElem)

	f := &ir.Func{Shape: ir.ShapeMap, Entry: 0, Blocks: blocks}

	runSink(f)

	if len(f.Blocks[0].Is) != 0 {
		t.Fatalf("expected get_tuple_element to leave block 0, got %v", f.Blocks[0].Is)
	}

	b3 := f.Blocks[3]
	if len(b3.Is) != 2 || b3.Is[0] != getElem {
		t.Fatalf("expected get_tuple_element to land at the top of block 3, got %v", b3.Is)
	}
}

func TestSinkLeavesSingleUseInPlace(t *testing.T) {
	tup := ir.NewVar("T")
	getElem := &ir.Set{Dst: ir.NewVar("V"), Op: ir.OpGetTupleElement, Args: []ir.Operand{tup, ir.Lit{Value: 0}}}
	use := &ir.Set{Dst: ir.NewVar("U"), Op: ir.OpBif, Sub: "+", Args: []ir.Operand{getElem.Dst, ir.Lit{Value: 1}}}

	blocks := map[ir.Label]*ir.Block{
		0: {Label: 0, Is: []*ir.Set{getElem, use}, Last: ir.Ret{Arg: use.Dst}},
	}

	f := &ir.Func{Shape: ir.ShapeMap, Entry: 0, Blocks: blocks}

	runSink(f)

	if len(f.Blocks[0].Is) != 2 || f.Blocks[0].Is[0] != getElem {
		t.Fatalf("a use in the definition's own block should leave it in place, got %v", f.Blocks[0].Is)
	}
}

func TestSinkNeverEntersUnsuitableBlock(t *testing.T) {
	tup := ir.NewVar("T")
	getElem := &ir.Set{Dst: ir.NewVar("V"), Op: ir.OpGetTupleElement, Args: []ir.Operand{tup, ir.Lit{Value: 0}}}

	landingpad := &ir.Set{Op: ir.OpLandingPad}
	use := &ir.Set{Dst: ir.NewVar("U"), Op: ir.OpBif, Sub: "+", Args: []ir.Operand{getElem.Dst, ir.Lit{Value: 1}}}

	blocks := map[ir.Label]*ir.Block{
		0: {Label: 0, Is: []*ir.Set{getElem}, Last: ir.Br{Bool: ir.Lit{Value: true}, Succ: 1, Fail: 1}},
		1: {Label: 1, Is: []*ir.Set{landingpad, use}, Last: ir.Ret{Arg: use.Dst}},
	}

	f := &ir.Func{Shape: ir.ShapeMap, Entry: 0, Blocks: blocks}

	runSink(f)

	if len(f.Blocks[0].Is) != 1 || f.Blocks[0].Is[0] != getElem {
		t.Fatalf("landingpad block is unsuitable, get_tuple_element must stay put, got block0=%v", f.Blocks[0].Is)
	}
}
