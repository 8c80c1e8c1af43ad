package optimize

import (
	"testing"

	"github.com/chenyifan96/otp/compiler/ir"
)

func TestCSEEliminatesDuplicateBif(t *testing.T) {
	a, b := ir.NewVar("A"), ir.NewVar("B")

	s1 := &ir.Set{Dst: ir.NewVar("X"), Op: ir.OpBif, Sub: "+", Args: []ir.Operand{a, b}}
	s2 := &ir.Set{Dst: ir.NewVar("Y"), Op: ir.OpBif, Sub: "+", Args: []ir.Operand{a, b}}
	ret := &ir.Set{Dst: ir.NewVar("Z"), Op: ir.OpBif, Sub: "*", Args: []ir.Operand{s1.Dst, s2.Dst}}

	blk := &ir.Block{
		Label: 0,
		Is:    []*ir.Set{s1, s2, ret},
		Last:  ir.Ret{Arg: ret.Dst},
	}

	f := &ir.Func{Shape: ir.ShapeList, List: []*ir.Block{blk}}

	runCSE(f)

	if len(blk.Is) != 2 {
		t.Fatalf("expected duplicate bif eliminated, got %d instructions: %v", len(blk.Is), blk.Is)
	}

	last := blk.Is[len(blk.Is)-1]
	if last.Args[0] != s1.Dst || last.Args[1] != s1.Dst {
		t.Fatalf("downstream use not rewritten to the surviving definition: %v", last.Args)
	}
}

func TestCSEKeepsTestsAndComparisons(t *testing.T) {
	a, b := ir.NewVar("A"), ir.NewVar("B")

	s1 := &ir.Set{Dst: ir.NewVar("X"), Op: ir.OpBif, Sub: "=:=", Args: []ir.Operand{a, b}}
	s2 := &ir.Set{Dst: ir.NewVar("Y"), Op: ir.OpBif, Sub: "=:=", Args: []ir.Operand{a, b}}

	blk := &ir.Block{
		Label: 0,
		Is:    []*ir.Set{s1, s2},
		Last:  ir.Ret{Arg: s2.Dst},
	}

	f := &ir.Func{Shape: ir.ShapeList, List: []*ir.Block{blk}}

	runCSE(f)

	if len(blk.Is) != 2 {
		t.Fatalf("comparisons should not be deduplicated, got %v", blk.Is)
	}
}

func TestCSEPropagatesAcrossUniqueSuccessor(t *testing.T) {
	a, b := ir.NewVar("A"), ir.NewVar("B")

	s0 := &ir.Set{Dst: ir.NewVar("X"), Op: ir.OpBif, Sub: "+", Args: []ir.Operand{a, b}}
	blk0 := &ir.Block{
		Label: 0,
		Is:    []*ir.Set{s0},
		Last:  ir.Br{Bool: ir.Lit{Value: true}, Succ: 1, Fail: 1},
	}

	s1 := &ir.Set{Dst: ir.NewVar("Y"), Op: ir.OpBif, Sub: "+", Args: []ir.Operand{a, b}}
	blk1 := &ir.Block{
		Label: 1,
		Is:    []*ir.Set{s1},
		Last:  ir.Ret{Arg: s1.Dst},
	}

	f := &ir.Func{Shape: ir.ShapeList, List: []*ir.Block{blk0, blk1}}

	runCSE(f)

	if len(blk1.Is) != 0 {
		t.Fatalf("expected expression carried over from the unique predecessor, got %v", blk1.Is)
	}

	ret, ok := blk1.Last.(ir.Ret)
	if !ok || ret.Arg != s0.Dst {
		t.Fatalf("return should reference the surviving definition, got %v", blk1.Last)
	}
}

func TestCSEClobberResetsAvailableExpressions(t *testing.T) {
	a, b := ir.NewVar("A"), ir.NewVar("B")

	s1 := &ir.Set{Dst: ir.NewVar("X"), Op: ir.OpBif, Sub: "+", Args: []ir.Operand{a, b}}
	call := &ir.Set{Dst: ir.NewVar("C"), Op: ir.OpCall}
	s2 := &ir.Set{Dst: ir.NewVar("Y"), Op: ir.OpBif, Sub: "+", Args: []ir.Operand{a, b}}

	blk := &ir.Block{
		Label: 0,
		Is:    []*ir.Set{s1, call, s2},
		Last:  ir.Ret{Arg: s2.Dst},
	}

	f := &ir.Func{Shape: ir.ShapeList, List: []*ir.Block{blk}}

	runCSE(f)

	if len(blk.Is) != 3 {
		t.Fatalf("a call clobbering X registers should invalidate the earlier expression, got %v", blk.Is)
	}
}
