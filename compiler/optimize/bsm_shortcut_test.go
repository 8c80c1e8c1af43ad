package optimize

import (
	"testing"

	"github.com/chenyifan96/otp/compiler/ir"
)

func TestBSMShortcutRewritesCertainFailure(t *testing.T) {
	ctx0 := ir.NewVar("Ctx0")
	ctx1 := ir.NewVar("Ctx1")
	ctx2 := ir.NewVar("Ctx2")

	// 32 bits are already consumed when the checked match starts, which
	// exceeds the 8-bit tail check on Ctx0.
	start := &ir.Set{Dst: ctx0, Op: ir.OpBsStartMatch}
	pre := &ir.Set{Dst: ctx1, Op: ir.OpBsMatch, Sub: "integer", Args: []ir.Operand{ctx0, ir.Lit{Value: 32}, ir.Lit{Value: 1}}}
	match := &ir.Set{Dst: ctx2, Op: ir.OpBsMatch, Sub: "integer", Args: []ir.Operand{ctx1, ir.Lit{Value: 8}, ir.Lit{Value: 1}}}
	succ := &ir.Set{Dst: ir.NewVar("Ok"), Op: ir.OpSucceeded, Args: []ir.Operand{ctx2}}

	blk0 := &ir.Block{
		Label: 0,
		Is:    []*ir.Set{start, pre, match, succ},
		Last:  ir.Br{Bool: succ.Dst, Succ: 1, Fail: 2},
	}

	tail := &ir.Set{Dst: ir.NewVar("TailOk"), Op: ir.OpBsTestTail, Args: []ir.Operand{ctx0, ir.Lit{Value: 8}}}
	blk2 := &ir.Block{
		Label: 2,
		Is:    []*ir.Set{tail},
		Last:  ir.Br{Bool: tail.Dst, Succ: 1, Fail: 9},
	}

	blk1 := &ir.Block{Label: 1, Last: ir.Ret{Arg: ir.Lit{Value: "ok"}}}

	f := &ir.Func{Shape: ir.ShapeList, List: []*ir.Block{blk0, blk1, blk2}}

	runBSMShortcut(f)

	br, ok := blk0.Last.(ir.Br)
	if !ok {
		t.Fatalf("terminator changed type: %v", blk0.Last)
	}

	if br.Fail != 9 {
		t.Fatalf("expected block 0 to shortcut straight to the ultimate failure, got fail=%v", br.Fail)
	}
}

func TestBSMShortcutLeavesPlausibleMatchAlone(t *testing.T) {
	ctx0 := ir.NewVar("Ctx0")
	ctx1 := ir.NewVar("Ctx1")
	ctx2 := ir.NewVar("Ctx2")

	start := &ir.Set{Dst: ctx0, Op: ir.OpBsStartMatch}
	pre := &ir.Set{Dst: ctx1, Op: ir.OpBsMatch, Sub: "integer", Args: []ir.Operand{ctx0, ir.Lit{Value: 4}, ir.Lit{Value: 1}}}
	match := &ir.Set{Dst: ctx2, Op: ir.OpBsMatch, Sub: "integer", Args: []ir.Operand{ctx1, ir.Lit{Value: 8}, ir.Lit{Value: 1}}}
	succ := &ir.Set{Dst: ir.NewVar("Ok"), Op: ir.OpSucceeded, Args: []ir.Operand{ctx2}}

	blk0 := &ir.Block{
		Label: 0,
		Is:    []*ir.Set{start, pre, match, succ},
		Last:  ir.Br{Bool: succ.Dst, Succ: 1, Fail: 2},
	}

	tail := &ir.Set{Dst: ir.NewVar("TailOk"), Op: ir.OpBsTestTail, Args: []ir.Operand{ctx0, ir.Lit{Value: 8}}}
	blk2 := &ir.Block{
		Label: 2,
		Is:    []*ir.Set{tail},
		Last:  ir.Br{Bool: tail.Dst, Succ: 1, Fail: 9},
	}

	blk1 := &ir.Block{Label: 1, Last: ir.Ret{Arg: ir.Lit{Value: "ok"}}}

	f := &ir.Func{Shape: ir.ShapeList, List: []*ir.Block{blk0, blk1, blk2}}

	runBSMShortcut(f)

	br := blk0.Last.(ir.Br)
	if br.Fail != 2 {
		t.Fatalf("4 bits consumed does not exceed the 8-bit tail check, fail should be unchanged: got %v", br.Fail)
	}
}
