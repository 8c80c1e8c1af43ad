package typeopt

import (
	"testing"

	"github.com/chenyifan96/otp/compiler/ir"
)

func TestOptimizeMarksChainedFloatArithmetic(t *testing.T) {
	put := &ir.Set{Dst: ir.NewVar("F"), Op: ir.OpFloat, Sub: ir.FloatPut, Args: []ir.Operand{ir.Lit{Value: 1.5}}}
	add := &ir.Set{Dst: ir.NewVar("G"), Op: ir.OpBif, Sub: "+", Args: []ir.Operand{put.Dst, ir.Lit{Value: 2.5}}}
	mul := &ir.Set{Dst: ir.NewVar("H"), Op: ir.OpBif, Sub: "*", Args: []ir.Operand{add.Dst, ir.NewVar("Unrelated")}}

	b := &ir.Block{Label: 0, Is: []*ir.Set{put, add, mul}, Last: ir.Ret{Arg: add.Dst}}

	Optimize([]*ir.Block{b}, nil)

	if !add.IsFloatAnnotated() {
		t.Fatalf("expected chained float add to be annotated")
	}

	if mul.IsFloatAnnotated() {
		t.Fatalf("mul has a non-float operand and must not be annotated")
	}
}

func TestOptimizeSkipsNonArithmeticBifs(t *testing.T) {
	s := &ir.Set{Dst: ir.NewVar("X"), Op: ir.OpBif, Sub: "is_float", Args: []ir.Operand{ir.Lit{Value: 1.5}}}

	b := &ir.Block{Label: 0, Is: []*ir.Set{s}, Last: ir.Ret{Arg: s.Dst}}

	Optimize([]*ir.Block{b}, nil)

	if s.IsFloatAnnotated() {
		t.Fatalf("is_float is a test, not arithmetic, and must not be annotated")
	}
}
