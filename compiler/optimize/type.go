package optimize

import (
	"github.com/chenyifan96/otp/compiler/ir"
	"github.com/chenyifan96/otp/compiler/typeopt"
)

// runTypeOpt hands the function to the external type-based optimizer,
// which annotates float-capable arithmetic for runFloat to act on. The
// pipeline treats it as opaque: it neither inspects nor trusts its
// internals beyond the float_op annotation contract.
func runTypeOpt(f *ir.Func) {
	if f.Shape != ir.ShapeList {
		fatalf("type: expected linearized CFG")
	}

	typeopt.Optimize(f.List, f.Args)
}
