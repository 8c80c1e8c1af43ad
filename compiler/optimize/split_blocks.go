package optimize

import (
	"github.com/chenyifan96/otp/compiler/cfgutil"
	"github.com/chenyifan96/otp/compiler/ir"
)

// runSplitBlocks splits at element, call and make_fun so later passes
// have shorter blocks to reorder or sink instructions into.
func runSplitBlocks(f *ir.Func) {
	if f.Shape != ir.ShapeMap {
		fatalf("split_blocks: expected map-shaped CFG")
	}

	f.Blocks = cfgutil.SplitBlocks(isSplitPoint, f.Blocks, f.Counter)
}

func isSplitPoint(s *ir.Set) bool {
	if s.Op == ir.OpCall || s.Op == ir.OpMakeFun {
		return true
	}

	return s.Op == ir.OpBif && s.Sub == "element"
}
