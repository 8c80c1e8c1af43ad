package optimize

import (
	"github.com/chenyifan96/otp/compiler/cfgutil"
	"github.com/chenyifan96/otp/compiler/ir"
)

// runLinearize switches the CFG from the label-keyed map the front end
// produces (and split_blocks/element operate on) to an ordered,
// reverse-postorder list. record, cse, the external type pass, float,
// live, bsm, bsm_shortcut and misc all expect the list shape.
func runLinearize(f *ir.Func) {
	if f.Shape == ir.ShapeList {
		return
	}

	f.List = cfgutil.Linearize(f.Blocks, f.Entry)
	f.Blocks = nil
	f.Shape = ir.ShapeList
}

// runBlockify switches back to the map shape that sink and merge_blocks
// expect.
func runBlockify(f *ir.Func) {
	if f.Shape == ir.ShapeMap {
		return
	}

	f.Blocks = cfgutil.Blockify(f.List)
	f.List = nil
	f.Shape = ir.ShapeMap
}
