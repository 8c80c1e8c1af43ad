package optimize

import (
	"github.com/chenyifan96/otp/compiler/cfgutil"
	"github.com/chenyifan96/otp/compiler/ir"
)

// runMergeBlocks concatenates a block into its unique predecessor
// whenever the predecessor falls through to it unconditionally. This is
// the last pass, so it's the one that actually shrinks the block count
// the earlier passes' splitting and flushing ran up.
func runMergeBlocks(f *ir.Func) {
	if f.Shape != ir.ShapeMap {
		fatalf("merge_blocks: expected map-shaped CFG")
	}

	preds := cfgutil.Predecessors(f.Blocks)
	order := cfgutil.RPO(f.Blocks, f.Entry)

	for _, l := range order {
		if l == f.Entry {
			continue
		}

		b, ok := f.Blocks[l]
		if !ok {
			continue
		}

		ps := preds[l]
		if len(ps) != 1 {
			continue
		}

		p := ps[0]

		pb, ok := f.Blocks[p]
		if !ok {
			continue
		}

		if len(b.Is) > 0 && b.Is[0].Op == ir.OpPeekMessage {
			continue
		}

		pbr, ok := pb.Last.(ir.Br)
		if !ok || pbr.Succ != l || pbr.Fail != l {
			continue
		}

		mergeInto(f, preds, pb, b, p, l)
	}
}

// mergeInto absorbs b into pb: pb keeps its own phis (a block with a
// unique predecessor collapses its phis in misc before this pass ever
// runs, so b's phis are expected empty by now), gains b's instructions
// and terminator, and every successor phi that named l as a predecessor
// is rewritten to name p instead.
func mergeInto(f *ir.Func, preds map[ir.Label][]ir.Label, pb, b *ir.Block, p, l ir.Label) {
	pb.Is = append(pb.Is, b.Is...)
	pb.Last = b.Last

	for _, succ := range cfgutil.Successors(b) {
		sb := f.Blocks[succ]
		if sb == nil {
			continue
		}

		for _, phi := range sb.Phis {
			args := phi.PhiArgs()

			for i := range args {
				if args[i].Pred == l {
					args[i].Pred = p
				}
			}

			phi.SetPhiArgs(args)
		}

		replacePred(preds, succ, l, p)
	}

	delete(f.Blocks, l)
	delete(preds, l)
}

func replacePred(preds map[ir.Label][]ir.Label, succ, old, new ir.Label) {
	ps := preds[succ]
	out := ps[:0]
	seen := false

	for _, x := range ps {
		if x == old {
			x = new
		}

		if x == new {
			if seen {
				continue
			}

			seen = true
		}

		out = append(out, x)
	}

	preds[succ] = out
}
