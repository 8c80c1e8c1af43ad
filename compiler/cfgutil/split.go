package cfgutil

import "github.com/chenyifan96/otp/compiler/ir"

// SplitBlocks walks every block and, whenever pred matches an
// instruction that is not the first in its block, splits the block so
// that instruction starts a fresh one. Splitting a block moves its
// terminator (and hence its identity as a predecessor) to the new tail
// block, so every successor's phis are rewritten to name the new label
// via UpdatePhiLabels.
func SplitBlocks(pred func(*ir.Set) bool, blocks map[ir.Label]*ir.Block, counter *ir.Counter) map[ir.Label]*ir.Block {
	work := make([]ir.Label, 0, len(blocks))
	for l := range blocks {
		work = append(work, l)
	}

	for len(work) > 0 {
		l := work[len(work)-1]
		work = work[:len(work)-1]

		b := blocks[l]
		if b == nil {
			continue
		}

		idx := -1

		for i, s := range b.Is {
			if i == 0 {
				continue
			}

			if pred(s) {
				idx = i

				break
			}
		}

		if idx < 0 {
			continue
		}

		tail := &ir.Block{
			Label: counter.NewLabel(),
			Is:    b.Is[idx:],
			Last:  b.Last,
		}

		b.Is = b.Is[:idx]
		b.Last = ir.Br{Bool: ir.Lit{Value: true}, Succ: tail.Label, Fail: tail.Label}

		blocks[tail.Label] = tail

		for _, s := range Successors(tail) {
			UpdatePhiLabels([]ir.Label{s}, l, tail.Label, blocks)
		}

		work = append(work, l, tail.Label)
	}

	return blocks
}

// UpdatePhiLabels rewrites, in every block named in succs, any phi
// argument whose predecessor label is from to to.
func UpdatePhiLabels(succs []ir.Label, from, to ir.Label, blocks map[ir.Label]*ir.Block) {
	for _, l := range succs {
		b := blocks[l]
		if b == nil {
			continue
		}

		for _, phi := range b.Phis {
			args := phi.PhiArgs()

			for i := range args {
				if args[i].Pred == from {
					args[i].Pred = to
				}
			}

			phi.SetPhiArgs(args)
		}
	}
}

// ClobbersXregs reports whether s may invalidate caller-save registers.
func ClobbersXregs(s *ir.Set) bool {
	return s.ClobbersXregs()
}
