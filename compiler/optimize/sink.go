package optimize

import (
	"sort"

	"github.com/chenyifan96/otp/compiler/cfgutil"
	"github.com/chenyifan96/otp/compiler/ir"
)

// runSink moves each get_tuple_element instruction as close as possible
// to the blocks that actually use its result: if every use is dominated
// by some block deeper than the definition, the definition relocates
// there instead of living at its original, earlier point.
func runSink(f *ir.Func) {
	if f.Shape != ir.ShapeMap {
		fatalf("sink: expected map-shaped CFG")
	}

	defs := map[ir.Var]ir.Label{}

	for l, b := range f.Blocks {
		for _, s := range b.Is {
			if s.Op == ir.OpGetTupleElement {
				defs[s.Dst] = l
			}
		}
	}

	uses := collectUses(f, defs)

	dom := cfgutil.Dominators(f.Blocks, f.Entry)
	unsuitable := unsuitableBlocks(f.Blocks)
	domSets := restrictedDomSets(dom, unsuitable)

	vars := make([]ir.Var, 0, len(defs))
	for v := range defs {
		vars = append(vars, v)
	}

	sort.Slice(vars, func(i, j int) bool { return varLess(vars[i], vars[j]) })

	for _, v := range vars {
		d := defs[v]

		us := uses[v]
		if len(us) == 0 {
			continue
		}

		target, ok := commonDomTarget(domSets, dom, us, d)
		if !ok || target == d {
			continue
		}

		relocate(f, v, d, target)
	}
}

func varLess(a, b ir.Var) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}

	if a.Tag != b.Tag {
		return a.Tag < b.Tag
	}

	return a.N < b.N
}

// collectUses finds, for every tracked variable, the sorted set of
// distinct blocks that read it, across instructions, phis and
// terminators alike.
func collectUses(f *ir.Func, defs map[ir.Var]ir.Label) map[ir.Var][]ir.Label {
	uses := map[ir.Var]map[ir.Label]bool{}

	note := func(l ir.Label, vs []ir.Var) {
		for _, v := range vs {
			if _, tracked := defs[v]; !tracked {
				continue
			}

			if uses[v] == nil {
				uses[v] = map[ir.Label]bool{}
			}

			uses[v][l] = true
		}
	}

	for l, b := range f.Blocks {
		for _, phi := range b.Phis {
			note(l, cfgutil.Used(phi))
		}

		for _, s := range b.Is {
			note(l, cfgutil.Used(s))
		}

		note(l, cfgutil.Used(b.Last))
	}

	r := make(map[ir.Var][]ir.Label, len(uses))

	for v, set := range uses {
		ls := make([]ir.Label, 0, len(set))

		for l := range set {
			ls = append(ls, l)
		}

		sort.Slice(ls, func(i, j int) bool { return ls[i] < ls[j] })

		r[v] = ls
	}

	return r
}

var unsuitableFirstOps = map[ir.Op]bool{
	ir.OpBsExtract:   true,
	ir.OpBsPut:       true,
	ir.OpFloat:       true,
	ir.OpLandingPad:  true,
	ir.OpPeekMessage: true,
	ir.OpWaitTimeout: true,
}

// unsuitableBlocks computes U, the set of blocks get_tuple_element may
// never be sunk into: blocks starting with an instruction that can't
// tolerate instructions ahead of it, and the whole body of any receive
// loop (the blocks backward-reachable from a remove_message/recv_next
// block, stopping at the block's own peek_message).
func unsuitableBlocks(blocks map[ir.Label]*ir.Block) map[ir.Label]bool {
	u := map[ir.Label]bool{}

	for l, b := range blocks {
		if len(b.Is) > 0 && unsuitableFirstOps[b.Is[0].Op] {
			u[l] = true
		}
	}

	preds := cfgutil.Predecessors(blocks)

	var starts []ir.Label

	for l, b := range blocks {
		if len(b.Is) > 0 && (b.Is[0].Op == ir.OpRemoveMessage || b.Is[0].Op == ir.OpRecvNext) {
			starts = append(starts, l)
		}
	}

	visited := map[ir.Label]bool{}

	var walk func(ir.Label)
	walk = func(l ir.Label) {
		if visited[l] {
			return
		}

		visited[l] = true
		u[l] = true

		b := blocks[l]
		if b != nil && len(b.Is) > 0 && b.Is[0].Op == ir.OpPeekMessage {
			return
		}

		for _, p := range preds[l] {
			walk(p)
		}
	}

	for _, l := range starts {
		walk(l)
	}

	return u
}

// restrictedDomSets returns, for every block, its dominator set as a
// lookup table with every block in unsuitable removed.
func restrictedDomSets(dom map[ir.Label][]ir.Label, unsuitable map[ir.Label]bool) map[ir.Label]map[ir.Label]bool {
	r := make(map[ir.Label]map[ir.Label]bool, len(dom))

	for l, chain := range dom {
		s := map[ir.Label]bool{}

		for _, d := range chain {
			if unsuitable[d] {
				continue
			}

			s[d] = true
		}

		r[l] = s
	}

	return r
}

// commonDomTarget computes CommonDom = (intersection of dom(u) for u in
// uses) minus dom(def), then picks its most-dominated element: the one
// with the longest dominator chain, i.e. deepest in the tree.
func commonDomTarget(domSets map[ir.Label]map[ir.Label]bool, dom map[ir.Label][]ir.Label, uses []ir.Label, def ir.Label) (ir.Label, bool) {
	if len(uses) == 0 {
		return 0, false
	}

	common := map[ir.Label]bool{}

	for l := range domSets[uses[0]] {
		common[l] = true
	}

	for _, u := range uses[1:] {
		ds := domSets[u]

		for l := range common {
			if !ds[l] {
				delete(common, l)
			}
		}
	}

	for d := range domSets[def] {
		delete(common, d)
	}

	if len(common) == 0 {
		return 0, false
	}

	var best ir.Label
	bestDepth := -1

	for l := range common {
		depth := len(dom[l])
		if depth > bestDepth {
			best, bestDepth = l, depth
		}
	}

	return best, true
}

// relocate physically moves v's get_tuple_element instruction from def
// to target, scanning target from the top to find a legal insertion
// point.
func relocate(f *ir.Func, v ir.Var, def, target ir.Label) {
	srcBlock := f.Blocks[def]

	idx := -1

	for i, s := range srcBlock.Is {
		if s.Op == ir.OpGetTupleElement && s.Dst == v {
			idx = i

			break
		}
	}

	if idx < 0 {
		return
	}

	instr := srcBlock.Is[idx]

	dstBlock := f.Blocks[target]

	for _, phi := range dstBlock.Phis {
		for _, a := range phi.PhiArgs() {
			if av, ok := a.Value.(ir.Var); ok && av == v {
				// not_possible: relocation would shadow a use in the
				// target block's own phis. Leave the CFG untouched.
				return
			}
		}
	}

	pos := insertionPoint(dstBlock, v)

	srcBlock.Is = append(srcBlock.Is[:idx], srcBlock.Is[idx+1:]...)

	is := dstBlock.Is
	dstBlock.Is = append(is[:pos], append([]*ir.Set{instr}, is[pos:]...)...)
}

var placeBeyondOps = map[ir.Op]bool{
	ir.OpCall:            true,
	ir.OpCatchEnd:        true,
	ir.OpSetTupleElement: true,
	ir.OpTimeout:         true,
}

// insertionPoint scans dstBlock from the top for the earliest position
// that doesn't separate a placeBeyond instruction from its own uses, and
// doesn't split a [I; succeeded(I.dst)] pair.
func insertionPoint(dstBlock *ir.Block, v ir.Var) int {
	for i, s := range dstBlock.Is {
		if placeBeyondOps[s.Op] {
			usesV := false

			for _, u := range cfgutil.Used(s) {
				if u == v {
					usesV = true

					break
				}
			}

			if !usesV {
				continue
			}

			return i
		}

		if i+1 < len(dstBlock.Is) && dstBlock.Is[i+1].Op == ir.OpSucceeded {
			return i
		}

		return i
	}

	return len(dstBlock.Is)
}
