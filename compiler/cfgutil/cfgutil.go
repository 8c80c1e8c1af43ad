// Package cfgutil holds the generic control-flow utilities the optimizer
// passes in package optimize build on: traversal order, dominators,
// predecessor/successor queries, free-variable extraction, block
// splitting and phi-label rewriting. None of it is specific to any one
// pass; each pass calls into here instead of re-deriving these facts
// itself.
package cfgutil

import (
	"sort"

	"github.com/chenyifan96/otp/compiler/ir"
	"github.com/chenyifan96/otp/compiler/set"
)

// Successors returns b's terminator's successor labels, in the order the
// terminator lists them. A br(true, L, L) lists L twice; callers that
// care about uniqueness dedup themselves (Predecessors does).
func Successors(b *ir.Block) []ir.Label {
	return b.Last.Succs()
}

// Predecessors computes, for every block, the labels of blocks whose
// terminator lists it as a successor.
func Predecessors(blocks map[ir.Label]*ir.Block) map[ir.Label][]ir.Label {
	preds := map[ir.Label][]ir.Label{}

	for _, l := range sortedLabels(blocks) {
		b := blocks[l]

		seen := map[ir.Label]bool{}

		for _, s := range Successors(b) {
			if seen[s] {
				continue
			}

			seen[s] = true
			preds[s] = append(preds[s], l)
		}
	}

	return preds
}

// RPO returns block labels in reverse postorder starting from entry,
// entry first. Unreachable blocks are omitted.
func RPO(blocks map[ir.Label]*ir.Block, entry ir.Label) []ir.Label {
	visited := map[ir.Label]bool{}

	var post []ir.Label

	var visit func(ir.Label)
	visit = func(l ir.Label) {
		if visited[l] {
			return
		}

		visited[l] = true

		b := blocks[l]
		if b == nil {
			return
		}

		for _, s := range Successors(b) {
			visit(s)
		}

		post = append(post, l)
	}

	visit(entry)

	rpo := make([]ir.Label, len(post))
	for i, l := range post {
		rpo[len(post)-1-i] = l
	}

	return rpo
}

// Linearize switches a map-shaped CFG to an ordered list in
// reverse-postorder, entry first.
func Linearize(blocks map[ir.Label]*ir.Block, entry ir.Label) []*ir.Block {
	order := RPO(blocks, entry)

	r := make([]*ir.Block, 0, len(order))
	for _, l := range order {
		r = append(r, blocks[l])
	}

	return r
}

// Blockify switches an ordered list back to a label-keyed map.
func Blockify(list []*ir.Block) map[ir.Label]*ir.Block {
	m := make(map[ir.Label]*ir.Block, len(list))

	for _, b := range list {
		m[b.Label] = b
	}

	return m
}

// Dominators computes, for every reachable block, its dominator chain
// ordered entry-first including itself. It's the classic iterative
// algorithm over reverse postorder, using sorted small-int sets so the
// per-block intersections stay cheap.
func Dominators(blocks map[ir.Label]*ir.Block, entry ir.Label) map[ir.Label][]ir.Label {
	order := RPO(blocks, entry)
	if len(order) == 0 {
		return nil
	}

	index := map[ir.Label]int{}
	for i, l := range order {
		index[l] = i
	}

	preds := Predecessors(blocks)

	all := set.FromSlice(0, indices(len(order)))

	dom := make([]set.Bits[int], len(order))
	for i := range dom {
		dom[i] = all.Copy()
	}

	dom[0] = set.FromSlice(0, []int{0})

	changed := true
	for changed {
		changed = false

		for i := 1; i < len(order); i++ {
			l := order[i]

			var newDom set.Bits[int]
			first := true

			for _, p := range preds[l] {
				pi, ok := index[p]
				if !ok {
					continue
				}

				if first {
					newDom = dom[pi].Copy()
					first = false

					continue
				}

				newDom.Intersect(dom[pi])
			}

			if first {
				continue // unreachable predecessor set
			}

			newDom.Set(i)

			if !newDom.Equal(dom[i]) {
				dom[i] = newDom
				changed = true
			}
		}
	}

	result := make(map[ir.Label][]ir.Label, len(order))

	for i, l := range order {
		ids := dom[i].Sorted()

		chain := make([]ir.Label, 0, len(ids))
		// Sort by RPO index ascending: a dominator precedes every block
		// it dominates in reverse postorder.
		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

		for _, id := range ids {
			chain = append(chain, order[id])
		}

		// chain is currently ascending RPO index, i.e. entry-first
		// already since entry has index 0.
		result[l] = chain
	}

	return result
}

func indices(n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = i
	}

	return r
}

func sortedLabels(blocks map[ir.Label]*ir.Block) []ir.Label {
	r := make([]ir.Label, 0, len(blocks))

	for l := range blocks {
		r = append(r, l)
	}

	sort.Slice(r, func(i, j int) bool { return r[i] < r[j] })

	return r
}
