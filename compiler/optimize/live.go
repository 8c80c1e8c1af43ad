package optimize

import (
	"github.com/chenyifan96/otp/compiler/cfgutil"
	"github.com/chenyifan96/otp/compiler/df"
	"github.com/chenyifan96/otp/compiler/ir"
)

// runLive is a classic backward liveness sweep over the linearized CFG:
// blocks are visited in reverse order, live-out is the union of
// successors' live-in (per-edge, so a phi only contributes the argument
// that corresponds to the edge it's reached through), and dead pure
// instructions are dropped as they're found.
func runLive(f *ir.Func) {
	if f.Shape != ir.ShapeList {
		fatalf("live: expected linearized CFG")
	}

	vars := df.NewVars()
	liveOut := map[ir.Label]df.Set{}

	for i := len(f.List) - 1; i >= 0; i-- {
		b := f.List[i]

		live := vars.NewSet()

		for _, succ := range cfgutil.Successors(b) {
			if out, ok := liveOut[succ]; ok {
				live.Union(edgeLiveIn(vars, out, b.Label, succLookup(f, succ)))
			}
		}

		for _, u := range b.Last.Used() {
			if v, ok := u.(ir.Var); ok {
				live.Add(v)
			}
		}

		b.Is = liveFilterInstrs(&live, b.Is)
		b.Phis = liveFilterPhis(&live, b.Phis)

		liveOut[b.Label] = live
	}
}

func succLookup(f *ir.Func, l ir.Label) *ir.Block {
	for _, b := range f.List {
		if b.Label == l {
			return b
		}
	}

	return nil
}

// edgeLiveIn is a successor's live-in set specialized to the edge coming
// from pred: every phi argument not carried on this edge is removed and
// replaced by the argument that is.
func edgeLiveIn(vars *df.Vars, out df.Set, pred ir.Label, succ *ir.Block) df.Set {
	if succ == nil || len(succ.Phis) == 0 {
		return out.Copy()
	}

	r := out.Copy()

	for _, phi := range succ.Phis {
		r.Remove(phi.Dst)

		for _, a := range phi.PhiArgs() {
			if a.Pred != pred {
				continue
			}

			if v, ok := a.Value.(ir.Var); ok {
				r.Add(v)
			}
		}
	}

	return r
}

func liveFilterPhis(live *df.Set, phis []*ir.Set) []*ir.Set {
	kept := make([]*ir.Set, 0, len(phis))

	for _, phi := range phis {
		if !live.Has(phi.Dst) {
			continue
		}

		kept = append(kept, phi)
	}

	return kept
}

func liveFilterInstrs(live *df.Set, is []*ir.Set) []*ir.Set {
	kept := make([]*ir.Set, 0, len(is))

	for i := len(is) - 1; i >= 0; i-- {
		s := is[i]

		if s.Op == ir.OpSucceeded && i > 0 {
			prev := is[i-1]

			prevLive := live.Has(prev.Dst)
			succLive := live.Has(s.Dst)

			switch {
			case prevLive, succLive:
				kept = append(kept, s)
				addUsed(live, s)

				i--
				kept = append(kept, prev)
				addUsed(live, prev)
				live.Remove(prev.Dst)

				continue
			default:
				// Both dead. get_map_element isn't itself provably pure,
				// a bad map argument raises, so it can't be dropped the
				// way a plain pure instruction can. Downgrading it to
				// has_map_field produces something that is, and that
				// downgraded instruction's dst is dead too, so the pair
				// simply disappears.
				if _, ok := downgrade(prev); ok {
					i--

					continue
				}

				if prev.IsPure() {
					i--

					continue
				}

				kept = append(kept, s)
				addUsed(live, s)

				i--
				kept = append(kept, prev)
				addUsed(live, prev)
				live.Remove(prev.Dst)

				continue
			}
		}

		if !live.Has(s.Dst) && s.IsPure() {
			continue
		}

		kept = append(kept, s)
		addUsed(live, s)
		live.Remove(s.Dst)
	}

	// kept was built back-to-front; restore execution order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	return kept
}

func addUsed(live *df.Set, s *ir.Set) {
	for _, u := range cfgutil.Used(s) {
		live.Add(u)
	}
}

// downgrade implements the single current downgrade rule: a dead
// get_map_element whose succeeded is also dead becomes a has_map_field,
// trading the extracted value for a presence check.
func downgrade(s *ir.Set) (*ir.Set, bool) {
	if s.Op != ir.OpGetMapElement {
		return nil, false
	}

	return &ir.Set{Op: ir.OpHasMapField, Args: s.Args}, true
}
