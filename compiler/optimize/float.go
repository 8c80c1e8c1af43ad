package optimize

import (
	"sort"

	"github.com/chenyifan96/otp/compiler/cfgutil"
	"github.com/chenyifan96/otp/compiler/ir"
)

// floatState is the per-block accumulator the float rewrite threads
// through a block's instruction stream: which boxed variable currently
// lives in which float register, and whether an unboxed region is open.
type floatState struct {
	cleared bool
	regs    map[ir.Var]ir.Var
}

// runFloat hoists chains of float-annotated arithmetic bifs into unboxed
// float registers, bracketed by clearerror/checkerror so a runtime
// exception raised inside the region is still observed at the original
// fallible instruction's boundary. A fallible convert or checkerror is
// isolated in its own block ending in succeeded+br to the region's fail
// label, so the exception actually has a control-flow edge to land on.
func runFloat(f *ir.Func) {
	if f.Shape != ir.ShapeList {
		fatalf("float: expected linearized CFG")
	}

	nonGuard := nonGuardBlocks(f.List)

	list := make([]*ir.Block, 0, len(f.List))

	for _, b := range f.List {
		if insideGuard(b, nonGuard) {
			list = append(list, b)

			continue
		}

		list = append(list, rewriteFloatBlock(f, b)...)
	}

	f.List = list
}

// guardFailLabel is the label a fallible unboxed-float instruction
// branches to on failure: the block's own guard fail edge if it has one,
// or the designated badarg block otherwise.
func guardFailLabel(b *ir.Block) ir.Label {
	if br, ok := b.Last.(ir.Br); ok {
		return br.Fail
	}

	return ir.BadargBlock
}

func nonGuardBlocks(list []*ir.Block) map[ir.Label]bool {
	r := map[ir.Label]bool{ir.BadargBlock: true}

	for _, b := range list {
		if len(b.Is) > 0 && b.Is[0].Op == ir.OpLandingPad {
			r[b.Label] = true
		}
	}

	return r
}

func insideGuard(b *ir.Block, nonGuard map[ir.Label]bool) bool {
	br, ok := b.Last.(ir.Br)
	if !ok {
		return false
	}

	return !nonGuard[br.Fail]
}

// rewriteFloatBlock rewrites b into one or more blocks: the first keeps
// b's label (and phis), any later ones carry fresh labels minted in
// order, and only the last carries b's original terminator. Splits occur
// wherever a fallible unboxed-float instruction (convert, checkerror)
// needs its own succeeded+br pair.
func rewriteFloatBlock(f *ir.Func, b *ir.Block) []*ir.Block {
	st := &floatState{regs: map[ir.Var]ir.Var{}}
	sub := map[ir.Var]ir.Operand{}

	fail := guardFailLabel(b)

	var segs []*ir.Block

	cur := &ir.Block{Label: b.Label, Phis: b.Phis}

	emit := func(s *ir.Set) { cur.Is = append(cur.Is, s) }

	// split closes cur with a succeeded check on chk, branching to fail
	// on failure and to a fresh block on success, and makes that fresh
	// block the new cur.
	split := func(chk ir.Var) {
		ok := f.Counter.NewVar("ok")
		emit(&ir.Set{Dst: ok, Op: ir.OpSucceeded, Args: []ir.Operand{chk}})

		next := f.Counter.NewLabel()
		cur.Last = ir.Br{Bool: ok, Succ: next, Fail: fail}

		segs = append(segs, cur)

		cur = &ir.Block{Label: next}
	}

	for i, s := range b.Is {
		applySub(s, sub)

		if s.Op == ir.OpSucceeded && i > 0 {
			prev := b.Is[i-1].Dst
			_, subbed := sub[prev]
			_, floated := st.regs[prev]

			if subbed || floated {
				sub[s.Dst] = ir.Lit{Value: true}

				continue
			}
		}

		if s.Op == ir.OpBif && s.IsFloatAnnotated() {
			if !st.cleared {
				emit(&ir.Set{Op: ir.OpFloat, Sub: ir.FloatClearError})
				st.cleared = true
			}

			args := make([]ir.Operand, len(s.Args))

			for j, a := range s.Args {
				args[j] = loadFloatOperand(f, st, emit, split, a)
			}

			fr := f.Counter.NewVar("fr")
			emit(&ir.Set{Dst: fr, Op: ir.OpFloat, Sub: s.Sub, Args: args})
			st.regs[s.Dst] = fr

			continue
		}

		if st.cleared {
			flushFloat(f, st, emit, split)
		}

		emit(s)
	}

	if st.cleared {
		flushFloat(f, st, emit, split)
	}

	cur.Last = b.Last
	segs = append(segs, cur)

	last := segs[len(segs)-1]

	if last != segs[0] {
		renameFloatSplitPreds(f, b, last.Label)
	}

	applySubLast(last, sub)

	return segs
}

// renameFloatSplitPreds fixes up b's original successors' phis after a
// split moved b's terminator identity from b.Label to newLabel.
func renameFloatSplitPreds(f *ir.Func, b *ir.Block, newLabel ir.Label) {
	for _, l := range cfgutil.Successors(b) {
		succ := f.Block(l)
		if succ == nil {
			continue
		}

		cfgutil.UpdatePhiLabels([]ir.Label{l}, b.Label, newLabel, map[ir.Label]*ir.Block{l: succ})
	}
}

// loadFloatOperand returns the float register holding op's value,
// emitting a put (literal fast path) or convert instruction if op isn't
// already mapped. A convert may fail at runtime, so it is isolated in
// its own block via split: a succeeded check right after it branches to
// the region's fail label on failure.
func loadFloatOperand(f *ir.Func, st *floatState, emit func(*ir.Set), split func(ir.Var), op ir.Operand) ir.Operand {
	if v, ok := op.(ir.Var); ok {
		if fr, ok := st.regs[v]; ok {
			return fr
		}
	}

	fr := f.Counter.NewVar("fr")

	if lit, ok := op.(ir.Lit); ok {
		if fv, ok := asFloat(lit.Value); ok {
			emit(&ir.Set{Dst: fr, Op: ir.OpFloat, Sub: ir.FloatPut, Args: []ir.Operand{ir.Lit{Value: fv}}})

			return fr
		}

		// Not convertible at compile time: keep as a runtime convert so
		// the original exception still fires.
		emit(&ir.Set{Dst: fr, Op: ir.OpFloat, Sub: ir.FloatConvert, Args: []ir.Operand{op}})
		split(fr)

		return fr
	}

	emit(&ir.Set{Dst: fr, Op: ir.OpFloat, Sub: ir.FloatConvert, Args: []ir.Operand{op}})
	split(fr)

	if v, ok := op.(ir.Var); ok {
		st.regs[v] = fr
	}

	return fr
}

func asFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// flushFloat closes the open unboxed region: a checkerror, branched to
// the region's fail label on failure via split, then one get per float
// register that boxes a value some later instruction still needs under
// its original name.
func flushFloat(f *ir.Func, st *floatState, emit func(*ir.Set), split func(ir.Var)) {
	chk := f.Counter.NewVar("chk")
	emit(&ir.Set{Dst: chk, Op: ir.OpFloat, Sub: ir.FloatCheckError})
	split(chk)

	vars := make([]ir.Var, 0, len(st.regs))
	for v := range st.regs {
		vars = append(vars, v)
	}

	sort.Slice(vars, func(i, j int) bool { return vars[i].String() < vars[j].String() })

	for _, v := range vars {
		emit(&ir.Set{Dst: v, Op: ir.OpFloat, Sub: ir.FloatGet, Args: []ir.Operand{st.regs[v]}})
	}

	st.regs = map[ir.Var]ir.Var{}
	st.cleared = false
}
