package optimize

import "github.com/chenyifan96/otp/compiler/ir"

// runMisc applies two left-to-right folds over the function: phi
// collapse (a phi whose arguments all agree on their value becomes a
// plain substitution) and literal folding (put_tuple/put_list of
// all-literal arguments becomes a literal value). Both substitutions
// apply to every instruction and terminator visited afterward.
func runMisc(f *ir.Func) {
	if f.Shape != ir.ShapeList {
		fatalf("misc: expected linearized CFG")
	}

	sub := map[ir.Var]ir.Operand{}

	for _, b := range f.List {
		kept := make([]*ir.Set, 0, len(b.Phis))

		for _, phi := range b.Phis {
			applySub(phi, sub)

			if v, ok := collapsePhi(phi); ok {
				sub[phi.Dst] = v

				continue
			}

			kept = append(kept, phi)
		}

		b.Phis = kept

		instrs := make([]*ir.Set, 0, len(b.Is))

		for _, s := range b.Is {
			applySub(s, sub)

			if lit, ok := foldLiteral(s); ok {
				sub[s.Dst] = lit

				continue
			}

			instrs = append(instrs, s)
		}

		b.Is = instrs

		applySubLast(b, sub)
	}
}

// collapsePhi reports whether every phi argument's value component is
// the same operand, in which case the phi is redundant.
func collapsePhi(phi *ir.Set) (ir.Operand, bool) {
	args := phi.PhiArgs()
	if len(args) == 0 {
		return nil, false
	}

	first := args[0].Value

	for _, a := range args[1:] {
		if !operandEqual(first, a.Value) {
			return nil, false
		}
	}

	return first, true
}

// foldLiteral folds put_tuple/put_list of all-literal arguments into a
// single literal value.
func foldLiteral(s *ir.Set) (ir.Lit, bool) {
	switch s.Op {
	case ir.OpPutTuple:
		vals := make(ir.TupleLit, len(s.Args))

		for i, a := range s.Args {
			lit, ok := a.(ir.Lit)
			if !ok {
				return ir.Lit{}, false
			}

			vals[i] = lit.Value
		}

		return ir.Lit{Value: vals}, true

	case ir.OpPutList:
		if len(s.Args) != 2 {
			return ir.Lit{}, false
		}

		hd, ok := s.Args[0].(ir.Lit)
		if !ok {
			return ir.Lit{}, false
		}

		tl, ok := s.Args[1].(ir.Lit)
		if !ok {
			return ir.Lit{}, false
		}

		return ir.Lit{Value: ir.ConsLit{Hd: hd.Value, Tl: tl.Value}}, true

	default:
		return ir.Lit{}, false
	}
}
