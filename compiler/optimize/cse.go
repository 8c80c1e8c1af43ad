package optimize

import (
	"fmt"
	"strings"

	"github.com/chenyifan96/otp/compiler/cfgutil"
	"github.com/chenyifan96/otp/compiler/ir"
)

// testCmpBoolBifs are excluded from CSE suitability on purpose: keeping
// tests, comparisons and boolean operators un-deduplicated lets a later
// lowering stage fuse them directly into branch instructions instead of
// materializing a boolean result.
var testCmpBoolBifs = map[ir.Op]bool{
	"is_atom": true, "is_integer": true, "is_list": true, "is_tuple": true,
	"is_boolean": true, "is_map": true, "is_function": true, "is_binary": true,
	"is_float": true, "is_number": true, "is_pid": true, "is_port": true,
	"is_reference": true, "is_record": true,
	"=:=": true, "=/=": true, "==": true, "/=": true,
	"<": true, ">": true, "=<": true, ">=": true,
	"and": true, "or": true, "not": true, "xor": true, "andalso": true, "orelse": true,
}

func cseSuitable(s *ir.Set) bool {
	switch s.Op {
	case ir.OpGetHd, ir.OpGetTl, ir.OpPutList, ir.OpPutTuple:
		return true
	case ir.OpBif:
		return !testCmpBoolBifs[s.Sub]
	default:
		return false
	}
}

// runCSE eliminates common subexpressions within extended basic blocks:
// a block propagates its table of known-available expressions to its
// successors, intersected with whatever those successors have already
// accumulated from other predecessors.
func runCSE(f *ir.Func) {
	if f.Shape != ir.ShapeList {
		fatalf("cse: expected linearized CFG")
	}

	sub := map[ir.Var]ir.Operand{}
	incoming := map[ir.Label]map[string]ir.Var{}
	seen := map[ir.Label]bool{}

	for _, b := range f.List {
		es := map[string]ir.Var{}

		if in, ok := incoming[b.Label]; ok {
			for k, v := range in {
				es[k] = v
			}
		}

		for _, phi := range b.Phis {
			applySub(phi, sub)
		}

		kept := make([]*ir.Set, 0, len(b.Is))

		var lastFallibleRepr ir.Var
		haveFallibleRepr := false

		for i, s := range b.Is {
			applySub(s, sub)

			if s.Op == ir.OpSucceeded {
				if i > 0 {
					if _, ok := sub[b.Is[i-1].Dst]; ok {
						sub[s.Dst] = ir.Lit{Value: true}

						continue
					}
				}

				kept = append(kept, s)

				continue
			}

			haveFallibleRepr = false

			if !cseSuitable(s) {
				if cfgutil.ClobbersXregs(s) {
					es = map[string]ir.Var{}
				}

				kept = append(kept, s)

				continue
			}

			key := exprKey(s)

			if rep, ok := es[key]; ok {
				sub[s.Dst] = rep

				if followedBySucceeded(b.Is, i) {
					lastFallibleRepr = rep
					haveFallibleRepr = true
				}

				continue
			}

			es[key] = s.Dst
			kept = append(kept, s)

			if followedBySucceeded(b.Is, i) {
				lastFallibleRepr = s.Dst
				haveFallibleRepr = true
			}
		}

		b.Is = kept

		applySubLast(b, sub)

		for _, succ := range cfgutil.Successors(b) {
			out := es

			if haveFallibleRepr {
				if br, ok := b.Last.(ir.Br); ok && br.Fail == succ {
					out = withoutValue(es, lastFallibleRepr)
				}
			}

			if prev, ok := incoming[succ]; ok && seen[succ] {
				incoming[succ] = intersectEs(prev, out)
			} else {
				incoming[succ] = out
				seen[succ] = true
			}
		}
	}
}

func followedBySucceeded(is []*ir.Set, i int) bool {
	return i+1 < len(is) && is[i+1].Op == ir.OpSucceeded
}

func withoutValue(es map[string]ir.Var, v ir.Var) map[string]ir.Var {
	r := make(map[string]ir.Var, len(es))

	for k, rv := range es {
		if rv == v {
			continue
		}

		r[k] = rv
	}

	return r
}

func intersectEs(a, b map[string]ir.Var) map[string]ir.Var {
	r := map[string]ir.Var{}

	for k, v := range a {
		if v2, ok := b[k]; ok && v2 == v {
			r[k] = v
		}
	}

	return r
}

func exprKey(s *ir.Set) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s/%s", s.Op, s.Sub)

	for _, a := range s.Args {
		fmt.Fprintf(&sb, "|%s", operandKey(a))
	}

	return sb.String()
}

func operandKey(op ir.Operand) string {
	switch op := op.(type) {
	case ir.Var:
		return "v:" + op.String()
	case ir.Lit:
		return fmt.Sprintf("l:%v", op.Value)
	case ir.Remote:
		return "r:" + operandKey(op.Mod) + ":" + operandKey(op.Fun)
	default:
		return fmt.Sprintf("%v", op)
	}
}

func applySub(s *ir.Set, sub map[ir.Var]ir.Operand) {
	if s.Op == ir.OpPhi {
		args := s.PhiArgs()

		for i := range args {
			args[i].Value = substOperand(args[i].Value, sub)
		}

		s.SetPhiArgs(args)

		return
	}

	for i, a := range s.Args {
		s.Args[i] = substOperand(a, sub)
	}
}

func applySubLast(b *ir.Block, sub map[ir.Var]ir.Operand) {
	switch l := b.Last.(type) {
	case ir.Br:
		l.Bool = substOperand(l.Bool, sub)
		b.Last = l
	case ir.Switch:
		l.Arg = substOperand(l.Arg, sub)
		b.Last = l
	case ir.Ret:
		if l.Arg != nil {
			l.Arg = substOperand(l.Arg, sub)
			b.Last = l
		}
	}
}

func substOperand(op ir.Operand, sub map[ir.Var]ir.Operand) ir.Operand {
	v, ok := op.(ir.Var)
	if !ok {
		return op
	}

	if r, ok := sub[v]; ok {
		return r
	}

	return op
}
