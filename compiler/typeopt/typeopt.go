// Package typeopt stands in for the type-based optimization that pass 6
// of the pipeline invokes as a black box: given a function's linearized
// CFG and argument list, it infers which arithmetic bifs operate purely
// on floats and annotates them with float_op metadata for the float pass
// to pick up.
package typeopt

import (
	"github.com/chenyifan96/otp/compiler/ir"
	"github.com/chenyifan96/otp/compiler/tp"
)

var arithmetic = map[ir.Op]bool{
	"+": true, "-": true, "*": true, "/": true,
}

// Optimize performs a single forward pass over list, propagating float
// types from float literals and already-float results through chains of
// arithmetic bifs, and marking the ones whose every argument resolves to
// tp.Float.
func Optimize(list []*ir.Block, args []ir.Var) {
	env := map[ir.Var]tp.Type{}

	for _, b := range list {
		for _, s := range b.All() {
			annotate(s, env)
		}
	}
}

func annotate(s *ir.Set, env map[ir.Var]tp.Type) {
	switch {
	case s.Op == ir.OpFloat && s.Sub == ir.FloatPut:
		env[s.Dst] = tp.Float{}
	case s.Op == ir.OpBif && arithmetic[s.Sub]:
		types := make([]tp.Type, len(s.Args))
		allFloat := len(s.Args) > 0

		for i, a := range s.Args {
			t := typeOf(a, env)
			types[i] = t

			if _, ok := t.(tp.Float); !ok {
				allFloat = false
			}
		}

		if allFloat {
			anyTypes := make([]any, len(types))
			for i, t := range types {
				anyTypes[i] = t
			}

			s.MarkFloatOp(anyTypes...)
			env[s.Dst] = tp.Float{}
		}
	}
}

func typeOf(op ir.Operand, env map[ir.Var]tp.Type) tp.Type {
	switch op := op.(type) {
	case ir.Lit:
		if _, ok := op.Value.(float64); ok {
			return tp.Float{}
		}

		return tp.Untyped{}
	case ir.Var:
		if t, ok := env[op]; ok {
			return t
		}

		return tp.Untyped{}
	default:
		return tp.Untyped{}
	}
}
