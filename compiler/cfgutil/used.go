package cfgutil

import (
	"sort"

	"github.com/chenyifan96/otp/compiler/ir"
)

// Used returns the sorted, deduplicated set of free variables read by x,
// which must be *ir.Set or an ir.Last. A phi's free variables are the
// value components of its (value, predecessor) pairs.
func Used(x any) []ir.Var {
	var vars []ir.Var

	switch x := x.(type) {
	case *ir.Set:
		if x.Op == ir.OpPhi {
			for _, a := range x.PhiArgs() {
				addOperand(&vars, a.Value)
			}

			break
		}

		for _, a := range x.Args {
			addOperand(&vars, a)
		}
	case ir.Last:
		for _, a := range x.Used() {
			addOperand(&vars, a)
		}
	default:
		panic(x)
	}

	sort.Slice(vars, func(i, j int) bool { return varLess(vars[i], vars[j]) })

	return vars
}

func addOperand(vars *[]ir.Var, op ir.Operand) {
	switch op := op.(type) {
	case ir.Var:
		for _, v := range *vars {
			if v == op {
				return
			}
		}

		*vars = append(*vars, op)
	case ir.Remote:
		addOperand(vars, op.Mod)
		addOperand(vars, op.Fun)
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
