package optimize

import (
	"reflect"

	"github.com/chenyifan96/otp/compiler/cfgutil"
	"github.com/chenyifan96/otp/compiler/ir"
)

// elemShape describes a block matching exactly
// [element(N, T); succeeded(Bool)]; br(Bool, succ, fail).
type elemShape struct {
	label      ir.Label
	n          int
	t          ir.Operand
	succ, fail ir.Label
	elemSet    *ir.Set
}

// runElement reorders chains of tuple-index reads so the highest index
// is probed first: once that access has succeeded, a later pass can fold
// the remaining in-range accesses into raw get_tuple_element reads.
func runElement(f *ir.Func) {
	if f.Shape != ir.ShapeMap {
		fatalf("element: expected map-shaped CFG")
	}

	order := cfgutil.RPO(f.Blocks, f.Entry)

	shapes := map[ir.Label]elemShape{}

	for _, l := range order {
		if sh, ok := matchElemBlock(f.Blocks[l]); ok {
			shapes[l] = sh
		}
	}

	visited := map[ir.Label]bool{}

	for _, l := range order {
		if visited[l] {
			continue
		}

		sh, ok := shapes[l]
		if !ok {
			continue
		}

		chain := []elemShape{sh}
		visited[l] = true

		cur := sh

		for {
			next, ok := shapes[cur.succ]
			if !ok || visited[cur.succ] {
				break
			}

			if !operandEqual(next.t, sh.t) || next.fail != sh.fail {
				break
			}

			chain = append(chain, next)
			visited[cur.succ] = true
			cur = next
		}

		if len(chain) < 2 {
			continue
		}

		maxI := 0
		for i, c := range chain {
			if c.n > chain[maxI].n {
				maxI = i
			}
		}

		if maxI != 0 && chain[0].n < chain[maxI].n {
			swapElemArgs(chain[0].elemSet, chain[maxI].elemSet)
		}
	}
}

func swapElemArgs(a, b *ir.Set) {
	a.Args[0], b.Args[0] = b.Args[0], a.Args[0]
}

func matchElemBlock(b *ir.Block) (elemShape, bool) {
	if len(b.Is) != 2 {
		return elemShape{}, false
	}

	elem, succ := b.Is[0], b.Is[1]

	if elem.Op != ir.OpBif || elem.Sub != "element" || len(elem.Args) != 2 {
		return elemShape{}, false
	}

	if succ.Op != ir.OpSucceeded || len(succ.Args) != 1 {
		return elemShape{}, false
	}

	if v, ok := succ.Args[0].(ir.Var); !ok || v != elem.Dst {
		return elemShape{}, false
	}

	lit, ok := elem.Args[0].(ir.Lit)
	if !ok {
		return elemShape{}, false
	}

	n, ok := lit.Value.(int)
	if !ok {
		return elemShape{}, false
	}

	br, ok := b.Last.(ir.Br)
	if !ok {
		return elemShape{}, false
	}

	if v, ok := br.Bool.(ir.Var); !ok || v != succ.Dst {
		return elemShape{}, false
	}

	return elemShape{
		label:   b.Label,
		n:       n,
		t:       elem.Args[1],
		succ:    br.Succ,
		fail:    br.Fail,
		elemSet: elem,
	}, true
}

func operandEqual(a, b ir.Operand) bool {
	switch a := a.(type) {
	case ir.Var:
		bv, ok := b.(ir.Var)
		return ok && a == bv
	case ir.Lit:
		bl, ok := b.(ir.Lit)
		return ok && reflect.DeepEqual(a.Value, bl.Value)
	default:
		return false
	}
}
