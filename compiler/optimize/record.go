package optimize

import "github.com/chenyifan96/otp/compiler/ir"

// runRecord fuses the is_tuple + tuple_size + elem[0] idiom used to test
// for a tagged tuple record into a single is_tagged_tuple instruction.
// The now-dead probe blocks are left for live/merge_blocks to clean up.
func runRecord(f *ir.Func) {
	if f.Shape != ir.ShapeList {
		fatalf("record: expected linearized CFG")
	}

	byLabel := map[ir.Label]*ir.Block{}
	for _, b := range f.List {
		byLabel[b.Label] = b
	}

	for _, b := range f.List {
		fuseRecordTest(b, byLabel)
	}
}

func fuseRecordTest(b *ir.Block, byLabel map[ir.Label]*ir.Block) {
	if len(b.Is) == 0 {
		return
	}

	isTuple := b.Is[len(b.Is)-1]
	if isTuple.Op != ir.OpIsTuple || len(isTuple.Args) != 1 {
		return
	}

	br, ok := b.Last.(ir.Br)
	if !ok {
		return
	}

	if v, ok := br.Bool.(ir.Var); !ok || v != isTuple.Dst {
		return
	}

	t := isTuple.Args[0]
	fail := br.Fail

	sizeBlock := byLabel[br.Succ]
	n, tagLabel, ok := matchTupleSize(sizeBlock, t, fail)
	if !ok {
		return
	}

	tag, ok := matchTagCompare(byLabel[tagLabel], t, fail)
	if !ok {
		return
	}

	isTuple.Op = ir.OpIsTaggedTuple
	isTuple.Args = []ir.Operand{t, ir.Lit{Value: n}, tag}
}

// matchTupleSize recognizes tuple_size(T) =:= N -> Bool; br(Bool, S', F).
func matchTupleSize(b *ir.Block, t ir.Operand, fail ir.Label) (n int, next ir.Label, ok bool) {
	if b == nil || len(b.Is) != 2 {
		return 0, 0, false
	}

	size, cmp := b.Is[0], b.Is[1]

	if size.Op != ir.OpTupleSize || len(size.Args) != 1 || !operandEqual(size.Args[0], t) {
		return 0, 0, false
	}

	nLit, cmpOk := matchEqLiteral(cmp, size.Dst)
	if !cmpOk {
		return 0, 0, false
	}

	n, ok = nLit.Value.(int)
	if !ok {
		return 0, 0, false
	}

	br, ok := b.Last.(ir.Br)
	if !ok {
		return 0, 0, false
	}

	if v, ok := br.Bool.(ir.Var); !ok || v != cmp.Dst {
		return 0, 0, false
	}

	if br.Fail != fail {
		return 0, 0, false
	}

	return n, br.Succ, true
}

// matchTagCompare recognizes get_tuple_element(T, 0) -> Tag; Tag =:=
// TagAtom -> Bool; br(Bool, _, F).
func matchTagCompare(b *ir.Block, t ir.Operand, fail ir.Label) (tag ir.Operand, ok bool) {
	if b == nil || len(b.Is) != 2 {
		return nil, false
	}

	get, cmp := b.Is[0], b.Is[1]

	if get.Op != ir.OpGetTupleElement || len(get.Args) != 2 {
		return nil, false
	}

	if !operandEqual(get.Args[0], t) {
		return nil, false
	}

	idx, litOk := get.Args[1].(ir.Lit)
	if !litOk {
		return nil, false
	}

	if i, ok := idx.Value.(int); !ok || i != 0 {
		return nil, false
	}

	tagLit, cmpOk := matchEqLiteral(cmp, get.Dst)
	if !cmpOk {
		return nil, false
	}

	br, ok := b.Last.(ir.Br)
	if !ok {
		return nil, false
	}

	if v, ok := br.Bool.(ir.Var); !ok || v != cmp.Dst {
		return nil, false
	}

	if br.Fail != fail {
		return nil, false
	}

	return tagLit, true
}

// matchEqLiteral recognizes a {bif, '=:='} comparing src against a
// literal, in either argument order.
func matchEqLiteral(s *ir.Set, src ir.Var) (ir.Lit, bool) {
	if s.Op != ir.OpBif || s.Sub != "=:=" || len(s.Args) != 2 {
		return ir.Lit{}, false
	}

	a, b := s.Args[0], s.Args[1]

	if v, ok := a.(ir.Var); ok && v == src {
		if lit, ok := b.(ir.Lit); ok {
			return lit, true
		}
	}

	if v, ok := b.(ir.Var); ok && v == src {
		if lit, ok := a.(ir.Lit); ok {
			return lit, true
		}
	}

	return ir.Lit{}, false
}
