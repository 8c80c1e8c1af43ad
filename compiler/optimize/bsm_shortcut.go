package optimize

import "github.com/chenyifan96/otp/compiler/ir"

// runBSMShortcut skips a redundant bs_test_tail failure layer: once a
// bs_match's cumulative bit offset already exceeds what a downstream
// tail-size check demands, that check is certain to fail, so the branch
// that would have led to it is rewired straight to its own failure
// target.
func runBSMShortcut(f *ir.Func) {
	if f.Shape != ir.ShapeList {
		fatalf("bsm_shortcut: expected linearized CFG")
	}

	offsets := computeBitOffsets(f.List)

	byLabel := map[ir.Label]*ir.Block{}
	for _, b := range f.List {
		byLabel[b.Label] = b
	}

	for _, b := range f.List {
		shortcutBlock(b, byLabel, offsets)
	}
}

func shortcutBlock(b *ir.Block, byLabel map[ir.Label]*ir.Block, offsets map[ir.Var]int) {
	n := len(b.Is)
	if n < 2 {
		return
	}

	m, sc := b.Is[n-2], b.Is[n-1]

	if m.Op != ir.OpBsMatch || len(m.Args) == 0 {
		return
	}

	if sc.Op != ir.OpSucceeded || len(sc.Args) == 0 {
		return
	}

	if v, ok := sc.Args[0].(ir.Var); !ok || v != m.Dst {
		return
	}

	br, ok := b.Last.(ir.Br)
	if !ok {
		return
	}

	if v, ok := br.Bool.(ir.Var); !ok || v != sc.Dst {
		return
	}

	old, ok := m.Args[0].(ir.Var)
	if !ok {
		return
	}

	tail, ctx, k, ultimateFail, ok := matchBsTestTail(byLabel[br.Fail])
	if !ok {
		return
	}

	_ = tail

	if offsets[old] > k+offsets[ctx] {
		br.Fail = ultimateFail
		b.Last = br
	}
}

// matchBsTestTail recognizes a block of shape [bs_test_tail(ctx, K) ->
// Bool]; br(Bool, ok, ultimateFail).
func matchBsTestTail(b *ir.Block) (s *ir.Set, ctx ir.Var, k int, ultimateFail ir.Label, ok bool) {
	if b == nil || len(b.Is) != 1 {
		return nil, ir.Var{}, 0, 0, false
	}

	s = b.Is[0]
	if s.Op != ir.OpBsTestTail || len(s.Args) != 2 {
		return nil, ir.Var{}, 0, 0, false
	}

	ctx, ok = s.Args[0].(ir.Var)
	if !ok {
		return nil, ir.Var{}, 0, 0, false
	}

	lit, ok := s.Args[1].(ir.Lit)
	if !ok {
		return nil, ir.Var{}, 0, 0, false
	}

	k, ok = lit.Value.(int)
	if !ok {
		return nil, ir.Var{}, 0, 0, false
	}

	br, ok := b.Last.(ir.Br)
	if !ok {
		return nil, ir.Var{}, 0, 0, false
	}

	if v, ok := br.Bool.(ir.Var); !ok || v != s.Dst {
		return nil, ir.Var{}, 0, 0, false
	}

	return s, ctx, k, br.Fail, true
}

// computeBitOffsets walks every block once, assigning each bs_match (and
// bs_start_match) destination its cumulative bit offset from the start
// of the match.
func computeBitOffsets(list []*ir.Block) map[ir.Var]int {
	offsets := map[ir.Var]int{}

	for _, b := range list {
		for _, s := range b.Is {
			switch s.Op {
			case ir.OpBsStartMatch:
				offsets[s.Dst] = 0
			case ir.OpBsMatch:
				old, ok := s.Args[0].(ir.Var)
				if !ok {
					continue
				}

				offsets[s.Dst] = offsets[old] + matchBitWidth(s)
			}
		}
	}

	return offsets
}

func matchBitWidth(s *ir.Set) int {
	typ := s.Sub
	params := s.Args[1:]

	if s.Sub == bsMatchSkip && len(s.Args) >= 2 {
		if lit, ok := s.Args[1].(ir.Lit); ok {
			if t, ok := lit.Value.(ir.Op); ok {
				typ = t
				params = s.Args[2:]
			}
		}
	}

	switch typ {
	case "utf8":
		return 8
	case "utf16":
		return 16
	case "utf32":
		return 32
	case bsMatchString:
		if len(params) == 0 {
			return 0
		}

		if lit, ok := params[0].(ir.Lit); ok {
			if str, ok := lit.Value.(string); ok {
				return 8 * len(str)
			}
		}

		return 0
	default:
		if len(params) < 2 {
			return 0
		}

		szLit, ok := params[0].(ir.Lit)
		if !ok {
			return 0
		}

		uLit, ok := params[1].(ir.Lit)
		if !ok {
			return 0
		}

		sz, _ := szLit.Value.(int)
		u, _ := uLit.Value.(int)

		return sz * u
	}
}
