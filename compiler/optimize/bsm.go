package optimize

import "github.com/chenyifan96/otp/compiler/ir"

// bsMatchSkip is the match type name bsm rewrites a bs_match into when
// its extracted value is never read: the backend advances the match
// position without materializing anything.
const bsMatchSkip ir.Op = "skip"

// bsMatchString is the one match type bsm never rewrites: a literal
// string match has no single extracted value to skip.
const bsMatchString ir.Op = "string"

// runBSM marks bs_match instructions whose result is only used to
// advance the match position, never to extract a value: downstream
// nothing ever reads those variables except bs_extract, so a bs_match
// whose dst never feeds a bs_extract can skip materializing it.
func runBSM(f *ir.Func) {
	if f.Shape != ir.ShapeList {
		fatalf("bsm: expected linearized CFG")
	}

	extracted := map[ir.Var]bool{}

	for _, b := range f.List {
		for _, s := range b.Is {
			if s.Op != ir.OpBsExtract || len(s.Args) == 0 {
				continue
			}

			if ctx, ok := s.Args[0].(ir.Var); ok {
				extracted[ctx] = true
			}
		}
	}

	for _, b := range f.List {
		for _, s := range b.Is {
			if s.Op != ir.OpBsMatch || s.Sub == bsMatchString {
				continue
			}

			if extracted[s.Dst] {
				continue
			}

			typ := s.Sub
			rest := append([]ir.Operand{}, s.Args[1:]...)

			s.Sub = bsMatchSkip
			s.Args = append([]ir.Operand{s.Args[0], ir.Lit{Value: typ}}, rest...)
		}
	}
}
