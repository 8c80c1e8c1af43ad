package ir

// Last is a block terminator: Br, Switch or Ret.
type Last interface {
	// Succs lists the terminator's successor labels, in a stable order.
	// A Br whose Bool is a literal true still lists Succ twice (as Succ
	// and Fail) so callers can detect the "unconditional" shape by
	// Succ == Fail.
	Succs() []Label
	Used() []Operand
}

type (
	// Br is a conditional branch: if Bool, go to Succ, else Fail. Bool
	// may be the literal true, in which case Succ == Fail by convention
	// and the branch is effectively unconditional.
	Br struct {
		Bool Operand
		Succ Label
		Fail Label
	}

	// Switch dispatches on Arg's value among Cases, or Default if none
	// match.
	Switch struct {
		Arg     Operand
		Cases   []SwitchCase
		Default Label
	}

	SwitchCase struct {
		Value Operand
		Block Label
	}

	// Ret returns Arg from the function.
	Ret struct {
		Arg Operand
	}
)

func (b Br) Succs() []Label { return []Label{b.Succ, b.Fail} }
func (b Br) Used() []Operand {
	if isLitTrue(b.Bool) {
		return nil
	}

	return []Operand{b.Bool}
}

func (s Switch) Succs() []Label {
	r := make([]Label, 0, len(s.Cases)+1)

	for _, c := range s.Cases {
		r = append(r, c.Block)
	}

	return append(r, s.Default)
}

func (s Switch) Used() []Operand {
	return []Operand{s.Arg}
}

func (r Ret) Succs() []Label { return nil }
func (r Ret) Used() []Operand {
	if r.Arg == nil {
		return nil
	}

	return []Operand{r.Arg}
}

func isLitTrue(op Operand) bool {
	l, ok := op.(Lit)
	if !ok {
		return false
	}

	b, ok := l.Value.(bool)

	return ok && b
}

// Block is a basic block: phi instructions (if any), followed by the rest
// of the code, followed by exactly one terminator.
type Block struct {
	Label Label
	Phis  []*Set
	Is    []*Set
	Last  Last
}

// All returns the block's instructions in execution order: phis first,
// then the rest. It does not include the terminator.
func (b *Block) All() []*Set {
	r := make([]*Set, 0, len(b.Phis)+len(b.Is))
	r = append(r, b.Phis...)

	return append(r, b.Is...)
}

// SetAll replaces the block's instruction list, splitting phis back out
// to the front.
func (b *Block) SetAll(is []*Set) {
	b.Phis = b.Phis[:0]
	b.Is = b.Is[:0]

	for _, s := range is {
		if s.Op == OpPhi {
			b.Phis = append(b.Phis, s)
		} else {
			b.Is = append(b.Is, s)
		}
	}
}
