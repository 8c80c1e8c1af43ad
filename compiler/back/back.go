// Package back is the back end: it lowers an optimized SSA module into a
// textual assembly listing. It is, per the optimizer's own design, an
// external collaborator — the optimizer owes it nothing but a
// well-formed *ir.Module; this package owes the optimizer nothing but
// consuming that module's shapes honestly.
package back

import (
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/chenyifan96/otp/compiler/asm"
	"github.com/chenyifan96/otp/compiler/cfgutil"
	"github.com/chenyifan96/otp/compiler/ir"
)

type Compiler struct{}

func New() *Compiler { return &Compiler{} }

// CompilePackage lowers every function of m into an asm.Func and renders
// the result as a single textual listing.
func (c *Compiler) CompilePackage(m *ir.Module) (_ []byte, err error) {
	var b []byte

	b = fmt.Appendf(b, "// module %s\n", m.Name)

	for _, f := range m.Funcs {
		af, err := c.compileFunc(f)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", f.Name)
		}

		b = append(b, '\n')
		b = render(b, af)
	}

	return b, nil
}

// regAlloc hands out a fresh register per distinct variable on first
// sight. It never reuses a register; real allocation is register
// allocation proper, a declared optimizer non-goal, so the back end asks
// for nothing cleverer than "give every value somewhere to live".
type regAlloc struct {
	next int
	regs map[ir.Var]asm.Reg
}

func (a *regAlloc) reg(v ir.Var) asm.Reg {
	if a.regs == nil {
		a.regs = map[ir.Var]asm.Reg{}
	}

	if r, ok := a.regs[v]; ok {
		return r
	}

	r := asm.Reg(a.next)
	a.next++
	a.regs[v] = r

	return r
}

func (c *Compiler) compileFunc(f *ir.Func) (af asm.Func, err error) {
	if f.Shape != ir.ShapeMap {
		return af, errors.New("back end expects a blockified function")
	}

	af.Name = f.Name

	a := &regAlloc{}

	order := cfgutil.RPO(f.Blocks, f.Entry)

	labelOf := func(l ir.Label) asm.Label { return asm.Label(l) }

	for _, l := range order {
		b := f.Blocks[l]
		if b == nil {
			continue
		}

		af.Body = append(af.Body, asm.Target{Label: labelOf(l)})

		for _, phi := range b.Phis {
			ins := make([]asm.Reg, 0, len(phi.Args)/2)

			for _, arg := range phi.PhiArgs() {
				ins = append(ins, c.load(&af, a, arg.Value))
			}

			af.Body = append(af.Body, asm.Phi{Out: [1]asm.Reg{a.reg(phi.Dst)}, In: ins})
		}

		for _, s := range b.Is {
			c.lowerSet(&af, a, s)
		}

		switch last := b.Last.(type) {
		case ir.Br:
			if lit, ok := last.Bool.(ir.Lit); ok {
				if v, _ := lit.Value.(bool); v {
					af.Body = append(af.Body, asm.B{Label: labelOf(last.Succ)})

					continue
				}
			}

			cond := c.load(&af, a, last.Bool)
			af.Body = append(af.Body, asm.BCond{Cond: "NE", Label: labelOf(last.Succ), In: [1]asm.Reg{cond}})
			af.Body = append(af.Body, asm.B{Label: labelOf(last.Fail)})
		case ir.Switch:
			arg := c.load(&af, a, last.Arg)

			for _, cs := range last.Cases {
				val := c.load(&af, a, cs.Value)
				af.Body = append(af.Body, asm.Cmp{Out: [1]asm.Reg{arg}, In: [2]asm.Reg{arg, val}})
				af.Body = append(af.Body, asm.BCond{Cond: "EQ", Label: labelOf(cs.Block), In: [1]asm.Reg{arg}})
			}

			af.Body = append(af.Body, asm.B{Label: labelOf(last.Default)})
		case ir.Ret:
			if last.Arg == nil {
				break
			}

			r := c.load(&af, a, last.Arg)
			af.Body = append(af.Body, asm.Ret{In: [1]asm.Reg{r}})
		default:
			return af, errors.New("block %v: unhandled terminator %T", l, last)
		}
	}

	return af, nil
}

// lowerSet emits the instruction(s) computing s.Dst. A handful of bifs
// get a dedicated opcode; everything else falls back to a named runtime
// call, since exhaustively lowering a dynamic language's full op set is
// back-end work the optimizer's design explicitly leaves out of scope.
func (c *Compiler) lowerSet(af *asm.Func, a *regAlloc, s *ir.Set) {
	out := a.reg(s.Dst)

	if s.Op == ir.OpBif && len(s.Args) == 2 {
		l, r := c.load(af, a, s.Args[0]), c.load(af, a, s.Args[1])

		switch s.Sub {
		case "+":
			af.Body = append(af.Body, asm.Add{Out: [1]asm.Reg{out}, In: [2]asm.Reg{l, r}})

			return
		case "=:=", "==":
			af.Body = append(af.Body, asm.Cmp{Out: [1]asm.Reg{out}, In: [2]asm.Reg{l, r}})

			return
		}
	}

	ins := make([]asm.Reg, 0, len(s.Args))

	for _, arg := range s.Args {
		ins = append(ins, c.load(af, a, arg))
	}

	name := string(s.Op)
	if s.Sub != "" {
		name += "/" + string(s.Sub)
	}

	af.Body = append(af.Body, asm.Call{Out: [1]asm.Reg{out}, Name: name, In: ins})
}

// load returns a register holding op's value, materializing a literal
// with Imm if necessary.
func (c *Compiler) load(af *asm.Func, a *regAlloc, op ir.Operand) asm.Reg {
	switch op := op.(type) {
	case ir.Var:
		return a.reg(op)
	case ir.Lit:
		r := asm.Reg(a.next)
		a.next++

		word, _ := op.Value.(int)
		af.Body = append(af.Body, asm.Imm{Out: [1]asm.Reg{r}, Word: uint64(word)})

		return r
	default:
		r := asm.Reg(a.next)
		a.next++

		af.Body = append(af.Body, asm.Call{Out: [1]asm.Reg{r}, Name: "remote"})

		return r
	}
}

// render appends af's textual listing to b.
func render(b []byte, af asm.Func) []byte {
	b = fmt.Appendf(b, ".global _%s\n_%[1]s:\n", af.Name)

	for _, in := range af.Body {
		b = renderInstr(b, in)
	}

	return b
}

func renderInstr(b []byte, in asm.Instr) []byte {
	switch in := in.(type) {
	case asm.Target:
		return fmt.Appendf(b, "block_%d:\n", in.Label)
	case asm.Imm:
		return fmt.Appendf(b, "\tMOV\tX%d, #%d\n", in.Out[0], in.Word)
	case asm.Add:
		return fmt.Appendf(b, "\tADD\tX%d, X%d, X%d\n", in.Out[0], in.In[0], in.In[1])
	case asm.Cmp:
		return fmt.Appendf(b, "\tCMP\tX%d, X%d\n", in.In[0], in.In[1])
	case asm.Mov:
		return fmt.Appendf(b, "\tMOV\tX%d, X%d\n", in.Out[0], in.In[0])
	case asm.B:
		return fmt.Appendf(b, "\tB\tblock_%d\n", in.Label)
	case asm.BCond:
		return fmt.Appendf(b, "\tB.%s\tblock_%d\n", in.Cond, in.Label)
	case asm.Phi:
		return fmt.Appendf(b, "\t// phi X%d <- %v\n", in.Out[0], in.In)
	case asm.Call:
		return fmt.Appendf(b, "\tBL\t_%s\t// -> X%d%v\n", in.Name, in.Out[0], in.In)
	case asm.Ret:
		return fmt.Appendf(b, "\tMOV\tX0, X%d\n\tRET\n", in.In[0])
	default:
		tlog.Printw("unrendered instruction", "type", tlog.FormatNext("%T"), in)

		return b
	}
}
