// Package optimize implements the SSA optimizer pipeline: the twelve
// function-scoped passes described by the package's design notes, run in
// a fixed order over each function's CFG independently.
package optimize

import (
	"context"
	"fmt"
	"sync"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/chenyifan96/otp/compiler/ir"
)

// pass is one step of the pipeline: a name used to resolve options, and
// the transform itself. run mutates f in place and returns nothing.
type pass struct {
	name string
	run  func(f *ir.Func)
}

// pipeline lists every pass in the fixed order the design requires. A
// later pass may rely on CFG shapes only an earlier pass produces, so
// this order is load-bearing.
var pipeline = []pass{
	{"split_blocks", runSplitBlocks},
	{"element", runElement},
	{"linearize", runLinearize},
	{"record", runRecord},
	{"cse", runCSE},
	{"type", runTypeOpt},
	{"float", runFloat},
	{"live", runLive},
	{"bsm", runBSM},
	{"bsm_shortcut", runBSMShortcut},
	{"misc", runMisc},
	{"blockify", runBlockify},
	{"sink", runSink},
	{"merge_blocks", runMergeBlocks},
}

// OptimizeModule maps every function of m through the pipeline. Functions
// are mutually independent, so they're optimized concurrently; the
// module's option set is immutable and read once per pass per function.
func OptimizeModule(ctx context.Context, m *ir.Module) (*ir.Module, error) {
	out := &ir.Module{Name: m.Name, Opts: m.Opts, Funcs: make([]*ir.Func, len(m.Funcs))}

	var wg sync.WaitGroup

	errs := make([]error, len(m.Funcs))

	for i, f := range m.Funcs {
		wg.Add(1)

		go func(i int, f *ir.Func) {
			defer wg.Done()

			of, err := optimizeFunc(ctx, f, m.Opts)
			out.Funcs[i] = of
			errs[i] = err
		}(i, f)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrap(err, "func %v/%v", m.Funcs[i].Name, m.Funcs[i].Arity)
		}
	}

	return out, nil
}

// optimizeFunc runs the pipeline over one function. An internal
// invariant violation surfaces as a panic inside a pass; it's recovered
// here, tagged with the function identity, and turned into an error so
// the rest of the module can still be reported on.
func optimizeFunc(ctx context.Context, f *ir.Func, opts map[string]bool) (_ *ir.Func, err error) {
	defer func() {
		if r := recover(); r != nil {
			tlog.SpanFromContext(ctx).Printw("optimizer panic", "func", f.Name, "arity", f.Arity, "panic", r)

			err = errors.New("optimize %v/%v: %v", f.Name, f.Arity, r)
		}
	}()

	for _, p := range pipeline {
		if !enabled(opts, p.name) {
			continue
		}

		p.run(f)
	}

	return f, nil
}

// enabled resolves a pass's option per §6: no_P present disables it
// outright; otherwise P absent or true runs it, P == false disables it.
func enabled(opts map[string]bool, name string) bool {
	if opts == nil {
		return true
	}

	if no, ok := opts["no_"+name]; ok && no {
		return false
	}

	if v, ok := opts[name]; ok {
		return v
	}

	return true
}

// fatalf raises an internal invariant violation. The driver's recover in
// optimizeFunc turns this into a diagnostic naming the function.
func fatalf(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}
