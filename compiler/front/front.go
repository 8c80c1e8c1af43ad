// Package front is the driver's entry point into the language front end:
// lexing and parsing source text into an AST (package parse/ast) and
// lowering that AST into the optimizer's SSA (package ir). The optimizer
// pipeline itself treats this package as an external collaborator; it
// only needs a b_module-shaped *ir.Module to run on.
package front

import (
	"context"

	"tlog.app/go/errors"

	"github.com/chenyifan96/otp/compiler/analyze"
	"github.com/chenyifan96/otp/compiler/ast"
	"github.com/chenyifan96/otp/compiler/back"
	"github.com/chenyifan96/otp/compiler/ir"
	"github.com/chenyifan96/otp/compiler/optimize"
	"github.com/chenyifan96/otp/compiler/parse"
)

// State accumulates one compilation unit: source text, its parsed AST,
// and the SSA module lowered from it.
type State struct {
	p *parse.State

	x ast.Node
	m *ir.Module
}

// New creates an empty compilation unit.
func New() *State {
	p := parse.New()
	p.Grammar = parse.AnyOf{parse.VarDecl{}, parse.Assignment{}, parse.Expr{}}

	return &State{p: p}
}

// AddFile appends a source file's text to the unit.
func (s *State) AddFile(ctx context.Context, name string, text []byte) {
	s.p.AddFile(name, text)
}

// Parse runs the grammar over the accumulated source, producing an AST.
func (s *State) Parse(ctx context.Context) (err error) {
	s.x, err = s.p.Parse(ctx)
	if err != nil {
		return errors.Wrap(err, "parse")
	}

	return nil
}

// Analyze lowers the parsed AST into a single-function SSA module: a
// function named "main/0" whose entry block computes the expression's
// value and returns it.
func (s *State) Analyze(ctx context.Context) error {
	counter := &ir.Counter{}

	var is []*ir.Set

	ret, is, err := analyze.Analyze(ctx, s.p, counter, is, s.x)
	if err != nil {
		return errors.Wrap(err, "analyze")
	}

	entry := counter.NewLabel()

	f := &ir.Func{
		Name:    "main",
		Shape:   ir.ShapeMap,
		Entry:   entry,
		Counter: counter,
		Blocks: map[ir.Label]*ir.Block{
			entry: {
				Label: entry,
				Is:    is,
				Last:  ir.Ret{Arg: ret},
			},
		},
	}

	s.m = &ir.Module{Name: "main", Funcs: []*ir.Func{f}}

	return nil
}

// Compile optimizes the lowered module and hands it to the back end,
// returning the back end's emitted object bytes.
func (s *State) Compile(ctx context.Context) ([]byte, error) {
	opt, err := optimize.OptimizeModule(ctx, s.m)
	if err != nil {
		return nil, errors.Wrap(err, "optimize")
	}

	obj, err := back.New().CompilePackage(opt)
	if err != nil {
		return nil, errors.Wrap(err, "back end")
	}

	return obj, nil
}
