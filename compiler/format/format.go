// Package format renders a parsed AST (package ast) back to source text,
// the way gofmt renders a go/ast tree: a thin pretty-printer over the
// parser's own node shapes, not a separate grammar.
package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/chenyifan96/otp/compiler/ast"
	"github.com/chenyifan96/otp/compiler/parse"
)

// Format appends x's textual rendering to b. st resolves Ident/Int/Float
// nodes back to their source text, since those nodes only carry a
// Pos/End span, not their own copy of the bytes.
func Format(ctx context.Context, b []byte, st *parse.State, x ast.Node) ([]byte, error) {
	switch x := x.(type) {
	case ast.Ident, ast.Int, ast.Float, ast.Token:
		b = hfmt.Appendf(b, "%s", spanText(st, x))

		return b, nil
	case ast.Add:
		var err error

		b, err = Format(ctx, b, st, x.Left)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}

		b = append(b, " + "...)

		b, err = Format(ctx, b, st, x.Right)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}

		return b, nil
	case ast.VarDecl:
		b = hfmt.Appendf(b, "var %s %s", spanText(st, x.Name), spanText(st, x.Type))

		return b, nil
	case ast.Assignment:
		var err error

		b = hfmt.Appendf(b, "%s = ", spanText(st, x.Left))

		b, err = Format(ctx, b, st, x.Right)
		if err != nil {
			return nil, errors.Wrap(err, "rhs")
		}

		return b, nil
	case ast.LineBreak:
		return append(b, '\n'), nil
	default:
		return nil, errors.New("unsupported node: %T", x)
	}
}

func spanText(st *parse.State, x ast.Node) []byte {
	sp, ok := x.(interface{ Span() ast.Base })
	if !ok {
		return nil
	}

	base := sp.Span()

	return st.Text(base.Pos, base.End)
}
