// Package analyze lowers a parsed expression tree into the optimizer's
// SSA instruction set: a flat list of Sets computing the expression's
// value into a single operand.
package analyze

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"tlog.app/go/errors"

	"github.com/chenyifan96/otp/compiler/ast"
	"github.com/chenyifan96/otp/compiler/ir"
	"github.com/chenyifan96/otp/compiler/parse"
)

type (
	UnsupportedASTNodeError struct{ T ast.Node }
)

// Analyze walks x and appends the Sets needed to compute its value to is,
// returning the operand that holds the result and the extended list.
func Analyze(ctx context.Context, st *parse.State, c *ir.Counter, is []*ir.Set, x ast.Node) (_ ir.Operand, _ []*ir.Set, err error) {
	switch x := x.(type) {
	case ast.Int:
		v, err := strconv.ParseUint(string(st.Text(x.Pos, x.End)), 10, 64)
		if err != nil {
			return nil, is, errors.Wrap(err, "parse Int value")
		}

		return ir.Lit{Value: int(v)}, is, nil
	case ast.Add:
		var l, r ir.Operand

		l, is, err = Analyze(ctx, st, c, is, x.Left)
		if err != nil {
			return nil, is, errors.Wrap(err, "left operand")
		}

		r, is, err = Analyze(ctx, st, c, is, x.Right)
		if err != nil {
			return nil, is, errors.Wrap(err, "right operand")
		}

		dst := c.NewVar("add")

		is = append(is, &ir.Set{
			Dst:  dst,
			Op:   ir.OpBif,
			Sub:  "+",
			Args: []ir.Operand{l, r},
		})

		return dst, is, nil
	case ast.VarDecl:
		return ir.Lit{Value: zeroValue(string(st.Text(x.Type.Pos, x.Type.End)))}, is, nil
	case ast.Assignment:
		return Analyze(ctx, st, c, is, x.Right)
	default:
		return nil, is, NewUnsupportedASTNode(x)
	}
}

// zeroValue is the default value a VarDecl's declared type binds its
// name to, since the grammar never gives a declaration an initializer.
func zeroValue(typ string) any {
	switch typ {
	case "float":
		return 0.0
	default:
		return 0
	}
}

func NewUnsupportedASTNode(x ast.Node) UnsupportedASTNodeError {
	return UnsupportedASTNodeError{
		T: x,
	}
}

func (e UnsupportedASTNodeError) Error() string {
	return fmt.Sprintf("unsupported node: %v", reflect.TypeOf(e.T))
}
