package ast

type (
	Node interface {
	}

	Base struct {
		Pos int
		End int
	}

	spanner interface {
		Span() Base
	}

	LineBreak struct {
		Base
	}

	Ident struct {
		Base `tlog:",embed"`
	}

	Token struct {
		Base `tlog:",embed"`
	}

	Int struct {
		Base `tlog:",embed"`
	}

	Float struct {
		Base `tlog:",embed"`
	}

	Add struct {
		Base `tlog:",embed"`

		Left  Node
		Right Node
	}

	Type struct {
		Base `tlog:",embed"`
	}

	VarDecl struct {
		Base `tlog:",embed"`

		Name Ident
		Type Type
	}

	Assignment struct {
		Base `tlog:",embed"`

		Left  Ident
		Right Node
	}
)

// Span returns b itself, so every node embedding Base satisfies spanner
// without writing its own accessor.
func (b Base) Span() Base { return b }

var _ spanner = Ident{}
