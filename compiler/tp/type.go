package tp

type (
	Type interface {
		Size() int
	}

	Name string

	Func struct {
		In  []Type
		Out []Type
	}

	Int struct {
		Bits   int16
		Signed bool
	}

	Untyped struct{}

	// Float is an unboxed double-precision value, the type the
	// typeopt/float passes cooperate to exploit.
	Float struct{}

	Ptr struct {
		X Type
	}

	Array struct {
		X   Type
		Len int
	}

	Struct struct {
		Fields []StructField
	}

	StructField struct {
		Name   string
		Offset int
		Type   Type
	}
)

func (x Int) Size() int {
	return int(x.Bits) / 8
}

func (x Untyped) Size() int { return 8 }

func (x Float) Size() int { return 8 }

func (x Ptr) Size() int {
	return 8
}

func (x Array) Size() int {
	return x.X.Size() * x.Len
}

func (x Struct) Size() (s int) {
	for _, f := range x.Fields {
		s += f.Type.Size()
	}

	return s
}
