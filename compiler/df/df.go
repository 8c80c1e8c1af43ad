// Package df provides the small-int dataflow-set plumbing the live pass
// needs: a dense numbering from ir.Var to int, and liveness
// sets built on top of set.Bits so that the hot-path union/intersect/
// subtract operations stay sorted-vector arithmetic rather than a hashed
// set.
package df

import (
	"github.com/chenyifan96/otp/compiler/ir"
	"github.com/chenyifan96/otp/compiler/set"
)

// Vars assigns a dense, stable int to every distinct ir.Var it sees, so
// that liveness can be computed over set.Bits[int] instead of a map
// keyed by the Var struct.
type Vars struct {
	ids  map[ir.Var]int
	vars []ir.Var
}

func NewVars() *Vars {
	return &Vars{ids: map[ir.Var]int{}}
}

// ID returns v's dense id, minting one on first sight.
func (t *Vars) ID(v ir.Var) int {
	if id, ok := t.ids[v]; ok {
		return id
	}

	id := len(t.vars)
	t.ids[v] = id
	t.vars = append(t.vars, v)

	return id
}

// Var recovers the variable for a dense id produced by ID.
func (t *Vars) Var(id int) ir.Var { return t.vars[id] }

// Set is a liveness-style set of variables.
type Set struct {
	t *Vars
	b set.Bits[int]
}

func (t *Vars) NewSet() Set {
	return Set{t: t, b: set.MakeBits(0)}
}

func (s Set) Has(v ir.Var) bool { return s.b.IsSet(s.t.ID(v)) }

func (s *Set) Add(v ir.Var) { s.b.Set(s.t.ID(v)) }

func (s *Set) Remove(v ir.Var) { s.b.Clear(s.t.ID(v)) }

func (s Set) Copy() Set { return Set{t: s.t, b: s.b.Copy()} }

func (s *Set) Union(x Set) { s.b.Merge(x.b) }

func (s Set) Vars() []ir.Var {
	ids := s.b.Sorted()
	r := make([]ir.Var, len(ids))

	for i, id := range ids {
		r[i] = s.t.Var(id)
	}

	return r
}

func (s Set) Len() int { return s.b.Size() }

func (s Set) Equal(x Set) bool { return s.b.Equal(x.b) }
