package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/xacc/internal/anneal"
	"github.com/roach88/xacc/internal/ir"
)

// Unit is the compiled content of a CUE instance: every circuit under
// circuit: and every program under anneal:, in source order.
type Unit struct {
	Circuits []*ir.Composite
	Programs []*anneal.Program
}

// Circuit returns the circuit called name.
func (u *Unit) Circuit(name string) (*ir.Composite, bool) {
	for _, c := range u.Circuits {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Program returns the anneal program called name.
func (u *Unit) Program(name string) (*anneal.Program, bool) {
	for _, p := range u.Programs {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// CompileUnit compiles every circuit and anneal block in v and links the
// circuits. With failFast it stops at the first error; otherwise it
// collects all of them and returns whatever compiled. Linking only runs
// when every circuit compiled.
func CompileUnit(v cue.Value, failFast bool) (*Unit, []error) {
	u := &Unit{}
	var errs []error

	if err := v.Err(); err != nil {
		return u, []error{formatCUEError(err)}
	}

	circuitsVal := v.LookupPath(cue.ParsePath("circuit"))
	if circuitsVal.Exists() {
		iter, err := circuitsVal.Fields()
		if err != nil {
			return u, []error{formatCUEError(err)}
		}
		for iter.Next() {
			c, err := CompileCircuit(iter.Value())
			if err != nil {
				err = inBlock(err, "circuit", label(iter.Value()))
				if failFast {
					return u, []error{err}
				}
				errs = append(errs, err)
				continue
			}
			u.Circuits = append(u.Circuits, c)
		}
	}
	circuitErrs := len(errs)

	annealVal := v.LookupPath(cue.ParsePath("anneal"))
	if annealVal.Exists() {
		iter, err := annealVal.Fields()
		if err != nil {
			return u, append(errs, formatCUEError(err))
		}
		for iter.Next() {
			p, err := CompileAnneal(iter.Value())
			if err != nil {
				err = inBlock(err, "anneal", label(iter.Value()))
				if failFast {
					return u, []error{err}
				}
				errs = append(errs, err)
				continue
			}
			u.Programs = append(u.Programs, p)
		}
	}

	if circuitErrs == 0 {
		if err := Link(u.Circuits); err != nil {
			errs = append(errs, err)
		}
	}
	return u, errs
}
