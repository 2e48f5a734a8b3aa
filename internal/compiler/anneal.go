package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/xacc/internal/anneal"
	"github.com/roach88/xacc/internal/ir"
)

// CompileAnneal parses a CUE anneal block into an annealing program.
//
//	anneal: maxcut: {
//	    type: "ising"
//	    variables: ["j"]
//	    terms: [[0, 1.0], [0, 1, "j"]]
//	}
//
// A two-element term is a bias, a three-element term a coupler. A block
// may instead (or additionally) carry rbm: {nv: N, nh: M}, which expands
// the program as a restricted Boltzmann machine before terms are added.
func CompileAnneal(v cue.Value) (*anneal.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	name := label(v)
	variables, err := parseStrings(v, "variables")
	if err != nil {
		return nil, err
	}

	kindTag := anneal.TagIsing
	if typeVal := v.LookupPath(cue.ParsePath("type")); typeVal.Exists() {
		s, err := typeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if s != anneal.TagIsing && s != anneal.TagQUBO {
			return nil, &CompileError{
				Field:   "type",
				Message: fmt.Sprintf("type must be %q or %q, got %q", anneal.TagIsing, anneal.TagQUBO, s),
				Pos:     typeVal.Pos(),
			}
		}
		kindTag = s
	}

	termsVal := v.LookupPath(cue.ParsePath("terms"))
	rbmVal := v.LookupPath(cue.ParsePath("rbm"))
	if !termsVal.Exists() && !rbmVal.Exists() {
		return nil, &CompileError{
			Field:   "terms",
			Message: "anneal block needs terms or rbm",
			Pos:     v.Pos(),
		}
	}

	p := anneal.NewProgram(name, variables...)
	if rbmVal.Exists() {
		p = anneal.NewRBM(name)
		p.AddVariables(variables...)
		opts, err := parseRBM(rbmVal)
		if err != nil {
			return nil, err
		}
		if err := p.Expand(opts); err != nil {
			return nil, &CompileError{Field: "rbm", Message: err.Error(), Pos: rbmVal.Pos()}
		}
	}
	p.SetTag(kindTag)

	if termsVal.Exists() {
		declared := make(map[string]bool)
		for _, name := range p.Variables() {
			declared[name] = true
		}
		if err := parseTerms(p, termsVal, declared); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func parseRBM(v cue.Value) (ir.Options, error) {
	opts := ir.Options{}
	for _, key := range []string{"nv", "nh"} {
		val := v.LookupPath(cue.ParsePath(key))
		if !val.Exists() {
			return nil, &CompileError{Field: "rbm." + key, Message: "required", Pos: v.Pos()}
		}
		n, err := val.Int64()
		if err != nil {
			return nil, &CompileError{Field: "rbm." + key, Message: "must be an integer", Pos: val.Pos()}
		}
		opts[key] = n
	}
	return opts, nil
}

func parseTerms(p *anneal.Program, list cue.Value, declared map[string]bool) error {
	iter, err := list.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		term := iter.Value()
		elems, err := term.List()
		if err != nil {
			return formatCUEError(err)
		}
		var vals []cue.Value
		for elems.Next() {
			vals = append(vals, elems.Value())
		}

		var q1, q2 int64
		var weightVal cue.Value
		switch len(vals) {
		case 2:
			q1, err = vals[0].Int64()
			q2 = q1
			weightVal = vals[1]
		case 3:
			q1, err = vals[0].Int64()
			if err == nil {
				q2, err = vals[1].Int64()
			}
			weightVal = vals[2]
		default:
			return &CompileError{
				Field:   "terms",
				Message: fmt.Sprintf("term must be [q, w] or [q1, q2, w], got %d elements", len(vals)),
				Pos:     term.Pos(),
			}
		}
		if err != nil || q1 < 0 || q2 < 0 {
			return &CompileError{Field: "terms", Message: "qubits must be non-negative integers", Pos: term.Pos()}
		}

		weight, err := parseParam(weightVal, declared)
		if err != nil {
			return err
		}
		if s, ok := weight.(ir.Str); ok {
			return &CompileError{
				Field:   "terms",
				Message: fmt.Sprintf("weight %q is not a declared variable", string(s)),
				Pos:     weightVal.Pos(),
			}
		}
		if err := p.AddInstruction(ir.NewDWQMIParam(int(q1), int(q2), weight)); err != nil {
			return &CompileError{Field: "terms", Message: err.Error(), Pos: term.Pos()}
		}
	}
	return nil
}
