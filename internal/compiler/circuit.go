package compiler

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"

	"github.com/roach88/xacc/internal/ir"
)

// Composite tags set by the compiler.
const (
	TagCircuit = "circuit"
	// TagCall marks an unresolved reference to another circuit. Link
	// replaces every call with a copy of its target.
	TagCall = "call"
)

var provider = ir.NewProvider()

// CompileCircuit parses a CUE circuit block into a composite.
//
// The value should be the circuit struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`circuit: bell: { instructions: [...] }`)
//	c, err := CompileCircuit(v.LookupPath(cue.ParsePath("circuit.bell")))
//
// Each instruction is one of
//
//	{gate: "Ry", bits: [0], params: ["theta"]}
//	{composite: "prep", instructions: [...]}
//	{call: "other_circuit"}
//
// and may carry enabled: false. String parameters naming a declared
// variable become variables; other strings stay literal.
func CompileCircuit(v cue.Value) (*ir.Composite, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	variables, err := parseStrings(v, "variables")
	if err != nil {
		return nil, err
	}
	c := provider.CreateComposite(label(v), variables, TagCircuit)

	instrVal := v.LookupPath(cue.ParsePath("instructions"))
	if !instrVal.Exists() {
		return nil, &CompileError{
			Field:   "instructions",
			Message: "instructions are required",
			Pos:     v.Pos(),
		}
	}
	declared := make(map[string]bool, len(variables))
	for _, name := range variables {
		declared[name] = true
	}
	if err := parseInstructions(c, instrVal, declared); err != nil {
		return nil, err
	}
	return c, nil
}

// label returns the last path selector of v.
func label(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	name := sels[len(sels)-1].String()
	if unquoted, err := strconv.Unquote(name); err == nil {
		return unquoted
	}
	return name
}

func parseStrings(v cue.Value, field string) ([]string, error) {
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return nil, nil
	}
	iter, err := val.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

func parseInstructions(c *ir.Composite, list cue.Value, declared map[string]bool) error {
	iter, err := list.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		inst, err := parseInstruction(iter.Value(), declared)
		if err != nil {
			return err
		}
		if err := c.AddInstruction(inst); err != nil {
			return &CompileError{Field: "instructions", Message: err.Error(), Pos: iter.Value().Pos()}
		}
	}
	return nil
}

func parseInstruction(v cue.Value, declared map[string]bool) (ir.Instruction, error) {
	var inst ir.Instruction
	gateVal := v.LookupPath(cue.ParsePath("gate"))
	compVal := v.LookupPath(cue.ParsePath("composite"))
	callVal := v.LookupPath(cue.ParsePath("call"))

	switch {
	case gateVal.Exists():
		name, err := gateVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		bits, err := parseBits(v)
		if err != nil {
			return nil, err
		}
		params, err := parseParams(v, declared)
		if err != nil {
			return nil, err
		}
		inst, err = provider.CreateInstruction(name, bits, params...)
		if err != nil {
			return nil, &CompileError{Field: "gate", Message: err.Error(), Pos: v.Pos()}
		}

	case compVal.Exists():
		name, err := compVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		nested := ir.NewComposite(name)
		instrVal := v.LookupPath(cue.ParsePath("instructions"))
		if !instrVal.Exists() {
			return nil, &CompileError{
				Field:   "composite",
				Message: fmt.Sprintf("composite %q needs instructions", name),
				Pos:     v.Pos(),
			}
		}
		if err := parseInstructions(nested, instrVal, declared); err != nil {
			return nil, err
		}
		inst = nested

	case callVal.Exists():
		target, err := callVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		call := ir.NewComposite(target)
		call.SetTag(TagCall)
		inst = call

	default:
		return nil, &CompileError{
			Field:   "instructions",
			Message: "instruction needs one of gate, composite or call",
			Pos:     v.Pos(),
		}
	}

	enabledVal := v.LookupPath(cue.ParsePath("enabled"))
	if enabledVal.Exists() {
		enabled, err := enabledVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if !enabled {
			inst.Disable()
		}
	}
	return inst, nil
}

func parseBits(v cue.Value) ([]int, error) {
	bitsVal := v.LookupPath(cue.ParsePath("bits"))
	if !bitsVal.Exists() {
		return nil, &CompileError{Field: "bits", Message: "bits are required", Pos: v.Pos()}
	}
	iter, err := bitsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var bits []int
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil || n < 0 {
			return nil, &CompileError{Field: "bits", Message: "qubits must be non-negative integers", Pos: iter.Value().Pos()}
		}
		bits = append(bits, int(n))
	}
	return bits, nil
}

func parseParams(v cue.Value, declared map[string]bool) ([]ir.Parameter, error) {
	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if !paramsVal.Exists() {
		return nil, nil
	}
	iter, err := paramsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var params []ir.Parameter
	for iter.Next() {
		p, err := parseParam(iter.Value(), declared)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

// parseParam converts a CUE scalar to a parameter. Numbers become
// Double so that 1 and 1.0 compare equal.
func parseParam(v cue.Value, declared map[string]bool) (ir.Parameter, error) {
	switch v.Kind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Double(float64(n)), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Double(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if declared[s] {
			return ir.Var(s), nil
		}
		return ir.Str(s), nil
	default:
		return nil, &CompileError{
			Field:   "params",
			Message: fmt.Sprintf("unsupported parameter kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}
