package ir

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// GateSpec describes a gate the provider can build.
type GateSpec struct {
	Name   string
	Bits   int
	Params int
}

// MeasureName is the gate that terminates a state-preparation prefix.
const MeasureName = "Measure"

var standardGates = []GateSpec{
	{Name: "I", Bits: 1},
	{Name: "H", Bits: 1},
	{Name: "X", Bits: 1},
	{Name: "Y", Bits: 1},
	{Name: "Z", Bits: 1},
	{Name: "S", Bits: 1},
	{Name: "Sdg", Bits: 1},
	{Name: "T", Bits: 1},
	{Name: "Tdg", Bits: 1},
	{Name: "Rx", Bits: 1, Params: 1},
	{Name: "Ry", Bits: 1, Params: 1},
	{Name: "Rz", Bits: 1, Params: 1},
	{Name: "U", Bits: 1, Params: 3},
	{Name: "CNOT", Bits: 2},
	{Name: "CZ", Bits: 2},
	{Name: "CY", Bits: 2},
	{Name: "CH", Bits: 2},
	{Name: "CRZ", Bits: 2, Params: 1},
	{Name: "CPhase", Bits: 2, Params: 1},
	{Name: "Swap", Bits: 2},
	{Name: MeasureName, Bits: 1},
}

// Provider builds instructions by name. It is safe for concurrent use.
type Provider struct {
	mu    sync.RWMutex
	gates map[string]GateSpec
}

// NewProvider returns a provider preloaded with the standard gate set.
func NewProvider() *Provider {
	p := &Provider{gates: make(map[string]GateSpec, len(standardGates))}
	for _, g := range standardGates {
		p.gates[g.Name] = g
	}
	return p
}

// Register adds or replaces a gate definition.
func (p *Provider) Register(spec GateSpec) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gates[spec.Name] = spec
}

// Names returns the registered gate names, sorted, plus DWQMIName.
func (p *Provider) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := slices.Sorted(maps.Keys(p.gates))
	return append(names, DWQMIName)
}

// Lookup returns the definition for name.
func (p *Provider) Lookup(name string) (GateSpec, bool) {
	if name == DWQMIName {
		return GateSpec{Name: DWQMIName, Bits: 2, Params: 1}, true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	spec, ok := p.gates[name]
	return spec, ok
}

// NRequiredBits returns the qubit count for name.
func (p *Provider) NRequiredBits(name string) (int, error) {
	spec, ok := p.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownInstruction, name)
	}
	return spec.Bits, nil
}

// CreateInstruction builds a checked instruction. Missing parameters default
// to Double(0). A dwqmi given a single qubit becomes a bias on that qubit.
func (p *Provider) CreateInstruction(name string, bits []int, params ...Parameter) (Instruction, error) {
	spec, ok := p.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstruction, name)
	}
	if len(params) > spec.Params {
		return nil, fmt.Errorf("%s: %w: accepts %d, got %d", name, ErrParameterCount, spec.Params, len(params))
	}

	if name == DWQMIName {
		var weight Parameter = Double(0)
		if len(params) == 1 {
			weight = params[0]
		}
		switch len(bits) {
		case 1:
			return NewDWQMIParam(bits[0], bits[0], weight), nil
		case 2:
			return NewDWQMIParam(bits[0], bits[1], weight), nil
		default:
			return nil, &ArityError{Name: name, Want: 2, Got: len(bits)}
		}
	}

	if len(bits) != spec.Bits {
		return nil, &ArityError{Name: name, Want: spec.Bits, Got: len(bits)}
	}
	full := make([]Parameter, spec.Params)
	for i := range full {
		if i < len(params) {
			full[i] = params[i]
		} else {
			full[i] = Double(0)
		}
	}
	return NewGate(name, bits, full...), nil
}

// CreateComposite builds an empty composite with the given variables and tag.
func (p *Provider) CreateComposite(name string, variables []string, tag string) *Composite {
	c := NewComposite(name, variables...)
	c.SetTag(tag)
	return c
}
