package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Instruction is a node in a program tree.
//
// This is a sealed interface: the unexported methods keep implementations
// inside this package (or types that embed one of its variants, such as an
// annealing program embedding *Composite).
type Instruction interface {
	instruction()
	asComposite() *Composite

	// Name is the gate or composite name.
	Name() string

	// Bits returns the qubits acted on. For a composite this is the sorted
	// set of qubits touched anywhere in its subtree.
	Bits() []int

	// Parameters returns a copy of the instruction parameters.
	Parameters() []Parameter

	IsComposite() bool
	IsEnabled() bool
	Enable()
	Disable()

	// Clone returns a deep copy. Clones never share children.
	Clone() Instruction

	String() string
}

// AsComposite returns the composite behind inst, or nil when inst is a leaf.
func AsComposite(inst Instruction) *Composite {
	if inst == nil {
		return nil
	}
	return inst.asComposite()
}

// Gate is an elementary gate-model instruction. Its qubit count is fixed
// at construction.
type Gate struct {
	name     string
	bits     []int
	params   []Parameter
	disabled bool
}

var _ Instruction = (*Gate)(nil)

// NewGate creates an enabled gate. Arity is not checked here; use
// Provider.CreateInstruction for table-checked construction.
func NewGate(name string, bits []int, params ...Parameter) *Gate {
	return &Gate{
		name:   name,
		bits:   slices.Clone(bits),
		params: slices.Clone(params),
	}
}

func (g *Gate) instruction()            {}
func (g *Gate) asComposite() *Composite { return nil }

func (g *Gate) Name() string            { return g.name }
func (g *Gate) Bits() []int             { return slices.Clone(g.bits) }
func (g *Gate) Parameters() []Parameter { return slices.Clone(g.params) }
func (g *Gate) IsComposite() bool       { return false }
func (g *Gate) IsEnabled() bool         { return !g.disabled }
func (g *Gate) Enable()                 { g.disabled = false }
func (g *Gate) Disable()                { g.disabled = true }

// NParameters returns the number of parameters.
func (g *Gate) NParameters() int { return len(g.params) }

// Parameter returns the parameter at idx.
func (g *Gate) Parameter(idx int) (Parameter, error) {
	if idx < 0 || idx >= len(g.params) {
		return nil, &IndexError{Composite: g.name, Index: idx, Len: len(g.params)}
	}
	return g.params[idx], nil
}

// SetParameter replaces the parameter at idx.
func (g *Gate) SetParameter(idx int, p Parameter) error {
	if idx < 0 || idx >= len(g.params) {
		return &IndexError{Composite: g.name, Index: idx, Len: len(g.params)}
	}
	g.params[idx] = p
	return nil
}

// SetBits replaces the qubits. The count must not change.
func (g *Gate) SetBits(bits []int) error {
	if len(bits) != len(g.bits) {
		return &ArityError{Name: g.name, Want: len(g.bits), Got: len(bits)}
	}
	copy(g.bits, bits)
	return nil
}

func (g *Gate) Clone() Instruction {
	c := NewGate(g.name, g.bits, g.params...)
	c.disabled = g.disabled
	return c
}

// String renders "name bits... params...", e.g. "Rx 0 0.5".
func (g *Gate) String() string {
	parts := make([]string, 0, 1+len(g.bits)+len(g.params))
	parts = append(parts, g.name)
	for _, b := range g.bits {
		parts = append(parts, fmt.Sprint(b))
	}
	for _, p := range g.params {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, " ")
}
