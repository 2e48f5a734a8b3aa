package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Options carries composite-kind-specific expansion settings, e.g.
// {"nv": 4, "nh": 2} for an RBM generator.
type Options map[string]any

// Int returns the integer option at key.
func (o Options) Int(key string) (int, error) {
	v, ok := o[key]
	if !ok {
		return 0, fmt.Errorf("option %q: missing", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("option %q: %v is not an integer", key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("option %q: expected integer, got %T", key, v)
	}
}

// Expander generates the instruction set of a composite from options.
type Expander interface {
	Expand(c *Composite, opts Options) error
}

// Composite is an ordered, mutable container of instructions. Composites
// own their children and may nest.
type Composite struct {
	name      string
	tag       string
	variables []string
	children  []Instruction
	disabled  bool
	expander  Expander
}

var _ Instruction = (*Composite)(nil)

// NewComposite creates an empty composite with the given variables.
func NewComposite(name string, variables ...string) *Composite {
	return &Composite{
		name:      name,
		variables: slices.Clone(variables),
	}
}

func (c *Composite) instruction()            {}
func (c *Composite) asComposite() *Composite { return c }

func (c *Composite) Name() string      { return c.name }
func (c *Composite) IsComposite() bool { return true }
func (c *Composite) IsEnabled() bool   { return !c.disabled }
func (c *Composite) Enable()           { c.disabled = false }
func (c *Composite) Disable()          { c.disabled = true }

// Tag returns the composite kind tag, e.g. "ising" for annealing programs.
func (c *Composite) Tag() string { return c.tag }

// SetTag sets the kind tag.
func (c *Composite) SetTag(tag string) { c.tag = tag }

// SetExpander installs the generator invoked by Expand.
func (c *Composite) SetExpander(e Expander) { c.expander = e }

// Bits returns the sorted set of qubits used by any node in the subtree.
func (c *Composite) Bits() []int {
	seen := make(map[int]struct{})
	for inst := range All(c) {
		if inst.IsComposite() {
			continue
		}
		for _, b := range inst.Bits() {
			seen[b] = struct{}{}
		}
	}
	bits := make([]int, 0, len(seen))
	for b := range seen {
		bits = append(bits, b)
	}
	slices.Sort(bits)
	return bits
}

// NBits returns the number of distinct qubits in the subtree.
func (c *Composite) NBits() int { return len(c.Bits()) }

// restrictedTags maps a composite tag to the kind reported when MapBits,
// Depth, Parameter or SetParameter is called on a composite carrying it.
var restrictedTags = map[string]string{}

// RestrictTag makes MapBits, Depth, Parameter and SetParameter panic with
// *UnsupportedOperationError on every composite tagged tag, however it is
// reached. It is meant to be called from package init.
func RestrictTag(tag, kind string) { restrictedTags[tag] = kind }

func (c *Composite) requireSupported(op string) {
	if kind, ok := restrictedTags[c.tag]; ok {
		Unsupported(op, kind)
	}
}

// Parameters returns the variables as symbolic parameters.
func (c *Composite) Parameters() []Parameter {
	params := make([]Parameter, len(c.variables))
	for i, v := range c.variables {
		params[i] = Var(v)
	}
	return params
}

// Parameter returns variable idx as a symbolic parameter.
func (c *Composite) Parameter(idx int) (Parameter, error) {
	c.requireSupported("Parameter")
	if idx < 0 || idx >= len(c.variables) {
		return nil, &IndexError{Composite: c.name, Index: idx, Len: len(c.variables)}
	}
	return Var(c.variables[idx]), nil
}

// SetParameter renames variable idx. Only Var parameters are accepted.
func (c *Composite) SetParameter(idx int, p Parameter) error {
	c.requireSupported("SetParameter")
	if idx < 0 || idx >= len(c.variables) {
		return &IndexError{Composite: c.name, Index: idx, Len: len(c.variables)}
	}
	v, ok := p.(Var)
	if !ok {
		return fmt.Errorf("composite %q: parameter %d must be a variable, got %T", c.name, idx, p)
	}
	c.variables[idx] = string(v)
	return nil
}

// NInstructions returns the number of direct children.
func (c *Composite) NInstructions() int { return len(c.children) }

// Instructions returns the direct children. The slice is a copy; the
// instructions are shared with the composite.
func (c *Composite) Instructions() []Instruction { return slices.Clone(c.children) }

// AddInstruction appends inst. Adding the same instruction object twice
// fails with a DuplicateInstructionError and leaves the composite unchanged.
func (c *Composite) AddInstruction(inst Instruction) error {
	if err := c.checkDuplicate(inst); err != nil {
		return err
	}
	c.children = append(c.children, inst)
	return nil
}

// AddInstructions appends each instruction in order, stopping at the first
// failure.
func (c *Composite) AddInstructions(insts ...Instruction) error {
	for _, inst := range insts {
		if err := c.AddInstruction(inst); err != nil {
			return err
		}
	}
	return nil
}

// Instruction returns child idx.
func (c *Composite) Instruction(idx int) (Instruction, error) {
	if err := c.checkIndex(idx); err != nil {
		return nil, err
	}
	return c.children[idx], nil
}

// RemoveInstruction deletes child idx.
func (c *Composite) RemoveInstruction(idx int) error {
	if err := c.checkIndex(idx); err != nil {
		return err
	}
	c.children = slices.Delete(c.children, idx, idx+1)
	return nil
}

// ReplaceInstruction swaps child idx for inst.
func (c *Composite) ReplaceInstruction(idx int, inst Instruction) error {
	if err := c.checkIndex(idx); err != nil {
		return err
	}
	if err := c.checkDuplicate(inst); err != nil {
		return err
	}
	c.children[idx] = inst
	return nil
}

// InsertInstruction places inst before child idx. idx must name an existing
// child; use AddInstruction to append.
func (c *Composite) InsertInstruction(idx int, inst Instruction) error {
	if err := c.checkIndex(idx); err != nil {
		return err
	}
	if err := c.checkDuplicate(inst); err != nil {
		return err
	}
	c.children = slices.Insert(c.children, idx, inst)
	return nil
}

// RemoveDisabled drops disabled children throughout the subtree.
func (c *Composite) RemoveDisabled() {
	kept := c.children[:0]
	for _, child := range c.children {
		if !child.IsEnabled() {
			continue
		}
		if sub := AsComposite(child); sub != nil {
			sub.RemoveDisabled()
		}
		kept = append(kept, child)
	}
	clear(c.children[len(kept):])
	c.children = kept
}

// Clear removes every child.
func (c *Composite) Clear() { c.children = nil }

func (c *Composite) checkIndex(idx int) error {
	if idx < 0 || idx >= len(c.children) {
		return &IndexError{Composite: c.name, Index: idx, Len: len(c.children)}
	}
	return nil
}

func (c *Composite) checkDuplicate(inst Instruction) error {
	for _, child := range c.children {
		if child == inst {
			return &DuplicateInstructionError{Composite: c.name, Instruction: inst.Name()}
		}
	}
	return nil
}

// Variables returns a copy of the variable list.
func (c *Composite) Variables() []string { return slices.Clone(c.variables) }

// AddVariable appends name. Duplicates are not rejected.
func (c *Composite) AddVariable(name string) { c.variables = append(c.variables, name) }

// AddVariables appends names in order.
func (c *Composite) AddVariables(names ...string) { c.variables = append(c.variables, names...) }

// NVariables returns the number of variables.
func (c *Composite) NVariables() int { return len(c.variables) }

// ReplaceVariable renames every occurrence of old to replacement.
func (c *Composite) ReplaceVariable(old, replacement string) {
	for i, v := range c.variables {
		if v == old {
			c.variables[i] = replacement
		}
	}
}

// Depth returns the circuit depth: the number of layers when each enabled
// elementary instruction is scheduled after every earlier instruction
// sharing a qubit with it.
func (c *Composite) Depth() int {
	c.requireSupported("Depth")
	layer := make(map[int]int)
	depth := 0
	for inst := range Elementary(c) {
		bits := inst.Bits()
		d := 0
		for _, b := range bits {
			d = max(d, layer[b])
		}
		d++
		for _, b := range bits {
			layer[b] = d
		}
		depth = max(depth, d)
	}
	return depth
}

// MapBits rewrites every qubit q in the subtree to m[q]. Every qubit is
// checked against m first, so on error the tree is unchanged.
func (c *Composite) MapBits(m []int) error {
	c.requireSupported("MapBits")
	var leaves []Instruction
	for inst := range All(c) {
		if inst.IsComposite() {
			continue
		}
		switch inst.(type) {
		case *Gate, *DWQMI:
		default:
			return fmt.Errorf("map bits: %w: %T", ErrUnknownInstruction, inst)
		}
		for _, b := range inst.Bits() {
			if b < 0 || b >= len(m) {
				return fmt.Errorf("map bits: qubit %d: %w", b, &IndexError{Composite: c.name, Index: b, Len: len(m)})
			}
		}
		leaves = append(leaves, inst)
	}

	for _, inst := range leaves {
		bits := inst.Bits()
		for i, b := range bits {
			bits[i] = m[b]
		}
		if err := setBits(inst, bits); err != nil {
			return err
		}
	}
	return nil
}

func setBits(inst Instruction, bits []int) error {
	switch v := inst.(type) {
	case *Gate:
		return v.SetBits(bits)
	case *DWQMI:
		return v.SetBits(bits)
	default:
		return fmt.Errorf("map bits: %w: %T", ErrUnknownInstruction, inst)
	}
}

// Bind returns a deep copy in which every Var parameter of an elementary
// instruction is replaced by the Double at the matching variable position.
// The receiver is not modified.
func (c *Composite) Bind(values []float64) (*Composite, error) {
	if len(values) != len(c.variables) {
		return nil, fmt.Errorf("bind %q: %w: have %d variables, got %d values",
			c.name, ErrParameterCount, len(c.variables), len(values))
	}
	index := make(map[string]int, len(c.variables))
	for i, v := range c.variables {
		if _, ok := index[v]; !ok {
			index[v] = i
		}
	}

	bound := c.cloneComposite()
	for inst := range All(bound) {
		if err := bindInstruction(inst, index, values); err != nil {
			return nil, fmt.Errorf("bind %q: %w", c.name, err)
		}
	}
	return bound, nil
}

func bindInstruction(inst Instruction, index map[string]int, values []float64) error {
	switch v := inst.(type) {
	case *Gate:
		for i, p := range v.params {
			name, ok := p.(Var)
			if !ok {
				continue
			}
			pos, ok := index[string(name)]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
			}
			v.params[i] = Double(values[pos])
		}
	case *DWQMI:
		if name, ok := v.weight.(Var); ok {
			pos, ok := index[string(name)]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
			}
			v.weight = Double(values[pos])
		}
	}
	return nil
}

// Expand runs the installed expander. Composites without one expand to
// themselves.
func (c *Composite) Expand(opts Options) error {
	if c.expander == nil {
		return nil
	}
	return c.expander.Expand(c, opts)
}

// Clone returns a deep copy.
func (c *Composite) Clone() Instruction { return c.cloneComposite() }

// CloneComposite is Clone with the concrete type preserved.
func (c *Composite) CloneComposite() *Composite { return c.cloneComposite() }

func (c *Composite) cloneComposite() *Composite {
	out := &Composite{
		name:      c.name,
		tag:       c.tag,
		variables: slices.Clone(c.variables),
		disabled:  c.disabled,
		expander:  c.expander,
		children:  make([]Instruction, len(c.children)),
	}
	for i, child := range c.children {
		out.children[i] = child.Clone()
	}
	return out
}

// String renders one "<child>;\n" line per elementary child. A nested
// composite contributes its own lines. Disabled children are included.
func (c *Composite) String() string {
	var sb strings.Builder
	for _, child := range c.children {
		sb.WriteString(child.String())
		if !child.IsComposite() {
			sb.WriteString(";\n")
		}
	}
	return sb.String()
}
